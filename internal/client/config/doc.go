// Package config loads runtime configuration for the here client agent.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. JSON file selected with -c or -config, "client.conf.json" when
//     neither is given. A missing file is created interactively: the user is
//     asked for the account, the password (read without echo) and the API
//     URL, and the answers are written back. -c= skips the file entirely.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-u string   account name
//	-p string   password; empty means no password
//	-a string   API base URL (e.g. "http://localhost:8080/here")
//	-r float    retry delay (seconds)
//	-t float    request timeout (seconds)
//	-log string log format: console or json
//	-v string   log level
//
// A value that starts with '-' must use the -flag=value form, for example
// -p=-secret. In the separated form "-p -secret" the value is read as the
// next flag and parsing fails.
//
// # JSON schema
//
// Durations use timex.Duration, so they can be strings like "1s" or integer
// nanoseconds. Comments are allowed:
//
//	{
//	  "account": "alice",
//	  "passwd": null,
//	  "api_url": "http://localhost:8080/here",
//	  "retry_delay": "1s"
//	}
//
// The password is kept in plain text in the file; only its digest ever
// leaves the process.
package config
