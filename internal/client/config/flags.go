package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/here/internal/flagx"
)

// parseFlags overrides cfg with the flags listed in the package doc. Only
// those flags are taken from args, see flagx.FilterArgs.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-u", "-p", "-a", "-r", "-t", "-log", "-v"})

	fs := flag.NewFlagSet("client", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.Account, "u", cfg.Account, "account")
	fs.Func("p", "password (empty for none)", func(s string) error {
		if s == "" {
			cfg.Passwd = nil
			return nil
		}
		cfg.Passwd = &s
		return nil
	})
	fs.StringVar(&cfg.APIURL, "a", cfg.APIURL, "API base URL")
	retry := fs.Float64("r", cfg.RetryDelay.Seconds(), "retry delay (in seconds)")
	timeout := fs.Float64("t", cfg.RequestTimeout.Seconds(), "request timeout (in seconds)")
	fs.StringVar(&cfg.LogFormat, "log", cfg.LogFormat, "log format")
	fs.StringVar(&cfg.LogLevel, "v", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg.RetryDelay = time.Duration(*retry * float64(time.Second))
	cfg.RequestTimeout = time.Duration(*timeout * float64(time.Second))
	return nil
}
