package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/here/internal/flagx"
)

// parseFlags overrides cfg with command-line flags.
//
// Supported flags:
//
//	-a string   HTTP listen address (e.g. "127.0.0.1:8080")
//	-f string   lease store file
//	-b string   store backend: jsonfile or sqlite
//	-l int      default lease lifetime, seconds
//	-r int      reaper relax delay, milliseconds
//	-log string log format: json or console
//	-v string   log level
//	-m          serve Prometheus metrics
//
// Args are filtered with flagx.FilterArgs first so flags owned by other
// layers (-c) do not trip the parser.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-f", "-b", "-l", "-r", "-log", "-v", "-m"})

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.Bind, "a", cfg.Bind, "address and port to run server")
	fs.StringVar(&cfg.StorePath, "f", cfg.StorePath, "lease store file")
	fs.StringVar(&cfg.StoreBackend, "b", cfg.StoreBackend, "lease store backend")
	fs.Int64Var(&cfg.DefaultLifetime, "l", cfg.DefaultLifetime, "default lease lifetime (in seconds)")
	relax := fs.Int64("r", cfg.ReaperRelax.Milliseconds(), "reaper relax delay (in milliseconds)")
	fs.StringVar(&cfg.LogFormat, "log", cfg.LogFormat, "log format")
	fs.StringVar(&cfg.LogLevel, "v", cfg.LogLevel, "log level")
	fs.BoolVar(&cfg.Metrics, "m", cfg.Metrics, "serve metrics")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg.ReaperRelax = time.Duration(*relax) * time.Millisecond
	return nil
}
