// Package config handles configuration for the registry server: defaults,
// an optional JSON file, and command-line flags, applied in that order.
package config

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/here/internal/common"
	"github.com/dmitrijs2005/here/internal/flagx"
	"github.com/dmitrijs2005/here/internal/logging"
	"github.com/dmitrijs2005/here/internal/server/reaper"
	"github.com/dmitrijs2005/here/internal/server/storage"
)

// DefaultPath is the config file used when -c is not given.
const DefaultPath = "server.conf.json"

// Config holds runtime settings for the registry server.
//
// Fields:
//   - Bind: listen address of the HTTP API.
//   - StorePath / StoreBackend: lease store file and its format.
//   - DefaultLifetime: lifetime in seconds given to every new lease.
//   - ReaperRelax / ReaperIdle / ReaperErrorBackoff: reaper pacing.
//   - Metrics: serve Prometheus metrics on /metrics.
//   - CORSOrigins: origins allowed to call the API from a browser.
type Config struct {
	Bind               string
	StorePath          string
	StoreBackend       string
	DefaultLifetime    int64
	ReaperRelax        time.Duration
	ReaperIdle         time.Duration
	ReaperErrorBackoff time.Duration
	LogFormat          string
	LogLevel           string
	Metrics            bool
	CORSOrigins        []string
}

// LoadDefaults populates Config with the built-in defaults.
func (c *Config) LoadDefaults() {
	c.Bind = "127.0.0.1:8080"
	c.StorePath = "./client-info.db"
	c.StoreBackend = string(storage.BackendJSONFile)
	c.DefaultLifetime = common.DefaultLifetimeSeconds
	c.ReaperRelax = reaper.DefaultRelax
	c.ReaperIdle = reaper.DefaultIdle
	c.ReaperErrorBackoff = reaper.DefaultErrorBackoff
	c.LogFormat = logging.FormatJSON
	c.LogLevel = "info"
	c.Metrics = false
	c.CORSOrigins = nil
}

// LoadConfig builds a Config from args (os.Args[1:] without the program
// name). A missing config file is created with the defaults. Every failure
// wraps common.ErrConfig.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, flagx.ConfigPath(args, DefaultPath)); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrConfig, err)
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrConfig, err)
	}
	return cfg, nil
}

// Validate checks values that cannot be fixed up later.
func (c *Config) Validate() error {
	if c.Bind == "" {
		return fmt.Errorf("bind address is empty")
	}
	if c.StorePath == "" {
		return fmt.Errorf("store path is empty")
	}
	if _, err := storage.ParseBackend(c.StoreBackend); err != nil {
		return err
	}
	if c.DefaultLifetime <= 0 {
		return fmt.Errorf("default lifetime must be positive, got %d", c.DefaultLifetime)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case logging.FormatJSON, logging.FormatConsole:
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	return nil
}

// StoreOptions returns the storage options described by c.
func (c *Config) StoreOptions() storage.Options {
	return storage.Options{Backend: storage.Backend(c.StoreBackend), Path: c.StorePath}
}

// ReaperConfig returns the reaper settings described by c.
func (c *Config) ReaperConfig() reaper.Config {
	return reaper.Config{
		DefaultLifetime: c.DefaultLifetime,
		Relax:           c.ReaperRelax,
		Idle:            c.ReaperIdle,
		ErrorBackoff:    c.ReaperErrorBackoff,
	}
}
