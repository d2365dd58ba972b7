package config

import (
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/dmitrijs2005/here/internal/common"
	"github.com/dmitrijs2005/here/internal/flagx"
	"github.com/dmitrijs2005/here/internal/logging"
)

// DefaultPath is the config file used when -c is not given.
const DefaultPath = "client.conf.json"

// Config holds runtime settings for the client agent.
//
// Fields:
//   - Account: account name announced to the registry.
//   - Passwd: plain-text password, nil for an unprotected record.
//   - APIURL: registry base URL including the API prefix.
//   - RetryDelay: fixed delay between failed attempts.
//   - RequestTimeout: bound on a single API call.
type Config struct {
	Account        string
	Passwd         *string
	APIURL         string
	RetryDelay     time.Duration
	RequestTimeout time.Duration
	LogFormat      string
	LogLevel       string
}

// LoadDefaults populates c with the built-in defaults.
func (c *Config) LoadDefaults() {
	c.RetryDelay = 1 * time.Second
	c.RequestTimeout = 10 * time.Second
	c.LogFormat = logging.FormatConsole
	c.LogLevel = "info"
}

// LoadConfig builds a Config from args (without the program name). When the
// config file is missing the user is prompted through in and out. Every
// failure wraps common.ErrConfig.
func LoadConfig(args []string, in io.Reader, out io.Writer) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, flagx.ConfigPath(args, DefaultPath), NewPrompter(in, out)); err != nil {
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

// Validate checks that the agent can run with c.
func (c *Config) Validate() error {
	if c.Account == "" {
		return fmt.Errorf("account is empty")
	}
	if c.APIURL == "" {
		return fmt.Errorf("api url is empty")
	}
	u, err := url.Parse(c.APIURL)
	if err != nil {
		return fmt.Errorf("api url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api url %q: scheme must be http or https", c.APIURL)
	}
	if c.RetryDelay <= 0 {
		return fmt.Errorf("retry delay must be positive")
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
