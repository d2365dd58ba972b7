package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"

	"github.com/dmitrijs2005/here/internal/filex"
	"github.com/dmitrijs2005/here/internal/timex"
)

// JsonConfig is the on-disk form of Config. Absent keys keep the value from
// the previous layer; "passwd": null means no password.
type JsonConfig struct {
	Account        string          `json:"account"`
	Passwd         *string         `json:"passwd"`
	APIURL         string          `json:"api_url"`
	RetryDelay     *timex.Duration `json:"retry_delay,omitempty"`
	RequestTimeout *timex.Duration `json:"request_timeout,omitempty"`
	LogFormat      string          `json:"log_format,omitempty"`
	LogLevel       string          `json:"log_level,omitempty"`
}

// parseJson overlays cfg with the file at path. An empty path skips the file
// layer. When the file does not exist p is asked for the identity fields and
// the result is written to path.
func parseJson(cfg *Config, path string, p *Prompter) error {
	if path == "" {
		return nil
	}

	ok, err := filex.Exists(path)
	if err != nil {
		return err
	}
	if !ok {
		if err := p.Ask(cfg); err != nil {
			return err
		}
		return writeJson(cfg, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var jc JsonConfig
	if err := json.Unmarshal(jsonc.ToJSON(data), &jc); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	if jc.Account != "" {
		cfg.Account = jc.Account
	}
	if jc.Passwd != nil && *jc.Passwd != "" {
		cfg.Passwd = jc.Passwd
	}
	if jc.APIURL != "" {
		cfg.APIURL = jc.APIURL
	}
	if jc.RetryDelay != nil {
		cfg.RetryDelay = jc.RetryDelay.Duration
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.LogFormat != "" {
		cfg.LogFormat = jc.LogFormat
	}
	if jc.LogLevel != "" {
		cfg.LogLevel = jc.LogLevel
	}
	return nil
}

func writeJson(cfg *Config, path string) error {
	retry, timeout := timex.D(cfg.RetryDelay), timex.D(cfg.RequestTimeout)
	data, err := json.MarshalIndent(JsonConfig{
		Account:        cfg.Account,
		Passwd:         cfg.Passwd,
		APIURL:         cfg.APIURL,
		RetryDelay:     &retry,
		RequestTimeout: &timeout,
		LogFormat:      cfg.LogFormat,
		LogLevel:       cfg.LogLevel,
	}, "", "  ")
	if err != nil {
		return err
	}
	if err := filex.EnsureParentDir(path); err != nil {
		return err
	}
	return filex.WriteFileAtomic(path, append(data, '\n'), 0o600)
}
