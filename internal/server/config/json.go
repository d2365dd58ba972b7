package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"

	"github.com/dmitrijs2005/here/internal/filex"
	"github.com/dmitrijs2005/here/internal/timex"
)

// JsonConfig is the on-disk form of Config. Comments and trailing commas are
// allowed in the file. Absent keys keep the value from the previous layer.
type JsonConfig struct {
	Bind               string          `json:"bind,omitempty"`
	StorePath          string          `json:"store_path,omitempty"`
	StoreBackend       string          `json:"store_backend,omitempty"`
	DefaultLifetime    int64           `json:"default_lifetime,omitempty"`
	ReaperRelax        *timex.Duration `json:"reaper_relax,omitempty"`
	ReaperIdle         *timex.Duration `json:"reaper_idle,omitempty"`
	ReaperErrorBackoff *timex.Duration `json:"reaper_error_backoff,omitempty"`
	LogFormat          string          `json:"log_format,omitempty"`
	LogLevel           string          `json:"log_level,omitempty"`
	Metrics            *bool           `json:"metrics,omitempty"`
	CORSOrigins        []string        `json:"cors_origins,omitempty"`
}

func toJsonConfig(c *Config) JsonConfig {
	relax, idle, backoff := timex.D(c.ReaperRelax), timex.D(c.ReaperIdle), timex.D(c.ReaperErrorBackoff)
	metrics := c.Metrics
	return JsonConfig{
		Bind:               c.Bind,
		StorePath:          c.StorePath,
		StoreBackend:       c.StoreBackend,
		DefaultLifetime:    c.DefaultLifetime,
		ReaperRelax:        &relax,
		ReaperIdle:         &idle,
		ReaperErrorBackoff: &backoff,
		LogFormat:          c.LogFormat,
		LogLevel:           c.LogLevel,
		Metrics:            &metrics,
		CORSOrigins:        c.CORSOrigins,
	}
}

// parseJson overlays cfg with the file at path. An empty path skips the file
// layer; a path that does not exist is created from cfg as it stands.
func parseJson(cfg *Config, path string) error {
	if path == "" {
		return nil
	}

	ok, err := filex.Exists(path)
	if err != nil {
		return err
	}
	if !ok {
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

	if jc.Bind != "" {
		cfg.Bind = jc.Bind
	}
	if jc.StorePath != "" {
		cfg.StorePath = jc.StorePath
	}
	if jc.StoreBackend != "" {
		cfg.StoreBackend = jc.StoreBackend
	}
	if jc.DefaultLifetime != 0 {
		cfg.DefaultLifetime = jc.DefaultLifetime
	}
	if jc.ReaperRelax != nil {
		cfg.ReaperRelax = jc.ReaperRelax.Duration
	}
	if jc.ReaperIdle != nil {
		cfg.ReaperIdle = jc.ReaperIdle.Duration
	}
	if jc.ReaperErrorBackoff != nil {
		cfg.ReaperErrorBackoff = jc.ReaperErrorBackoff.Duration
	}
	if jc.LogFormat != "" {
		cfg.LogFormat = jc.LogFormat
	}
	if jc.LogLevel != "" {
		cfg.LogLevel = jc.LogLevel
	}
	if jc.Metrics != nil {
		cfg.Metrics = *jc.Metrics
	}
	if jc.CORSOrigins != nil {
		cfg.CORSOrigins = jc.CORSOrigins
	}
	return nil
}

func writeJson(cfg *Config, path string) error {
	data, err := json.MarshalIndent(toJsonConfig(cfg), "", "  ")
	if err != nil {
		return err
	}
	if err := filex.EnsureParentDir(path); err != nil {
		return err
	}
	return filex.WriteFileAtomic(path, append(data, '\n'), 0o600)
}
