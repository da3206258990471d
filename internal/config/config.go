// Package config handles TOML-based configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all service configuration.
type Config struct {
	Addr                   string `toml:"addr"`
	MediaDir               string `toml:"media_dir"`
	TrendingWindowHours    int    `toml:"trending_window_hours"`
	UpstreamTimeoutSeconds int    `toml:"upstream_timeout_seconds"`
	// UpstreamProxy routes all upstream traffic through a proxy URL. Empty
	// uses the environment proxy settings.
	UpstreamProxy string `toml:"upstream_proxy"`
	// LenientCipher re-enables the best-effort signature shim for ciphered
	// formats instead of rejecting them. Off by default: shim URLs are
	// usually non-functional.
	LenientCipher bool `toml:"lenient_cipher"`
	Debug         bool `toml:"debug"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Addr:                   ":8000",
		MediaDir:               "media",
		TrendingWindowHours:    24,
		UpstreamTimeoutSeconds: 10,
		LenientCipher:          false,
		Debug:                  false,
	}
}

// Load reads the config file at path and merges it over defaults. An empty
// path or missing file returns defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks config values are within acceptable bounds.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr cannot be empty")
	}
	if c.TrendingWindowHours <= 0 {
		return fmt.Errorf("trending_window_hours must be positive, got %d", c.TrendingWindowHours)
	}
	if c.UpstreamTimeoutSeconds <= 0 {
		return fmt.Errorf("upstream_timeout_seconds must be positive, got %d", c.UpstreamTimeoutSeconds)
	}
	return nil
}

// TrendingWindow returns the cache validity window as a duration.
func (c *Config) TrendingWindow() time.Duration {
	return time.Duration(c.TrendingWindowHours) * time.Hour
}

// UpstreamTimeout returns the per-call upstream timeout as a duration.
func (c *Config) UpstreamTimeout() time.Duration {
	return time.Duration(c.UpstreamTimeoutSeconds) * time.Second
}
