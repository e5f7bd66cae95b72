// Package config loads the client runtime settings: defaults first, then a
// JSON file (if -c/-config points at one), then command-line flags. Later
// sources take precedence.
package config

import "time"

// Config holds runtime settings for the shopping-list client.
//
// Fields:
//   - ServerAddr: base URL of the backend HTTP API.
//   - DatabaseDSN: path of the local SQLite cache; empty disables it.
//   - SyncInterval: how often a sync cycle is attempted while online.
//   - OnlineCheckInterval: how often the client probes server reachability.
//   - LogLevel: debug|info|warn|error.
type Config struct {
	ServerAddr          string
	DatabaseDSN         string
	SyncInterval        time.Duration
	OnlineCheckInterval time.Duration
	LogLevel            string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerAddr = "http://127.0.0.1:8080"
	c.DatabaseDSN = "shoplist.db"
	c.SyncInterval = 30 * time.Second
	c.OnlineCheckInterval = 10 * time.Second
	c.LogLevel = "info"
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from JSON (if present) and command-line flags (if present).
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
