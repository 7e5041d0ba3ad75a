package app

import (
	"io"
	"time"

	"apparray/internal/config"
)

// Config holds the application configuration
type Config struct {
	Debug  bool
	Silent bool

	// ConfigPath is the configuration directory; empty means ~/.config/apparray.
	ConfigPath string

	// Flag overrides applied on top of the loaded configuration.
	Host         string
	TopologyFile string
	MetricsAddr  string
	CacheDriver  string
	IdleTimeout  time.Duration

	// Context is merged over the configured environment context.
	Context map[string]string

	// Output receives streamed command output; nil discards it.
	Output io.Writer

	// AppArrayConfig is filled by NewApplication unless preset.
	AppArrayConfig *config.AppArrayConfig
}

// NewConfig creates a new application configuration
func NewConfig(debug, silent bool, configPath string) *Config {
	return &Config{
		Debug:      debug,
		Silent:     silent,
		ConfigPath: configPath,
	}
}

func (c *Config) applyOverrides(cfg *config.AppArrayConfig) {
	if c.Host != "" {
		cfg.Backend.Host = c.Host
	}
	if c.TopologyFile != "" {
		cfg.Topology.File = c.TopologyFile
	}
	if c.MetricsAddr != "" {
		cfg.Metrics.Addr = c.MetricsAddr
	}
	if c.IdleTimeout > 0 {
		cfg.Execution.IdleTimeout = c.IdleTimeout
	}
	if c.CacheDriver != "" {
		cfg.Cache.Driver = c.CacheDriver
	}
}
