package config

import "time"

// AppArrayConfig is the top-level configuration structure.
type AppArrayConfig struct {
	Backend   BackendConfig   `yaml:"backend"`
	Execution ExecutionConfig `yaml:"execution"`
	Cache     CacheConfig     `yaml:"cache"`
	Topology  TopologyConfig  `yaml:"topology"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// BackendConfig describes the synchronization backend.
type BackendConfig struct {
	Host string `yaml:"host,omitempty"`
	// ReconnectInterval of zero disables reconnecting after a failure.
	ReconnectInterval time.Duration `yaml:"reconnectInterval,omitempty"`
}

// ExecutionConfig tunes local command runs.
type ExecutionConfig struct {
	IdleTimeout time.Duration     `yaml:"idleTimeout,omitempty"`
	QueueSize   int               `yaml:"queueSize,omitempty"`
	Shell       string            `yaml:"shell,omitempty"`
	Environment EnvironmentConfig `yaml:"environment"`
}

// EnvironmentConfig is the environment every run executes in.
type EnvironmentConfig struct {
	ID      string            `yaml:"id,omitempty"`
	Context map[string]string `yaml:"context,omitempty"`
}

// CacheConfig selects the persistence driver.
type CacheConfig struct {
	Driver string `yaml:"driver,omitempty"`
	// Path is the data directory; empty means <config dir>/data.
	Path string `yaml:"path,omitempty"`
}

// TopologyConfig names a topology file to watch.
type TopologyConfig struct {
	File     string        `yaml:"file,omitempty"`
	Debounce time.Duration `yaml:"debounce,omitempty"`
}

// MetricsConfig enables the metrics endpoint when Addr is set.
type MetricsConfig struct {
	Addr string `yaml:"addr,omitempty"`
}
