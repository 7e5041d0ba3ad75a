package config

import "time"

const (
	DefaultHost        = "http://localhost:9090"
	DefaultIdleTimeout = 5 * time.Minute
	DefaultQueueSize   = 64
	DefaultShell       = "/bin/sh"
	DefaultDriver      = "file"
	DefaultEnvironment = "thisEnvironment"
	DefaultDebounce    = 500 * time.Millisecond
)

// GetDefaultConfig returns the configuration used when no file is present.
func GetDefaultConfig() AppArrayConfig {
	return AppArrayConfig{
		Backend: BackendConfig{
			Host: DefaultHost,
		},
		Execution: ExecutionConfig{
			IdleTimeout: DefaultIdleTimeout,
			QueueSize:   DefaultQueueSize,
			Shell:       DefaultShell,
			Environment: EnvironmentConfig{ID: DefaultEnvironment},
		},
		Cache: CacheConfig{
			Driver: DefaultDriver,
		},
		Topology: TopologyConfig{
			Debounce: DefaultDebounce,
		},
	}
}
