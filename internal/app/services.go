package app

import (
	"fmt"
	"io"
	"sync"

	"apparray/internal/cache"
	"apparray/internal/component"
	"apparray/internal/config"
	"apparray/internal/executor"
	"apparray/internal/metrics"
	"apparray/internal/model"
	"apparray/internal/synchronizer"
	"apparray/internal/template"
	"apparray/pkg/logging"
)

// Services holds the initialized services of the application.
type Services struct {
	Cache    *cache.Manager
	Registry *component.Registry
	Sync     *synchronizer.Service
	Metrics  *metrics.Recorder
}

// InitializeServices builds the services from a resolved configuration.
func InitializeServices(cfg *Config) (*Services, error) {
	appCfg := cfg.AppArrayConfig
	if appCfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}

	store, err := cache.Open(appCfg.Cache.Driver, appCfg.Cache.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	cacheManager := cache.NewManager(store, appCfg.Backend.Host)
	info := cacheManager.Load()
	topology := cacheManager.Topology()
	logging.Info("Bootstrap", "Cache loaded (host %s, keepModel %t, %d cached components)",
		info.Host, info.KeepModel, len(topology.Components))

	recorder := metrics.New()
	shell := appCfg.Execution.Shell
	componentCfg := component.Config{
		Backend: func(string) executor.Backend {
			return executor.NewShellBackend(shell)
		},
		Options: executor.Options{
			IdleTimeout: appCfg.Execution.IdleTimeout,
			QueueSize:   appCfg.Execution.QueueSize,
		},
		Environment: model.Environment{
			ID:      appCfg.Execution.Environment.ID,
			Context: template.MergeContexts(appCfg.Execution.Environment.Context, cfg.Context),
		},
		Output:  newOutputWriter(cfg.Output),
		Metrics: recorder,
	}
	registry := component.NewRegistry(componentCfg, topology)

	syncService := synchronizer.NewService(synchronizer.NewWebsocketTransport(), registry, synchronizer.Options{
		Address:           info.Host,
		ReconnectInterval: appCfg.Backend.ReconnectInterval,
		Metrics:           recorder,
	})

	return &Services{
		Cache:    cacheManager,
		Registry: registry,
		Sync:     syncService,
		Metrics:  recorder,
	}, nil
}

// newOutputWriter prefixes streamed chunks with their component and stream.
func newOutputWriter(w io.Writer) component.OutputFunc {
	if w == nil {
		return nil
	}
	var mu sync.Mutex
	return func(componentID, stream string, chunk []byte) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(w, "[%s %s] %s", componentID, stream, chunk)
		if len(chunk) > 0 && chunk[len(chunk)-1] != '\n' {
			fmt.Fprintln(w)
		}
	}
}

// loadConfig resolves the configuration directory and loads config.yaml.
func loadConfig(cfg *Config) (config.AppArrayConfig, error) {
	path := cfg.ConfigPath
	if path == "" {
		var err error
		path, err = config.GetDefaultConfigPath()
		if err != nil {
			return config.AppArrayConfig{}, err
		}
	}
	return config.LoadConfig(path)
}
