package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"apparray/internal/component"
	"apparray/internal/config"
	"apparray/internal/executor"
	"apparray/internal/lifecycle"
	"apparray/internal/model"
	"apparray/internal/watch"
	"apparray/pkg/logging"
)

// Application bootstraps and runs apparray.
type Application struct {
	config   *Config
	services *Services
}

// NewApplication initializes logging, loads the configuration and builds the
// services. Nothing is connected until Run.
func NewApplication(cfg *Config) (*Application, error) {
	level := logging.LevelInfo
	if cfg.Debug {
		level = logging.LevelDebug
	}
	var logOutput io.Writer = os.Stderr
	if cfg.Silent {
		logOutput = io.Discard
	}
	logging.Init(level, logOutput)

	if cfg.AppArrayConfig == nil {
		appCfg, err := loadConfig(cfg)
		if err != nil {
			logging.Error("Bootstrap", err, "Failed to load configuration")
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		cfg.AppArrayConfig = &appCfg
	}
	cfg.applyOverrides(cfg.AppArrayConfig)
	if err := cfg.AppArrayConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	services, err := InitializeServices(cfg)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to initialize services")
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return &Application{config: cfg, services: services}, nil
}

// Services returns the initialized services.
func (a *Application) Services() *Services { return a.services }

// Settings returns the resolved configuration.
func (a *Application) Settings() config.AppArrayConfig { return *a.config.AppArrayConfig }

// Topology returns the current topology.
func (a *Application) Topology() *model.Application {
	return a.services.Registry.Application()
}

// States returns the lifecycle state of every component.
func (a *Application) States() map[string]lifecycle.State {
	return a.services.Registry.States()
}

// ReplaceTopology swaps the topology wholesale: the registry is rebuilt and
// its components connected, the cache record is saved and the snapshot is
// sent to the backend.
func (a *Application) ReplaceTopology(ctx context.Context, app *model.Application) error {
	if app == nil {
		app = model.EmptyApplication()
	}
	a.services.Registry.Replace(app)
	a.services.Registry.ConnectAll()

	var errs []error
	if err := a.services.Cache.Update(app); err != nil {
		errs = append(errs, fmt.Errorf("failed to save cache: %w", err))
	}
	if err := a.services.Sync.SendModel(ctx, app); err != nil {
		logging.Warn("App", "Failed to send topology: %v", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ClearTopology replaces the topology with an empty one.
func (a *Application) ClearTopology(ctx context.Context) error {
	return a.ReplaceTopology(ctx, model.EmptyApplication())
}

// UseTopology swaps the registry's topology without saving or sending it.
func (a *Application) UseTopology(app *model.Application) {
	a.services.Registry.Replace(app)
}

// SetKeepModel toggles topology retention and saves the cache record.
func (a *Application) SetKeepModel(keep bool) error {
	return a.services.Cache.SetKeepModel(keep, a.Topology())
}

// Issue issues a command on a component and returns immediately.
func (a *Application) Issue(componentID string, key model.CommandKey) (bool, error) {
	return a.services.Registry.Issue(componentID, key)
}

// RunCommand issues a command on a component and waits for its result.
func (a *Application) RunCommand(ctx context.Context, componentID string, key model.CommandKey) (executor.Result, error) {
	ctrl, ok := a.services.Registry.Get(componentID)
	if !ok {
		return executor.Result{}, fmt.Errorf("%w: %s", component.ErrUnknownComponent, componentID)
	}
	if !ctrl.Connect() {
		return executor.Result{}, fmt.Errorf("component %s has no executable command: %w", componentID, component.ErrNotConnected)
	}

	results := make(chan executor.Result, 1)
	unsubscribe := a.services.Registry.OnResult(func(res executor.Result) {
		if res.ComponentID != componentID {
			return
		}
		select {
		case results <- res:
		default:
		}
	})
	defer unsubscribe()

	issued, err := ctrl.Issue(key)
	if err != nil {
		return executor.Result{}, err
	}
	if !issued {
		return executor.Result{}, fmt.Errorf("component %s has no %s command", componentID, key)
	}

	select {
	case res := <-results:
		return res, nil
	case <-ctx.Done():
		ctrl.Disconnect()
		return executor.Result{}, ctx.Err()
	}
}

// Close releases the cache store.
func (a *Application) Close() error {
	return a.services.Cache.Close()
}

// Run connects everything and blocks until ctx is cancelled or a signal arrives.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	settings := a.Settings()
	services := a.services

	var watcher *watch.TopologyWatcher
	if settings.Topology.File != "" {
		watcher = watch.NewTopologyWatcher(settings.Topology.File, settings.Topology.Debounce, func(app *model.Application) {
			if err := a.ReplaceTopology(ctx, app); err != nil {
				logging.Warn("App", "Topology replaced with errors: %v", err)
			}
		})
		if _, err := os.Stat(settings.Topology.File); err == nil {
			_ = watcher.Reload()
		}
	}

	connected := services.Registry.ConnectAll()
	logging.Info("App", "Connected %d of %d components", connected, len(services.Registry.List()))

	if err := services.Sync.SendModel(ctx, a.Topology()); err != nil {
		logging.Warn("App", "Failed to queue initial topology: %v", err)
	}
	err := services.Sync.Connect(ctx,
		func() {
			logging.Info("App", "Connected to %s", services.Sync.Address())
		},
		func(err error) {
			logging.Warn("App", "Connection lost to %s: %v", services.Sync.Address(), err)
		})
	if err != nil {
		return err
	}
	defer services.Sync.Disconnect()
	defer services.Registry.DisconnectAll()

	g, gctx := errgroup.WithContext(ctx)
	if watcher != nil {
		g.Go(func() error { return watcher.Run(gctx) })
	}
	if settings.Metrics.Addr != "" {
		g.Go(func() error { return services.Metrics.Serve(gctx, settings.Metrics.Addr) })
	}
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	logging.Info("App", "apparray is running. Press Ctrl+C to stop.")
	err = g.Wait()
	logging.Info("App", "Shutting down")
	return err
}
