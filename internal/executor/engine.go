package executor

import (
	"time"

	"apparray/internal/model"
	"apparray/internal/template"
	"apparray/pkg/logging"
)

const (
	// DefaultIdleTimeout cancels a run whose steps produce no output for this long.
	DefaultIdleTimeout = 5 * time.Minute

	// DefaultQueueSize is the number of chunks buffered per channel.
	DefaultQueueSize = 64

	// DefaultOutputLimit caps the standard output kept in a Result.
	DefaultOutputLimit = 64 * 1024
)

// Options tunes the runs created by an Engine.
type Options struct {
	// IdleTimeout of zero disables the idle watchdog.
	IdleTimeout time.Duration
	QueueSize   int
	OutputLimit int
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		IdleTimeout: DefaultIdleTimeout,
		QueueSize:   DefaultQueueSize,
		OutputLimit: DefaultOutputLimit,
	}
}

// Engine is the execution capability bound to one component.
type Engine struct {
	componentID string
	backend     Backend
	opts        Options
	templater   *template.Engine
}

// RunnerFunc creates a run instance for an environment.
type RunnerFunc func(env model.Environment) *Instance

// New binds a backend to a component.
func New(componentID string, backend Backend, opts Options) *Engine {
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.OutputLimit <= 0 {
		opts.OutputLimit = DefaultOutputLimit
	}
	return &Engine{
		componentID: componentID,
		backend:     backend,
		opts:        opts,
		templater:   template.New(),
	}
}

// ComponentID returns the component this engine is bound to.
func (e *Engine) ComponentID() string { return e.componentID }

// Runner captures the command's steps; the returned function expands them
// against an environment and creates an instance ready to Run.
func (e *Engine) Runner(key model.CommandKey, cmd model.Command) RunnerFunc {
	steps := cmd.CloneSteps()
	label := cmd.Type
	return func(env model.Environment) *Instance {
		expanded := e.templater.ExpandAll(steps, env.Context)
		if missing := e.templater.Missing(steps, env.Context); len(missing) > 0 {
			logging.Debug("Executor", "Component %s %s: variables left for the backend: %v", e.componentID, key.Upper(), missing)
		}
		return newInstance(e.componentID, key, label, expanded, env, e.backend, e.opts)
	}
}
