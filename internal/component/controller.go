package component

import (
	"fmt"
	"sync"

	"apparray/internal/executor"
	"apparray/internal/lifecycle"
	"apparray/internal/metrics"
	"apparray/internal/model"
	"apparray/pkg/logging"
	strutil "apparray/pkg/strings"
)

// Stream names passed to an OutputFunc.
const (
	StreamOut = "out"
	StreamErr = "err"
)

// OutputFunc receives streamed output of a run.
type OutputFunc func(componentID, stream string, chunk []byte)

// ResultHandler receives the terminal result of a run after it was applied
// to the component's lifecycle machine.
type ResultHandler func(executor.Result)

// Config holds what controllers need to create engines and runs.
type Config struct {
	// Backend returns the backend bound to a component on connect.
	// Defaults to a shell backend.
	Backend     func(componentID string) executor.Backend
	Options     executor.Options
	Environment model.Environment
	Output      OutputFunc
	Metrics     *metrics.Recorder
}

func (c Config) backend(componentID string) executor.Backend {
	if c.Backend != nil {
		return c.Backend(componentID)
	}
	return executor.NewShellBackend(executor.DefaultShell)
}

// Controller drives one component.
type Controller struct {
	mu       sync.Mutex
	def      model.Component
	machine  *lifecycle.Machine
	cfg      Config
	engine   *executor.Engine
	active   *executor.Instance
	handlers []ResultHandler
}

// NewController returns a disconnected controller for def.
func NewController(def model.Component, cfg Config) *Controller {
	return &Controller{
		def:     def,
		machine: lifecycle.NewMachine(def.ID),
		cfg:     cfg,
	}
}

// ID returns the component id.
func (c *Controller) ID() string { return c.def.ID }

// Component returns the component definition.
func (c *Controller) Component() model.Component { return c.def }

// Machine returns the component's lifecycle machine.
func (c *Controller) Machine() *lifecycle.Machine { return c.machine }

// State returns the current lifecycle state.
func (c *Controller) State() lifecycle.State { return c.machine.State() }

// Connected reports whether an engine is bound.
func (c *Controller) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine != nil
}

// Running reports whether a run is active.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active != nil
}

// OnResult registers a handler for terminal run results.
func (c *Controller) OnResult(handler ResultHandler) {
	c.mu.Lock()
	c.handlers = append(c.handlers, handler)
	c.mu.Unlock()
}

// InitializeConnection toggles the engine binding and returns whether the
// component is connected afterwards.
func (c *Controller) InitializeConnection() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.engine != nil {
		c.unbindLocked()
		logging.Info("Component", "Disconnected component %s", c.def.ID)
		return false
	}
	if !c.def.HasService() {
		logging.Debug("Component", "Component %s has no executable command, staying disconnected", c.def.ID)
		return false
	}
	c.engine = executor.New(c.def.ID, c.cfg.backend(c.def.ID), c.cfg.Options)
	logging.Info("Component", "Connected component %s", c.def.ID)
	return true
}

// Connect binds an engine unless one is already bound.
func (c *Controller) Connect() bool {
	if c.Connected() {
		return true
	}
	return c.InitializeConnection()
}

// Disconnect releases the engine binding if there is one.
func (c *Controller) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.engine != nil {
		c.unbindLocked()
	}
}

func (c *Controller) unbindLocked() {
	if c.active != nil {
		logging.Debug("Component", "Invalidating run %s of component %s", c.active.ID(), c.def.ID)
		c.active.Invalidate()
		c.active = nil
	}
	c.engine = nil
}

// Start issues the start command.
func (c *Controller) Start() (bool, error) { return c.Issue(model.CommandStart) }

// Stop issues the stop command.
func (c *Controller) Stop() (bool, error) { return c.Issue(model.CommandStop) }

// CheckStatus issues the status command.
func (c *Controller) CheckStatus() (bool, error) { return c.Issue(model.CommandStatus) }

// Issue runs the command for key and returns whether a run was started.
// Nothing happens when the component is disconnected or has no such
// command. The call returns as soon as the run is started.
func (c *Controller) Issue(key model.CommandKey) (bool, error) {
	if !key.Valid() {
		return false, fmt.Errorf("%w: %q", model.ErrUnknownCommand, key)
	}

	c.mu.Lock()
	if c.engine == nil {
		c.mu.Unlock()
		logging.Debug("Component", "Ignoring %s for disconnected component %s", key.Upper(), c.def.ID)
		return false, nil
	}
	cmd, ok := c.def.Commands.Get(key)
	if !ok || len(cmd.Steps) == 0 {
		c.mu.Unlock()
		logging.Debug("Component", "Component %s has no %s command", c.def.ID, key.Upper())
		return false, nil
	}
	if c.active != nil {
		running := c.active.Key()
		c.mu.Unlock()
		return false, fmt.Errorf("%w: %s %s", ErrRunInProgress, c.def.ID, running.Upper())
	}
	inst := c.engine.Runner(key, cmd)(c.cfg.Environment)
	c.active = inst
	c.mu.Unlock()

	prior := c.machine.State()
	if _, err := c.machine.Issue(key); err != nil {
		c.release(inst)
		return false, err
	}
	c.cfg.Metrics.CommandIssued(string(key))

	c.attachOutput(inst)
	inst.OnResult(func(res executor.Result) { c.finish(inst, res) })
	if err := inst.Run(nil); err != nil {
		// a disconnect may have invalidated inst after the slot was filled
		c.release(inst)
		c.machine.Abort(key, prior)
		return false, fmt.Errorf("failed to run %s for %s: %w", key.Upper(), c.def.ID, err)
	}
	logging.Info("Component", "Issued %s for component %s (run %s)", key.Upper(), c.def.ID, inst.ID())
	return true, nil
}

func (c *Controller) attachOutput(inst *executor.Instance) {
	forward := func(stream string) executor.ReceiveFunc {
		return func(chunk []byte) bool {
			if chunk == nil {
				return false
			}
			logging.Debug("Component", "%s [%s] %s", c.def.ID, stream, strutil.SingleLine(string(chunk), strutil.DefaultLogChunkLen))
			if c.cfg.Output != nil {
				c.cfg.Output(c.def.ID, stream, chunk)
			}
			return true
		}
	}
	inst.Channels.Out.OnReceive(forward(StreamOut))
	inst.Channels.Err.OnReceive(forward(StreamErr))
}

// release clears the slot if inst still occupies it.
func (c *Controller) release(inst *executor.Instance) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != inst {
		return false
	}
	c.active = nil
	return true
}

func (c *Controller) finish(inst *executor.Instance, res executor.Result) {
	if !c.release(inst) {
		logging.Debug("Component", "Dropping result of detached run %s", res.RunID)
		return
	}

	next, err := c.machine.ApplyResult(res.Response())
	if err != nil {
		logging.Error("Component", err, "Failed to apply result of run %s", res.RunID)
		return
	}
	c.cfg.Metrics.CommandResult(string(res.Key), res.Status.String(), res.Duration)
	logging.Info("Component", "Component %s %s finished %s, now %s", c.def.ID, res.Key.Upper(), res.Status, next)

	c.mu.Lock()
	handlers := make([]ResultHandler, len(c.handlers))
	copy(handlers, c.handlers)
	c.mu.Unlock()
	for _, h := range handlers {
		h(res)
	}
}

// HandleCommandResponse applies a command result pushed by the backend.
func (c *Controller) HandleCommandResponse(resp model.CommandResponse) (lifecycle.State, error) {
	return c.machine.ApplyResult(resp)
}

// HandleUpdate applies a status push from the backend.
func (c *Controller) HandleUpdate(update model.UpdateResponse) lifecycle.State {
	return c.machine.ApplyUpdate(update)
}
