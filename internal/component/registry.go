package component

import (
	"fmt"
	"sync"

	"apparray/internal/executor"
	"apparray/internal/lifecycle"
	"apparray/internal/metrics"
	"apparray/internal/model"
	"apparray/pkg/logging"
)

// Notification kinds used for metrics.
const (
	KindCommand = "command"
	KindUpdate  = "update"
)

// Registry holds the controllers of the current topology.
type Registry struct {
	mu          sync.RWMutex
	cfg         Config
	app         *model.Application
	controllers map[string]*Controller
	order       []string
	unsubs      []func()

	observersMu sync.RWMutex
	observers   map[int]lifecycle.Observer
	handlers    map[int]ResultHandler
	nextID      int
}

// NewRegistry builds controllers for every component of app. A nil app is
// treated as an empty topology.
func NewRegistry(cfg Config, app *model.Application) *Registry {
	r := &Registry{
		cfg:       cfg,
		observers: make(map[int]lifecycle.Observer),
		handlers:  make(map[int]ResultHandler),
	}
	r.Replace(app)
	return r
}

// Replace swaps the topology wholesale. Controllers of the previous topology
// are disconnected; the new controllers start disconnected.
func (r *Registry) Replace(app *model.Application) {
	if app == nil {
		app = model.EmptyApplication()
	}

	controllers := make(map[string]*Controller, len(app.Components))
	order := make([]string, 0, len(app.Components))
	var unsubs []func()
	for _, def := range app.Components {
		ctrl := NewController(def, r.cfg)
		ctrl.OnResult(r.publishResult)
		unsubs = append(unsubs, ctrl.Machine().Subscribe(r.publish))
		controllers[def.ID] = ctrl
		order = append(order, def.ID)
	}

	r.mu.Lock()
	old := r.controllers
	oldUnsubs := r.unsubs
	r.app = app
	r.controllers = controllers
	r.order = order
	r.unsubs = unsubs
	r.mu.Unlock()

	for _, unsub := range oldUnsubs {
		unsub()
	}
	for _, ctrl := range old {
		ctrl.Disconnect()
	}
	logging.Info("Registry", "Loaded topology %q with %d components", app.ID, len(order))
}

// Application returns the current topology.
func (r *Registry) Application() *model.Application {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.app
}

// Get returns the controller for a component id.
func (r *Registry) Get(id string) (*Controller, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ctrl, ok := r.controllers[id]
	return ctrl, ok
}

// List returns the controllers in topology order.
func (r *Registry) List() []*Controller {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Controller, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.controllers[id])
	}
	return out
}

// States returns the current state of every component.
func (r *Registry) States() map[string]lifecycle.State {
	out := make(map[string]lifecycle.State)
	for _, ctrl := range r.List() {
		out[ctrl.ID()] = ctrl.State()
	}
	return out
}

// ConnectAll binds an engine to every executable component and returns the
// number of connected components.
func (r *Registry) ConnectAll() int {
	n := 0
	for _, ctrl := range r.List() {
		if ctrl.Connect() {
			n++
		}
	}
	return n
}

// DisconnectAll releases every engine binding.
func (r *Registry) DisconnectAll() {
	for _, ctrl := range r.List() {
		ctrl.Disconnect()
	}
}

// Subscribe registers an observer for state changes of every current and
// future component.
func (r *Registry) Subscribe(observer lifecycle.Observer) func() {
	r.observersMu.Lock()
	id := r.nextID
	r.nextID++
	r.observers[id] = observer
	r.observersMu.Unlock()

	return func() {
		r.observersMu.Lock()
		delete(r.observers, id)
		r.observersMu.Unlock()
	}
}

// OnResult registers a handler for run results of every component.
func (r *Registry) OnResult(handler ResultHandler) func() {
	r.observersMu.Lock()
	id := r.nextID
	r.nextID++
	r.handlers[id] = handler
	r.observersMu.Unlock()

	return func() {
		r.observersMu.Lock()
		delete(r.handlers, id)
		r.observersMu.Unlock()
	}
}

func (r *Registry) publish(change lifecycle.Change) {
	r.observersMu.RLock()
	observers := make([]lifecycle.Observer, 0, len(r.observers))
	for _, o := range r.observers {
		observers = append(observers, o)
	}
	r.observersMu.RUnlock()

	for _, o := range observers {
		o(change)
	}
}

func (r *Registry) publishResult(res executor.Result) {
	r.observersMu.RLock()
	handlers := make([]ResultHandler, 0, len(r.handlers))
	for _, h := range r.handlers {
		handlers = append(handlers, h)
	}
	r.observersMu.RUnlock()

	for _, h := range handlers {
		h(res)
	}
}

// Issue issues key on the component with the given id.
func (r *Registry) Issue(id string, key model.CommandKey) (bool, error) {
	ctrl, ok := r.Get(id)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownComponent, id)
	}
	return ctrl.Issue(key)
}

// RouteCommandResponse applies a backend command result to its component.
// Unknown components and invalid statuses are ignored.
func (r *Registry) RouteCommandResponse(resp model.CommandResponse) error {
	if !resp.Status.Valid() {
		r.cfg.Metrics.Notification(KindCommand, metrics.OutcomeIgnored)
		logging.Warn("Registry", "Ignoring command response for %q with %s", resp.ComponentID, resp.Status)
		return fmt.Errorf("%w: %s", ErrInvalidStatus, resp.Status)
	}
	ctrl, ok := r.Get(resp.ComponentID)
	if !ok {
		r.cfg.Metrics.Notification(KindCommand, metrics.OutcomeIgnored)
		logging.Debug("Registry", "Ignoring command response for unknown component %q", resp.ComponentID)
		return fmt.Errorf("%w: %s", ErrUnknownComponent, resp.ComponentID)
	}
	if _, err := ctrl.HandleCommandResponse(resp); err != nil {
		r.cfg.Metrics.Notification(KindCommand, metrics.OutcomeIgnored)
		return fmt.Errorf("component %s: %w", resp.ComponentID, err)
	}
	r.cfg.Metrics.Notification(KindCommand, metrics.OutcomeRouted)
	return nil
}

// RouteUpdate applies a backend status push to its component. Unknown
// components and invalid statuses are ignored.
func (r *Registry) RouteUpdate(update model.UpdateResponse) error {
	if !update.Status.Valid() {
		r.cfg.Metrics.Notification(KindUpdate, metrics.OutcomeIgnored)
		logging.Warn("Registry", "Ignoring update for %q with %s", update.ComponentID, update.Status)
		return fmt.Errorf("%w: %s", ErrInvalidStatus, update.Status)
	}
	ctrl, ok := r.Get(update.ComponentID)
	if !ok {
		r.cfg.Metrics.Notification(KindUpdate, metrics.OutcomeIgnored)
		logging.Debug("Registry", "Ignoring update for unknown component %q", update.ComponentID)
		return fmt.Errorf("%w: %s", ErrUnknownComponent, update.ComponentID)
	}
	ctrl.HandleUpdate(update)
	r.cfg.Metrics.Notification(KindUpdate, metrics.OutcomeRouted)
	return nil
}
