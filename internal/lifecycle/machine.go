package lifecycle

import (
	"sync"
	"time"

	"apparray/internal/model"
)

// Trigger names what caused a state change.
type Trigger string

const (
	TriggerIssue  Trigger = "issue"
	TriggerResult Trigger = "result"
	TriggerUpdate Trigger = "update"
	TriggerAbort  Trigger = "abort"
)

// Change is published to observers whenever the state changes.
type Change struct {
	ComponentID string
	Old         State
	New         State
	Trigger     Trigger
	Command     model.CommandKey
	At          time.Time
}

// Observer receives state changes.
type Observer func(Change)

const defaultHistorySize = 32

// Machine holds the state of one component.
type Machine struct {
	mu          sync.RWMutex
	componentID string
	state       State
	observers   map[int]Observer
	nextID      int
	history     []Change
	historySize int
}

// NewMachine returns a machine in StateUnknown.
func NewMachine(componentID string) *Machine {
	return &Machine{
		componentID: componentID,
		state:       StateUnknown,
		observers:   make(map[int]Observer),
		historySize: defaultHistorySize,
	}
}

// ComponentID returns the component the machine belongs to.
func (m *Machine) ComponentID() string { return m.componentID }

// State returns the current state.
func (m *Machine) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Subscribe registers an observer and returns a function removing it.
func (m *Machine) Subscribe(observer Observer) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.observers[id] = observer
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.observers, id)
		m.mu.Unlock()
	}
}

// Issue moves the machine into the pending state for key.
func (m *Machine) Issue(key model.CommandKey) (State, error) {
	next, err := Pending(key)
	if err != nil {
		return m.State(), err
	}
	m.transition(func(State) State { return next }, TriggerIssue, key)
	return next, nil
}

// Abort returns the machine to prior when a command issued for key never
// started. The state is left alone if something else moved it off the
// pending state in the meantime.
func (m *Machine) Abort(key model.CommandKey, prior State) State {
	pending, err := Pending(key)
	if err != nil {
		return m.State()
	}
	return m.transition(func(current State) State {
		if current != pending {
			return current
		}
		return prior
	}, TriggerAbort, key)
}

// ApplyResult applies the result of a command.
func (m *Machine) ApplyResult(resp model.CommandResponse) (State, error) {
	t, ok := Transitions[resp.CommandID]
	if !ok {
		_, err := Resolve(resp.CommandID, "", resp.Status)
		return m.State(), err
	}
	next := m.transition(func(prior State) State {
		return t.Resolve(prior, resp.Status)
	}, TriggerResult, resp.CommandID)
	return next, nil
}

// ApplyUpdate applies a backend status push, overriding the current state.
func (m *Machine) ApplyUpdate(update model.UpdateResponse) State {
	next := ResolveUpdate(update.Status)
	m.transition(func(State) State { return next }, TriggerUpdate, "")
	return next
}

// History returns the most recent changes, oldest first.
func (m *Machine) History() []Change {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Change, len(m.history))
	copy(out, m.history)
	return out
}

func (m *Machine) transition(resolve func(prior State) State, trigger Trigger, key model.CommandKey) State {
	m.mu.Lock()
	old := m.state
	next := resolve(old)
	if old == next {
		m.mu.Unlock()
		return next
	}
	m.state = next
	change := Change{
		ComponentID: m.componentID,
		Old:         old,
		New:         next,
		Trigger:     trigger,
		Command:     key,
		At:          time.Now(),
	}
	m.history = append(m.history, change)
	if len(m.history) > m.historySize {
		m.history = m.history[len(m.history)-m.historySize:]
	}
	observers := make([]Observer, 0, len(m.observers))
	for _, o := range m.observers {
		observers = append(observers, o)
	}
	m.mu.Unlock()

	// Call observers outside of the lock to avoid deadlocks
	for _, o := range observers {
		o(change)
	}
	return next
}
