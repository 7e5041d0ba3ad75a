package lifecycle

import (
	"fmt"

	"apparray/internal/model"
)

// State is the lifecycle status of a component.
type State string

const (
	StateUnknown  State = "UNKNOWN"
	StateStarting State = "STARTING"
	StateStarted  State = "STARTED"
	StateStopping State = "STOPPING"
	StateStopped  State = "STOPPED"
	StateChecking State = "CHECKING"
)

// Pending reports whether the state is waiting for a command result.
func (s State) Pending() bool {
	return s == StateStarting || s == StateStopping || s == StateChecking
}

// Transition describes one row of the dispatch table.
type Transition struct {
	// Pending is the state entered as soon as the command is issued.
	Pending State
	// Resolve maps the prior state and the command outcome to the next state.
	Resolve func(prior State, outcome model.Status) State
}

func outcome(ok, notOk State) func(State, model.Status) State {
	return func(_ State, status model.Status) State {
		if status == model.StatusOk {
			return ok
		}
		return notOk
	}
}

// Transitions is the dispatch table for command-driven changes.
var Transitions = map[model.CommandKey]Transition{
	model.CommandStart:  {Pending: StateStarting, Resolve: outcome(StateStarted, StateStopped)},
	model.CommandStop:   {Pending: StateStopping, Resolve: outcome(StateStopped, StateUnknown)},
	model.CommandStatus: {Pending: StateChecking, Resolve: outcome(StateStarted, StateStopped)},
}

// Pending returns the state entered when key is issued.
func Pending(key model.CommandKey) (State, error) {
	t, ok := Transitions[key]
	if !ok {
		return "", fmt.Errorf("%w: %q", model.ErrUnknownCommand, key)
	}
	return t.Pending, nil
}

// Resolve returns the state reached when a command result arrives.
func Resolve(key model.CommandKey, prior State, status model.Status) (State, error) {
	t, ok := Transitions[key]
	if !ok {
		return "", fmt.Errorf("%w: %q", model.ErrUnknownCommand, key)
	}
	return t.Resolve(prior, status), nil
}

// ResolveUpdate returns the state reached when the backend pushes a status.
func ResolveUpdate(status model.Status) State {
	if status == model.StatusOk {
		return StateStarted
	}
	return StateStopped
}
