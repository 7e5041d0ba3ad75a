package component

import "errors"

var (
	// ErrRunInProgress is returned when a command is issued while another run
	// of the same component is active.
	ErrRunInProgress = errors.New("a run is already in progress for this component")

	// ErrNotConnected is returned by operations that need a bound engine.
	ErrNotConnected = errors.New("component is not connected")

	// ErrUnknownComponent is returned when a component id is not in the topology.
	ErrUnknownComponent = errors.New("unknown component")

	// ErrInvalidStatus is returned for notifications whose status is neither
	// Ok nor NotOk.
	ErrInvalidStatus = errors.New("invalid notification status")
)
