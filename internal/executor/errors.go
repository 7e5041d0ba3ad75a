package executor

import "errors"

var (
	// ErrAlreadyStarted is returned when Run is called twice on one instance.
	ErrAlreadyStarted = errors.New("run instance already started")

	// ErrInvalidated is returned when Run is called on an invalidated instance.
	ErrInvalidated = errors.New("run instance invalidated")

	// ErrIdleTimeout is reported when a step produced no output for too long.
	ErrIdleTimeout = errors.New("run idle timeout exceeded")
)
