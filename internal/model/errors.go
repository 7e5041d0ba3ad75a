package model

import (
	"errors"
	"fmt"
)

// ErrUnknownCommand is returned for command keys outside start, stop and status.
var ErrUnknownCommand = errors.New("unknown command key")

// ValidationError describes a structural problem in a topology.
type ValidationError struct {
	// Path locates the offending element, e.g. "components[web].provides[http]".
	Path    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// IsValidationError reports whether err is or wraps a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
