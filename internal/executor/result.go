package executor

import (
	"errors"
	"time"

	"apparray/internal/model"
)

// Result is the terminal outcome of one run.
type Result struct {
	RunID       string
	ComponentID string
	Key         model.CommandKey
	// Command is the command's type label.
	Command string
	// Output holds the captured standard output, truncated to Options.OutputLimit.
	Output []byte
	Status model.Status
	// FailedStep is the index of the failing step, or -1 when all steps succeeded.
	FailedStep int
	ExitCode   int
	Err        error
	Duration   time.Duration
}

// Ok reports whether every step succeeded.
func (r Result) Ok() bool { return r.Status == model.StatusOk }

// Response converts the result into the notification shape shared with the backend.
func (r Result) Response() model.CommandResponse {
	return model.CommandResponse{
		ComponentID: r.ComponentID,
		CommandID:   r.Key,
		Command:     r.Command,
		Result:      r.Output,
		Status:      r.Status,
	}
}

// exitCodeOf extracts a process exit code from err, defaulting to 1.
func exitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	var coder interface{ ExitCode() int }
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return 1
}
