package model

import "fmt"

// Status is the outcome reported for a command or a status push.
type Status int

const (
	StatusOk Status = iota
	StatusNotOk
)

func (s Status) String() string {
	switch s {
	case StatusOk:
		return "Ok"
	case StatusNotOk:
		return "NotOk"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Valid reports whether s is Ok or NotOk.
func (s Status) Valid() bool {
	return s == StatusOk || s == StatusNotOk
}

// StatusOf maps a boolean success into a Status.
func StatusOf(ok bool) Status {
	if ok {
		return StatusOk
	}
	return StatusNotOk
}

// CommandResponse is the result of one completed command for a component.
type CommandResponse struct {
	ComponentID string     `json:"componentId"`
	CommandID   CommandKey `json:"commandId"`
	Command     string     `json:"command"`
	Result      []byte     `json:"result,omitempty"`
	Status      Status     `json:"status"`
}

// UpdateResponse is a backend-initiated status push for a component.
type UpdateResponse struct {
	ComponentID string `json:"componentId"`
	Status      Status `json:"status"`
}
