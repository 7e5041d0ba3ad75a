package model

import (
	"fmt"
	"strings"
)

// CommandKey identifies a lifecycle action.
type CommandKey string

const (
	CommandStart  CommandKey = "start"
	CommandStop   CommandKey = "stop"
	CommandStatus CommandKey = "status"
)

// CommandKeys lists every known key in a stable order.
var CommandKeys = []CommandKey{CommandStart, CommandStop, CommandStatus}

// ParseCommandKey converts a case-insensitive name into a CommandKey.
func ParseCommandKey(s string) (CommandKey, error) {
	key := CommandKey(strings.ToLower(strings.TrimSpace(s)))
	if !key.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCommand, s)
	}
	return key, nil
}

// Valid reports whether k is one of the known command keys.
func (k CommandKey) Valid() bool {
	switch k {
	case CommandStart, CommandStop, CommandStatus:
		return true
	}
	return false
}

// Upper returns the key as it is displayed, e.g. START.
func (k CommandKey) Upper() string {
	return strings.ToUpper(string(k))
}

// Command is a labelled, ordered list of shell steps. Steps may reference
// platform environment variables and {{name}} context variables.
type Command struct {
	Type  string   `json:"type"`
	Steps []string `json:"steps"`
}

// CloneSteps returns a copy of the steps so a run is isolated from later edits.
func (c Command) CloneSteps() []string {
	steps := make([]string, len(c.Steps))
	copy(steps, c.Steps)
	return steps
}

// CommandMap maps a command key to its command.
type CommandMap map[CommandKey]Command

// Get returns the command for key, if any.
func (m CommandMap) Get(key CommandKey) (Command, bool) {
	if m == nil {
		return Command{}, false
	}
	cmd, ok := m[key]
	return cmd, ok
}

// Environment is a named variable map bound to one execution.
type Environment struct {
	ID      string            `json:"id"`
	Context map[string]string `json:"context,omitempty"`
}
