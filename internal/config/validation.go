package config

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidationError is a problem with one configuration field.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors collects every problem found.
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}
	messages := make([]string, 0, len(ve))
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add appends an error for field.
func (ve *ValidationErrors) Add(field, message string, value ...interface{}) {
	var val interface{}
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{Field: field, Value: val, Message: message})
}

var cacheDrivers = map[string]bool{"file": true, "badger": true, "memory": true}

// Validate checks the configuration and returns ValidationErrors on failure.
func (c AppArrayConfig) Validate() error {
	var errs ValidationErrors

	if strings.TrimSpace(c.Backend.Host) == "" {
		errs.Add("backend.host", "is required")
	} else if u, err := url.Parse(c.Backend.Host); err != nil || u.Host == "" {
		errs.Add("backend.host", "must be an absolute URL", c.Backend.Host)
	} else if u.Scheme != "http" && u.Scheme != "https" && u.Scheme != "ws" && u.Scheme != "wss" {
		errs.Add("backend.host", "scheme must be http, https, ws or wss", c.Backend.Host)
	}
	if c.Backend.ReconnectInterval < 0 {
		errs.Add("backend.reconnectInterval", "must not be negative", c.Backend.ReconnectInterval)
	}
	if c.Execution.IdleTimeout < 0 {
		errs.Add("execution.idleTimeout", "must not be negative", c.Execution.IdleTimeout)
	}
	if c.Execution.QueueSize <= 0 {
		errs.Add("execution.queueSize", "must be positive", c.Execution.QueueSize)
	}
	if strings.TrimSpace(c.Execution.Shell) == "" {
		errs.Add("execution.shell", "is required")
	}
	if !cacheDrivers[c.Cache.Driver] {
		errs.Add("cache.driver", "must be one of file, badger, memory", c.Cache.Driver)
	}
	if c.Topology.Debounce < 0 {
		errs.Add("topology.debounce", "must not be negative", c.Topology.Debounce)
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}
