package model

import (
	"bytes"
	"encoding/json"
	"fmt"

	"sigs.k8s.io/yaml"
)

// ParseApplication decodes a topology from JSON or YAML and validates it.
func ParseApplication(data []byte) (*Application, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty topology document")
	}

	var app Application
	if trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &app); err != nil {
			return nil, fmt.Errorf("failed to parse topology JSON: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(trimmed, &app); err != nil {
			return nil, fmt.Errorf("failed to parse topology YAML: %w", err)
		}
	}

	app.normalize()
	if err := app.Validate(); err != nil {
		return nil, err
	}
	return &app, nil
}

// Marshal encodes the topology as JSON, the form used on the wire and in the cache.
func (a *Application) Marshal() ([]byte, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal topology: %w", err)
	}
	return data, nil
}

// ToYAML encodes the topology as YAML using the JSON field names.
func (a *Application) ToYAML() ([]byte, error) {
	data, err := yaml.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal topology as YAML: %w", err)
	}
	return data, nil
}

func (a *Application) normalize() {
	if a.Type == "" {
		a.Type = TypeApplication
	}
	if a.Components == nil {
		a.Components = []Component{}
	}
	for i := range a.Components {
		if a.Components[i].Type == "" {
			a.Components[i].Type = TypeComponent
		}
	}
}
