package model

import "fmt"

// Validate checks id presence and uniqueness, port kinds and command keys.
func (a *Application) Validate() error {
	if a.ID == "" {
		return &ValidationError{Message: "application id is required"}
	}
	if err := validatePorts("provides", a.Provides); err != nil {
		return err
	}
	if err := validateCommands("commands", a.Commands); err != nil {
		return err
	}

	seen := make(map[string]bool, len(a.Components))
	for i, c := range a.Components {
		if c.ID == "" {
			return &ValidationError{Path: fmt.Sprintf("components[%d]", i), Message: "component id is required"}
		}
		path := fmt.Sprintf("components[%s]", c.ID)
		if seen[c.ID] {
			return &ValidationError{Path: path, Message: "duplicate component id"}
		}
		seen[c.ID] = true

		if err := validatePorts(path+".provides", c.Provides); err != nil {
			return err
		}
		if err := validateCommands(path+".commands", c.Commands); err != nil {
			return err
		}
	}
	return nil
}

func validatePorts(path string, ports []Port) error {
	seen := make(map[string]bool, len(ports))
	for i, p := range ports {
		if p.ID == "" {
			return &ValidationError{Path: fmt.Sprintf("%s[%d]", path, i), Message: "port id is required"}
		}
		portPath := fmt.Sprintf("%s[%s]", path, p.ID)
		if seen[p.ID] {
			return &ValidationError{Path: portPath, Message: "duplicate port id"}
		}
		seen[p.ID] = true
		if !p.Kind.Valid() {
			return &ValidationError{Path: portPath, Message: fmt.Sprintf("invalid port kind %d", int(p.Kind))}
		}
	}
	return nil
}

func validateCommands(path string, commands CommandMap) error {
	for key := range commands {
		if !key.Valid() {
			return &ValidationError{Path: fmt.Sprintf("%s[%s]", path, key), Message: ErrUnknownCommand.Error()}
		}
	}
	return nil
}
