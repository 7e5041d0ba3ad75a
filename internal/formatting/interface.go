// Package formatting renders topologies and component states for the CLI.
package formatting

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"apparray/internal/lifecycle"
	"apparray/internal/model"
)

// OutputFormat represents the desired output format
type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
	FormatYAML  OutputFormat = "yaml"
)

// ParseFormat validates a user supplied format name.
func ParseFormat(name string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(name)); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unknown output format %q (table, json, yaml)", name)
	}
}

// Formatter writes a topology view.
type Formatter interface {
	FormatTopology(w io.Writer, view TopologyView) error
}

// NewFormatter returns the formatter for format, defaulting to a table.
func NewFormatter(format OutputFormat) Formatter {
	switch format {
	case FormatJSON:
		return jsonFormatter{}
	case FormatYAML:
		return yamlFormatter{}
	default:
		return tableFormatter{}
	}
}

// ComponentView is the rendered form of one component.
type ComponentView struct {
	ID       string            `json:"id" yaml:"id"`
	State    string            `json:"state,omitempty" yaml:"state,omitempty"`
	Commands []string          `json:"commands,omitempty" yaml:"commands,omitempty"`
	Provides []string          `json:"provides,omitempty" yaml:"provides,omitempty"`
	Consumes []string          `json:"consumes,omitempty" yaml:"consumes,omitempty"`
	Tags     map[string]string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// TopologyView is the rendered form of a topology.
type TopologyView struct {
	ID         string          `json:"id" yaml:"id"`
	Provides   []string        `json:"provides,omitempty" yaml:"provides,omitempty"`
	Components []ComponentView `json:"components" yaml:"components"`
}

// NewTopologyView flattens app for display. states may be nil.
func NewTopologyView(app *model.Application, states map[string]lifecycle.State) TopologyView {
	view := TopologyView{Components: []ComponentView{}}
	if app == nil {
		return view
	}
	view.ID = app.ID
	view.Provides = portLabels(app.Provides)
	for _, c := range app.Components {
		cv := ComponentView{
			ID:       c.ID,
			Provides: portLabels(c.Provides),
			Consumes: append([]string(nil), c.Consumes...),
			Tags:     tagStrings(c.Tags),
		}
		for _, key := range model.CommandKeys {
			if c.HasCommand(key) {
				cv.Commands = append(cv.Commands, string(key))
			}
		}
		if s, ok := states[c.ID]; ok {
			cv.State = string(s)
		}
		view.Components = append(view.Components, cv)
	}
	return view
}

// PortLabel renders a port as id(Kind) with its protocol when set.
func PortLabel(p model.Port) string {
	label := fmt.Sprintf("%s(%s)", p.ID, p.Kind)
	if p.Protocol != "" {
		label += "/" + p.Protocol
	}
	return label
}

func portLabels(ports []model.Port) []string {
	if len(ports) == 0 {
		return nil
	}
	out := make([]string, 0, len(ports))
	for _, p := range ports {
		out = append(out, PortLabel(p))
	}
	return out
}

func tagStrings(tags model.Tags) map[string]string {
	if len(tags) == 0 {
		return nil
	}
	out := make(map[string]string, len(tags))
	for k, v := range tags {
		out[k] = v.String()
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
