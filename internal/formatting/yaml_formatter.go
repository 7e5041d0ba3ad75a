package formatting

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

type yamlFormatter struct{}

func (yamlFormatter) FormatTopology(w io.Writer, view TopologyView) error {
	data, err := yaml.Marshal(view)
	if err != nil {
		return fmt.Errorf("failed to marshal topology as YAML: %w", err)
	}
	_, err = w.Write(data)
	return err
}
