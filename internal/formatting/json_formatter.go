package formatting

import (
	"encoding/json"
	"fmt"
	"io"
)

type jsonFormatter struct{}

func (jsonFormatter) FormatTopology(w io.Writer, view TopologyView) error {
	data, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode topology as JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
