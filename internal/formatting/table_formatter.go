package formatting

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"apparray/internal/lifecycle"
	strutil "apparray/pkg/strings"
)

type tableFormatter struct{}

func (tableFormatter) FormatTopology(w io.Writer, view TopologyView) error {
	title := view.ID
	if title == "" {
		title = "(unnamed)"
	}
	if len(view.Components) == 0 {
		_, err := fmt.Fprintf(w, "%s %s\n", text.FgYellow.Sprint("📋"), text.FgYellow.Sprintf("Topology %s has no components", title))
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.SetTitle(title)
	t.AppendHeader(table.Row{
		text.FgHiCyan.Sprint("COMPONENT"),
		text.FgHiCyan.Sprint("STATE"),
		text.FgHiCyan.Sprint("COMMANDS"),
		text.FgHiCyan.Sprint("PROVIDES"),
		text.FgHiCyan.Sprint("CONSUMES"),
		text.FgHiCyan.Sprint("TAGS"),
	})

	for _, c := range view.Components {
		tags := make([]string, 0, len(c.Tags))
		for _, k := range sortedKeys(c.Tags) {
			tags = append(tags, strutil.SingleLine(k+"="+c.Tags[k], strutil.DefaultCellLen))
		}
		t.AppendRow(table.Row{
			c.ID,
			ColorState(c.State),
			strings.Join(c.Commands, ", "),
			strings.Join(c.Provides, "\n"),
			strings.Join(c.Consumes, "\n"),
			strings.Join(tags, "\n"),
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", "TOTAL", len(view.Components)})
	t.Render()
	return nil
}

// ColorState colors a lifecycle state name for terminal output.
func ColorState(state string) string {
	switch lifecycle.State(state) {
	case lifecycle.StateStarted:
		return text.FgGreen.Sprint(state)
	case lifecycle.StateStopped:
		return text.FgRed.Sprint(state)
	case lifecycle.StateStarting, lifecycle.StateStopping, lifecycle.StateChecking:
		return text.FgYellow.Sprint(state)
	case "":
		return ""
	default:
		return text.FgHiBlack.Sprint(state)
	}
}
