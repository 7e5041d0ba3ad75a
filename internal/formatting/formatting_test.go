package formatting

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"apparray/internal/lifecycle"
	"apparray/internal/model"
)

func sampleTopology() *model.Application {
	app := model.NewApplication("shop")
	app.Components = []model.Component{
		{
			ID:       "api",
			Type:     model.TypeComponent,
			Tags:     model.Tags{"tier": model.TagString("web"), "zones": model.TagList("a", "b")},
			Provides: []model.Port{{ID: "http", Kind: model.PortReadWrite, Protocol: "http"}},
			Consumes: []string{"db"},
			Commands: model.CommandMap{
				model.CommandStart:  {Steps: []string{"run"}},
				model.CommandStatus: {Steps: []string{"check"}},
			},
		},
		{ID: "db", Type: model.TypeComponent, Provides: []model.Port{{ID: "db", Kind: model.PortRead}}},
	}
	return app
}

func TestNewTopologyView(t *testing.T) {
	view := NewTopologyView(sampleTopology(), map[string]lifecycle.State{"api": lifecycle.StateStarted})

	assert.Equal(t, "shop", view.ID)
	require.Len(t, view.Components, 2)
	api := view.Components[0]
	assert.Equal(t, "STARTED", api.State)
	assert.Equal(t, []string{"start", "status"}, api.Commands)
	assert.Equal(t, []string{"http(ReadWrite)/http"}, api.Provides)
	assert.Equal(t, map[string]string{"tier": "web", "zones": "a,b"}, api.Tags)
	assert.Equal(t, "", view.Components[1].State)
	assert.Equal(t, []string{"db(Read)"}, view.Components[1].Provides)

	empty := NewTopologyView(nil, nil)
	assert.NotNil(t, empty.Components)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatTable, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestFormatters(t *testing.T) {
	view := NewTopologyView(sampleTopology(), map[string]lifecycle.State{"db": lifecycle.StateStopped})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewFormatter(FormatJSON).FormatTopology(&buf, view))
		var got TopologyView
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, view, got)
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewFormatter(FormatYAML).FormatTopology(&buf, view))
		var got TopologyView
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, view, got)
	})

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewFormatter(FormatTable).FormatTopology(&buf, view))
		out := buf.String()
		assert.Contains(t, out, "shop")
		assert.Contains(t, out, "api")
		assert.Contains(t, out, "STOPPED")
		assert.Contains(t, out, "tier=web")
	})

	t.Run("empty table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewFormatter(FormatTable).FormatTopology(&buf, NewTopologyView(model.NewApplication("x"), nil)))
		assert.Contains(t, buf.String(), "no components")
	})
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestJSONFormatter(t *testing.T) {
	view := NewTopologyView(model.NewApplication("x"), nil)

	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatJSON).FormatTopology(&buf, view))
	assert.True(t, strings.HasPrefix(buf.String(), "{\n  \""), "output is indented: %q", buf.String())
	assert.True(t, strings.HasSuffix(buf.String(), "}\n"))

	err := NewFormatter(FormatJSON).FormatTopology(failingWriter{}, view)
	assert.EqualError(t, err, "disk full")
}
