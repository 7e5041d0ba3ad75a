package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_Counters(t *testing.T) {
	r := New()

	r.CommandIssued("start")
	r.CommandIssued("start")
	r.CommandResult("start", "Ok", 10*time.Millisecond)
	r.Notification("update", OutcomeRouted)
	r.Notification("update", OutcomeIgnored)
	r.SetConnected(true)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.CommandsIssued.WithLabelValues("start")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.CommandResults.WithLabelValues("start", "Ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Notifications.WithLabelValues("update", OutcomeIgnored)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.BackendConnected))

	r.ConnectionError()
	assert.Equal(t, 1.0, testutil.ToFloat64(r.ConnectionErrors))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.BackendConnected))
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.CommandIssued("start")
		r.CommandResult("start", "Ok", time.Second)
		r.Notification("command", OutcomeRouted)
		r.ConnectionError()
		r.SetConnected(true)
	})
	assert.Nil(t, r.Registry())
}

func TestRecorder_Handler(t *testing.T) {
	r := New()
	r.CommandIssued("stop")

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.True(t, strings.Contains(string(body), `apparray_commands_issued_total{command="stop"} 1`))
}
