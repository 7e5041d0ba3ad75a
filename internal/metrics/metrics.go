// Package metrics exposes prometheus counters for command runs, backend
// notifications and the backend connection.
//
// All Recorder methods are safe on a nil receiver, so components can treat
// metrics as optional.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"apparray/pkg/logging"
)

const namespace = "apparray"

// Notification outcomes.
const (
	OutcomeRouted  = "routed"
	OutcomeIgnored = "ignored"
)

// Recorder owns a private registry with the apparray collectors.
type Recorder struct {
	registry *prometheus.Registry

	CommandsIssued   *prometheus.CounterVec
	CommandResults   *prometheus.CounterVec
	CommandDuration  *prometheus.HistogramVec
	Notifications    *prometheus.CounterVec
	ConnectionErrors prometheus.Counter
	BackendConnected prometheus.Gauge
}

// New creates a Recorder with its collectors registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		CommandsIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_issued_total",
			Help:      "Commands issued against components, by command key.",
		}, []string{"command"}),
		CommandResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "command_results_total",
			Help:      "Command results applied to components, by command key and status.",
		}, []string{"command", "status"}),
		CommandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Duration of local command runs.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
		}, []string{"command"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Backend notifications received, by kind and outcome.",
		}, []string{"kind", "outcome"}),
		ConnectionErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connection_errors_total",
			Help:      "Backend connection failures and session losses.",
		}),
		BackendConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "backend_connected",
			Help:      "1 while a backend session is established.",
		}),
	}
	r.registry.MustRegister(
		r.CommandsIssued,
		r.CommandResults,
		r.CommandDuration,
		r.Notifications,
		r.ConnectionErrors,
		r.BackendConnected,
	)
	return r
}

// Registry returns the registry holding the collectors.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// CommandIssued counts a command sent to a component's engine.
func (r *Recorder) CommandIssued(command string) {
	if r == nil {
		return
	}
	r.CommandsIssued.WithLabelValues(command).Inc()
}

// CommandResult counts a command result and, when positive, its duration.
func (r *Recorder) CommandResult(command, status string, duration time.Duration) {
	if r == nil {
		return
	}
	r.CommandResults.WithLabelValues(command, status).Inc()
	if duration > 0 {
		r.CommandDuration.WithLabelValues(command).Observe(duration.Seconds())
	}
}

// Notification counts a backend notification of kind with its routing outcome.
func (r *Recorder) Notification(kind, outcome string) {
	if r == nil {
		return
	}
	r.Notifications.WithLabelValues(kind, outcome).Inc()
}

// ConnectionError counts a backend connection failure.
func (r *Recorder) ConnectionError() {
	if r == nil {
		return
	}
	r.ConnectionErrors.Inc()
	r.BackendConnected.Set(0)
}

// SetConnected records whether a backend session is up.
func (r *Recorder) SetConnected(connected bool) {
	if r == nil {
		return
	}
	if connected {
		r.BackendConnected.Set(1)
	} else {
		r.BackendConnected.Set(0)
	}
}

// Handler serves the registry in the prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (r *Recorder) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("Metrics", "Serving metrics on %s/metrics", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logging.Warn("Metrics", "Metrics server shutdown: %v", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
