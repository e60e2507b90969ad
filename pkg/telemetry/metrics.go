// Package telemetry exposes host-side processing diagnostics as
// prometheus metrics.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects counters for one host run.
type Metrics struct {
	registry *prometheus.Registry

	// ProcessCalls counts completed process calls.
	ProcessCalls prometheus.Counter
	// ProcessErrors counts process calls rejected with an error.
	ProcessErrors prometheus.Counter
	// QueueFull counts control-thread edits that hit sync backpressure.
	QueueFull prometheus.Counter
	// FramesRendered counts audio frames produced.
	FramesRendered prometheus.Counter
}

// New creates a metrics set on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ProcessCalls: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "plugcore_process_calls_total",
			Help: "Completed process calls.",
		}),
		ProcessErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "plugcore_process_errors_total",
			Help: "Process calls rejected with an error.",
		}),
		QueueFull: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "plugcore_queue_full_total",
			Help: "Parameter edits that hit sync queue backpressure.",
		}),
		FramesRendered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "plugcore_frames_rendered_total",
			Help: "Audio frames produced.",
		}),
	}
	m.registry.MustRegister(m.ProcessCalls, m.ProcessErrors, m.QueueFull, m.FramesRendered)
	return m
}

// Handler serves the metrics over HTTP.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
