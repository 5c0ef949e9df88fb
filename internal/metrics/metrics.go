// Package metrics exposes Prometheus instrumentation for mutations, remote
// calls and generated content.
package metrics

import (
	"context"
	"net/http"

	"github.com/phrazzld/vocab-trainer/internal/events"
	"github.com/phrazzld/vocab-trainer/internal/generation"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "vocab"

// Metrics owns a private registry so tests can create as many as they need.
type Metrics struct {
	registry *prometheus.Registry

	mutations      *prometheus.CounterVec
	remoteDuration *prometheus.HistogramVec
	content        *prometheus.CounterVec
	jobRuns        *prometheus.CounterVec
}

var (
	_ events.EventHandler = (*Metrics)(nil)
	_ generation.Recorder = (*Metrics)(nil)
)

// New creates and registers every collector, including the Go runtime and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_total",
			Help:      "Settled mutations by kind and outcome.",
		}, []string{"kind", "outcome"}),
		remoteDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "remote_call_duration_seconds",
			Help:      "Duration of remote mutation calls.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"kind"}),
		content: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "content_requests_total",
			Help:      "Content requests by operation and outcome.",
		}, []string{"operation", "outcome"}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_runs_total",
			Help:      "Background job runs by job and result.",
		}, []string{"job", "result"}),
	}

	m.registry.MustRegister(
		m.mutations,
		m.remoteDuration,
		m.content,
		m.jobRuns,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry backing the metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// HandleEvent implements events.EventHandler.
func (m *Metrics) HandleEvent(_ context.Context, event *events.MutationEvent) error {
	m.mutations.WithLabelValues(event.Kind, string(event.Outcome)).Inc()
	m.remoteDuration.WithLabelValues(event.Kind).Observe(event.Duration.Seconds())
	return nil
}

// ObserveContent implements generation.Recorder.
func (m *Metrics) ObserveContent(operation, outcome string) {
	m.content.WithLabelValues(operation, outcome).Inc()
}

// ObserveJob counts a background job run.
func (m *Metrics) ObserveJob(job string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.jobRuns.WithLabelValues(job, result).Inc()
}

// RegisterGauge exposes the value returned by fn, read at scrape time.
func (m *Metrics) RegisterGauge(name, help string, fn func() float64) error {
	return m.registry.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, fn))
}
