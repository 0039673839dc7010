// Package metrics exposes prometheus instrumentation for optimization runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the collectors on a private registry, so tests and
// embedded servers never collide on the default one.
type Metrics struct {
	registry *prometheus.Registry

	runsTotal         *prometheus.CounterVec
	runIterations     prometheus.Histogram
	runSeconds        prometheus.Histogram
	filterFailures    *prometheus.CounterVec
	generationSeconds prometheus.Histogram
}

// New creates and registers the collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hrbreaker_runs_total",
			Help: "Optimization runs by terminal status.",
		}, []string{"status"}),
		runIterations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "hrbreaker_run_iterations",
			Help:    "Iterations consumed per optimization run.",
			Buckets: prometheus.LinearBuckets(1, 1, 10),
		}),
		runSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "hrbreaker_run_seconds",
			Help:    "Wall time per optimization run.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
		filterFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hrbreaker_filter_failures_total",
			Help: "Failing filter outcomes by filter name.",
		}, []string{"filter"}),
		generationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "hrbreaker_generation_seconds",
			Help:    "Latency of single generator calls.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.runsTotal,
		m.runIterations,
		m.runSeconds,
		m.filterFailures,
		m.generationSeconds,
	)

	return m
}

// ObserveRun records a finished run.
func (m *Metrics) ObserveRun(status string, iterations int, d time.Duration) {
	m.runsTotal.WithLabelValues(status).Inc()
	m.runIterations.Observe(float64(iterations))
	m.runSeconds.Observe(d.Seconds())
}

// ObserveFilterFailure records one failing filter outcome.
func (m *Metrics) ObserveFilterFailure(filter string) {
	m.filterFailures.WithLabelValues(filter).Inc()
}

// ObserveGeneration records the latency of one generator call.
func (m *Metrics) ObserveGeneration(d time.Duration) {
	m.generationSeconds.Observe(d.Seconds())
}

// Handler serves the registry in prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Gather exposes the registry for tests.
func (m *Metrics) Gather() prometheus.Gatherer { return m.registry }
