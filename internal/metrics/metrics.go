// Package metrics exposes Prometheus instruments for sizing calculations and the HTTP API.
//
// Instruments register on a caller-supplied registry so tests and multiple servers in one
// process do not collide on the global default registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "absizer"

// Metrics holds every instrument the service records.
type Metrics struct {
	// CalculationsTotal counts calculations by outcome (ok, invalid, overflow).
	CalculationsTotal *prometheus.CounterVec

	// SampleSize records the sizes of successful calculations.
	SampleSize prometheus.Histogram

	// RequestDuration measures HTTP handling time by route, method and status.
	RequestDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

// New registers the instruments on reg. A nil reg gets a fresh registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		CalculationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "calculator",
			Name:      "calculations_total",
			Help:      "Sample size calculations by outcome.",
		}, []string{"outcome"}),
		SampleSize: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "calculator",
			Name:      "sample_size",
			Help:      "Distribution of computed sample sizes.",
			Buckets:   prometheus.ExponentialBuckets(100, 4, 10),
		}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
		registry: reg,
	}
}

// ObserveCalculation records one calculation outcome.
func (m *Metrics) ObserveCalculation(outcome string, sampleSize int64) {
	m.CalculationsTotal.WithLabelValues(outcome).Inc()
	if sampleSize > 0 {
		m.SampleSize.Observe(float64(sampleSize))
	}
}

// ObserveRequest records one handled HTTP request.
func (m *Metrics) ObserveRequest(route, method, status string, elapsed time.Duration) {
	m.RequestDuration.WithLabelValues(route, method, status).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
