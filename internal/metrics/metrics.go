// Package metrics provides Prometheus collectors for the refresh pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Fetch metrics
	FetchDuration  *prometheus.HistogramVec
	FetchFallbacks *prometheus.CounterVec

	// Refresh metrics
	RefreshCycles   *prometheus.CounterVec
	RefreshDuration prometheus.Histogram

	// Snapshot metrics
	Offers   prometheus.Gauge
	Pairs    prometheus.Gauge
	Sessions prometheus.Gauge

	// Health metrics
	LastSuccessfulRefresh prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "orderbook_landing"
	}
	factory := promauto.With(reg)

	return &Metrics{
		FetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "fetch_duration_seconds",
			Help:      "Orderbook API request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint", "result"}),
		FetchFallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "fallbacks_total",
			Help:      "Total number of fetches answered with fallback data",
		}, []string{"endpoint"}),

		RefreshCycles: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "cycles_total",
			Help:      "Total number of refresh cycles by outcome",
		}, []string{"outcome"}),
		RefreshDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "duration_seconds",
			Help:      "Refresh cycle duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),

		Offers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "offers",
			Help:      "Number of offers in the current snapshot",
		}),
		Pairs: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "pairs",
			Help:      "Number of trading pairs in the current snapshot",
		}),
		Sessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "web",
			Name:      "sessions",
			Help:      "Number of live viewer sessions",
		}),

		LastSuccessfulRefresh: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_refresh_timestamp",
			Help:      "Unix timestamp of the last applied refresh",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// ObserveFetch records the latency of one API request.
func (m *Metrics) ObserveFetch(endpoint string, d time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.FetchDuration.WithLabelValues(endpoint, result).Observe(d.Seconds())
}

// RecordFallback counts a fetch answered with fallback data.
func (m *Metrics) RecordFallback(endpoint string) {
	if m == nil {
		return
	}
	m.FetchFallbacks.WithLabelValues(endpoint).Inc()
}

// RecordRefresh counts a finished refresh cycle.
func (m *Metrics) RecordRefresh(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.RefreshCycles.WithLabelValues(outcome).Inc()
	m.RefreshDuration.Observe(d.Seconds())
}

// SetSnapshot updates the snapshot gauges after a refresh was applied.
func (m *Metrics) SetSnapshot(offers, pairs int, at time.Time) {
	if m == nil {
		return
	}
	m.Offers.Set(float64(offers))
	m.Pairs.Set(float64(pairs))
	m.LastSuccessfulRefresh.Set(float64(at.Unix()))
}

// SetSessions updates the live session gauge.
func (m *Metrics) SetSessions(n int) {
	if m == nil {
		return
	}
	m.Sessions.Set(float64(n))
}
