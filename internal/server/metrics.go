package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics holds the collectors for one Server. Each server owns its
// registry so several can coexist in one process.
type metrics struct {
	registry        *prometheus.Registry
	snapshotTotal   *prometheus.CounterVec
	computeDuration *prometheus.HistogramVec
	errorsTotal     *prometheus.CounterVec
}

func newMetrics() *metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &metrics{
		registry: reg,
		snapshotTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "feedlens",
				Name:      "snapshot_requests_total",
				Help:      "Total number of analytics snapshot requests",
			},
			[]string{"range", "cache"},
		),
		computeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "feedlens",
				Name:      "snapshot_duration_seconds",
				Help:      "Time to load and compute an analytics snapshot in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"range"},
		),
		errorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "feedlens",
				Name:      "errors_total",
				Help:      "Total number of failed requests",
			},
			[]string{"route"},
		),
	}
}

// recordSnapshot records one snapshot request.
func (m *metrics) recordSnapshot(rangeLabel string, hit bool, seconds float64) {
	cache := "miss"
	if hit {
		cache = "hit"
	}
	m.snapshotTotal.WithLabelValues(rangeLabel, cache).Inc()
	m.computeDuration.WithLabelValues(rangeLabel).Observe(seconds)
}

func (m *metrics) recordError(route string) {
	m.errorsTotal.WithLabelValues(route).Inc()
}
