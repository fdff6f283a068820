// Package metrics exposes compile and search counters.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the sift collectors. A nil *Metrics records nothing.
type Metrics struct {
	// CompilesTotal counts predicate compiles by entity and status.
	CompilesTotal *prometheus.CounterVec
	// CompileDuration is the latency of predicate compiles.
	CompileDuration *prometheus.HistogramVec
	// SearchesTotal counts executed searches by entity.
	SearchesTotal *prometheus.CounterVec
	// SearchHits is the number of documents returned per search.
	SearchHits *prometheus.HistogramVec
}

// New registers the collectors with reg. A nil reg uses a fresh registry,
// which keeps repeated construction in tests free of duplicate
// registration panics.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)
	return &Metrics{
		CompilesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sift_compiles_total",
				Help: "Total number of predicate compiles",
			},
			[]string{"entity", "status"},
		),
		CompileDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sift_compile_duration_seconds",
				Help:    "Predicate compile latency in seconds",
				Buckets: []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05},
			},
			[]string{"entity"},
		),
		SearchesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sift_searches_total",
				Help: "Total number of executed searches",
			},
			[]string{"entity"},
		),
		SearchHits: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sift_search_hits",
				Help:    "Documents returned per search",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
			[]string{"entity"},
		),
	}
}

// ObserveCompile records one compile.
func (m *Metrics) ObserveCompile(entity string, d time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.CompilesTotal.WithLabelValues(entity, status).Inc()
	m.CompileDuration.WithLabelValues(entity).Observe(d.Seconds())
}

// ObserveSearch records one search returning hits documents.
func (m *Metrics) ObserveSearch(entity string, hits int) {
	if m == nil {
		return
	}
	m.SearchesTotal.WithLabelValues(entity).Inc()
	m.SearchHits.WithLabelValues(entity).Observe(float64(hits))
}
