package cache

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds Prometheus metrics shared by every cache in the process.
type Metrics struct {
	HitsTotal        *prometheus.CounterVec
	MissesTotal      *prometheus.CounterVec
	BuildsTotal      *prometheus.CounterVec
	BuildErrorsTotal *prometheus.CounterVec
	BuildDuration    *prometheus.HistogramVec
	StoreErrorsTotal *prometheus.CounterVec
	Entries          *prometheus.GaugeVec
}

// NewMetrics registers the cache metrics once and returns them.
//
// Metrics, all labelled by cache name:
//   - ccsearch_cache_hits_total
//   - ccsearch_cache_misses_total
//   - ccsearch_cache_builds_total
//   - ccsearch_cache_build_errors_total
//   - ccsearch_cache_build_duration_seconds
//   - ccsearch_cache_store_errors_total - snapshot reads or writes that failed
//   - ccsearch_cache_entries
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		labels := []string{"cache"}
		globalMetrics = &Metrics{
			HitsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "ccsearch_cache_hits_total",
					Help: "Total number of cache hits",
				},
				labels,
			),
			MissesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "ccsearch_cache_misses_total",
					Help: "Total number of cache misses",
				},
				labels,
			),
			BuildsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "ccsearch_cache_builds_total",
					Help: "Total number of values built after a miss",
				},
				labels,
			),
			BuildErrorsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "ccsearch_cache_build_errors_total",
					Help: "Total number of failed builds",
				},
				labels,
			),
			BuildDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "ccsearch_cache_build_duration_seconds",
					Help:    "Time spent building cache values",
					Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
				},
				labels,
			),
			StoreErrorsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "ccsearch_cache_store_errors_total",
					Help: "Total number of persisted cache reads or writes that failed",
				},
				labels,
			),
			Entries: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "ccsearch_cache_entries",
					Help: "Current number of entries held in memory",
				},
				labels,
			),
		}
	})
	return globalMetrics
}
