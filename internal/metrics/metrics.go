// Package metrics provides Prometheus metrics for the Orbit tree engine.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Directory scan metrics
	scansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orbit_directory_scans_total",
			Help: "Total number of filesystem directory scans",
		},
		[]string{"status"},
	)

	scanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "orbit_directory_scan_duration_seconds",
			Help:    "Filesystem directory scan duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Directory cache metrics
	cacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "orbit_cache_hits_total",
			Help: "Total directory cache hits",
		},
	)

	cacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "orbit_cache_misses_total",
			Help: "Total directory cache misses",
		},
	)

	cacheEvictionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "orbit_cache_evictions_total",
			Help: "Total directory cache evictions",
		},
	)

	cacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "orbit_cache_entries",
			Help: "Current number of cached directory listings",
		},
	)

	// Tree mutation metrics
	splicesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orbit_tree_splices_total",
			Help: "Total structural mutations of the flattened sequence",
		},
		[]string{"op"},
	)

	treeSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "orbit_tree_size",
			Help: "Number of nodes currently visible in the flattened sequence",
		},
	)

	opDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "orbit_op_duration_seconds",
			Help:    "Expand/collapse/refresh operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	// Prefetch metrics
	prefetchedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "orbit_prefetched_directories_total",
			Help: "Directories scanned ahead of interaction by the prefetcher",
		},
	)
)

// RecordScan records a directory scan and its outcome.
func RecordScan(d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	scansTotal.WithLabelValues(status).Inc()
	scanDuration.Observe(d.Seconds())
}

// RecordCacheHit increments the cache hit counter.
func RecordCacheHit() {
	cacheHitsTotal.Inc()
}

// RecordCacheMiss increments the cache miss counter.
func RecordCacheMiss() {
	cacheMissesTotal.Inc()
}

// RecordCacheEviction increments the cache eviction counter.
func RecordCacheEviction() {
	cacheEvictionsTotal.Inc()
}

// SetCacheEntries sets the cached listing count gauge.
func SetCacheEntries(n int) {
	cacheEntries.Set(float64(n))
}

// RecordSplice records one structural mutation ("insert" or "remove").
func RecordSplice(op string) {
	splicesTotal.WithLabelValues(op).Inc()
}

// SetTreeSize sets the visible sequence length gauge.
func SetTreeSize(n int) {
	treeSize.Set(float64(n))
}

// ObserveOp records the duration of one engine operation.
func ObserveOp(op string, d time.Duration) {
	opDuration.WithLabelValues(op).Observe(d.Seconds())
}

// RecordPrefetch increments the prefetched directory counter.
func RecordPrefetch() {
	prefetchedTotal.Inc()
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
