// Package monitoring exposes Prometheus metrics for searches, HTTP requests
// and the loaded reference data.
package monitoring

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "agroanalytics"

// Metrics holds the Prometheus counters, histograms, and gauges.
type Metrics struct {
	// Search metrics.
	SearchDuration   prometheus.Histogram
	SearchCandidates prometheus.Counter
	SearchRanked     prometheus.Counter
	SearchSkipped    prometheus.Counter

	// HTTP metrics.
	HTTPRequests *prometheus.CounterVec   // labels: route, status
	HTTPDuration *prometheus.HistogramVec // labels: route

	// Reference data metrics.
	ReferenceRows    *prometheus.GaugeVec // labels: table
	LastImportTime   prometheus.Gauge
	PairCacheEntries prometheus.Gauge
	PairCacheHits    prometheus.Gauge
	PairCacheMisses  prometheus.Gauge
}

func newMetrics() *Metrics {
	return &Metrics{
		SearchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Duration of a corpus similarity ranking.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		SearchCandidates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_candidates_total",
			Help:      "Candidates considered by similarity rankings.",
		}),
		SearchRanked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_ranked_total",
			Help:      "Candidates that produced a score.",
		}),
		SearchSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_skipped_total",
			Help:      "Candidates skipped as not comparable.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "API requests by route pattern and status code.",
		}, []string{"route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "API request duration by route pattern.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"route"}),
		ReferenceRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reference_rows",
			Help:      "Rows loaded per reference table.",
		}, []string{"table"}),
		LastImportTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_import_timestamp_seconds",
			Help:      "Unix time of the most recent reference import, 0 when unknown.",
		}),
		PairCacheEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pair_cache_entries",
			Help:      "Municipality pairs held in the comparison cache.",
		}),
		PairCacheHits: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pair_cache_hits",
			Help:      "Comparison cache hits since start.",
		}),
		PairCacheMisses: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pair_cache_misses",
			Help:      "Comparison cache misses since start.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.SearchDuration,
		m.SearchCandidates,
		m.SearchRanked,
		m.SearchSkipped,
		m.HTTPRequests,
		m.HTTPDuration,
		m.ReferenceRows,
		m.LastImportTime,
		m.PairCacheEntries,
		m.PairCacheHits,
		m.PairCacheMisses,
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting registers the metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() (*Metrics, *prometheus.Registry) {
	m := newMetrics()
	reg := prometheus.NewRegistry()
	reg.MustRegister(m.collectors()...)
	return m, reg
}

// ObserveRanking records one corpus ranking.
func (m *Metrics) ObserveRanking(candidates, ranked, skipped int, d time.Duration) {
	m.SearchDuration.Observe(d.Seconds())
	m.SearchCandidates.Add(float64(candidates))
	m.SearchRanked.Add(float64(ranked))
	m.SearchSkipped.Add(float64(skipped))
}

// ObserveRequest records one API request.
func (m *Metrics) ObserveRequest(route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(d.Seconds())
}

// Publish copies a snapshot into the gauges.
func (m *Metrics) Publish(s *Snapshot) {
	for table, n := range s.Rows {
		m.ReferenceRows.WithLabelValues(table).Set(float64(n))
	}
	if s.LastImport.IsZero() {
		m.LastImportTime.Set(0)
	} else {
		m.LastImportTime.Set(float64(s.LastImport.Unix()))
	}
	m.PairCacheEntries.Set(float64(s.CacheEntries))
	m.PairCacheHits.Set(float64(s.CacheHits))
	m.PairCacheMisses.Set(float64(s.CacheMisses))
}
