package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the extraction pipeline.
type Metrics struct {
	Registry         *prometheus.Registry
	FetchTotal       *prometheus.CounterVec
	FetchDuration    prometheus.Histogram
	FetchRetries     prometheus.Counter
	CacheHits        prometheus.Counter
	CacheMisses      prometheus.Counter
	CacheEvictions   prometheus.Counter
	ExtractionsTotal *prometheus.CounterVec
	ScrapeErrors     *prometheus.CounterVec
}

// New constructs and registers all metrics on a dedicated registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	fetchTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leads_fetch_requests_total",
			Help: "Outbound page fetches by outcome.",
		},
		[]string{"outcome"},
	)
	fetchDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "leads_fetch_duration_seconds",
			Help:    "Latency of single outbound fetch attempts.",
			Buckets: prometheus.DefBuckets,
		},
	)
	fetchRetries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "leads_fetch_retries_total",
			Help: "Total number of fetch retries scheduled.",
		},
	)
	cacheHits := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "leads_cache_hits_total",
			Help: "Cache lookups answered with a fresh entry.",
		},
	)
	cacheMisses := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "leads_cache_misses_total",
			Help: "Cache lookups that found nothing or an expired entry.",
		},
	)
	cacheEvictions := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "leads_cache_evictions_total",
			Help: "Expired cache entries removed.",
		},
	)
	extractions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leads_extractions_total",
			Help: "Contact extractions by method.",
		},
		[]string{"method"},
	)
	scrapeErrors := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leads_scrape_errors_total",
			Help: "Per-URL scrape failures by category.",
		},
		[]string{"category"},
	)

	registry.MustRegister(fetchTotal, fetchDuration, fetchRetries, cacheHits, cacheMisses, cacheEvictions, extractions, scrapeErrors)

	return &Metrics{
		Registry:         registry,
		FetchTotal:       fetchTotal,
		FetchDuration:    fetchDuration,
		FetchRetries:     fetchRetries,
		CacheHits:        cacheHits,
		CacheMisses:      cacheMisses,
		CacheEvictions:   cacheEvictions,
		ExtractionsTotal: extractions,
		ScrapeErrors:     scrapeErrors,
	}
}

// IncFetch increments the fetch counter for an outcome label.
func (m *Metrics) IncFetch(outcome string) {
	if m == nil {
		return
	}
	m.FetchTotal.WithLabelValues(outcome).Inc()
}

// ObserveFetch records a fetch attempt duration.
func (m *Metrics) ObserveFetch(d time.Duration) {
	if m == nil {
		return
	}
	m.FetchDuration.Observe(d.Seconds())
}

// IncRetries increments the retries counter.
func (m *Metrics) IncRetries() {
	if m == nil {
		return
	}
	m.FetchRetries.Inc()
}

// IncCacheHit increments the cache hit counter.
func (m *Metrics) IncCacheHit() {
	if m == nil {
		return
	}
	m.CacheHits.Inc()
}

// IncCacheMiss increments the cache miss counter.
func (m *Metrics) IncCacheMiss() {
	if m == nil {
		return
	}
	m.CacheMisses.Inc()
}

// AddCacheEvictions adds n to the eviction counter.
func (m *Metrics) AddCacheEvictions(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.CacheEvictions.Add(float64(n))
}

// IncExtraction increments the extraction counter for a method label.
func (m *Metrics) IncExtraction(method string) {
	if m == nil {
		return
	}
	m.ExtractionsTotal.WithLabelValues(method).Inc()
}

// IncScrapeError increments the scrape error counter for a category label.
func (m *Metrics) IncScrapeError(category string) {
	if m == nil {
		return
	}
	m.ScrapeErrors.WithLabelValues(category).Inc()
}
