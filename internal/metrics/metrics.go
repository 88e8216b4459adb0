package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thumbsvc_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "thumbsvc_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Resolution Metrics
	ResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thumbsvc_resolutions_total",
			Help: "Total number of thumbnail resolutions",
		},
		[]string{"source", "outcome"},
	)

	ResolutionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "thumbsvc_resolution_duration_seconds",
			Help:    "Thumbnail resolution latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	ValidationChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thumbsvc_validation_checks_total",
			Help: "Total number of thumbnail URL existence checks",
		},
		[]string{"quality", "result"},
	)

	// Cache Metrics
	CacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thumbsvc_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"tier"},
	)

	CacheMissesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thumbsvc_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"tier"},
	)

	CacheEvictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thumbsvc_cache_evictions_total",
			Help: "Total number of cache evictions",
		},
		[]string{"reason"},
	)

	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "thumbsvc_cache_entries",
			Help: "Current number of entries in the memory cache",
		},
	)

	// Extraction Metrics
	ExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thumbsvc_extractions_total",
			Help: "Total number of frame extractions",
		},
		[]string{"outcome"},
	)

	ExtractionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "thumbsvc_extraction_duration_seconds",
			Help:    "Frame extraction duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~51s
		},
	)

	// Preload Metrics
	PreloadJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thumbsvc_preload_jobs_total",
			Help: "Total number of preload jobs processed",
		},
		[]string{"strategy"},
	)

	PreloadItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thumbsvc_preload_items_total",
			Help: "Total number of preloaded items",
		},
		[]string{"outcome"},
	)

	PreloadBatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "thumbsvc_preload_batch_duration_seconds",
			Help:    "Duration of a preload batch in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Retry Metrics
	RetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thumbsvc_retries_total",
			Help: "Total number of resolution retries",
		},
		[]string{"kind"},
	)

	// Placeholder Metrics
	PlaceholdersRenderedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thumbsvc_placeholders_rendered_total",
			Help: "Total number of placeholder images rendered",
		},
		[]string{"variant"},
	)
)
