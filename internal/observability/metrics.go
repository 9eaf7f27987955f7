package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Client-side API metrics
	ClientRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orgsite_client_requests_total",
			Help: "Total number of API requests issued by the client",
		},
		[]string{"method", "resource", "outcome"},
	)

	ClientRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "orgsite_client_request_duration_seconds",
			Help:    "API request latency observed by the client in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "resource"},
	)

	SessionTeardownsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "orgsite_client_session_teardowns_total",
			Help: "Number of times a 401 response cleared the stored session",
		},
	)

	// Cache metrics
	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orgsite_cache_lookups_total",
			Help: "Resource cache lookups by outcome (hit, miss, refresh, denied)",
		},
		[]string{"resource", "result"},
	)

	// UI primitives
	NotificationsShownTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orgsite_notifications_shown_total",
			Help: "Notifications shown by severity",
		},
		[]string{"severity"},
	)

	// Mock backend HTTP metrics
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	MockRecordsStored = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mock_backend_records",
			Help: "Number of records held by the mock backend per collection",
		},
		[]string{"collection"},
	)
)
