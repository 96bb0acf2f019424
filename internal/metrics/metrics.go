package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests being processed",
		},
	)

	URLOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "url_operations_total",
			Help: "Total number of URL operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	CacheRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_requests_total",
			Help: "Total number of cache lookups by result",
		},
		[]string{"result"},
	)

	CacheErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_errors_total",
			Help: "Total number of swallowed cache errors",
		},
		[]string{"operation"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"query_type"},
	)
)

func RecordHTTPMetrics(method, path, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

func RecordOperation(operation, outcome string) {
	URLOperationsTotal.WithLabelValues(operation, outcome).Inc()
}

func RecordCacheHit() {
	CacheRequestsTotal.WithLabelValues("hit").Inc()
}

func RecordCacheMiss() {
	CacheRequestsTotal.WithLabelValues("miss").Inc()
}

func RecordCacheError(operation string) {
	CacheErrorsTotal.WithLabelValues(operation).Inc()
}

// ObserveQuery returns a func that records the elapsed time of a query when called.
func ObserveQuery(queryType string) func() {
	start := time.Now()
	return func() {
		DBQueryDuration.WithLabelValues(queryType).Observe(time.Since(start).Seconds())
	}
}
