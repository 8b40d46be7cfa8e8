package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   prometheus.CounterVec
	HTTPRequestDuration prometheus.HistogramVec

	// Upload admission metrics
	UploadAdmissionsTotal  prometheus.CounterVec
	UploadQuotaDeniedTotal prometheus.CounterVec

	// Transport-level rate limiting
	RateLimitExceededTotal prometheus.CounterVec

	// Error metrics
	ErrorsTotal prometheus.CounterVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Initialize creates and registers all Prometheus metrics
func Initialize() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			HTTPRequestsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
				},
				[]string{"method", "path", "status"},
			),
			UploadAdmissionsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "upload_admissions_total",
					Help: "Upload admission decisions by result (allowed, denied, error)",
				},
				[]string{"result"},
			),
			UploadQuotaDeniedTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "upload_quota_denied_total",
					Help: "Uploads denied by the per-community quota, by community",
				},
				[]string{"community_id"},
			),
			RateLimitExceededTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "rate_limit_exceeded_total",
					Help: "Requests rejected by the transport-level IP rate limiter",
				},
				[]string{"path"},
			),
			ErrorsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "errors_total",
					Help: "Total application errors by type",
				},
				[]string{"type"},
			),
		}
	})
	return instance
}

// Get returns the metrics instance, initializing it if needed
func Get() *Metrics {
	return Initialize()
}
