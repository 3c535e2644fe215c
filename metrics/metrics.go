// Package metrics provides Prometheus metrics for the live-server gateway.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "liveserver_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "liveserver_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Authentication metrics
	LoginAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "liveserver_login_attempts_total",
			Help: "Total number of login attempts",
		},
		[]string{"outcome"}, // "success", "unknown_account", "incorrect_credentials", "locked_account", "rate_limited", "auth_error", "unexpected"
	)

	LogoutsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "liveserver_logouts_total",
			Help: "Total number of logouts",
		},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "liveserver_active_sessions",
			Help: "Number of currently live authenticated sessions",
		},
	)

	// Upload serving metrics
	FileDownloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "liveserver_file_downloads_total",
			Help: "Total number of upload file downloads",
		},
		[]string{"status"}, // "success", "not_found", "rejected", "error"
	)

	FileDownloadBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "liveserver_file_download_bytes_total",
			Help: "Total bytes streamed from the upload storage root",
		},
	)

	// Credential store metrics
	UserStoreQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "liveserver_user_store_queries_total",
			Help: "Total number of credential store queries",
		},
		[]string{"operation"},
	)
)

// RegisterMetrics ensures all metrics are registered with Prometheus.
// This function is idempotent and safe to call multiple times.
func RegisterMetrics() {
	// All metrics are automatically registered via promauto.
	// This function exists for explicit initialization if needed.
}
