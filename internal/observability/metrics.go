// Package observability provides metrics and tracing for the application.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// PostSubmissions counts post submissions by kind (create/update) and outcome.
	PostSubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_post_submissions_total",
		Help: "Total number of post submissions by kind and outcome",
	}, []string{"kind", "outcome"})

	// UploadRejections counts file uploads rejected before any storage call.
	UploadRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_upload_rejections_total",
		Help: "Total number of uploads rejected by validation, by reason",
	}, []string{"reason"})

	// StaleFileCleanupFailures counts best-effort file deletions that failed.
	StaleFileCleanupFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inkwell_stale_file_cleanup_failures_total",
		Help: "Total number of failed best-effort stored-file deletions",
	})
)
