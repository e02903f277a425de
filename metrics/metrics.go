// Package metrics provides Prometheus metrics for the content gateway.
// HTTP request metrics come from the echoprometheus middleware; this
// package covers uploads and content-service failures.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "folio"

// Upload results.
const (
	UploadSuccess = "success"
	UploadFailure = "failure"
	UploadSkipped = "skipped"
)

var (
	// ImageUploadsTotal counts feature image upload attempts by result.
	ImageUploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "media",
			Name:      "image_uploads_total",
			Help:      "Feature image uploads by result (success, failure, skipped)",
		},
		[]string{"result"},
	)

	// ImageUploadBytes observes the size of uploaded images.
	ImageUploadBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "media",
			Name:      "image_upload_bytes",
			Help:      "Size of uploaded feature images in bytes",
			Buckets:   prometheus.ExponentialBuckets(16<<10, 4, 7),
		},
	)

	// ContentErrorsTotal counts content-service failures by operation.
	ContentErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "content",
			Name:      "errors_total",
			Help:      "Content service failures by operation",
		},
		[]string{"operation"},
	)

	// ArticlesWrittenTotal counts successful article writes by action.
	ArticlesWrittenTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "content",
			Name:      "articles_written_total",
			Help:      "Successful article writes by action (create, update, delete)",
		},
		[]string{"action"},
	)
)

// ObserveUpload records one upload attempt.
func ObserveUpload(result string, size int) {
	ImageUploadsTotal.WithLabelValues(result).Inc()
	if result == UploadSuccess {
		ImageUploadBytes.Observe(float64(size))
	}
}

// ContentError records a failed content-service call.
func ContentError(operation string) {
	ContentErrorsTotal.WithLabelValues(operation).Inc()
}

// ArticleWritten records a successful create, update or delete.
func ArticleWritten(action string) {
	ArticlesWrittenTotal.WithLabelValues(action).Inc()
}
