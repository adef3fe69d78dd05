package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "samplestore_http_requests_total",
			Help: "Total number of HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "samplestore_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "samplestore_http_active_requests",
			Help: "Number of HTTP requests currently being served",
		},
	)

	// Samples
	SamplesCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "samplestore_samples_created_total",
			Help: "Total number of samples created",
		},
	)

	SamplesDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "samplestore_samples_deleted_total",
			Help: "Total number of samples deleted",
		},
	)

	LabelUpdates = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "samplestore_label_updates_total",
			Help: "Total number of label files replaced",
		},
	)

	UploadBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "samplestore_upload_bytes",
			Help:    "Size of uploaded files in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 10), // 1KiB .. 256MiB
		},
		[]string{"kind"},
	)

	CompensationFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "samplestore_compensation_failures_total",
			Help: "Unreferenced files that could not be removed after a failed add or a delete",
		},
	)
)

// RecordAPIRequest records a completed HTTP request.
func RecordAPIRequest(method, route, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, status).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackActiveRequest adjusts the in-flight request gauge.
func TrackActiveRequest(start bool) {
	if start {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordUpload observes the size of an uploaded file of the given kind.
func RecordUpload(kind string, size int64) {
	UploadBytes.WithLabelValues(kind).Observe(float64(size))
}
