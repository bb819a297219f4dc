// Package observability exposes Prometheus metrics for the ingestion
// pipeline.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the pipeline counters and histograms. A dedicated registry
// keeps test instances isolated from the global default.
type Metrics struct {
	UploadsTotal       prometheus.Counter
	UploadBytesTotal   prometheus.Counter
	DetectionsTotal    prometheus.Counter
	RecordingsSaved    prometheus.Counter
	AnalysisErrors     prometheus.Counter
	ProcessingDuration prometheus.Histogram

	registry *prometheus.Registry
}

// NewMetrics creates and registers the pipeline metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		UploadsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roost_uploads_total",
			Help: "Number of audio chunk uploads accepted.",
		}),
		UploadBytesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roost_upload_bytes_total",
			Help: "Total raw PCM bytes received from sensors.",
		}),
		DetectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roost_detections_total",
			Help: "Number of species detections reported by the classifier.",
		}),
		RecordingsSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roost_recordings_saved_total",
			Help: "Number of recordings persisted to the store.",
		}),
		AnalysisErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roost_analysis_errors_total",
			Help: "Number of failed classifier invocations.",
		}),
		ProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "roost_processing_duration_seconds",
			Help:    "End to end duration of one analysis cycle.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.UploadsTotal,
		m.UploadBytesTotal,
		m.DetectionsTotal,
		m.RecordingsSaved,
		m.AnalysisErrors,
		m.ProcessingDuration,
	)
	return m
}

// Handler returns the HTTP handler serving the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
