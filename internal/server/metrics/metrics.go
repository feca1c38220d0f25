// Package metrics records upload pipeline outcomes in a Prometheus registry.
// The uploader is a batch process, so the registry is exported to a
// node-exporter textfile instead of being scraped.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// UploadMetrics is safe for concurrent use.
type UploadMetrics struct {
	reg *prometheus.Registry

	uploads       *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	bytes         prometheus.Counter
	compensations *prometheus.CounterVec
}

// New registers the upload metrics in a fresh registry.
func New() *UploadMetrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &UploadMetrics{
		reg: reg,
		uploads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docvault_uploads_total",
			Help: "Upload pipeline runs by terminal state.",
		}, []string{"outcome"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "docvault_upload_duration_seconds",
			Help:    "Wall time of one upload pipeline run.",
			Buckets: prometheus.DefBuckets,
		}, []string{"outcome"}),
		bytes: f.NewCounter(prometheus.CounterOpts{
			Name: "docvault_uploaded_bytes_total",
			Help: "Bytes of successfully catalogued documents.",
		}),
		compensations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docvault_compensations_total",
			Help: "Compensating blob deletes after a catalog failure.",
		}, []string{"result"}),
	}
}

// ObserveUpload records one finished run. size counts only for "done".
func (m *UploadMetrics) ObserveUpload(outcome string, elapsed time.Duration, size uint64) {
	m.uploads.WithLabelValues(outcome).Inc()
	m.duration.WithLabelValues(outcome).Observe(elapsed.Seconds())
	if outcome == "done" {
		m.bytes.Add(float64(size))
	}
}

// ObserveCompensation records whether the compensating delete succeeded.
func (m *UploadMetrics) ObserveCompensation(ok bool) {
	result := "deleted"
	if !ok {
		result = "orphaned"
	}
	m.compensations.WithLabelValues(result).Inc()
}

func (m *UploadMetrics) Registry() *prometheus.Registry { return m.reg }

// WriteTextfile atomically writes the registry in text exposition format.
func (m *UploadMetrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.reg)
}
