// Package metrics provides Prometheus metrics for detection sessions
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Frame outcomes
const (
	OutcomeProcessed = "processed"
	OutcomeSkipped   = "skipped"
	OutcomeFatal     = "fatal"
)

// Detection results
const (
	ResultAccepted = "accepted"
	ResultRejected = "rejected"
)

// Session statuses
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Pipeline contains the Prometheus metrics of the frame pipeline.  A nil
// *Pipeline is valid and records nothing.
type Pipeline struct {
	frames              *prometheus.CounterVec
	detections          *prometheus.CounterVec
	ledgerEntries       prometheus.Counter
	locationUnavailable prometheus.Counter
	frameDuration       prometheus.Histogram
	sessions            *prometheus.CounterVec

	// collectors is a slice of all collectors for easier iteration
	collectors []prometheus.Collector
}

// NewPipeline creates the pipeline metrics and registers them with registry
func NewPipeline(registry prometheus.Registerer) (*Pipeline, error) {

	m := &Pipeline{
		frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cropwatch_frames_total",
			Help: "Frames handled by the pipeline by outcome",
		}, []string{"outcome"}),
		detections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cropwatch_detections_total",
			Help: "Detections returned by the detector by filter result",
		}, []string{"result"}),
		ledgerEntries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cropwatch_ledger_entries_total",
			Help: "Detections recorded in a session ledger",
		}),
		locationUnavailable: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cropwatch_location_unavailable_total",
			Help: "Accepted detections not recorded because no location was available",
		}),
		frameDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cropwatch_frame_duration_seconds",
			Help:    "Time taken to detect, filter, annotate and record one frame",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cropwatch_sessions_total",
			Help: "Sessions run by final status",
		}, []string{"status"}),
	}

	m.collectors = []prometheus.Collector{
		m.frames,
		m.detections,
		m.ledgerEntries,
		m.locationUnavailable,
		m.frameDuration,
		m.sessions,
	}

	if err := registry.Register(m); err != nil {
		return nil, err
	}

	return m, nil
}

// Describe implements the Collector interface
func (m *Pipeline) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range m.collectors {
		collector.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *Pipeline) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range m.collectors {
		collector.Collect(ch)
	}
}

// RecordFrame records a handled frame and the time it took
func (m *Pipeline) RecordFrame(outcome string, took time.Duration) {

	if m == nil {
		return
	}

	m.frames.WithLabelValues(outcome).Inc()
	m.frameDuration.Observe(took.Seconds())
}

// RecordDetections records the number of accepted and rejected detections
// of a frame
func (m *Pipeline) RecordDetections(accepted, rejected int) {

	if m == nil {
		return
	}

	m.detections.WithLabelValues(ResultAccepted).Add(float64(accepted))
	m.detections.WithLabelValues(ResultRejected).Add(float64(rejected))
}

// RecordLedgerEntry records a detection written to a ledger
func (m *Pipeline) RecordLedgerEntry() {
	if m != nil {
		m.ledgerEntries.Inc()
	}
}

// RecordLocationUnavailable records a detection left untagged
func (m *Pipeline) RecordLocationUnavailable() {
	if m != nil {
		m.locationUnavailable.Inc()
	}
}

// RecordSession records a finished session
func (m *Pipeline) RecordSession(status string) {
	if m != nil {
		m.sessions.WithLabelValues(status).Inc()
	}
}
