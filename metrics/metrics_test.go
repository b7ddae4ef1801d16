package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelineMetrics(t *testing.T) {

	reg := prometheus.NewRegistry()

	m, err := NewPipeline(reg)
	require.NoError(t, err)

	m.RecordFrame(OutcomeProcessed, 20*time.Millisecond)
	m.RecordFrame(OutcomeProcessed, 30*time.Millisecond)
	m.RecordFrame(OutcomeSkipped, time.Millisecond)
	m.RecordDetections(2, 3)
	m.RecordLedgerEntry()
	m.RecordLocationUnavailable()
	m.RecordSession(StatusCompleted)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.frames.WithLabelValues(OutcomeProcessed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.frames.WithLabelValues(OutcomeSkipped)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.detections.WithLabelValues(ResultAccepted)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.detections.WithLabelValues(ResultRejected)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ledgerEntries))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.locationUnavailable))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sessions.WithLabelValues(StatusCompleted)))

	count, err := testutil.GatherAndCount(reg, "cropwatch_frame_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// registering twice on the same registry fails
	_, err = NewPipeline(reg)
	assert.Error(t, err)
}

func TestNilPipeline(t *testing.T) {

	var m *Pipeline

	assert.NotPanics(t, func() {
		m.RecordFrame(OutcomeFatal, time.Second)
		m.RecordDetections(1, 1)
		m.RecordLedgerEntry()
		m.RecordLocationUnavailable()
		m.RecordSession(StatusFailed)
	})
}
