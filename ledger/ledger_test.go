package ledger

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swdee/go-cropwatch/disease"
	"github.com/swdee/go-cropwatch/geo"
	"github.com/swdee/go-cropwatch/postprocess"
)

func accepted(label string, conf float64) postprocess.Accepted {
	e, _ := disease.Default().Lookup(label)
	return postprocess.Accepted{
		Detection: postprocess.Detection{Label: label, Confidence: conf},
		Color:     e.Color,
		Remedy:    e.Remedy,
	}
}

func TestRecordOrder(t *testing.T) {

	l := New(disease.Default())

	clock := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	labels := []string{"tungro", "Rust-Leaf", "tungro", "Fungus leaf"}

	for i, label := range labels {
		e, err := l.Record(accepted(label, 0.8), geo.Point{Lat: float64(i), Lon: float64(i)})
		require.NoError(t, err)
		assert.Equal(t, i, e.Index)
	}

	all := l.All()
	require.Len(t, all, 4)

	for i, e := range all {
		assert.Equal(t, i, e.Index)
		assert.Equal(t, labels[i], e.Label)
	}

	assert.True(t, all[0].RecordedAt.Before(all[3].RecordedAt))

	assert.Equal(t, []geo.Point{{Lat: 0, Lon: 0}, {Lat: 1, Lon: 1}, {Lat: 2, Lon: 2}, {Lat: 3, Lon: 3}}, l.Locations())
	assert.Equal(t, 4, l.Len())
}

func TestRecordRejectsUnknownLabel(t *testing.T) {

	l := New(disease.Default())

	_, err := l.Record(postprocess.Accepted{Detection: postprocess.Detection{Label: "UnknownLeafThing"}},
		geo.DefaultReference)
	assert.Error(t, err)

	_, err = l.Record(accepted("tungro", 0.9), geo.Point{Lat: 200})
	assert.Error(t, err)

	assert.Zero(t, l.Len())
}

func TestAllReturnsCopy(t *testing.T) {

	l := New(disease.Default())
	_, err := l.Record(accepted("tungro", 0.9), geo.DefaultReference)
	require.NoError(t, err)

	all := l.All()
	all[0].Label = "changed"

	assert.Equal(t, "tungro", l.All()[0].Label)
}

func TestSummary(t *testing.T) {

	l := New(disease.Default())

	empty := l.Summary()
	assert.Zero(t, empty.Count)
	assert.NotNil(t, empty.ByLabel)

	for _, d := range []postprocess.Accepted{
		accepted("tungro", 0.8),
		accepted("Rust-Leaf", 0.9),
		accepted("tungro", 0.7),
	} {
		_, err := l.Record(d, geo.DefaultReference)
		require.NoError(t, err)
	}

	s := l.Summary()
	assert.Equal(t, 3, s.Count)
	assert.Equal(t, map[string]int{"tungro": 2, "Rust-Leaf": 1}, s.ByLabel)
	assert.Equal(t, []string{"tungro", "Rust-Leaf"}, s.Labels)
	assert.InDelta(t, 0.8, s.MeanConfidence, 1e-9)
	assert.InDelta(t, 0.9, s.MaxConfidence, 1e-9)
}

func TestIndependentSessions(t *testing.T) {

	var wg sync.WaitGroup

	ledgers := make([]*Ledger, 4)

	for s := range ledgers {
		ledgers[s] = New(disease.Default())

		wg.Add(1)
		go func(l *Ledger, s int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				_, err := l.Record(accepted("tungro", 0.9), geo.Point{Lat: float64(s), Lon: float64(i) / 100})
				assert.NoError(t, err)
			}
		}(ledgers[s], s)
	}

	wg.Wait()

	for s, l := range ledgers {
		for i, e := range l.All() {
			assert.Equal(t, i, e.Index, fmt.Sprintf("session %d", s))
			assert.InDelta(t, float64(i)/100, e.Location.Lon, 1e-12)
		}
	}
}
