package postprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swdee/go-cropwatch/disease"
)

func det(label string, conf float64) Detection {
	return Detection{
		Label:      label,
		Confidence: conf,
		Box:        BoxRect{Left: 10, Top: 20, Right: 110, Bottom: 120},
	}
}

func TestFilterKnownLabelAboveThreshold(t *testing.T) {

	accepted := Filter([]Detection{det("Rust-Leaf", 0.85)}, disease.Default(), 0.7)

	require.Len(t, accepted, 1)
	assert.Equal(t, "Rust-Leaf", accepted[0].Label)
	assert.Equal(t, "orange", accepted[0].Color)
	assert.Equal(t, "Hexaconazole or Sulphur", accepted[0].Remedy)
}

func TestFilterUnknownLabel(t *testing.T) {

	accepted := Filter([]Detection{det("UnknownLeafThing", 0.95)}, disease.Default(), 0.7)

	assert.Empty(t, accepted)
}

func TestFilterThreshold(t *testing.T) {

	tests := []struct {
		name      string
		conf      float64
		threshold float64
		want      bool
	}{
		{"above", 0.71, 0.7, true},
		{"equal is rejected", 0.7, 0.7, false},
		{"below", 0.5, 0.7, false},
		{"low threshold", 0.25, 0.2, true},
		{"zero threshold zero conf", 0, 0, false},
		{"threshold one", 1, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accepted := Filter([]Detection{det("tungro", tt.conf)}, disease.Default(), tt.threshold)
			assert.Equal(t, tt.want, len(accepted) == 1)
		})
	}
}

func TestFilterPreservesOrder(t *testing.T) {

	dets := []Detection{
		det("tungro", 0.9),
		det("UnknownLeafThing", 0.99),
		det("Rust-Leaf", 0.8),
		det("tungro", 0.3),
		det("Fungus leaf", 0.75),
		// overlapping duplicates are not suppressed
		det("Rust-Leaf", 0.8),
	}

	accepted := Filter(dets, disease.Default(), 0.7)

	labels := make([]string, 0, len(accepted))
	for _, a := range accepted {
		labels = append(labels, a.Label)
	}

	assert.Equal(t, []string{"tungro", "Rust-Leaf", "Fungus leaf", "Rust-Leaf"}, labels)
}

func TestFilterEmpty(t *testing.T) {
	assert.Empty(t, Filter(nil, disease.Default(), 0.7))
}

func TestCaption(t *testing.T) {
	assert.Equal(t, "Rust-Leaf 0.85", det("Rust-Leaf", 0.85).Caption())
	assert.Equal(t, "tungro 0.70", det("tungro", 0.699).Caption())
}

func TestBoxRect(t *testing.T) {
	b := BoxRect{Left: 1, Top: 2, Right: 30, Bottom: 40}

	assert.True(t, b.Valid())
	assert.Equal(t, "(1,2,30,40)", b.String())
	assert.Equal(t, 29, b.Rect().Dx())

	assert.False(t, BoxRect{Left: 10, Top: 0, Right: 5, Bottom: 5}.Valid())
}
