package postprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swdee/go-cropwatch/preprocess"
)

// tensor lays out boxes in the [4+classes, boxes] column order of the YOLOv8
// output, each box given as cx, cy, w, h followed by its class scores
func tensor(classes int, boxes ...[]float32) []float32 {

	rows := 4 + classes
	data := make([]float32, rows*len(boxes))

	for i, b := range boxes {
		for r := 0; r < rows; r++ {
			data[r*len(boxes)+i] = b[r]
		}
	}

	return data
}

func TestYOLOv8DetectObjects(t *testing.T) {

	labels := []string{"Rust-Leaf", "tungro"}
	y := NewYOLOv8(YOLOv8DefaultParams(), labels)

	// source identical to model input so coordinates map one to one
	resizer := preprocess.NewResizer(640, 640, 640, 640)
	defer resizer.Close()

	data := tensor(2,
		[]float32{100, 100, 40, 40, 0.9, 0.1},
		// overlaps the first box with the same class and lower score
		[]float32{102, 101, 40, 40, 0.8, 0.05},
		// overlaps but different class so is kept
		[]float32{100, 100, 40, 40, 0.05, 0.6},
		// below box threshold
		[]float32{400, 400, 20, 20, 0.1, 0.2},
	)

	dets, err := y.DetectObjects(data, 4, resizer, 3)
	require.NoError(t, err)
	require.Len(t, dets, 2)

	assert.Equal(t, "Rust-Leaf", dets[0].Label)
	assert.InDelta(t, 0.9, dets[0].Confidence, 1e-6)
	assert.Equal(t, BoxRect{Left: 80, Top: 80, Right: 120, Bottom: 120}, dets[0].Box)
	assert.Equal(t, 3, dets[0].FrameIndex)

	assert.Equal(t, "tungro", dets[1].Label)
}

func TestYOLOv8DetectObjectsBadShape(t *testing.T) {

	y := NewYOLOv8(YOLOv8DefaultParams(), []string{"tungro"})
	resizer := preprocess.NewResizer(640, 640, 640, 640)
	defer resizer.Close()

	_, err := y.DetectObjects(make([]float32, 7), 2, resizer, 0)
	assert.Error(t, err)

	_, err = y.DetectObjects(nil, 0, resizer, 0)
	assert.Error(t, err)
}

func TestCalculateOverlap(t *testing.T) {

	assert.InDelta(t, 1.0, calculateOverlap(0, 0, 9, 9, 0, 0, 9, 9), 1e-6)
	assert.Equal(t, float32(0), calculateOverlap(0, 0, 9, 9, 20, 20, 29, 29))

	// half overlap of two 10x10 boxes is 50/150
	assert.InDelta(t, 1.0/3.0, calculateOverlap(0, 0, 9, 9, 5, 0, 14, 9), 1e-6)
}
