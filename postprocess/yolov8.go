package postprocess

import (
	"fmt"

	"github.com/swdee/go-cropwatch/preprocess"
)

// YOLOv8 defines the struct for decoding the output tensor of a YOLOv8 Model
// exported to ONNX
type YOLOv8 struct {
	// Params are the Model configuration parameters
	Params YOLOv8Params
	// labels indexed by class id
	labels []string
}

// YOLOv8Params defines the struct containing the YOLOv8 parameters to use
// for post processing operations
type YOLOv8Params struct {
	// BoxThreshold is the minimum probability score required for a bounding box
	// region to be considered for processing
	BoxThreshold float32
	// NMSThreshold is the Non-Maximum Suppression threshold used for defining
	// the maximum allowed Intersection Over Union (IoU) between two
	// bounding boxes for both to be kept
	NMSThreshold float32
	// MaxObjectNumber is the maximum number of objects detected that can be
	// returned
	MaxObjectNumber int
}

// YOLOv8DefaultParams returns an instance of YOLOv8Params configured with
// default values for the crop disease models featuring:
// - Box Threshold: 0.25
// - NMS Threshold: 0.45
// - Maximum Object Number: 64
func YOLOv8DefaultParams() YOLOv8Params {
	return YOLOv8Params{
		BoxThreshold:    0.25,
		NMSThreshold:    0.45,
		MaxObjectNumber: 64,
	}
}

// NewYOLOv8 returns an instance of the YOLOv8 post processor for a Model
// trained on the given labels
func NewYOLOv8(p YOLOv8Params, labels []string) *YOLOv8 {
	return &YOLOv8{
		Params: p,
		labels: labels,
	}
}

// ClassNum returns the number of object classes the Model was trained with
func (y *YOLOv8) ClassNum() int {
	return len(y.labels)
}

// DetectObjects decodes the raw output tensor of shape [1, 4+classes, boxes]
// into Detections in source image coordinates.  Each column holds the box
// centre x, centre y, width and height in Model input pixels followed by one
// score per class.
func (y *YOLOv8) DetectObjects(data []float32, boxes int,
	resizer *preprocess.Resizer, frameIndex int) ([]Detection, error) {

	rows := 4 + len(y.labels)

	if boxes <= 0 || len(data) != rows*boxes {
		return nil, fmt.Errorf("unexpected output size %d for %d classes and %d boxes",
			len(data), len(y.labels), boxes)
	}

	cands := make([]candidate, 0)

	for i := 0; i < boxes; i++ {

		// find highest scoring class for this box
		maxScore := float32(0)
		maxClass := -1

		for c := 0; c < len(y.labels); c++ {
			score := data[(4+c)*boxes+i]

			if score > maxScore {
				maxScore = score
				maxClass = c
			}
		}

		if maxClass < 0 || maxScore < y.Params.BoxThreshold {
			continue
		}

		cx := data[i]
		cy := data[boxes+i]
		w := data[2*boxes+i]
		h := data[3*boxes+i]

		cands = append(cands, candidate{
			x1:    cx - w/2,
			y1:    cy - h/2,
			x2:    cx + w/2,
			y2:    cy + h/2,
			score: maxScore,
			class: maxClass,
		})
	}

	kept := nms(cands, y.Params.NMSThreshold)

	if y.Params.MaxObjectNumber > 0 && len(kept) > y.Params.MaxObjectNumber {
		kept = kept[:y.Params.MaxObjectNumber]
	}

	dets := make([]Detection, 0, len(kept))

	for _, c := range kept {

		x1, y1 := resizer.ToSource(c.x1, c.y1)
		x2, y2 := resizer.ToSource(c.x2, c.y2)

		dets = append(dets, Detection{
			Label:      y.labels[c.class],
			Confidence: float64(c.score),
			Box: BoxRect{
				Left:   x1,
				Top:    y1,
				Right:  x2,
				Bottom: y2,
			},
			FrameIndex: frameIndex,
		})
	}

	return dets, nil
}
