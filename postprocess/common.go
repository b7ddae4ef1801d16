package postprocess

import (
	"math"
	"sort"
)

// candidate is a decoded bounding box in model input coordinates that has not
// yet been through Non-Maximum Suppression
type candidate struct {
	x1, y1, x2, y2 float32
	score          float32
	class          int
}

// nms implements a Non-Maximum Suppression (NMS) algorithm per class.  The
// candidates are ordered by descending score and any candidate overlapping a
// higher scoring one of the same class by more than threshold IoU is dropped.
func nms(cands []candidate, threshold float32) []candidate {

	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].score > cands[j].score
	})

	removed := make([]bool, len(cands))
	keep := make([]candidate, 0, len(cands))

	for i := range cands {

		if removed[i] {
			continue
		}

		keep = append(keep, cands[i])

		for j := i + 1; j < len(cands); j++ {

			if removed[j] || cands[i].class != cands[j].class {
				continue
			}

			iou := calculateOverlap(cands[i].x1, cands[i].y1, cands[i].x2, cands[i].y2,
				cands[j].x1, cands[j].y1, cands[j].x2, cands[j].y2)

			if iou > threshold {
				removed[j] = true
			}
		}
	}

	return keep
}

// calculateOverlap works out the Intersection of Union (IoU) value of two
// boxes dimensions
func calculateOverlap(xmin0, ymin0, xmax0, ymax0, xmin1, ymin1,
	xmax1, ymax1 float32) float32 {

	w := math.Max(0.0, math.Min(float64(xmax0), float64(xmax1))-math.Max(float64(xmin0), float64(xmin1))+1.0)
	h := math.Max(0.0, math.Min(float64(ymax0), float64(ymax1))-math.Max(float64(ymin0), float64(ymin1))+1.0)
	intersection := w * h

	// area of both rectangles with added 1.0 for inclusive pixel calculation
	area0 := (xmax0 - xmin0 + 1) * (ymax0 - ymin0 + 1)
	area1 := (xmax1 - xmin1 + 1) * (ymax1 - ymin1 + 1)

	union := area0 + area1 - float32(intersection)

	if union <= 0 {
		return 0.0
	}

	return float32(intersection) / union
}
