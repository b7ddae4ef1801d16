package postprocess

import (
	"github.com/swdee/go-cropwatch/disease"
)

// Filter returns the detections whose label is in the disease table and whose
// confidence is strictly greater than threshold.  Input order is preserved and
// overlapping boxes are not suppressed.
func Filter(dets []Detection, table disease.Table, threshold float64) []Accepted {

	accepted := make([]Accepted, 0, len(dets))

	for _, det := range dets {

		entry, ok := table.Lookup(det.Label)

		if !ok || det.Confidence <= threshold {
			continue
		}

		accepted = append(accepted, Accepted{
			Detection: det,
			Color:     entry.Color,
			Remedy:    entry.Remedy,
		})
	}

	return accepted
}

