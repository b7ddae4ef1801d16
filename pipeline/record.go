package pipeline

import (
	"github.com/swdee/go-cropwatch/ledger"
	"github.com/swdee/go-cropwatch/postprocess"
)

// DetectionRecord is the JSON shape a detection is reported in at session
// boundaries.  Coordinates is either a Box in pixels or a Location.
type DetectionRecord struct {
	Label       string  `json:"label"`
	Confidence  float64 `json:"confidence"`
	Coordinates any     `json:"coordinates"`
}

// Box are pixel coordinates of a detection in its frame
type Box struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Location is the geographic position of a recorded detection
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// BoxRecord reports a detection with its pixel box
func BoxRecord(d postprocess.Detection) DetectionRecord {
	return DetectionRecord{
		Label:      d.Label,
		Confidence: d.Confidence,
		Coordinates: Box{
			X1: d.Box.Left,
			Y1: d.Box.Top,
			X2: d.Box.Right,
			Y2: d.Box.Bottom,
		},
	}
}

// LocationRecord reports a ledger entry with its location
func LocationRecord(e ledger.Entry) DetectionRecord {
	return DetectionRecord{
		Label:      e.Label,
		Confidence: e.Confidence,
		Coordinates: Location{
			Lat: e.Location.Lat,
			Lon: e.Location.Lon,
		},
	}
}
