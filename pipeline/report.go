package pipeline

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/swdee/go-cropwatch/geo"
	"github.com/swdee/go-cropwatch/ledger"
	"github.com/swdee/go-cropwatch/mapsink"
	"github.com/swdee/go-cropwatch/region"
)

// Report is the result of a completed session
type Report struct {
	SessionID string  `json:"session_id"`
	Threshold float64 `json:"threshold"`
	// Frames is the number of frames read from the source, Skipped of which
	// failed decode or detection
	Frames   int            `json:"frames"`
	Skipped  int            `json:"skipped"`
	Entries  []ledger.Entry `json:"-"`
	Summary  ledger.Summary `json:"summary"`
	Started  time.Time      `json:"started"`
	Finished time.Time      `json:"finished"`
}

// Records returns the ledger entries as reported detection records
func (r *Report) Records() []DetectionRecord {

	out := make([]DetectionRecord, len(r.Entries))

	for i, e := range r.Entries {
		out[i] = LocationRecord(e)
	}

	return out
}

// Region returns the convex region enclosing every recorded location
func (r *Report) Region() region.Region {

	points := make([]geo.Point, len(r.Entries))

	for i, e := range r.Entries {
		points[i] = e.Location
	}

	return region.Enclose(points)
}

// WriteSummary prints the end of session summary of each recorded detection
func (r *Report) WriteSummary(w io.Writer) error {

	pct := int(math.Round(r.Threshold * 100))

	if len(r.Entries) == 0 {
		_, err := fmt.Fprintf(w, "\nNo detections with confidence > %d%% were found.\n", pct)
		return err
	}

	if _, err := fmt.Fprintf(w, "\nDetection Summary (>%d%% confidence):\n", pct); err != nil {
		return err
	}

	for _, e := range r.Entries {
		_, err := fmt.Fprintf(w, "\nDisease: %s\nConfidence: %.2f\nLocation: (%.6f, %.6f)\nRecommended Medicine: %s\n",
			e.Label, e.Confidence, e.Location.Lat, e.Location.Lon, e.Remedy)

		if err != nil {
			return err
		}
	}

	return nil
}

// MapOptions control the map artifact written at the end of a session
type MapOptions struct {
	// Path of the artifact, its extension selects the format unless Format
	// is set
	Path   string
	Format string
	// Centre of the map view
	Centre geo.Point
	// Region outlines the enclosing region of the detections
	Region bool
	// Margin in degrees the outlined region is expanded by
	Margin float64
}

// SaveMap plots every ledger entry of the report as a marker colored by its
// disease, optionally with the enclosing region, and saves the artifact
func (r *Report) SaveMap(opts MapOptions) error {

	sink, err := mapsink.New(opts.Format, opts.Path, opts.Centre)

	if err != nil {
		return err
	}

	for _, e := range r.Entries {
		sink.AddMarker(e.Location, e.Color, mapsink.Popup(e.Label, e.Remedy))
	}

	if opts.Region {
		reg := r.Region()

		if opts.Margin > 0 {
			reg, err = reg.Expand(opts.Margin)

			if err != nil {
				return fmt.Errorf("error expanding region: %w", err)
			}
		}

		if !reg.Empty() {
			sink.AddRegion(reg)
		}
	}

	if err := sink.Save(opts.Path); err != nil {
		return fmt.Errorf("error saving map %s: %w", opts.Path, err)
	}

	return nil
}
