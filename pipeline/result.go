package pipeline

import (
	"github.com/swdee/go-cropwatch/ledger"
	"github.com/swdee/go-cropwatch/postprocess"
	"gocv.io/x/gocv"
)

// Outcome is what happened to a frame in the frame loop
type Outcome int

const (
	// Processed frames were detected on and annotated, possibly with an
	// annotation fallback recorded in Err
	Processed Outcome = iota
	// Skipped frames failed decode or detection, the loop continues.  An
	// undecodable single image never gets a result, Run fails instead.
	Skipped
)

func (o Outcome) String() string {
	switch o {
	case Processed:
		return "processed"
	case Skipped:
		return "skipped"
	}
	return "unknown"
}

// FrameResult is the outcome of one pass of the frame loop
type FrameResult struct {
	Index   int
	Outcome Outcome
	// Annotated is the frame to display or encode.  It is the unannotated
	// frame when detection or annotation failed and empty when the frame
	// could not be decoded.  The caller owns it.
	Annotated gocv.Mat
	// Detections is the raw detector output
	Detections []postprocess.Detection
	// Accepted are the detections that passed the filter, in detector order
	Accepted []postprocess.Accepted
	// Recorded are the ledger entries written for this frame
	Recorded []ledger.Entry
	// Untagged is the number of accepted detections with no location
	Untagged int
	// Disease and Remedy are the banner contents, empty when no banner
	Disease string
	Remedy  string
	// Err is the per frame diagnostic, if any
	Err error
}

// Close frees the annotated frame
func (r *FrameResult) Close() error {
	return r.Annotated.Close()
}
