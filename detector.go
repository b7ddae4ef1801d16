package cropwatch

import (
	"context"

	"github.com/swdee/go-cropwatch/postprocess"
	"gocv.io/x/gocv"
)

// Detector runs object detection on a single frame.  Implementations are not
// required to be safe for concurrent use, wrap them in a Pool to share them
// between sessions.
type Detector interface {
	// Detect returns zero or more detections for the frame in frame pixel
	// coordinates, tagged with frameIndex
	Detect(ctx context.Context, frame gocv.Mat, frameIndex int) ([]postprocess.Detection, error)
	// Close frees the resources held by the Detector
	Close() error
}

// DetectorFunc adapts a function to the Detector interface
type DetectorFunc func(ctx context.Context, frame gocv.Mat, frameIndex int) ([]postprocess.Detection, error)

// Detect calls f
func (f DetectorFunc) Detect(ctx context.Context, frame gocv.Mat, frameIndex int) ([]postprocess.Detection, error) {
	return f(ctx, frame, frameIndex)
}

// Close does nothing
func (f DetectorFunc) Close() error {
	return nil
}
