package pipeline

import "errors"

var (
	// ErrSourceUnavailable is returned when a frame source cannot be opened.
	// It is fatal to the session.
	ErrSourceUnavailable = errors.New("frame source unavailable")
	// ErrDecode marks a frame or input payload that could not be decoded.  It
	// is fatal for a single image and skips the frame for a stream.
	ErrDecode = errors.New("frame decode failed")
	// ErrDetection marks a frame the detector failed on.  The frame is
	// forwarded unannotated.
	ErrDetection = errors.New("detection failed")
	// ErrAnnotation marks a frame that could not be drawn on.  The
	// unannotated frame is substituted.
	ErrAnnotation = errors.New("annotation failed")
	// ErrStop is returned by a FrameSink to end the session, eg: when the
	// quit key is pressed
	ErrStop = errors.New("stop requested")
)
