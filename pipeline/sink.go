package pipeline

import (
	"fmt"

	"go.uber.org/multierr"
	"gocv.io/x/gocv"
)

// FrameSink consumes the annotated output of each frame.  Write may return
// ErrStop to end the session.  Sinks must copy any frame they keep past the
// Write call.
type FrameSink interface {
	Write(res *FrameResult) error
	Close() error
}

// MultiSink writes each frame to every sink in order
type MultiSink []FrameSink

// Write forwards res to each sink.  ErrStop from any sink is returned after
// all sinks have been written to.
func (m MultiSink) Write(res *FrameResult) error {

	var err error

	for _, s := range m {
		err = multierr.Append(err, s.Write(res))
	}

	return err
}

// Close closes every sink
func (m MultiSink) Close() error {

	var err error

	for _, s := range m {
		err = multierr.Append(err, s.Close())
	}

	return err
}

// LastFrame keeps a copy of the most recent frame with something to show,
// eg: for returning the annotated image of a single image session.  The
// frame is encoded as JPEG when the sink is closed so it stays available
// after the session ends.
type LastFrame struct {
	frame  gocv.Mat
	has    bool
	jpeg   []byte
	closed bool
}

// NewLastFrame returns an empty LastFrame sink
func NewLastFrame() *LastFrame {
	return &LastFrame{frame: gocv.NewMat()}
}

// Write copies the annotated frame
func (l *LastFrame) Write(res *FrameResult) error {

	if l.closed || res.Annotated.Empty() {
		return nil
	}

	res.Annotated.CopyTo(&l.frame)
	l.has = true

	return nil
}

// Frame returns the kept frame and whether one was written.  The frame is
// owned by the sink and only valid until Close.
func (l *LastFrame) Frame() (gocv.Mat, bool) {
	return l.frame, l.has && !l.closed
}

// JPEG returns the kept frame encoded as JPEG
func (l *LastFrame) JPEG() ([]byte, error) {

	if !l.has {
		return nil, fmt.Errorf("no frame written")
	}

	if l.closed {
		if l.jpeg == nil {
			return nil, fmt.Errorf("frame could not be encoded")
		}

		return l.jpeg, nil
	}

	return encodeJPEG(l.frame)
}

// Close encodes the kept frame and frees it.  It is safe to call more than
// once.
func (l *LastFrame) Close() error {

	if l.closed {
		return nil
	}

	l.closed = true

	var err error

	if l.has {
		l.jpeg, err = encodeJPEG(l.frame)
	}

	return multierr.Append(err, l.frame.Close())
}

func encodeJPEG(img gocv.Mat) ([]byte, error) {

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, img)

	if err != nil {
		return nil, fmt.Errorf("error encoding frame: %w", err)
	}

	defer buf.Close()

	// copy out of the native buffer before it is freed
	return append([]byte(nil), buf.GetBytes()...), nil
}

// VideoSink encodes annotated frames to a video file.  The writer is opened
// on the first frame so its size matches the source.
type VideoSink struct {
	path   string
	codec  string
	fps    float64
	writer *gocv.VideoWriter
}

// NewVideoSink returns a sink writing to path with the FourCC codec, eg: mp4v,
// at fps frames per second.  An fps of 0 uses 30.
func NewVideoSink(path, codec string, fps float64) *VideoSink {

	if fps <= 0 {
		fps = 30
	}

	return &VideoSink{
		path:  path,
		codec: codec,
		fps:   fps,
	}
}

// Write appends the annotated frame to the video.  Undecodable frames are
// not written.
func (v *VideoSink) Write(res *FrameResult) error {

	if res.Annotated.Empty() {
		return nil
	}

	if v.writer == nil {
		w, err := gocv.VideoWriterFile(v.path, v.codec, v.fps,
			res.Annotated.Cols(), res.Annotated.Rows(), true)

		if err != nil {
			return fmt.Errorf("error opening video writer %s: %w", v.path, err)
		}

		v.writer = w
	}

	return v.writer.Write(res.Annotated)
}

// Close flushes and closes the video file
func (v *VideoSink) Close() error {

	if v.writer == nil {
		return nil
	}

	return v.writer.Close()
}

// WindowSink shows annotated frames in a desktop window.  Pressing q stops
// the session.
type WindowSink struct {
	window *gocv.Window
	// hold waits for a key press on Close so a single image stays on screen
	hold bool
}

// NewWindowSink opens a window with the given title
func NewWindowSink(title string, hold bool) *WindowSink {
	return &WindowSink{
		window: gocv.NewWindow(title),
		hold:   hold,
	}
}

// Write shows the frame and checks for the quit key
func (w *WindowSink) Write(res *FrameResult) error {

	if !res.Annotated.Empty() {
		w.window.IMShow(res.Annotated)
	}

	if w.window.WaitKey(1) == 'q' {
		return ErrStop
	}

	return nil
}

// Close the window
func (w *WindowSink) Close() error {

	if w.hold {
		w.window.WaitKey(0)
	}

	return w.window.Close()
}
