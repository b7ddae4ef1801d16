package pipeline

import (
	"fmt"
	"io"

	"gocv.io/x/gocv"
)

// SourceKind distinguishes single image sources, where a bad frame is fatal,
// from streams where it is skipped
type SourceKind int

const (
	SingleImage SourceKind = iota
	Stream
)

// Source supplies the frames of a session
type Source interface {
	// Read reads the next frame into dst.  It returns io.EOF when the source
	// is exhausted and an error wrapping ErrDecode for a frame that could not
	// be decoded.
	Read(dst *gocv.Mat) error
	// Kind returns whether the source is a single image or a stream
	Kind() SourceKind
	Close() error
}

// ImageSource is a single still image
type ImageSource struct {
	img  gocv.Mat
	read bool
}

// NewImageSource decodes an encoded image, eg: JPEG or PNG bytes.  A payload
// that does not decode returns an error wrapping ErrDecode.
func NewImageSource(data []byte) (*ImageSource, error) {

	img, err := gocv.IMDecode(data, gocv.IMReadColor)

	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	if img.Empty() {
		img.Close()
		return nil, fmt.Errorf("%w: image payload of %d bytes", ErrDecode, len(data))
	}

	return &ImageSource{img: img}, nil
}

// OpenImage reads an image file
func OpenImage(file string) (*ImageSource, error) {

	img := gocv.IMRead(file, gocv.IMReadColor)

	if img.Empty() {
		img.Close()
		return nil, fmt.Errorf("%w: could not read image %s", ErrSourceUnavailable, file)
	}

	return &ImageSource{img: img}, nil
}

// Read copies the image into dst the first time and returns io.EOF after
func (s *ImageSource) Read(dst *gocv.Mat) error {

	if s.read {
		return io.EOF
	}

	s.read = true
	s.img.CopyTo(dst)

	return nil
}

// Kind returns SingleImage
func (s *ImageSource) Kind() SourceKind {
	return SingleImage
}

// Close frees the image
func (s *ImageSource) Close() error {
	return s.img.Close()
}

// CaptureSource reads frames from a camera, video file or network stream
type CaptureSource struct {
	vc   *gocv.VideoCapture
	name string
}

// OpenCamera opens the camera with the given device id
func OpenCamera(device int) (*CaptureSource, error) {

	vc, err := gocv.VideoCaptureDevice(device)

	if err != nil {
		return nil, fmt.Errorf("%w: camera %d: %w", ErrSourceUnavailable, device, err)
	}

	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("%w: camera %d not opened", ErrSourceUnavailable, device)
	}

	return &CaptureSource{vc: vc, name: fmt.Sprintf("camera %d", device)}, nil
}

// OpenVideo opens a video file or stream URL, eg: rtsp://drone.local/live
func OpenVideo(uri string) (*CaptureSource, error) {

	vc, err := gocv.VideoCaptureFile(uri)

	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, uri, err)
	}

	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("%w: %s not opened", ErrSourceUnavailable, uri)
	}

	return &CaptureSource{vc: vc, name: uri}, nil
}

// Read grabs the next frame.  A failed grab ends the stream, an empty frame
// is reported as a decode error.
func (s *CaptureSource) Read(dst *gocv.Mat) error {

	if !s.vc.Read(dst) {
		return io.EOF
	}

	if dst.Empty() {
		return fmt.Errorf("%w: empty frame from %s", ErrDecode, s.name)
	}

	return nil
}

// Kind returns Stream
func (s *CaptureSource) Kind() SourceKind {
	return Stream
}

// FPS returns the frame rate reported by the capture device, or 0 if unknown
func (s *CaptureSource) FPS() float64 {
	return s.vc.Get(gocv.VideoCaptureFPS)
}

// Close releases the capture device
func (s *CaptureSource) Close() error {
	return s.vc.Close()
}
