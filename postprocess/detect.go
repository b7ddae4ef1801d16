package postprocess

import (
	"fmt"
	"image"
)

// BoxRect are the pixel dimensions of the bounding box of a detected object,
// (Left, Top) being the top-left and (Right, Bottom) the bottom-right corner
type BoxRect struct {
	Left   int
	Top    int
	Right  int
	Bottom int
}

// Rect returns the box as an image.Rectangle
func (b BoxRect) Rect() image.Rectangle {
	return image.Rect(b.Left, b.Top, b.Right, b.Bottom)
}

// Valid reports whether the box has its corners in the right order
func (b BoxRect) Valid() bool {
	return b.Right >= b.Left && b.Bottom >= b.Top
}

// String returns the box formatted as (x1,y1,x2,y2)
func (b BoxRect) String() string {
	return fmt.Sprintf("(%d,%d,%d,%d)", b.Left, b.Top, b.Right, b.Bottom)
}

// Detection is a single object instance returned by a detector for one frame.
// It is treated as immutable once produced.
type Detection struct {
	// Label is the class name the detector gave the object
	Label string
	// Confidence is the detector score in the range [0,1]
	Confidence float64
	// Box is the bounding box of the object in frame pixel coordinates
	Box BoxRect
	// FrameIndex is the index of the frame within the session the object
	// was detected on
	FrameIndex int
}

// Accepted is a Detection whose label is in the disease table and whose
// confidence passed the session threshold
type Accepted struct {
	Detection
	// Color is the marker color of the disease
	Color string
	// Remedy is the recommended treatment for the disease
	Remedy string
}

// Caption returns the text drawn next to the bounding box, eg: "Rust-Leaf 0.85"
func (d Detection) Caption() string {
	return fmt.Sprintf("%s %.2f", d.Label, d.Confidence)
}
