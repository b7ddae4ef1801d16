// Package render draws detection results onto camera frames
package render

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/swdee/go-cropwatch/postprocess"
	"gocv.io/x/gocv"
)

// ErrEmptyFrame is returned when asked to annotate a frame with no pixels
var ErrEmptyFrame = errors.New("empty frame")

// Annotator draws accepted detections and the disease/medicine banners onto
// a copy of a frame
type Annotator struct {
	// CaptionFont is used for the text above each bounding box
	CaptionFont Font
	// BannerFont is used for the banner text
	BannerFont Font
	// BoxColor is the color of the bounding box rectangles
	BoxColor color.RGBA
	// LineThickness of the bounding box rectangles
	LineThickness int
	// BannerAlpha is the opacity of the banner background
	BannerAlpha float64
}

// NewAnnotator returns an Annotator with the default presentation settings
func NewAnnotator() *Annotator {
	return &Annotator{
		CaptionFont:   CaptionFont(),
		BannerFont:    BannerFont(),
		BoxColor:      Green,
		LineThickness: 2,
		BannerAlpha:   0.3,
	}
}

// Result is an annotated frame along with the banner contents drawn on it.
// The caller owns Frame and must Close it.
type Result struct {
	Frame gocv.Mat
	// Disease and Remedy are those of the last accepted detection, empty if
	// nothing was accepted
	Disease string
	Remedy  string
}

// HasBanner reports whether disease and medicine banners were drawn
func (r Result) HasBanner() bool {
	return r.Disease != ""
}

// Annotate draws the accepted detections onto a copy of frame.  The input
// frame is never modified.  When multiple detections are accepted the banners
// show the last one.  If drawing fails the returned Result holds an
// unannotated copy of frame along with the error.
func (a *Annotator) Annotate(frame gocv.Mat, accepted []postprocess.Accepted) (res Result, err error) {

	if frame.Empty() {
		return Result{Frame: gocv.NewMat()}, ErrEmptyFrame
	}

	for _, acc := range accepted {
		if !acc.Box.Valid() {
			return Result{Frame: frame.Clone()},
				fmt.Errorf("invalid bounding box %s for %s", acc.Box, acc.Label)
		}
	}

	out := frame.Clone()

	defer func() {
		if r := recover(); r != nil {
			out.Close()
			res = Result{Frame: frame.Clone()}
			err = fmt.Errorf("annotation failed: %v", r)
		}
	}()

	DetectionBoxes(&out, accepted, a.CaptionFont, a.BoxColor, a.LineThickness)

	if len(accepted) == 0 {
		return Result{Frame: out}, nil
	}

	last := accepted[len(accepted)-1]

	drawBanner(&out, diseaseBanner(out.Cols(), last.Label), a.BannerFont, a.BannerAlpha)
	drawBanner(&out, medicineBanner(out.Cols(), out.Rows(), last.Remedy, a.BannerFont),
		a.BannerFont, a.BannerAlpha)

	return Result{
		Frame:   out,
		Disease: last.Label,
		Remedy:  last.Remedy,
	}, nil
}
