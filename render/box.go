package render

import (
	"github.com/swdee/go-cropwatch/postprocess"
	"gocv.io/x/gocv"
	"image"
	"image/color"
)

// DetectionBoxes renders the bounding boxes around the accepted detections
// with a "{label} {confidence}" caption above the top-left corner of each
func DetectionBoxes(img *gocv.Mat, accepted []postprocess.Accepted,
	font Font, clr color.RGBA, lineThickness int) {

	for _, a := range accepted {

		// draw rectangle around detected object
		gocv.Rectangle(img, a.Box.Rect(), clr, lineThickness)

		// place the caption just above the box
		labelPosition := image.Pt(a.Box.Left, a.Box.Top-font.BottomPad)

		gocv.PutTextWithParams(img, a.Caption(), labelPosition,
			font.Face, font.Scale, font.Color, font.Thickness,
			font.LineType, false)
	}
}
