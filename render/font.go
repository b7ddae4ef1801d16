package render

import (
	"gocv.io/x/gocv"
	"image/color"
)

// Font defines the parameters for rendering text on an image using GoCV
type Font struct {
	Face      gocv.HersheyFont
	Scale     float64
	Color     color.RGBA
	Thickness int
	LineType  gocv.LineType
	// BottomPad is the gap left between the text baseline and the top edge
	// of the bounding box it labels
	BottomPad int
}

// CaptionFont returns the font used for the "{label} {confidence}" caption
// drawn above each bounding box
func CaptionFont() Font {
	return Font{
		Face:      gocv.FontHersheySimplex,
		Scale:     0.5,
		Color:     Green,
		Thickness: 2,
		LineType:  gocv.LineAA,
		BottomPad: 10,
	}
}

// BannerFont returns the font used for the disease and medicine banners
func BannerFont() Font {
	return Font{
		Face:      gocv.FontHersheySimplex,
		Scale:     0.7,
		Color:     White,
		Thickness: 2,
		LineType:  gocv.LineAA,
	}
}

// textSize returns the width and height of text rendered in the font
func (f Font) textSize(text string) (int, int) {
	size := gocv.GetTextSize(text, f.Face, f.Scale, f.Thickness)
	return size.X, size.Y
}
