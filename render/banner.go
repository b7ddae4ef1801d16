package render

import (
	"gocv.io/x/gocv"
	"image"
)

// banner is a semi transparent rectangle with a line of text drawn on it
type banner struct {
	rect    image.Rectangle
	text    string
	textPos image.Point
}

// diseaseBanner returns the top-left banner naming the current disease.  It
// spans from the top-left corner to half the frame width.
func diseaseBanner(width int, disease string) banner {
	return banner{
		rect:    image.Rect(10, 10, width/2, 40),
		text:    "Disease: " + disease,
		textPos: image.Pt(20, 30),
	}
}

// medicineBanner returns the bottom-right banner naming the recommended
// remedy, sized to fit the remedy text
func medicineBanner(width, height int, remedy string, font Font) banner {

	text := "Medicine: " + remedy
	tw, _ := font.textSize(text)

	return banner{
		rect:    image.Rect(width-tw-30, height-40, width-10, height-10),
		text:    text,
		textPos: image.Pt(width-tw-20, height-20),
	}
}

// drawBanner alpha blends the banner rectangle onto img then writes the text
// over it at full opacity.  Alpha is the opacity of the rectangle.
func drawBanner(img *gocv.Mat, b banner, font Font, alpha float64) {

	overlay := img.Clone()
	defer overlay.Close()

	gocv.Rectangle(&overlay, b.rect, Black, -1)

	gocv.AddWeighted(overlay, alpha, *img, 1-alpha, 0, img)

	gocv.PutTextWithParams(img, b.text, b.textPos, font.Face, font.Scale,
		font.Color, font.Thickness, font.LineType, false)
}
