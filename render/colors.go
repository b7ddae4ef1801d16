package render

import (
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

var (
	Black  = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Green  = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	Yellow = color.RGBA{R: 255, G: 255, B: 50, A: 255}

	// markerColors are the hex values of the color names used in the
	// disease table for map markers
	markerColors = map[string]string{
		"black":  "#000000",
		"blue":   "#0000ff",
		"brown":  "#8b4513",
		"cyan":   "#00ffff",
		"gray":   "#808080",
		"green":  "#008000",
		"orange": "#ffa500",
		"pink":   "#ffc0cb",
		"purple": "#800080",
		"red":    "#ff0000",
		"white":  "#ffffff",
		"yellow": "#ffff00",
	}
)

// NamedColor resolves a disease table color name, or a "#rrggbb" hex value,
// to an RGBA color.  Unknown names resolve to gray and false is returned.
func NamedColor(name string) (color.RGBA, bool) {

	hex, ok := markerColors[strings.ToLower(strings.TrimSpace(name))]

	if !ok {
		hex = name
	}

	c, err := colorful.Hex(hex)

	if err != nil {
		r, g, b := colorful.Color{R: 0.5, G: 0.5, B: 0.5}.RGB255()
		return color.RGBA{R: r, G: g, B: b, A: 255}, false
	}

	r, g, b := c.RGB255()

	return color.RGBA{R: r, G: g, B: b, A: 255}, true
}

// Outline returns a darker shade of c suitable for a marker border
func Outline(c color.RGBA) color.RGBA {

	cf, _ := colorful.MakeColor(c)
	r, g, b := cf.BlendLab(colorful.Color{}, 0.4).Clamped().RGB255()

	return color.RGBA{R: r, G: g, B: b, A: c.A}
}
