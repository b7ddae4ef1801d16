// Package mapsink plots geo-tagged detections and the enclosing region as a
// persisted map artifact
package mapsink

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/swdee/go-cropwatch/geo"
	"github.com/swdee/go-cropwatch/region"
)

// DefaultZoom is the initial zoom level of interactive maps
const DefaultZoom = 15

// Sink receives map markers and an optional region and writes them out as an
// artifact
type Sink interface {
	// AddMarker places a marker of the given color name at p with popup text
	AddMarker(p geo.Point, color, popup string)
	// AddRegion outlines the region on the map
	AddRegion(r region.Region)
	// Save writes the artifact to path
	Save(path string) error
}

// Popup returns the marker popup text for a detection,
// "Disease: {label}\nMedicine: {remedy}"
func Popup(label, remedy string) string {
	return fmt.Sprintf("Disease: %s\nMedicine: %s", label, remedy)
}

// marker is a single plotted location
type marker struct {
	Lat   float64  `json:"lat"`
	Lon   float64  `json:"lon"`
	Color string   `json:"color"`
	Lines []string `json:"lines"`
}

func newMarker(p geo.Point, color, popup string) marker {
	return marker{
		Lat:   p.Lat,
		Lon:   p.Lon,
		Color: color,
		Lines: strings.Split(popup, "\n"),
	}
}

// New returns the Sink for format, either "html" or "png".  An empty format
// is taken from the extension of path.
func New(format, path string, centre geo.Point) (Sink, error) {

	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	}

	switch format {
	case "html", "htm":
		return NewHTML(centre, DefaultZoom), nil
	case "png":
		return NewPNG(1024, 768), nil
	default:
		return nil, fmt.Errorf("unsupported map format %q", format)
	}
}
