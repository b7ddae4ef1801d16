package mapsink

import (
	_ "embed"
	"fmt"
	"html/template"
	"os"

	"github.com/swdee/go-cropwatch/geo"
	"github.com/swdee/go-cropwatch/region"
)

//go:embed map.html.tmpl
var mapTemplate string

var tmpl = template.Must(template.New("map").Parse(mapTemplate))

// HTML renders a Leaflet web map with one circle marker per detection
type HTML struct {
	centre  geo.Point
	zoom    int
	markers []marker
	region  [][2]float64
}

// NewHTML returns an HTML map centred on centre at the given zoom level
func NewHTML(centre geo.Point, zoom int) *HTML {
	return &HTML{
		centre:  centre,
		zoom:    zoom,
		markers: make([]marker, 0),
		region:  make([][2]float64, 0),
	}
}

// AddMarker places a marker on the map
func (h *HTML) AddMarker(p geo.Point, color, popup string) {
	h.markers = append(h.markers, newMarker(p, color, popup))
}

// AddRegion outlines r on the map
func (h *HTML) AddRegion(r region.Region) {

	h.region = h.region[:0]

	for _, p := range r.Points() {
		h.region = append(h.region, [2]float64{p.Lat, p.Lon})
	}
}

// Save writes the map as a standalone HTML page
func (h *HTML) Save(path string) error {

	f, err := os.Create(path)

	if err != nil {
		return fmt.Errorf("error creating map file: %w", err)
	}

	data := struct {
		Centre  [2]float64
		Zoom    int
		Markers []marker
		Region  [][2]float64
	}{
		Centre:  [2]float64{h.centre.Lat, h.centre.Lon},
		Zoom:    h.zoom,
		Markers: h.markers,
		Region:  h.region,
	}

	if err := tmpl.Execute(f, data); err != nil {
		f.Close()
		return fmt.Errorf("error rendering map: %w", err)
	}

	return f.Close()
}
