package mapsink

import (
	"fmt"
	"math"

	"github.com/fogleman/gg"
	"github.com/swdee/go-cropwatch/geo"
	"github.com/swdee/go-cropwatch/region"
	"github.com/swdee/go-cropwatch/render"
	"golang.org/x/image/font/basicfont"
)

// PNG plots markers and the region on a plain image scaled to fit the points,
// for use where no web browser or tile server is available
type PNG struct {
	width   int
	height  int
	markers []marker
	region  []geo.Point
}

// NewPNG returns a PNG plot of the given pixel size
func NewPNG(width, height int) *PNG {
	return &PNG{
		width:  width,
		height: height,
	}
}

// AddMarker places a marker on the plot
func (p *PNG) AddMarker(pt geo.Point, color, popup string) {
	p.markers = append(p.markers, newMarker(pt, color, popup))
}

// AddRegion outlines r on the plot
func (p *PNG) AddRegion(r region.Region) {
	p.region = r.Points()
}

// projection maps locations to pixels keeping a fixed aspect ratio
type projection struct {
	minLat, minLon float64
	scale          float64
	xOff, yOff     float64
}

func (p *PNG) project() projection {

	const pad = 60.0

	minLat, maxLat := math.Inf(1), math.Inf(-1)
	minLon, maxLon := math.Inf(1), math.Inf(-1)

	extend := func(lat, lon float64) {
		minLat = math.Min(minLat, lat)
		maxLat = math.Max(maxLat, lat)
		minLon = math.Min(minLon, lon)
		maxLon = math.Max(maxLon, lon)
	}

	for _, m := range p.markers {
		extend(m.Lat, m.Lon)
	}

	for _, r := range p.region {
		extend(r.Lat, r.Lon)
	}

	spanLat := math.Max(maxLat-minLat, 1e-6)
	spanLon := math.Max(maxLon-minLon, 1e-6)

	scale := math.Min((float64(p.width)-2*pad)/spanLon, (float64(p.height)-2*pad)/spanLat)

	return projection{
		minLat: minLat,
		minLon: minLon,
		scale:  scale,
		xOff:   (float64(p.width) - spanLon*scale) / 2,
		yOff:   (float64(p.height) + spanLat*scale) / 2,
	}
}

// xy returns the pixel position of a location, north at the top
func (pr projection) xy(lat, lon float64) (float64, float64) {
	return pr.xOff + (lon-pr.minLon)*pr.scale, pr.yOff - (lat-pr.minLat)*pr.scale
}

// Draw renders the plot into a new drawing context
func (p *PNG) Draw() *gg.Context {

	dc := gg.NewContext(p.width, p.height)

	dc.SetRGB(1, 1, 1)
	dc.Clear()

	if len(p.markers) == 0 && len(p.region) == 0 {
		dc.SetFontFace(basicfont.Face7x13)
		dc.SetRGB(0.3, 0.3, 0.3)
		dc.DrawStringAnchored("No detections recorded", float64(p.width)/2, float64(p.height)/2, 0.5, 0.5)
		return dc
	}

	pr := p.project()

	// draw region polygon
	if len(p.region) > 0 {
		for i, r := range p.region {
			x, y := pr.xy(r.Lat, r.Lon)
			if i == 0 {
				dc.MoveTo(x, y)
			} else {
				dc.LineTo(x, y)
			}
		}
		dc.ClosePath()
		dc.SetRGBA(1, 0, 0, 0.1)
		dc.FillPreserve()
		dc.SetRGB(1, 0, 0)
		dc.SetLineWidth(2)
		dc.Stroke()
	}

	dc.SetFontFace(basicfont.Face7x13)

	for _, m := range p.markers {
		x, y := pr.xy(m.Lat, m.Lon)

		clr, _ := render.NamedColor(m.Color)

		dc.DrawCircle(x, y, 7)
		dc.SetColor(clr)
		dc.FillPreserve()
		dc.SetColor(render.Outline(clr))
		dc.SetLineWidth(2)
		dc.Stroke()

		if len(m.Lines) > 0 {
			dc.SetRGB(0, 0, 0)
			dc.DrawString(m.Lines[0], x+10, y+4)
		}
	}

	return dc
}

// Save writes the plot as a PNG image
func (p *PNG) Save(path string) error {

	if err := p.Draw().SavePNG(path); err != nil {
		return fmt.Errorf("error saving map image: %w", err)
	}

	return nil
}
