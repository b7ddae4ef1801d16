package region

import (
	"fmt"

	clipper "github.com/ctessum/go.clipper"
	"github.com/swdee/go-cropwatch/geo"
)

// clipperScale converts degrees to the integer coordinates used by clipper,
// giving a resolution of about 1cm
const clipperScale = 1e7

// Expand returns the region grown outwards by margin degrees on every side
// with rounded corners, eg: to add a spraying buffer around the infected
// area.  The result is re-hulled so it is always convex.
func (r Region) Expand(margin float64) (Region, error) {

	if margin < 0 {
		return Region{}, fmt.Errorf("margin must not be negative, got %f", margin)
	}

	if r.Empty() || margin == 0 {
		return r, nil
	}

	// convert the vertices to a clipper path
	var path clipper.Path

	for _, v := range r.vertices {
		path = append(path, &clipper.IntPoint{
			X: clipper.CInt(v.Lon * clipperScale),
			Y: clipper.CInt(v.Lat * clipperScale),
		})
	}

	co := clipper.NewClipperOffset()
	co.AddPath(path, clipper.JtRound, clipper.EtClosedPolygon)

	solution := co.Execute(margin * clipperScale)

	var points []geo.Point

	for _, sol := range solution {
		for _, pt := range sol {
			points = append(points, geo.Point{
				Lat: float64(pt.Y) / clipperScale,
				Lon: float64(pt.X) / clipperScale,
			})
		}
	}

	expanded := Enclose(points)

	if expanded.Empty() {
		return Region{}, fmt.Errorf("expanding region by %f produced no polygon", margin)
	}

	return expanded, nil
}
