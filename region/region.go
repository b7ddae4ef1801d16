// Package region reduces a set of detection locations to the convex polygon
// enclosing them.
//
// The hull is computed on the (longitude, latitude) plane treated as
// Euclidean, which is accurate enough for the field sized extents the
// pipeline records.  Points lying exactly on a hull edge between two other
// vertices are not hull vertices, so three or more collinear points produce
// an empty Region.
package region

import (
	"encoding/json"
	"math"
	"sort"

	"github.com/swdee/go-cropwatch/geo"
	"gonum.org/v1/gonum/spatial/r2"
)

// epsilon is the tolerance used when testing if a point lies on an edge
const epsilon = 1e-12

// Region is a convex polygon of locations.  The zero value is the empty
// Region.
type Region struct {
	// vertices are the distinct hull vertices in counter-clockwise order
	// starting from the vertex with the lowest longitude (then latitude)
	vertices []geo.Point
}

// Enclose returns the convex hull of points.  Fewer than three distinct
// points, or points that are all collinear, give an empty Region.  Input
// order and duplicates do not affect the result.
func Enclose(points []geo.Point) Region {

	vecs := uniqueSorted(points)

	if len(vecs) < 3 {
		return Region{}
	}

	hull := monotoneChain(vecs)

	if len(hull) < 3 {
		return Region{}
	}

	vertices := make([]geo.Point, len(hull))

	for i, v := range hull {
		vertices[i] = toPoint(v)
	}

	return Region{vertices: vertices}
}

// Empty reports whether the region has no area
func (r Region) Empty() bool {
	return len(r.vertices) == 0
}

// Vertices returns the distinct hull vertices in counter-clockwise order
func (r Region) Vertices() []geo.Point {

	out := make([]geo.Point, len(r.vertices))
	copy(out, r.vertices)

	return out
}

// Points returns the closed polygon, the first vertex repeated as the last.
// An empty region returns no points.
func (r Region) Points() []geo.Point {

	if r.Empty() {
		return []geo.Point{}
	}

	out := make([]geo.Point, 0, len(r.vertices)+1)
	out = append(out, r.vertices...)

	return append(out, r.vertices[0])
}

// Contains reports whether p lies inside or on the boundary of the region
func (r Region) Contains(p geo.Point) bool {

	if r.Empty() {
		return false
	}

	v := toVec(p)

	for i := range r.vertices {
		a := toVec(r.vertices[i])
		b := toVec(r.vertices[(i+1)%len(r.vertices)])

		// counter-clockwise winding puts the inside on the left of each edge
		if cross(a, b, v) < -epsilon*scale(a, b) {
			return false
		}
	}

	return true
}

// Area returns the planar area of the region in square degrees
func (r Region) Area() float64 {

	var sum float64

	for i := range r.vertices {
		a := toVec(r.vertices[i])
		b := toVec(r.vertices[(i+1)%len(r.vertices)])
		sum += r2.Cross(a, b)
	}

	return math.Abs(sum) / 2
}

// AreaKm2 returns the approximate area of the region in square kilometres
// using an equirectangular projection about the region's mean latitude
func (r Region) AreaKm2() float64 {

	if r.Empty() {
		return 0
	}

	var meanLat float64

	for _, v := range r.vertices {
		meanLat += v.Lat
	}

	meanLat /= float64(len(r.vertices))

	const kmPerDegLat = 110.574
	kmPerDegLon := 111.320 * math.Cos(meanLat*math.Pi/180)

	return r.Area() * kmPerDegLat * kmPerDegLon
}

// Perimeter returns the length of the region boundary in kilometres measured
// along great circles
func (r Region) Perimeter() float64 {

	var km float64

	for i := range r.vertices {
		km += r.vertices[i].DistanceKm(r.vertices[(i+1)%len(r.vertices)])
	}

	return km
}

// MarshalJSON encodes the closed polygon as [[lat, lon], ...]
func (r Region) MarshalJSON() ([]byte, error) {

	pairs := make([][2]float64, 0, len(r.vertices)+1)

	for _, p := range r.Points() {
		pairs = append(pairs, [2]float64{p.Lat, p.Lon})
	}

	return json.Marshal(pairs)
}

// uniqueSorted converts points to plane vectors sorted by x then y with
// duplicates removed
func uniqueSorted(points []geo.Point) []r2.Vec {

	vecs := make([]r2.Vec, 0, len(points))

	for _, p := range points {
		vecs = append(vecs, toVec(p))
	}

	sort.Slice(vecs, func(i, j int) bool {
		if vecs[i].X != vecs[j].X {
			return vecs[i].X < vecs[j].X
		}
		return vecs[i].Y < vecs[j].Y
	})

	out := vecs[:0]

	for i, v := range vecs {
		if i > 0 && v == vecs[i-1] {
			continue
		}
		out = append(out, v)
	}

	return out
}

// monotoneChain computes the convex hull of sorted, unique points using
// Andrew's algorithm.  Only strict turns are kept so collinear points are
// excluded from the hull.
func monotoneChain(vecs []r2.Vec) []r2.Vec {

	hull := make([]r2.Vec, 0, 2*len(vecs))

	// lower hull
	for _, v := range vecs {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], v) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, v)
	}

	// upper hull
	lower := len(hull) + 1

	for i := len(vecs) - 2; i >= 0; i-- {
		v := vecs[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], v) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, v)
	}

	// last point is the first repeated
	return hull[:len(hull)-1]
}

// cross returns the z component of (a-o) x (b-o), positive when o, a, b make
// a counter-clockwise turn
func cross(o, a, b r2.Vec) float64 {
	return r2.Cross(r2.Sub(a, o), r2.Sub(b, o))
}

// scale returns a magnitude used to make the edge tolerance relative to the
// size of the coordinates
func scale(a, b r2.Vec) float64 {
	return math.Max(1, r2.Norm(r2.Sub(b, a)))
}

func toVec(p geo.Point) r2.Vec {
	return r2.Vec{X: p.Lon, Y: p.Lat}
}

func toPoint(v r2.Vec) geo.Point {
	return geo.Point{Lat: v.Y, Lon: v.X}
}
