// Package geo assigns locations to accepted detections, either from live GPS
// telemetry or synthesised around a reference point
package geo

import (
	"fmt"
	"math"

	gogeo "github.com/kellydunn/golang-geo"
)

// Point is a WGS84 latitude/longitude pair in degrees
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate checks the point is finite and within the latitude and longitude
// ranges
func (p Point) Validate() error {

	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lon, 0) {
		return fmt.Errorf("point %v is not finite", p)
	}

	if p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("latitude %f out of range", p.Lat)
	}

	if p.Lon < -180 || p.Lon > 180 {
		return fmt.Errorf("longitude %f out of range", p.Lon)
	}

	return nil
}

// DistanceKm returns the great circle distance to q in kilometres
func (p Point) DistanceKm(q Point) float64 {
	return p.geoPoint().GreatCircleDistance(q.geoPoint())
}

// Offset returns the point reached by travelling km kilometres from p on the
// given compass bearing in degrees
func (p Point) Offset(km, bearing float64) Point {
	dest := p.geoPoint().PointAtDistanceAndBearing(km, bearing)
	return Point{Lat: dest.Lat(), Lon: dest.Lng()}
}

// String returns the point formatted to 6 decimal places, eg: (16.441900, 80.622000)
func (p Point) String() string {
	return fmt.Sprintf("(%.6f, %.6f)", p.Lat, p.Lon)
}

func (p Point) geoPoint() *gogeo.Point {
	return gogeo.NewPoint(p.Lat, p.Lon)
}
