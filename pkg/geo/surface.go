package geo

import (
	golanggeo "github.com/kellydunn/golang-geo"
)

// SurfaceDistance returns the great-circle distance in meters between a and b.
// Height is ignored. It is a cross-check for the tangential frame, not an
// edge weight.
func SurfaceDistance(a, b GeodeticPoint) float64 {
	p := golanggeo.NewPoint(a.Lat, a.Lon)
	q := golanggeo.NewPoint(b.Lat, b.Lon)
	return p.GreatCircleDistance(q) * 1000
}
