package geo

import (
	"fmt"

	"github.com/golang/geo/r3"
)

// GeodeticPoint is a surveyed position: latitude and longitude in degrees,
// height in meters above the reference ellipsoid.
type GeodeticPoint struct {
	Lat    float64
	Lon    float64
	Height float64
}

// Equal reports whether p and q name the same surveyed node.
// Height is not part of a point's identity.
func (p GeodeticPoint) Equal(q GeodeticPoint) bool {
	return p.Lat == q.Lat && p.Lon == q.Lon
}

func (p GeodeticPoint) String() string {
	return fmt.Sprintf("(%.7f, %.7f, %.1fm)", p.Lat, p.Lon, p.Height)
}

// TangentialPoint is a position in meters in the local flat frame.
type TangentialPoint struct {
	X float64
	Y float64
	Z float64
}

func fromVector(v r3.Vector) TangentialPoint {
	return TangentialPoint{X: v.X, Y: v.Y, Z: v.Z}
}

// Vector returns p as an r3 vector.
func (p TangentialPoint) Vector() r3.Vector {
	return r3.Vector{X: p.X, Y: p.Y, Z: p.Z}
}

// Sub returns the displacement p - q.
func (p TangentialPoint) Sub(q TangentialPoint) TangentialPoint {
	return fromVector(p.Vector().Sub(q.Vector()))
}

// Add returns p + q.
func (p TangentialPoint) Add(q TangentialPoint) TangentialPoint {
	return fromVector(p.Vector().Add(q.Vector()))
}

// Scale returns p multiplied by s.
func (p TangentialPoint) Scale(s float64) TangentialPoint {
	return fromVector(p.Vector().Mul(s))
}

// Distance returns the Euclidean distance between p and q.
func (p TangentialPoint) Distance(q TangentialPoint) float64 {
	return p.Vector().Sub(q.Vector()).Norm()
}

// Lerp returns the point a fraction t of the way from p to q.
func (p TangentialPoint) Lerp(q TangentialPoint, t float64) TangentialPoint {
	return p.Add(q.Sub(p).Scale(t))
}

func (p TangentialPoint) String() string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", p.X, p.Y, p.Z)
}

// Distance returns the Euclidean distance between two tangential points.
func Distance(a, b TangentialPoint) float64 {
	return a.Distance(b)
}
