// Package geo converts surveyed geodetic coordinates into the local flat
// tangential frame used by path planning.
package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// ErrSingularFrame is returned when the rotation matrix for an origin cannot
// be inverted.
var ErrSingularFrame = errors.New("tangential frame rotation is singular")

// Ellipsoid describes the Earth model used for the rectangular conversion.
type Ellipsoid struct {
	EquatorialRadius float64 // meters
	Eccentricity     float64
}

// DefaultEllipsoid is the Earth model the surveyed maps were made with.
var DefaultEllipsoid = Ellipsoid{
	EquatorialRadius: 6378137.0,
	Eccentricity:     0.0818,
}

// DefaultOrigin is the front entrance of King Engineering.
var DefaultOrigin = GeodeticPoint{
	Lat:    34.6147979,
	Lon:    -112.4509615,
	Height: 1582.3,
}

// Frame is a local tangential frame anchored at a fixed origin.
// A Frame is immutable and safe for concurrent use.
type Frame struct {
	origin    GeodeticPoint
	ellipsoid Ellipsoid
	originXYZ r3.Vector
	rotation  *mat.Dense // inverted basis change, applied to displacements
}

// NewFrame builds the frame anchored at origin.
func NewFrame(origin GeodeticPoint, e Ellipsoid) (*Frame, error) {
	if e.EquatorialRadius <= 0 || math.IsNaN(e.EquatorialRadius) || math.IsInf(e.EquatorialRadius, 0) {
		return nil, fmt.Errorf("invalid equatorial radius %v", e.EquatorialRadius)
	}
	if e.Eccentricity < 0 || e.Eccentricity >= 1 || math.IsNaN(e.Eccentricity) {
		return nil, fmt.Errorf("invalid eccentricity %v", e.Eccentricity)
	}

	lat := origin.Lat * math.Pi / 180
	lon := origin.Lon * math.Pi / 180
	sinLat, cosLat := math.Sincos(lat)
	sinLon, cosLon := math.Sincos(lon)

	basis := mat.NewDense(3, 3, []float64{
		-cosLon * sinLat, -sinLon, -cosLat * cosLon,
		-sinLat * sinLon, cosLon, -cosLat * sinLon,
		cosLat, 0, -sinLat,
	})

	var inv mat.Dense
	if err := inv.Inverse(basis); err != nil {
		return nil, fmt.Errorf("%w: origin %s: %v", ErrSingularFrame, origin, err)
	}

	return &Frame{
		origin:    origin,
		ellipsoid: e,
		originXYZ: e.rectangular(origin),
		rotation:  &inv,
	}, nil
}

// MustFrame is like NewFrame but panics on error.
func MustFrame(origin GeodeticPoint, e Ellipsoid) *Frame {
	f, err := NewFrame(origin, e)
	if err != nil {
		panic(err)
	}
	return f
}

// DefaultFrame returns the frame anchored at DefaultOrigin.
func DefaultFrame() *Frame {
	return MustFrame(DefaultOrigin, DefaultEllipsoid)
}

// Origin returns the geodetic point that maps to (0, 0, 0).
func (f *Frame) Origin() GeodeticPoint {
	return f.origin
}

// Ellipsoid returns the Earth model of the frame.
func (f *Frame) Ellipsoid() Ellipsoid {
	return f.ellipsoid
}

// ToTangential converts p into the frame. The origin maps to (0, 0, 0)
// exactly.
func (f *Frame) ToTangential(p GeodeticPoint) TangentialPoint {
	d := f.originXYZ.Sub(f.ellipsoid.rectangular(p))

	var out mat.VecDense
	out.MulVec(f.rotation, mat.NewVecDense(3, []float64{d.X, d.Y, d.Z}))

	return TangentialPoint{X: out.AtVec(0), Y: out.AtVec(1), Z: out.AtVec(2)}
}

// rectangular returns the Earth-centered rectangular position of p.
func (e Ellipsoid) rectangular(p GeodeticPoint) r3.Vector {
	lat := p.Lat * math.Pi / 180
	lon := p.Lon * math.Pi / 180
	sinLat, cosLat := math.Sincos(lat)
	sinLon, cosLon := math.Sincos(lon)

	// Radius of curvature in the prime vertical.
	re := e.EquatorialRadius / math.Sqrt(1-math.Pow(sinLat*e.Eccentricity, 2))
	e2 := e.Eccentricity * e.Eccentricity

	return r3.Vector{
		X: (re + p.Height) * cosLat * cosLon,
		Y: (re + p.Height) * cosLat * sinLon,
		Z: (re + re*e2 + p.Height) * sinLat,
	}
}
