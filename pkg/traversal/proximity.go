// Package traversal decides when the robot has reached a waypoint.
//
// Arrival is detected with a proximity line: a line in the x/y plane,
// perpendicular to the direction of travel, placed a little before the
// target. The robot has arrived once it is on or past that line.
package traversal

import (
	"fmt"
	"math"

	"github.com/dstockhouse/mr-fusion-capstone/pkg/geo"
)

// DefaultOffsetFactor places the proximity line 9% of the approach distance
// before the target.
const DefaultOffsetFactor = 0.09

// Line is a proximity line in slope-intercept form. A vertical line has an
// infinite Slope and a NaN Intercept.
type Line struct {
	Slope     float64
	Intercept float64

	// Anchor is the point the line passes through and Direction the travel
	// vector it is perpendicular to. Both are in the x/y plane.
	Anchor    geo.TangentialPoint
	Direction geo.TangentialPoint
}

// ProximityLine returns the arrival line for travel from current to next.
// Height is ignored.
func ProximityLine(current, next geo.TangentialPoint, offsetFactor float64) Line {
	dir := geo.TangentialPoint{X: next.X - current.X, Y: next.Y - current.Y}
	anchor := geo.TangentialPoint{X: next.X, Y: next.Y}.Sub(dir.Scale(offsetFactor))

	slope := -dir.X / dir.Y
	intercept := anchor.Y - slope*anchor.X
	if math.IsInf(slope, 0) {
		intercept = math.NaN()
	}

	return Line{
		Slope:     slope,
		Intercept: intercept,
		Anchor:    anchor,
		Direction: dir,
	}
}

// Vertical reports whether the line is parallel to the y axis, which
// happens when travel is along x.
func (l Line) Vertical() bool { return math.IsInf(l.Slope, 0) }

// Degenerate reports whether the line was built from two coincident points.
// A degenerate line counts as crossed from anywhere.
func (l Line) Degenerate() bool { return l.Direction.X == 0 && l.Direction.Y == 0 }

// Crossed reports whether p is on the line or beyond it in the direction of
// travel.
func (l Line) Crossed(p geo.TangentialPoint) bool {
	dx, dy := p.X-l.Anchor.X, p.Y-l.Anchor.Y
	return dx*l.Direction.X+dy*l.Direction.Y >= 0
}

// Y evaluates the line at x. It is NaN for a vertical line.
func (l Line) Y(x float64) float64 {
	if l.Vertical() {
		return math.NaN()
	}
	return l.Slope*x + l.Intercept
}

func (l Line) String() string {
	if l.Vertical() {
		return fmt.Sprintf("x = %.3f", l.Anchor.X)
	}
	return fmt.Sprintf("y = %.3fx + %.3f", l.Slope, l.Intercept)
}
