package traversal

import (
	"github.com/dstockhouse/mr-fusion-capstone/pkg/geo"
)

// Tracker walks a sequence of waypoints. Each time the robot crosses the
// current proximity line the next waypoint becomes the target and a new
// line is computed from the robot's position at that moment.
type Tracker struct {
	waypoints []geo.TangentialPoint
	next      int
	factor    float64
	line      Line
}

// NewTracker starts tracking from start toward the first waypoint. A
// non-positive offsetFactor selects DefaultOffsetFactor.
func NewTracker(start geo.TangentialPoint, waypoints []geo.TangentialPoint, offsetFactor float64) *Tracker {
	if offsetFactor <= 0 {
		offsetFactor = DefaultOffsetFactor
	}
	t := &Tracker{waypoints: waypoints, factor: offsetFactor}
	if len(waypoints) > 0 {
		t.line = ProximityLine(start, waypoints[0], offsetFactor)
	}
	return t
}

// Update feeds the robot's position and reports whether the target
// advanced. At most one waypoint is passed per call.
func (t *Tracker) Update(pos geo.TangentialPoint) bool {
	if t.Done() || !t.line.Crossed(pos) {
		return false
	}
	t.next++
	if !t.Done() {
		t.line = ProximityLine(pos, t.waypoints[t.next], t.factor)
	}
	return true
}

// Target returns the waypoint currently steered to.
func (t *Tracker) Target() (geo.TangentialPoint, bool) {
	if t.Done() {
		return geo.TangentialPoint{}, false
	}
	return t.waypoints[t.next], true
}

// Line returns the current proximity line.
func (t *Tracker) Line() Line { return t.line }

// Index returns the position of the target in the waypoint list.
func (t *Tracker) Index() int { return t.next }

// Remaining returns the number of waypoints not yet reached.
func (t *Tracker) Remaining() int { return len(t.waypoints) - t.next }

// Done reports whether every waypoint has been reached.
func (t *Tracker) Done() bool { return t.next >= len(t.waypoints) }
