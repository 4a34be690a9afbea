package routing

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/tidwall/rtree"

	"github.com/dstockhouse/mr-fusion-capstone/pkg/geo"
	"github.com/dstockhouse/mr-fusion-capstone/pkg/graph"
)

const (
	// DefaultSamples is the number of intervals each polyline segment is
	// split into during localization.
	DefaultSamples = 80
	// DefaultRadius is the acceptance radius in meters, about the robot's
	// footprint.
	DefaultRadius = 0.5
)

// ErrNotOnMap is returned when no edge passes within the acceptance radius.
var ErrNotOnMap = errors.New("robot not on map")

// LocatorOptions tunes the localization search. Zero values take defaults.
type LocatorOptions struct {
	Samples int
	Radius  float64
}

func (o LocatorOptions) withDefaults() LocatorOptions {
	if o.Samples <= 0 {
		o.Samples = DefaultSamples
	}
	if o.Radius <= 0 {
		o.Radius = DefaultRadius
	}
	return o
}

// Match is the result of a localization search.
type Match struct {
	Index    graph.MatrixIndex
	Edge     graph.EdgeIndex
	Point    geo.TangentialPoint // closest sample on the edge
	Distance float64             // meters from the query location to Point
}

// Locator finds the edge a tangential location lies on. An R-tree over the
// x/y bounds of every edge limits the sampled edges to those that could
// possibly be within the radius. Candidates are then scanned in edge order,
// so the answer matches a search over all edges.
type Locator struct {
	g    *graph.Graph
	opts LocatorOptions
	tree rtree.RTreeG[graph.EdgeIndex]
}

// NewLocator indexes g's edges. The graph's geometry must not change
// afterwards.
func NewLocator(g *graph.Graph, opts LocatorOptions) *Locator {
	l := &Locator{g: g, opts: opts.withDefaults()}
	for i := range g.Edges {
		lo, hi := bounds(g.Edges[i].Points)
		l.tree.Insert(lo, hi, graph.EdgeIndex(i))
	}
	return l
}

// Options returns the effective options.
func (l *Locator) Options() LocatorOptions { return l.opts }

// ClosestEdge returns the connection matrix cell of the edge closest to loc.
func (l *Locator) ClosestEdge(loc geo.TangentialPoint) (graph.MatrixIndex, error) {
	m, err := l.Nearest(loc)
	if err != nil {
		return graph.MatrixIndex{}, err
	}
	return m.Index, nil
}

// Nearest samples every segment of every candidate edge at Samples+1 evenly
// spaced points, both ends included, and returns the closest sample within
// Radius. A later sample replaces the current best only when strictly
// closer.
func (l *Locator) Nearest(loc geo.TangentialPoint) (Match, error) {
	r := l.opts.Radius
	var candidates []graph.EdgeIndex
	l.tree.Search(
		[2]float64{loc.X - r, loc.Y - r},
		[2]float64{loc.X + r, loc.Y + r},
		func(_, _ [2]float64, ei graph.EdgeIndex) bool {
			candidates = append(candidates, ei)
			return true
		},
	)
	slices.Sort(candidates)

	best := Match{Edge: graph.NoEdge, Distance: math.Inf(1)}
	for _, ei := range candidates {
		pts := l.g.Edges[ei].Points
		for s := 1; s < len(pts); s++ {
			a, b := pts[s-1].Tangential, pts[s].Tangential
			for k := 0; k <= l.opts.Samples; k++ {
				p := a.Lerp(b, float64(k)/float64(l.opts.Samples))
				d := p.Distance(loc)
				if d <= r && d < best.Distance {
					best.Edge = ei
					best.Point = p
					best.Distance = d
				}
			}
		}
	}

	if best.Edge == graph.NoEdge {
		return Match{}, fmt.Errorf("%w: no edge within %.2f m of %s", ErrNotOnMap, r, loc)
	}

	mi, err := l.g.MatrixIndexOf(best.Edge)
	if err != nil {
		panic(fmt.Sprintf("routing: connection matrix out of sync with edges: %v", err))
	}
	best.Index = mi
	return best, nil
}

// ClosestEdge runs a one-off localization search with default options.
func ClosestEdge(g *graph.Graph, loc geo.TangentialPoint) (graph.MatrixIndex, error) {
	return NewLocator(g, LocatorOptions{}).ClosestEdge(loc)
}

func bounds(pts []graph.Point) (lo, hi [2]float64) {
	lo = [2]float64{math.Inf(1), math.Inf(1)}
	hi = [2]float64{math.Inf(-1), math.Inf(-1)}
	for _, p := range pts {
		lo[0] = math.Min(lo[0], p.Tangential.X)
		lo[1] = math.Min(lo[1], p.Tangential.Y)
		hi[0] = math.Max(hi[0], p.Tangential.X)
		hi[1] = math.Max(hi[1], p.Tangential.Y)
	}
	return lo, hi
}
