package graph

import (
	"github.com/dstockhouse/mr-fusion-capstone/pkg/geo"
)

// Path is a continuous walk through the graph: each step's Row is the
// previous step's Col.
type Path struct {
	Steps []MatrixIndex
}

// Len returns the number of steps.
func (p Path) Len() int { return len(p.Steps) }

// Start returns the first vertex of the path.
func (p Path) Start() (VertexIndex, bool) {
	if len(p.Steps) == 0 {
		return NoVertex, false
	}
	return p.Steps[0].Row, true
}

// End returns the last vertex of the path.
func (p Path) End() (VertexIndex, bool) {
	if len(p.Steps) == 0 {
		return NoVertex, false
	}
	return p.Steps[len(p.Steps)-1].Col, true
}

// Edges returns the edges of the path in travel order.
func (p Path) Edges(g *Graph) []EdgeIndex {
	out := make([]EdgeIndex, len(p.Steps))
	for i, s := range p.Steps {
		out[i] = s.Edge(g)
	}
	return out
}

// Vertices returns the vertices of the path in travel order.
func (p Path) Vertices(_ *Graph) []VertexIndex {
	if len(p.Steps) == 0 {
		return nil
	}
	out := make([]VertexIndex, 0, len(p.Steps)+1)
	out = append(out, p.Steps[0].Row)
	for _, s := range p.Steps {
		out = append(out, s.Col)
	}
	return out
}

// Length returns the summed length of the path's edges in meters.
func (p Path) Length(g *Graph) float64 {
	var total float64
	for _, s := range p.Steps {
		total += g.Edges[s.Edge(g)].Length
	}
	return total
}

// Waypoints returns every polyline point along the path, oriented in travel
// direction. Points shared by consecutive edges appear once.
func (p Path) Waypoints(g *Graph) []geo.TangentialPoint {
	var out []geo.TangentialPoint
	for _, s := range p.Steps {
		e := &g.Edges[s.Edge(g)]
		n := len(e.Points)
		for k := 0; k < n; k++ {
			idx := k
			if e.From != s.Row {
				idx = n - 1 - k
			}
			if k == 0 && len(out) > 0 {
				continue
			}
			out = append(out, e.Points[idx].Tangential)
		}
	}
	return out
}

// Selection picks the part of a graph an exporter works on.
type Selection interface {
	Edges(g *Graph) []EdgeIndex
	Vertices(g *Graph) []VertexIndex
}

// All selects the whole graph.
var All Selection = whole{}

type whole struct{}

func (whole) Edges(g *Graph) []EdgeIndex {
	out := make([]EdgeIndex, len(g.Edges))
	for i := range out {
		out[i] = EdgeIndex(i)
	}
	return out
}

func (whole) Vertices(g *Graph) []VertexIndex {
	out := make([]VertexIndex, len(g.Vertices))
	for i := range out {
		out[i] = VertexIndex(i)
	}
	return out
}
