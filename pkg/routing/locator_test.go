package routing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dstockhouse/mr-fusion-capstone/pkg/geo"
	"github.com/dstockhouse/mr-fusion-capstone/pkg/graph"
)

func edgeByName(t *testing.T, g *graph.Graph, name string) graph.EdgeIndex {
	t.Helper()
	for i := range g.Edges {
		if g.Edges[i].Name == name {
			return graph.EdgeIndex(i)
		}
	}
	t.Fatalf("no edge %q", name)
	return graph.NoEdge
}

func TestClosestEdgeOnEdge(t *testing.T) {
	g := buildCampus(t)
	de := edgeByName(t, g, "DE")
	pts := g.Edges[de].Points

	// Sample 40 of 80 is the segment midpoint.
	loc := pts[0].Tangential.Lerp(pts[1].Tangential, 0.5)

	mi, err := ClosestEdge(g, loc)
	require.NoError(t, err)
	assert.Equal(t, de, mi.Edge(g))
	want, err := g.MatrixIndexOf(de)
	require.NoError(t, err)
	assert.Equal(t, want, mi)
}

func TestClosestEdgeOnBentEdge(t *testing.T) {
	g := buildCampus(t)
	bc := edgeByName(t, g, "BC")
	pts := g.Edges[bc].Points

	// The bend point itself is a sample of both of its segments.
	mi, err := ClosestEdge(g, pts[1].Tangential)
	require.NoError(t, err)
	assert.Equal(t, bc, mi.Edge(g))
}

func TestClosestEdgeWithinRadius(t *testing.T) {
	g := buildCampus(t)
	ef := edgeByName(t, g, "EF")
	pts := g.Edges[ef].Points

	loc := pts[0].Tangential.Lerp(pts[1].Tangential, 0.25).Add(geo.TangentialPoint{Z: 0.3})

	m, err := NewLocator(g, LocatorOptions{}).Nearest(loc)
	require.NoError(t, err)
	assert.Equal(t, ef, m.Edge)
	assert.InDelta(t, 0.3, m.Distance, 1e-6)
}

func TestClosestEdgeNotOnMap(t *testing.T) {
	g := buildCampus(t)

	tests := []struct {
		name string
		loc  geo.TangentialPoint
	}{
		{"kilometers away", geo.TangentialPoint{X: 5000, Y: -5000}},
		{"inside the block", geo.TangentialPoint{X: 30, Y: 20}},
		{"above an edge", g.Vertices[4].Point.Tangential.Add(geo.TangentialPoint{Z: 3})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ClosestEdge(g, tt.loc)
			assert.ErrorIs(t, err, ErrNotOnMap)
		})
	}
}

func TestClosestEdgeSharedVertexPicksLowestEdge(t *testing.T) {
	g := buildCampus(t)
	// A is the first point of AB (edge 0) and AD (edge 2).
	mi, err := ClosestEdge(g, g.Vertices[0].Point.Tangential)
	require.NoError(t, err)
	assert.Equal(t, graph.MatrixIndex{Row: 0, Col: 1}, mi)
	assert.Equal(t, graph.EdgeIndex(0), mi.Edge(g))
}

func TestClosestEdgeEmptyGraph(t *testing.T) {
	g, err := graph.Build(geo.DefaultFrame(), nil, nil)
	require.NoError(t, err)

	_, err = ClosestEdge(g, geo.TangentialPoint{})
	assert.ErrorIs(t, err, ErrNotOnMap)
}

// bruteForce is the unindexed search over every edge.
func bruteForce(g *graph.Graph, loc geo.TangentialPoint, opts LocatorOptions) (graph.EdgeIndex, float64) {
	best, bestDist := graph.NoEdge, math.Inf(1)
	for ei := range g.Edges {
		pts := g.Edges[ei].Points
		for s := 1; s < len(pts); s++ {
			for k := 0; k <= opts.Samples; k++ {
				p := pts[s-1].Tangential.Lerp(pts[s].Tangential, float64(k)/float64(opts.Samples))
				if d := p.Distance(loc); d <= opts.Radius && d < bestDist {
					best, bestDist = graph.EdgeIndex(ei), d
				}
			}
		}
	}
	return best, bestDist
}

func TestLocatorMatchesBruteForce(t *testing.T) {
	g := buildCampus(t)
	opts := LocatorOptions{Samples: 20, Radius: 15}
	l := NewLocator(g, opts)

	// The campus fits in 130 m around the origin in every direction.
	var matched int
	for x := -130.0; x <= 130; x += 6.5 {
		for y := -130.0; y <= 130; y += 6.5 {
			loc := geo.TangentialPoint{X: x, Y: y}
			wantEdge, wantDist := bruteForce(g, loc, opts)

			m, err := l.Nearest(loc)
			if wantEdge == graph.NoEdge {
				assert.ErrorIs(t, err, ErrNotOnMap, "at %s", loc)
				continue
			}
			require.NoError(t, err, "at %s", loc)
			assert.Equal(t, wantEdge, m.Edge, "at %s", loc)
			assert.Equal(t, wantDist, m.Distance, "at %s", loc)
			matched++
		}
	}
	assert.Positive(t, matched)
}

func TestLocatorOptionsDefaults(t *testing.T) {
	g := buildCampus(t)

	l := NewLocator(g, LocatorOptions{})
	assert.Equal(t, LocatorOptions{Samples: DefaultSamples, Radius: DefaultRadius}, l.Options())

	l = NewLocator(g, LocatorOptions{Samples: 10, Radius: 2})
	assert.Equal(t, LocatorOptions{Samples: 10, Radius: 2}, l.Options())
}

func BenchmarkLocator(b *testing.B) {
	g := buildCampus(b)
	l := NewLocator(g, LocatorOptions{})
	loc := g.Vertices[4].Point.Tangential

	b.ResetTimer()
	for iter := 0; iter < b.N; iter++ {
		if _, err := l.Nearest(loc); err != nil {
			b.Fatal(err)
		}
	}
}
