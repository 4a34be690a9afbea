package routing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dstockhouse/mr-fusion-capstone/pkg/geo"
	"github.com/dstockhouse/mr-fusion-capstone/pkg/graph"
)

const (
	lat0 = 34.6147979
	lon0 = -112.4509615
	step = 0.0005 // about 55 m north-south, 46 m east-west
)

func at(row, col float64) geo.GeodeticPoint {
	return geo.GeodeticPoint{Lat: lat0 - row*step, Lon: lon0 + col*step, Height: 1582.3}
}

// buildCampus creates a small surveyed network.
//
//	A ---- B ~~~~ C
//	|             |
//	D ---- E ---- F        G (isolated)
//
// B~C bends north, which makes the top route longer than the bottom one.
func buildCampus(t testing.TB) *graph.Graph {
	t.Helper()
	bend := geo.GeodeticPoint{Lat: lat0 + 0.0003, Lon: lon0 + 1.5*step, Height: 1583}

	g, err := graph.Build(geo.DefaultFrame(),
		[]graph.RawEdge{
			{Name: "AB", Points: []geo.GeodeticPoint{at(0, 0), at(0, 1)}},
			{Name: "BC", Points: []geo.GeodeticPoint{at(0, 1), bend, at(0, 2)}},
			{Name: "AD", Points: []geo.GeodeticPoint{at(0, 0), at(1, 0)}},
			{Name: "CF", Points: []geo.GeodeticPoint{at(0, 2), at(1, 2)}},
			{Name: "DE", Points: []geo.GeodeticPoint{at(1, 0), at(1, 1)}},
			{Name: "EF", Points: []geo.GeodeticPoint{at(1, 1), at(1, 2)}},
		},
		[]graph.RawVertex{
			{Name: "A", Point: at(0, 0)},
			{Name: "B", Point: at(0, 1)},
			{Name: "C", Point: at(0, 2)},
			{Name: "D", Point: at(1, 0)},
			{Name: "E", Point: at(1, 1)},
			{Name: "F", Point: at(1, 2)},
			{Name: "G", Point: at(-20, 20)},
		},
	)
	require.NoError(t, err)
	return g
}

// buildWeighted creates a graph with explicit edge lengths and no geometry.
// Each entry is {from, to, length}.
func buildWeighted(n int, edges [][3]float64) *graph.Graph {
	g := &graph.Graph{
		Vertices: make([]graph.Vertex, n),
		Matrix:   make([][]graph.EdgeIndex, n),
	}
	for i := range g.Matrix {
		g.Matrix[i] = make([]graph.EdgeIndex, n)
		for j := range g.Matrix[i] {
			g.Matrix[i][j] = graph.NoEdge
		}
	}
	for i, e := range edges {
		from, to := graph.VertexIndex(e[0]), graph.VertexIndex(e[1])
		g.Edges = append(g.Edges, graph.Edge{Length: e[2], From: from, To: to})
		g.Matrix[from][to] = graph.EdgeIndex(i)
		g.Matrix[to][from] = graph.EdgeIndex(i)
	}
	g.ResetScratch()
	return g
}

func vertexNames(g *graph.Graph, p graph.Path) []string {
	var out []string
	for _, vi := range p.Vertices(g) {
		out = append(out, g.Vertices[vi].Name)
	}
	return out
}
