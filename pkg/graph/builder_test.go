package graph

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dstockhouse/mr-fusion-capstone/pkg/geo"
)

// Survey points around the default origin, roughly 90 m apart.
var (
	ptA = geo.GeodeticPoint{Lat: 34.6147979, Lon: -112.4509615, Height: 1582.3}
	ptB = geo.GeodeticPoint{Lat: 34.6147979, Lon: -112.4499615, Height: 1581.0}
	ptC = geo.GeodeticPoint{Lat: 34.6157979, Lon: -112.4509615, Height: 1584.0}
	ptD = geo.GeodeticPoint{Lat: 34.6157979, Lon: -112.4499615, Height: 1583.0}
)

func mid(a, b geo.GeodeticPoint) geo.GeodeticPoint {
	return geo.GeodeticPoint{Lat: (a.Lat + b.Lat) / 2, Lon: (a.Lon + b.Lon) / 2, Height: (a.Height + b.Height) / 2}
}

// buildTriangle builds
//
//	C
//	| \
//	|  \ (bent through a midpoint)
//	A---B
func buildTriangle(t *testing.T) *Graph {
	t.Helper()
	bend := mid(ptB, ptC)
	bend.Lat += 0.0001

	g, err := Build(geo.DefaultFrame(),
		[]RawEdge{
			{Name: "AB", Points: []geo.GeodeticPoint{ptA, ptB}},
			{Name: "BC", Points: []geo.GeodeticPoint{ptB, bend, ptC}},
			{Name: "CA", Points: []geo.GeodeticPoint{ptC, ptA}},
		},
		[]RawVertex{
			{Name: "A", Point: ptA},
			{Name: "B", Point: ptB},
			{Name: "C", Point: ptC},
		},
	)
	require.NoError(t, err)
	return g
}

func assertMatrixInvariants(t *testing.T, g *Graph) {
	t.Helper()
	n := len(g.Vertices)
	require.Len(t, g.Matrix, n)
	for i := 0; i < n; i++ {
		require.Len(t, g.Matrix[i], n)
		assert.Equal(t, NoEdge, g.Matrix[i][i], "diagonal cell %d", i)
		for j := 0; j < n; j++ {
			assert.Equal(t, g.Matrix[i][j], g.Matrix[j][i], "cell [%d][%d]", i, j)
		}
	}
}

func TestBuildSingleEdge(t *testing.T) {
	g, err := Build(geo.DefaultFrame(),
		[]RawEdge{{Name: "Line 1", Points: []geo.GeodeticPoint{ptA, mid(ptA, ptB), ptB}}},
		[]RawVertex{{Name: "A", Point: ptA}, {Name: "B", Point: ptB}},
	)
	require.NoError(t, err)

	assert.Equal(t, [][]EdgeIndex{{NoEdge, 0}, {0, NoEdge}}, g.Matrix)
	assertMatrixInvariants(t, g)

	e := g.Edges[0]
	assert.Equal(t, VertexIndex(0), e.From)
	assert.Equal(t, VertexIndex(1), e.To)
	assert.InDelta(t, g.Vertices[0].Point.Tangential.Distance(g.Vertices[1].Point.Tangential), e.Length, 1e-6)
}

func TestBuildTriangle(t *testing.T) {
	g := buildTriangle(t)

	assertMatrixInvariants(t, g)
	assert.Equal(t, 3, g.NumVertices())
	assert.Equal(t, 3, g.NumEdges())

	ab, ok := g.EdgeAt(0, 1)
	require.True(t, ok)
	assert.Equal(t, "AB", g.Edges[ab].Name)
	bc, ok := g.EdgeAt(2, 1)
	require.True(t, ok)
	assert.Equal(t, "BC", g.Edges[bc].Name)

	// The bent edge is longer than the straight line between its vertices.
	straight := g.Vertices[1].Point.Tangential.Distance(g.Vertices[2].Point.Tangential)
	assert.Greater(t, g.Edges[bc].Length, straight)

	var sum float64
	pts := g.Edges[bc].Points
	for i := 1; i < len(pts); i++ {
		sum += pts[i-1].Tangential.Distance(pts[i].Tangential)
	}
	assert.Equal(t, sum, g.Edges[bc].Length)
}

func TestBuildOriginVertexIsZero(t *testing.T) {
	g := buildTriangle(t)
	assert.Equal(t, geo.TangentialPoint{}, g.Vertices[0].Point.Tangential)
}

func TestBuildResetsScratch(t *testing.T) {
	g := buildTriangle(t)
	for _, v := range g.Vertices {
		assert.True(t, math.IsInf(v.Tentative, 1))
		assert.False(t, v.Visited)
		assert.Equal(t, NoVertex, v.Parent)
	}
}

func TestBuildMatchesIgnoringHeight(t *testing.T) {
	raised := ptB
	raised.Height += 25

	g, err := Build(geo.DefaultFrame(),
		[]RawEdge{{Name: "AB", Points: []geo.GeodeticPoint{ptA, raised}}},
		[]RawVertex{{Name: "A", Point: ptA}, {Name: "B", Point: ptB}},
	)
	require.NoError(t, err)
	assert.Equal(t, EdgeIndex(0), g.Matrix[0][1])
}

func TestBuildErrors(t *testing.T) {
	vertices := []RawVertex{{Name: "A", Point: ptA}, {Name: "B", Point: ptB}, {Name: "C", Point: ptC}}

	tests := []struct {
		name     string
		edges    []RawEdge
		vertices []RawVertex
		want     error
	}{
		{
			name:     "dangling end",
			edges:    []RawEdge{{Name: "AD", Points: []geo.GeodeticPoint{ptA, ptD}}},
			vertices: vertices,
			want:     ErrDanglingEdge,
		},
		{
			name:     "dangling start",
			edges:    []RawEdge{{Name: "DA", Points: []geo.GeodeticPoint{ptD, ptA}}},
			vertices: vertices,
			want:     ErrDanglingEdge,
		},
		{
			name: "conflicting edge",
			edges: []RawEdge{
				{Name: "AB", Points: []geo.GeodeticPoint{ptA, ptB}},
				{Name: "AB again", Points: []geo.GeodeticPoint{ptA, mid(ptA, ptC), ptB}},
			},
			vertices: vertices,
			want:     ErrConflictingEdge,
		},
		{
			name: "conflicting edge reversed",
			edges: []RawEdge{
				{Name: "AB", Points: []geo.GeodeticPoint{ptA, ptB}},
				{Name: "BA", Points: []geo.GeodeticPoint{ptB, ptA}},
			},
			vertices: vertices,
			want:     ErrConflictingEdge,
		},
		{
			name:     "single point edge",
			edges:    []RawEdge{{Name: "A", Points: []geo.GeodeticPoint{ptA}}},
			vertices: vertices,
			want:     ErrDegenerateEdge,
		},
		{
			name:     "self loop",
			edges:    []RawEdge{{Name: "loop", Points: []geo.GeodeticPoint{ptA, ptB, ptC, ptA}}},
			vertices: vertices,
			want:     ErrSelfLoop,
		},
		{
			name:     "duplicate vertex",
			edges:    nil,
			vertices: []RawVertex{{Name: "A", Point: ptA}, {Name: "A2", Point: ptA}},
			want:     ErrDuplicateVertex,
		},
		{
			name: "duplicate vertex name",
			edges: []RawEdge{
				{Name: "ab", Points: []geo.GeodeticPoint{ptA, ptB}},
				{Name: "bc", Points: []geo.GeodeticPoint{ptB, ptC}},
			},
			vertices: []RawVertex{{Name: "Entrance", Point: ptA}, {Name: "B", Point: ptB}, {Name: "Entrance", Point: ptC}},
			want:     ErrDuplicateVertexName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Build(geo.DefaultFrame(), tt.edges, tt.vertices)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, g)
		})
	}
}

func TestBuildDanglingEdgeNamesEdge(t *testing.T) {
	_, err := Build(geo.DefaultFrame(),
		[]RawEdge{{Name: "Line 26", Points: []geo.GeodeticPoint{ptA, ptD}}},
		[]RawVertex{{Name: "A", Point: ptA}},
	)
	require.ErrorIs(t, err, ErrDanglingEdge)
	assert.Contains(t, err.Error(), "Line 26")
}

func TestBuildDuplicateNameNamesVertex(t *testing.T) {
	_, err := Build(geo.DefaultFrame(), nil,
		[]RawVertex{{Name: "Entrance", Point: ptA}, {Name: "Entrance", Point: ptD}},
	)
	require.ErrorIs(t, err, ErrDuplicateVertexName)
	assert.Contains(t, err.Error(), "Entrance")
}

func TestBuildEmptyGraph(t *testing.T) {
	g, err := Build(geo.DefaultFrame(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, g.NumVertices())
	assert.Empty(t, g.Matrix)
}

func TestMatrixIndexOf(t *testing.T) {
	g, err := Build(geo.DefaultFrame(),
		[]RawEdge{{Name: "Line 1", Points: []geo.GeodeticPoint{ptA, ptB}}},
		[]RawVertex{{Name: "A", Point: ptA}, {Name: "B", Point: ptB}},
	)
	require.NoError(t, err)

	mi, err := g.MatrixIndexOf(0)
	require.NoError(t, err)
	assert.Equal(t, MatrixIndex{Row: 0, Col: 1}, mi)

	_, err = g.MatrixIndexOf(1)
	assert.ErrorIs(t, err, ErrEdgeIndexNotFound)
	_, err = g.MatrixIndexOf(NoEdge)
	assert.ErrorIs(t, err, ErrEdgeIndexNotFound)
}

func TestVertexByName(t *testing.T) {
	g := buildTriangle(t)

	vi, ok := g.VertexByName("C")
	assert.True(t, ok)
	assert.Equal(t, VertexIndex(2), vi)

	_, ok = g.VertexByName("Z")
	assert.False(t, ok)
}
