package graph

import (
	"errors"
	"fmt"
	"math"

	"github.com/dstockhouse/mr-fusion-capstone/pkg/geo"
)

var (
	// ErrDanglingEdge is returned when an edge endpoint matches no vertex.
	ErrDanglingEdge = errors.New("dangling edge")
	// ErrConflictingEdge is returned when two edges join the same vertex pair.
	ErrConflictingEdge = errors.New("conflicting edge")
	// ErrDegenerateEdge is returned for an edge with fewer than two points.
	ErrDegenerateEdge = errors.New("edge has fewer than two points")
	// ErrSelfLoop is returned when both ends of an edge match the same vertex.
	ErrSelfLoop = errors.New("edge starts and ends at the same vertex")
	// ErrDuplicateVertex is returned when two vertices share a coordinate.
	ErrDuplicateVertex = errors.New("duplicate vertex coordinate")
	// ErrDuplicateVertexName is returned when two vertices share a name.
	ErrDuplicateVertexName = errors.New("duplicate vertex name")
	// ErrEdgeIndexNotFound means the connection matrix and the edge list
	// disagree. It indicates a defect, not bad input.
	ErrEdgeIndexNotFound = errors.New("edge index not in connection matrix")
)

// VertexIndex is a position in Graph.Vertices.
type VertexIndex int

// EdgeIndex is a position in Graph.Edges.
type EdgeIndex int

const (
	// NoVertex marks an unset parent.
	NoVertex VertexIndex = -1
	// NoEdge marks an empty connection matrix cell.
	NoEdge EdgeIndex = -1
)

// Point pairs a surveyed coordinate with its tangential position, which is
// computed once at load time.
type Point struct {
	Geodetic   geo.GeodeticPoint
	Tangential geo.TangentialPoint
}

// Edge is a named polyline joining two vertices.
type Edge struct {
	Name   string
	Points []Point
	Length float64 // meters, sum of consecutive tangential distances

	// From and To are the vertices matched by the first and last point.
	From VertexIndex
	To   VertexIndex
}

// Start returns the first point of the polyline.
func (e *Edge) Start() Point { return e.Points[0] }

// End returns the last point of the polyline.
func (e *Edge) End() Point { return e.Points[len(e.Points)-1] }

// Vertex is a named waypoint. Tentative, Visited and Parent are scratch
// space owned by the shortest path engine for the duration of one query.
type Vertex struct {
	Name  string
	Point Point

	Tentative float64
	Visited   bool
	Parent    VertexIndex
}

// Graph is the path network: vertices, edges and a symmetric connection
// matrix whose cell (i, j) holds the edge joining vertices i and j.
type Graph struct {
	Vertices []Vertex
	Edges    []Edge
	Matrix   [][]EdgeIndex
}

// RawEdge is an edge as produced by a map loader.
type RawEdge struct {
	Name   string
	Points []geo.GeodeticPoint
}

// RawVertex is a vertex as produced by a map loader.
type RawVertex struct {
	Name  string
	Point geo.GeodeticPoint
}

// MatrixIndex identifies a connection matrix cell: one directed step from
// Row to Col along the edge stored in that cell.
type MatrixIndex struct {
	Row VertexIndex
	Col VertexIndex
}

func (m MatrixIndex) String() string {
	return fmt.Sprintf("[%d][%d]", m.Row, m.Col)
}

// Edge returns the index of the edge realizing m.
func (m MatrixIndex) Edge(g *Graph) EdgeIndex {
	return g.Matrix[m.Row][m.Col]
}

// Vertices returns the vertices m steps between.
func (m MatrixIndex) Vertices(g *Graph) (*Vertex, *Vertex) {
	return &g.Vertices[m.Row], &g.Vertices[m.Col]
}

// NumVertices returns the number of vertices.
func (g *Graph) NumVertices() int { return len(g.Vertices) }

// NumEdges returns the number of edges.
func (g *Graph) NumEdges() int { return len(g.Edges) }

// EdgeAt returns the edge joining i and j, if any.
func (g *Graph) EdgeAt(i, j VertexIndex) (EdgeIndex, bool) {
	e := g.Matrix[i][j]
	return e, e != NoEdge
}

// VertexByName returns the index of the first vertex called name.
func (g *Graph) VertexByName(name string) (VertexIndex, bool) {
	for i := range g.Vertices {
		if g.Vertices[i].Name == name {
			return VertexIndex(i), true
		}
	}
	return NoVertex, false
}

// MatrixIndexOf returns the first cell, in row-major order, holding e.
func (g *Graph) MatrixIndexOf(e EdgeIndex) (MatrixIndex, error) {
	if e < 0 {
		return MatrixIndex{}, fmt.Errorf("%w: %d", ErrEdgeIndexNotFound, e)
	}
	for i, row := range g.Matrix {
		for j, cell := range row {
			if cell == e {
				return MatrixIndex{Row: VertexIndex(i), Col: VertexIndex(j)}, nil
			}
		}
	}
	return MatrixIndex{}, fmt.Errorf("%w: %d", ErrEdgeIndexNotFound, e)
}

// ResetScratch clears the pathfinding state of every vertex.
func (g *Graph) ResetScratch() {
	for i := range g.Vertices {
		v := &g.Vertices[i]
		v.Tentative = math.Inf(1)
		v.Visited = false
		v.Parent = NoVertex
	}
}
