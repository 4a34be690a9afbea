package graph

import (
	"fmt"

	"github.com/dstockhouse/mr-fusion-capstone/pkg/geo"
)

// coordKey identifies a surveyed node by latitude and longitude.
type coordKey struct {
	lat, lon float64
}

func keyOf(p geo.GeodeticPoint) coordKey {
	return coordKey{lat: p.Lat, lon: p.Lon}
}

// Build converts raw map data into a Graph in frame's tangential
// coordinates. Load order fixes vertex and edge indices.
//
// Vertex names and coordinates must be unique. Every edge must start and
// end on two distinct declared vertices, and no two edges may join the same
// pair. On error no graph is returned.
func Build(frame *geo.Frame, edges []RawEdge, vertices []RawVertex) (*Graph, error) {
	// Step 1: Convert vertices and index them by coordinate.
	byCoord := make(map[coordKey]VertexIndex, len(vertices))
	byName := make(map[string]VertexIndex, len(vertices))
	vs := make([]Vertex, len(vertices))
	for i, rv := range vertices {
		k := keyOf(rv.Point)
		if prev, ok := byCoord[k]; ok {
			return nil, fmt.Errorf("%w: %q and %q at %s",
				ErrDuplicateVertex, vertices[prev].Name, rv.Name, rv.Point)
		}
		if prev, ok := byName[rv.Name]; ok {
			return nil, fmt.Errorf("%w: %q at %s and %s",
				ErrDuplicateVertexName, rv.Name, vertices[prev].Point, rv.Point)
		}
		byCoord[k] = VertexIndex(i)
		byName[rv.Name] = VertexIndex(i)
		vs[i] = Vertex{
			Name:   rv.Name,
			Point:  toPoint(frame, rv.Point),
			Parent: NoVertex,
		}
	}

	// Step 2: Convert edge polylines and compute lengths.
	es := make([]Edge, len(edges))
	for i, re := range edges {
		if len(re.Points) < 2 {
			return nil, fmt.Errorf("%w: %q has %d", ErrDegenerateEdge, re.Name, len(re.Points))
		}
		pts := make([]Point, len(re.Points))
		for j, p := range re.Points {
			pts[j] = toPoint(frame, p)
		}
		es[i] = Edge{
			Name:   re.Name,
			Points: pts,
			Length: polylineLength(pts),
			From:   NoVertex,
			To:     NoVertex,
		}
	}

	// Step 3: Allocate the empty connection matrix.
	n := len(vs)
	matrix := make([][]EdgeIndex, n)
	cells := make([]EdgeIndex, n*n)
	for i := range cells {
		cells[i] = NoEdge
	}
	for i := range matrix {
		matrix[i] = cells[i*n : (i+1)*n : (i+1)*n]
	}

	// Step 4: Connect each edge's endpoints.
	for i := range es {
		e := &es[i]
		from, ok := byCoord[keyOf(e.Start().Geodetic)]
		if !ok {
			return nil, fmt.Errorf("%w: %q start %s matches no vertex",
				ErrDanglingEdge, e.Name, e.Start().Geodetic)
		}
		to, ok := byCoord[keyOf(e.End().Geodetic)]
		if !ok {
			return nil, fmt.Errorf("%w: %q end %s matches no vertex",
				ErrDanglingEdge, e.Name, e.End().Geodetic)
		}
		if from == to {
			return nil, fmt.Errorf("%w: %q at vertex %q", ErrSelfLoop, e.Name, vs[from].Name)
		}
		if prev := matrix[from][to]; prev != NoEdge {
			return nil, fmt.Errorf("%w: %q and %q both join %q and %q",
				ErrConflictingEdge, es[prev].Name, e.Name, vs[from].Name, vs[to].Name)
		}

		e.From, e.To = from, to
		matrix[from][to] = EdgeIndex(i)
		matrix[to][from] = EdgeIndex(i)
	}

	g := &Graph{
		Vertices: vs,
		Edges:    es,
		Matrix:   matrix,
	}
	g.ResetScratch()
	return g, nil
}

func toPoint(frame *geo.Frame, p geo.GeodeticPoint) Point {
	return Point{Geodetic: p, Tangential: frame.ToTangential(p)}
}

func polylineLength(pts []Point) float64 {
	var length float64
	for i := 1; i < len(pts); i++ {
		length += pts[i-1].Tangential.Distance(pts[i].Tangential)
	}
	return length
}
