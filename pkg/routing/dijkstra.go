package routing

import (
	"errors"
	"fmt"
	"math"

	"github.com/samber/lo"

	"github.com/dstockhouse/mr-fusion-capstone/pkg/graph"
)

var (
	// ErrPathDoesNotExist is returned when the end vertex is unreachable.
	ErrPathDoesNotExist = errors.New("path does not exist")
	// ErrUnknownVertex is returned for a vertex index outside the graph.
	ErrUnknownVertex = errors.New("unknown vertex")
)

// ShortestPath returns the minimum-length path from start to end using the
// dense O(V²) form of Dijkstra's algorithm over the connection matrix.
// Among equally distant unvisited vertices the lowest index is expanded
// first, which makes the result deterministic.
//
// The scratch fields of every vertex are overwritten. Callers sharing g
// across goroutines must serialize calls.
func ShortestPath(g *graph.Graph, start, end graph.VertexIndex) (graph.Path, error) {
	n := graph.VertexIndex(len(g.Vertices))
	if start < 0 || start >= n {
		return graph.Path{}, fmt.Errorf("%w: start %d", ErrUnknownVertex, start)
	}
	if end < 0 || end >= n {
		return graph.Path{}, fmt.Errorf("%w: end %d", ErrUnknownVertex, end)
	}

	g.ResetScratch()
	g.Vertices[start].Tentative = 0

	for {
		cur, ok := closestUnvisited(g)
		if !ok {
			break
		}
		// Copy out before touching neighbors; the row below indexes the same slice.
		dist := g.Vertices[cur].Tentative
		g.Vertices[cur].Visited = true
		if cur == end {
			break
		}

		for j, ei := range g.Matrix[cur] {
			if ei == graph.NoEdge {
				continue
			}
			nb := &g.Vertices[j]
			if nb.Visited {
				continue
			}
			if d := dist + g.Edges[ei].Length; d < nb.Tentative {
				nb.Tentative = d
				nb.Parent = cur
			}
		}
	}

	if math.IsInf(g.Vertices[end].Tentative, 1) {
		return graph.Path{}, fmt.Errorf("%w: from %q to %q",
			ErrPathDoesNotExist, g.Vertices[start].Name, g.Vertices[end].Name)
	}

	// Walk parents back from end, then reverse into travel order.
	var steps []graph.MatrixIndex
	for v := end; v != start; v = g.Vertices[v].Parent {
		steps = append(steps, graph.MatrixIndex{Row: g.Vertices[v].Parent, Col: v})
	}
	return graph.Path{Steps: lo.Reverse(steps)}, nil
}

// closestUnvisited returns the unvisited vertex with the smallest finite
// tentative distance.
func closestUnvisited(g *graph.Graph) (graph.VertexIndex, bool) {
	best := graph.NoVertex
	bestDist := math.Inf(1)
	for i := range g.Vertices {
		v := &g.Vertices[i]
		if !v.Visited && v.Tentative < bestDist {
			best = graph.VertexIndex(i)
			bestDist = v.Tentative
		}
	}
	return best, best != graph.NoVertex
}
