package graph

import (
	"sort"
)

// UnionFind implements a disjoint-set data structure with path compression
// and union by rank.
type UnionFind struct {
	parent []int
	rank   []byte
	size   []int
}

// NewUnionFind creates a UnionFind for n elements.
func NewUnionFind(n int) *UnionFind {
	parent := make([]int, n)
	size := make([]int, n)
	for i := 0; i < n; i++ {
		parent[i] = i
		size[i] = 1
	}
	return &UnionFind{
		parent: parent,
		rank:   make([]byte, n),
		size:   size,
	}
}

// Find returns the representative of the set containing x, with path halving.
func (uf *UnionFind) Find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

// Union merges the sets containing x and y. Returns false if already same set.
func (uf *UnionFind) Union(x, y int) bool {
	rx := uf.Find(x)
	ry := uf.Find(y)
	if rx == ry {
		return false
	}

	if uf.rank[rx] < uf.rank[ry] {
		rx, ry = ry, rx
	}
	uf.parent[ry] = rx
	uf.size[rx] += uf.size[ry]
	if uf.rank[rx] == uf.rank[ry] {
		uf.rank[rx]++
	}
	return true
}

// Size returns the number of elements in x's set.
func (uf *UnionFind) Size(x int) int {
	return uf.size[uf.Find(x)]
}

func connectivity(g *Graph) *UnionFind {
	uf := NewUnionFind(len(g.Vertices))
	// The matrix is symmetric, so the upper triangle covers every edge.
	for i, row := range g.Matrix {
		for j := i + 1; j < len(row); j++ {
			if row[j] != NoEdge {
				uf.Union(i, j)
			}
		}
	}
	return uf
}

// Components returns the connected components of g, largest first. Ties keep
// the order of each component's lowest vertex index, and vertices within a
// component are ascending.
func Components(g *Graph) [][]VertexIndex {
	uf := connectivity(g)

	byRoot := make(map[int]int)
	var comps [][]VertexIndex
	for i := range g.Vertices {
		root := uf.Find(i)
		ci, ok := byRoot[root]
		if !ok {
			ci = len(comps)
			byRoot[root] = ci
			comps = append(comps, nil)
		}
		comps[ci] = append(comps[ci], VertexIndex(i))
	}

	sort.SliceStable(comps, func(a, b int) bool {
		return len(comps[a]) > len(comps[b])
	})
	return comps
}

// Connected reports whether a path exists between a and b.
func Connected(g *Graph, a, b VertexIndex) bool {
	uf := connectivity(g)
	return uf.Find(int(a)) == uf.Find(int(b))
}
