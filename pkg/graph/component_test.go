package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dstockhouse/mr-fusion-capstone/pkg/geo"
)

func TestUnionFind(t *testing.T) {
	uf := NewUnionFind(5)

	// Initially all separate.
	for i := 0; i < 5; i++ {
		assert.Equal(t, i, uf.Find(i))
	}

	assert.True(t, uf.Union(0, 1))
	assert.Equal(t, uf.Find(0), uf.Find(1))

	assert.True(t, uf.Union(2, 3))
	assert.NotEqual(t, uf.Find(0), uf.Find(2))

	// Union the two groups.
	assert.True(t, uf.Union(1, 3))
	assert.False(t, uf.Union(0, 2), "already joined")
	assert.Equal(t, uf.Find(0), uf.Find(3))
	assert.Equal(t, 4, uf.Size(2))
	assert.Equal(t, 1, uf.Size(4))
}

func TestComponents(t *testing.T) {
	// Component 1: A - B - C
	// Component 2: D alone
	g, err := Build(geo.DefaultFrame(),
		[]RawEdge{
			{Name: "AB", Points: []geo.GeodeticPoint{ptA, ptB}},
			{Name: "BC", Points: []geo.GeodeticPoint{ptB, ptC}},
		},
		[]RawVertex{
			{Name: "D", Point: ptD},
			{Name: "A", Point: ptA},
			{Name: "B", Point: ptB},
			{Name: "C", Point: ptC},
		},
	)
	require.NoError(t, err)

	comps := Components(g)
	require.Len(t, comps, 2)
	assert.Equal(t, []VertexIndex{1, 2, 3}, comps[0])
	assert.Equal(t, []VertexIndex{0}, comps[1])

	assert.True(t, Connected(g, 1, 3))
	assert.False(t, Connected(g, 0, 1))
}

func TestComponentsTriangle(t *testing.T) {
	g := buildTriangle(t)

	comps := Components(g)
	require.Len(t, comps, 1)
	assert.Equal(t, []VertexIndex{0, 1, 2}, comps[0])
}
