package graph

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Feature property keys shared with the GeoJSON map loader.
const (
	PropKind    = "kind"
	PropIndex   = "index"
	PropLength  = "length"
	PropHeight  = "height"
	PropHeights = "heights"

	KindEdge   = "edge"
	KindVertex = "vertex"
)

// FeatureCollection renders the selected edges as LineStrings and vertices as
// Points, edges first. Feature IDs are the edge and vertex names.
func FeatureCollection(g *Graph, sel Selection) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, ei := range sel.Edges(g) {
		e := &g.Edges[ei]
		line := make(orb.LineString, len(e.Points))
		heights := make([]float64, len(e.Points))
		for i, p := range e.Points {
			line[i] = orb.Point{p.Geodetic.Lon, p.Geodetic.Lat}
			heights[i] = p.Geodetic.Height
		}

		f := geojson.NewFeature(line)
		f.ID = e.Name
		f.Properties[PropKind] = KindEdge
		f.Properties[PropIndex] = int(ei)
		f.Properties[PropLength] = e.Length
		f.Properties[PropHeights] = heights
		fc.Append(f)
	}

	for _, vi := range sel.Vertices(g) {
		v := &g.Vertices[vi]
		f := geojson.NewFeature(orb.Point{v.Point.Geodetic.Lon, v.Point.Geodetic.Lat})
		f.ID = v.Name
		f.Properties[PropKind] = KindVertex
		f.Properties[PropIndex] = int(vi)
		f.Properties[PropHeight] = v.Point.Geodetic.Height
		fc.Append(f)
	}

	return fc
}
