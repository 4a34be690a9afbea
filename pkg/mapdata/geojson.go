package mapdata

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/dstockhouse/mr-fusion-capstone/pkg/geo"
	"github.com/dstockhouse/mr-fusion-capstone/pkg/graph"
)

// ErrBadFeature is returned for a GeoJSON feature with malformed properties.
var ErrBadFeature = errors.New("bad feature")

// LoadGeoJSON reads a FeatureCollection in the layout graph.FeatureCollection
// writes: Point features are vertices and LineString features are edges.
// Other geometries are ignored.
func LoadGeoJSON(data []byte, opts Options) (*Map, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode geojson: %w", err)
	}

	log := opts.logger().WithField("component", "mapdata")
	m := &Map{}
	var ignored int
	for i, f := range fc.Features {
		switch g := f.Geometry.(type) {
		case orb.Point:
			h, err := floatProp(f, graph.PropHeight, opts.DefaultHeight)
			if err != nil {
				return nil, err
			}
			m.Vertices = append(m.Vertices, graph.RawVertex{
				Name:  featureName(f, graph.KindVertex, i),
				Point: geo.GeodeticPoint{Lat: g.Lat(), Lon: g.Lon(), Height: h},
			})

		case orb.LineString:
			heights, err := heightsProp(f, len(g), opts.DefaultHeight)
			if err != nil {
				return nil, err
			}
			pts := make([]geo.GeodeticPoint, len(g))
			for j, p := range g {
				pts[j] = geo.GeodeticPoint{Lat: p.Lat(), Lon: p.Lon(), Height: heights[j]}
			}
			m.Edges = append(m.Edges, graph.RawEdge{
				Name:   featureName(f, graph.KindEdge, i),
				Points: pts,
			})

		default:
			ignored++
		}
	}
	if ignored > 0 {
		log.Warnf("ignored %d features that are neither points nor line strings", ignored)
	}
	return m, nil
}

func featureName(f *geojson.Feature, kind string, i int) string {
	switch id := f.ID.(type) {
	case string:
		if id != "" {
			return id
		}
	case float64:
		return fmt.Sprintf("%s/%v", kind, id)
	}
	if name, ok := f.Properties["name"].(string); ok && name != "" {
		return name
	}
	return fmt.Sprintf("%s/%d", kind, i)
}

func floatProp(f *geojson.Feature, key string, def float64) (float64, error) {
	v, ok := f.Properties[key]
	if !ok || v == nil {
		return def, nil
	}
	x, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("%w: %q property %q is %T, want number", ErrBadFeature, featureName(f, "feature", 0), key, v)
	}
	return x, nil
}

func heightsProp(f *geojson.Feature, n int, def float64) ([]float64, error) {
	out := make([]float64, n)
	raw, ok := f.Properties[graph.PropHeights]
	if !ok || raw == nil {
		for i := range out {
			out[i] = def
		}
		return out, nil
	}

	if hs, ok := raw.([]float64); ok && len(hs) == n {
		copy(out, hs)
		return out, nil
	}
	list, ok := raw.([]any)
	if !ok || len(list) != n {
		return nil, fmt.Errorf("%w: %q heights must be a list of %d numbers", ErrBadFeature, featureName(f, graph.KindEdge, 0), n)
	}
	for i, v := range list {
		x, ok := v.(float64)
		if !ok {
			return nil, fmt.Errorf("%w: %q height %d is %T", ErrBadFeature, featureName(f, graph.KindEdge, 0), i, v)
		}
		out[i] = x
	}
	return out, nil
}
