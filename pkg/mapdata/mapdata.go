// Package mapdata loads surveyed path networks from OSM, GeoJSON and graph
// snapshot files into the raw form graph.Build consumes.
package mapdata

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/dstockhouse/mr-fusion-capstone/pkg/geo"
	"github.com/dstockhouse/mr-fusion-capstone/pkg/graph"
)

// ErrUnknownFormat is returned by LoadFile for an unrecognized extension.
var ErrUnknownFormat = errors.New("unknown map format")

// Map is raw map data in load order.
type Map struct {
	Edges    []graph.RawEdge
	Vertices []graph.RawVertex
}

// Build converts m into a graph in frame.
func (m *Map) Build(frame *geo.Frame) (*graph.Graph, error) {
	return graph.Build(frame, m.Edges, m.Vertices)
}

// BBox defines a geographic bounding box for filtering.
// If non-zero, only ways with every node inside the box are kept.
type BBox struct {
	MinLat float64 `yaml:"min_lat"`
	MaxLat float64 `yaml:"max_lat"`
	MinLon float64 `yaml:"min_lon"`
	MaxLon float64 `yaml:"max_lon"`
}

// IsZero returns true if the bbox is unset.
func (b BBox) IsZero() bool {
	return b.MinLat == 0 && b.MaxLat == 0 && b.MinLon == 0 && b.MaxLon == 0
}

// Contains returns true if the point is inside the bounding box.
func (b BBox) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// Options configures the loaders.
type Options struct {
	BBox BBox // OSM only

	// DefaultHeight is used for points without an elevation.
	DefaultHeight float64

	Log logrus.FieldLogger
}

func (o Options) logger() logrus.FieldLogger {
	if o.Log == nil {
		return logrus.StandardLogger()
	}
	return o.Log
}

// LoadFile loads a map, choosing the format by file extension.
func LoadFile(ctx context.Context, path string, opts Options) (*Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open map: %w", err)
	}
	defer f.Close()

	var m *Map
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".osm", ".xml":
		m, err = LoadOSM(ctx, bufio.NewReader(f), opts)
	case ".pbf":
		m, err = LoadOSMPBF(ctx, f, opts)
	case ".geojson", ".json":
		var data []byte
		if data, err = os.ReadFile(path); err == nil {
			m, err = LoadGeoJSON(data, opts)
		}
	case ".navgraph":
		m = &Map{}
		m.Edges, m.Vertices, err = graph.ReadSnapshot(bufio.NewReader(f))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", filepath.Base(path), err)
	}
	return m, nil
}
