package mapdata

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
	"github.com/sirupsen/logrus"

	"github.com/dstockhouse/mr-fusion-capstone/pkg/geo"
	"github.com/dstockhouse/mr-fusion-capstone/pkg/graph"
)

// walkableHighways lists highway tag values the robot may drive on.
var walkableHighways = map[string]bool{
	"footway":       true,
	"path":          true,
	"pedestrian":    true,
	"cycleway":      true,
	"corridor":      true,
	"track":         true,
	"service":       true,
	"residential":   true,
	"living_street": true,
	"unclassified":  true,
}

// isWalkable reports whether a way is part of the path network. Untagged
// ways are hand-surveyed paths and always count.
func isWalkable(tags osm.Tags) bool {
	if tags.HasTag("highway") && !walkableHighways[tags.Find("highway")] {
		return false
	}

	// Skip area highways (plazas).
	if tags.Find("area") == "yes" {
		return false
	}

	// Skip restricted access.
	access := tags.Find("access")
	if access == "no" || access == "private" {
		return false
	}
	if tags.Find("foot") == "no" {
		return false
	}

	return true
}

// nodeInfo holds the parts of a node the loader needs.
type nodeInfo struct {
	Lat, Lon float64
	Name     string
	Ele      string
}

// wayInfo holds parsed way data.
type wayInfo struct {
	ID      osm.WayID
	Name    string
	NodeIDs []osm.NodeID
}

// LoadOSM reads an OSM XML document.
func LoadOSM(ctx context.Context, r io.Reader, opts Options) (*Map, error) {
	scanner := osmxml.New(ctx, r)
	defer scanner.Close()
	return loadOSM(scanner, opts)
}

// LoadOSMPBF reads an OSM PBF file.
func LoadOSMPBF(ctx context.Context, r io.Reader, opts Options) (*Map, error) {
	scanner := osmpbf.New(ctx, r, 1)
	scanner.SkipRelations = true
	defer scanner.Close()
	return loadOSM(scanner, opts)
}

// loadOSM turns ways into edges. A way is split wherever it passes a
// vertex: its two ends, any node shared with another kept way, and any
// named node. A name already taken by an earlier vertex gets the node ID
// appended, as in "Entrance#42".
func loadOSM(scanner osm.Scanner, opts Options) (*Map, error) {
	log := opts.logger().WithField("component", "mapdata")

	// Pass 1: Collect nodes and walkable ways.
	nodes := make(map[osm.NodeID]nodeInfo)
	var ways []wayInfo
	for scanner.Scan() {
		switch o := scanner.Object().(type) {
		case *osm.Node:
			nodes[o.ID] = nodeInfo{Lat: o.Lat, Lon: o.Lon, Name: o.Tags.Find("name"), Ele: o.Tags.Find("ele")}
		case *osm.Way:
			if len(o.Nodes) < 2 || !isWalkable(o.Tags) {
				continue
			}
			ids := make([]osm.NodeID, len(o.Nodes))
			for i, wn := range o.Nodes {
				ids[i] = wn.ID
			}
			ways = append(ways, wayInfo{ID: o.ID, Name: o.Tags.Find("name"), NodeIDs: ids})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	log.WithFields(logrus.Fields{"nodes": len(nodes), "ways": len(ways)}).Debug("scan complete")

	// Pass 2: Drop ways with missing or filtered nodes, count node use.
	useBBox := !opts.BBox.IsZero()
	uses := make(map[osm.NodeID]int)
	kept := ways[:0]
	var skippedWays, bboxFiltered int
	for _, w := range ways {
		ok := true
		for _, id := range w.NodeIDs {
			n, found := nodes[id]
			if !found {
				skippedWays++
				ok = false
				break
			}
			if useBBox && !opts.BBox.Contains(n.Lat, n.Lon) {
				bboxFiltered++
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		kept = append(kept, w)
		for _, id := range w.NodeIDs {
			uses[id]++
		}
	}

	isVertex := func(w wayInfo, i int) bool {
		id := w.NodeIDs[i]
		return i == 0 || i == len(w.NodeIDs)-1 || uses[id] > 1 || nodes[id].Name != ""
	}

	// Pass 3: Emit vertices in first-seen order and split ways into edges.
	m := &Map{}
	vertexOf := make(map[osm.NodeID]bool)
	named := make(map[string]bool)
	joined := make(map[[2]osm.NodeID]bool)
	var conflicts int
	for _, w := range kept {
		var parts [][]osm.NodeID
		start := 0
		for i := range w.NodeIDs {
			if !isVertex(w, i) {
				continue
			}
			id := w.NodeIDs[i]
			if !vertexOf[id] {
				vertexOf[id] = true
				name := nodeName(id, nodes[id])
				if named[name] {
					name = fmt.Sprintf("%s#%d", name, id)
				}
				named[name] = true
				m.Vertices = append(m.Vertices, graph.RawVertex{Name: name, Point: opts.point(nodes[id])})
			}
			if i > start {
				parts = append(parts, w.NodeIDs[start:i+1])
			}
			start = i
		}

		for k, part := range parts {
			a, b := part[0], part[len(part)-1]
			if a > b {
				a, b = b, a
			}
			if a == b || joined[[2]osm.NodeID{a, b}] {
				conflicts++
				continue
			}
			joined[[2]osm.NodeID{a, b}] = true

			name := w.Name
			if name == "" {
				name = fmt.Sprintf("way/%d", w.ID)
			}
			if len(parts) > 1 {
				name = fmt.Sprintf("%s#%d", name, k+1)
			}
			pts := make([]geo.GeodeticPoint, len(part))
			for j, id := range part {
				pts[j] = opts.point(nodes[id])
			}
			m.Edges = append(m.Edges, graph.RawEdge{Name: name, Points: pts})
		}
	}

	if skippedWays > 0 {
		log.Warnf("skipped %d ways due to missing node coordinates", skippedWays)
	}
	if bboxFiltered > 0 {
		log.Infof("filtered %d ways outside bounding box", bboxFiltered)
	}
	if conflicts > 0 {
		log.Warnf("skipped %d way segments that loop or repeat a vertex pair", conflicts)
	}
	log.WithFields(logrus.Fields{"vertices": len(m.Vertices), "edges": len(m.Edges)}).Info("map loaded")

	return m, nil
}

func nodeName(id osm.NodeID, n nodeInfo) string {
	if n.Name != "" {
		return n.Name
	}
	return fmt.Sprintf("node/%d", id)
}

func (o Options) point(n nodeInfo) geo.GeodeticPoint {
	h := o.DefaultHeight
	if v, ok := parseEle(n.Ele); ok {
		h = v
	}
	return geo.GeodeticPoint{Lat: n.Lat, Lon: n.Lon, Height: h}
}

// parseEle reads an ele tag such as "1582.3" or "1582.3 m".
func parseEle(s string) (float64, bool) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "m"))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
