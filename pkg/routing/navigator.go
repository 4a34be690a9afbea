package routing

import (
	"context"
	"errors"
	"fmt"

	"github.com/paulmach/orb/geojson"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/sirupsen/logrus"

	"github.com/dstockhouse/mr-fusion-capstone/pkg/geo"
	"github.com/dstockhouse/mr-fusion-capstone/pkg/graph"
	"github.com/dstockhouse/mr-fusion-capstone/pkg/notify"
)

// ErrUnknownWaypoint is returned when a vertex name is not in the graph.
var ErrUnknownWaypoint = errors.New("unknown waypoint")

// Step is one leg of a route.
type Step struct {
	Edge   string
	From   string
	To     string
	Length float64
}

// Route is the output of a route query.
type Route struct {
	Path      graph.Path
	Length    float64
	Steps     []Step
	Waypoints []geo.TangentialPoint
}

// Location is the output of a localization query.
type Location struct {
	Index    graph.MatrixIndex
	Edge     string
	From     string
	To       string
	Point    geo.TangentialPoint
	Distance float64
}

// Stats summarizes the loaded graph and the queries served.
type Stats struct {
	Vertices   int
	Edges      int
	Components int
	Routes     int64
	Locates    int64
}

// Router is the interface for navigation queries.
type Router interface {
	Route(ctx context.Context, from, to string) (*Route, error)
	Locate(ctx context.Context, loc geo.TangentialPoint) (*Location, error)
	Plan(ctx context.Context, pos geo.TangentialPoint, to string) (*Route, error)
	Frame() *geo.Frame
	GeoJSON() *geojson.FeatureCollection
	Stats() Stats
}

// Options configures a Navigator.
type Options struct {
	Locator LocatorOptions
	Sink    notify.Sink
	Log     logrus.FieldLogger
}

// Navigator implements Router over one graph. Shortest path queries write
// vertex scratch state, so they hold the lock exclusively; localization
// only reads geometry and shares it.
type Navigator struct {
	mu      *xsync.RBMutex
	g       *graph.Graph
	frame   *geo.Frame
	locator *Locator
	comps   int
	sink    notify.Sink
	log     logrus.FieldLogger

	routes  *xsync.Counter
	locates *xsync.Counter
}

// NewNavigator creates a navigator for g, whose tangential coordinates are
// in frame.
func NewNavigator(g *graph.Graph, frame *geo.Frame, opts Options) *Navigator {
	if opts.Sink == nil {
		opts.Sink = notify.Discard
	}
	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}
	return &Navigator{
		mu:      xsync.NewRBMutex(),
		g:       g,
		frame:   frame,
		locator: NewLocator(g, opts.Locator),
		comps:   len(graph.Components(g)),
		sink:    opts.Sink,
		log:     opts.Log.WithField("component", "navigator"),
		routes:  xsync.NewCounter(),
		locates: xsync.NewCounter(),
	}
}

// Graph returns the navigator's graph. Callers must not run shortest path
// queries on it directly while the navigator is in use.
func (n *Navigator) Graph() *graph.Graph { return n.g }

// Frame returns the tangential frame of the graph.
func (n *Navigator) Frame() *geo.Frame { return n.frame }

// Route computes the shortest path between two vertices given by name.
func (n *Navigator) Route(ctx context.Context, from, to string) (*Route, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start, err := n.lookup(from)
	if err != nil {
		return nil, err
	}
	end, err := n.lookup(to)
	if err != nil {
		return nil, err
	}

	r, err := n.route(start, end)
	if err != nil {
		n.report(err, "Unable to plan path from %s to %s", from, to)
		return nil, err
	}
	n.report(nil, "Path planned from %s to %s: %d steps, %.1f m", from, to, len(r.Steps), r.Length)
	return r, nil
}

// Locate finds the edge the robot is on.
func (n *Navigator) Locate(ctx context.Context, loc geo.TangentialPoint) (*Location, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n.locates.Inc()

	t := n.mu.RLock()
	defer n.mu.RUnlock(t)

	m, err := n.locator.Nearest(loc)
	if err != nil {
		n.report(err, "Robot not on map at %s", loc)
		return nil, err
	}
	from, to := m.Index.Vertices(n.g)
	return &Location{
		Index:    m.Index,
		Edge:     n.g.Edges[m.Edge].Name,
		From:     from.Name,
		To:       to.Name,
		Point:    m.Point,
		Distance: m.Distance,
	}, nil
}

// Plan localizes pos and routes from the end of the located edge that gives
// the shorter path to the vertex named to. On a tie the row vertex wins.
func (n *Navigator) Plan(ctx context.Context, pos geo.TangentialPoint, to string) (*Route, error) {
	loc, err := n.Locate(ctx, pos)
	if err != nil {
		return nil, err
	}
	end, err := n.lookup(to)
	if err != nil {
		return nil, err
	}

	var best *Route
	var firstErr error
	for _, start := range []graph.VertexIndex{loc.Index.Row, loc.Index.Col} {
		r, err := n.route(start, end)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if best == nil || r.Length < best.Length {
			best = r
		}
	}
	if best == nil {
		n.report(firstErr, "Unable to plan path from %s to %s", loc.Edge, to)
		return nil, firstErr
	}

	n.report(nil, "Path planned from %s to %s: %d steps, %.1f m", loc.Edge, to, len(best.Steps), best.Length)
	return best, nil
}

// GeoJSON renders the whole graph.
func (n *Navigator) GeoJSON() *geojson.FeatureCollection {
	t := n.mu.RLock()
	defer n.mu.RUnlock(t)
	return graph.FeatureCollection(n.g, graph.All)
}

// Stats returns graph and query counters.
func (n *Navigator) Stats() Stats {
	return Stats{
		Vertices:   n.g.NumVertices(),
		Edges:      n.g.NumEdges(),
		Components: n.comps,
		Routes:     n.routes.Value(),
		Locates:    n.locates.Value(),
	}
}

func (n *Navigator) lookup(name string) (graph.VertexIndex, error) {
	vi, ok := n.g.VertexByName(name)
	if !ok {
		return graph.NoVertex, fmt.Errorf("%w: %q", ErrUnknownWaypoint, name)
	}
	return vi, nil
}

// route runs one shortest path query and resolves the result while holding
// the exclusive lock.
func (n *Navigator) route(start, end graph.VertexIndex) (*Route, error) {
	n.routes.Inc()

	n.mu.Lock()
	defer n.mu.Unlock()

	p, err := ShortestPath(n.g, start, end)
	if err != nil {
		return nil, err
	}

	steps := make([]Step, len(p.Steps))
	for i, s := range p.Steps {
		e := &n.g.Edges[s.Edge(n.g)]
		from, to := s.Vertices(n.g)
		steps[i] = Step{Edge: e.Name, From: from.Name, To: to.Name, Length: e.Length}
	}

	waypoints := p.Waypoints(n.g)
	if len(waypoints) == 0 {
		waypoints = []geo.TangentialPoint{n.g.Vertices[start].Point.Tangential}
	}

	return &Route{
		Path:      p,
		Length:    p.Length(n.g),
		Steps:     steps,
		Waypoints: waypoints,
	}, nil
}

// report logs the outcome of a query and forwards msg to the sink.
func (n *Navigator) report(err error, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	entry := n.log
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Debug(msg)
	if serr := n.sink.Notify(msg); serr != nil {
		n.log.WithError(serr).Warn("notify failed")
	}
}
