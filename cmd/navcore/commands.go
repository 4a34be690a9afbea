package main

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"slices"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"github.com/dstockhouse/mr-fusion-capstone/pkg/api"
	"github.com/dstockhouse/mr-fusion-capstone/pkg/config"
	"github.com/dstockhouse/mr-fusion-capstone/pkg/geo"
	"github.com/dstockhouse/mr-fusion-capstone/pkg/graph"
	"github.com/dstockhouse/mr-fusion-capstone/pkg/mapdata"
	"github.com/dstockhouse/mr-fusion-capstone/pkg/notify"
	"github.com/dstockhouse/mr-fusion-capstone/pkg/routing"
	"github.com/dstockhouse/mr-fusion-capstone/pkg/traversal"
)

var errNoMap = errors.New("no map configured, use --map or map.path")

// env is the state shared by every command.
type env struct {
	log   *logrus.Logger
	cfg   config.Config
	frame *geo.Frame
	pipe  *os.File
}

func (e *env) setup(c *cli.Context) error {
	cfg, err := config.Load(c.String(flagConfig))
	if err != nil {
		return err
	}
	if c.IsSet(flagMap) {
		cfg.Map.Path = c.String(flagMap)
	}
	if c.IsSet(flagLogLevel) {
		cfg.LogLevel = c.String(flagLogLevel)
	}
	if c.IsSet(flagUIPipe) {
		cfg.UIPipe = c.String(flagUIPipe)
	}

	level, err := cfg.Level()
	if err != nil {
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}
	e.log.SetLevel(level)

	if e.frame, err = cfg.NewFrame(); err != nil {
		return err
	}
	e.cfg = cfg
	return nil
}

func (e *env) close(*cli.Context) error {
	if e.pipe == nil {
		return nil
	}
	err := e.pipe.Close()
	e.pipe = nil
	return err
}

func (e *env) loadGraph(c *cli.Context) (*graph.Graph, error) {
	if e.cfg.Map.Path == "" {
		return nil, errNoMap
	}
	m, err := mapdata.LoadFile(c.Context, e.cfg.Map.Path, e.cfg.MapOptions(e.log))
	if err != nil {
		return nil, err
	}
	g, err := m.Build(e.frame)
	if err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}
	e.log.WithFields(logrus.Fields{
		"map":      e.cfg.Map.Path,
		"vertices": g.NumVertices(),
		"edges":    g.NumEdges(),
	}).Info("graph ready")
	return g, nil
}

// sink sends status messages to the log and, when configured, the UI pipe.
func (e *env) sink() (notify.Sink, error) {
	logSink := notify.LogSink{Log: e.log}
	if e.cfg.UIPipe == "" {
		return logSink, nil
	}
	if e.pipe == nil {
		f, err := os.OpenFile(e.cfg.UIPipe, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open ui pipe: %w", err)
		}
		e.pipe = f
	}
	return notify.Multi(logSink, notify.NewWriterSink(e.pipe)), nil
}

func (e *env) navigator(c *cli.Context) (*routing.Navigator, error) {
	g, err := e.loadGraph(c)
	if err != nil {
		return nil, err
	}
	sink, err := e.sink()
	if err != nil {
		return nil, err
	}
	return routing.NewNavigator(g, e.frame, routing.Options{
		Locator: e.cfg.LocatorOptions(),
		Sink:    sink,
		Log:     e.log,
	}), nil
}

func (e *env) serve(c *cli.Context) error {
	nav, err := e.navigator(c)
	if err != nil {
		return err
	}
	s := e.cfg.Server
	srv := api.NewServer(api.ServerConfig{
		Addr:           s.Addr,
		ReadTimeout:    s.ReadTimeout,
		WriteTimeout:   s.WriteTimeout,
		IdleTimeout:    s.IdleTimeout,
		RequestTimeout: s.RequestTimeout,
		MaxConcurrent:  s.MaxConcurrent,
		CORSOrigins:    s.CORSOrigins,
	}, api.NewHandlers(nav, e.log), e.log)
	return api.ListenAndServe(c.Context, srv, e.log)
}

func (e *env) route(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.Exit("route needs FROM and TO", 2)
	}
	nav, err := e.navigator(c)
	if err != nil {
		return err
	}
	r, err := nav.Route(c.Context, c.Args().Get(0), c.Args().Get(1))
	if err != nil {
		return err
	}

	if c.Bool(flagGeoJSON) {
		data, err := graph.FeatureCollection(nav.Graph(), r.Path).MarshalJSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(c.App.Writer, string(data))
		return err
	}
	return printRoute(c.App.Writer, r)
}

func (e *env) locate(c *cli.Context) error {
	pos, err := e.position(c)
	if err != nil {
		return err
	}
	nav, err := e.navigator(c)
	if err != nil {
		return err
	}
	loc, err := nav.Locate(c.Context, pos)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(c.App.Writer, "%s %s (%s - %s) at %s, %.2f m away\n",
		loc.Edge, loc.Index, loc.From, loc.To, loc.Point, loc.Distance)
	return err
}

func (e *env) plan(c *cli.Context) error {
	pos, err := e.position(c)
	if err != nil {
		return err
	}
	nav, err := e.navigator(c)
	if err != nil {
		return err
	}
	r, err := nav.Plan(c.Context, pos, c.String(flagTo))
	if err != nil {
		return err
	}
	return printRoute(c.App.Writer, r)
}

// simulate moves a robot along the route in fixed steps and reports each
// waypoint as the tracker passes it.
func (e *env) simulate(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.Exit("simulate needs FROM and TO", 2)
	}
	step := c.Float64(flagStep)
	if !(step > 0) {
		return cli.Exit("step must be positive", 2)
	}
	nav, err := e.navigator(c)
	if err != nil {
		return err
	}
	r, err := nav.Route(c.Context, c.Args().Get(0), c.Args().Get(1))
	if err != nil {
		return err
	}
	sink, err := e.sink()
	if err != nil {
		return err
	}

	pos := r.Waypoints[0]
	tracker := traversal.NewTracker(pos, r.Waypoints[1:], e.cfg.Traversal.OffsetFactor)
	total := len(r.Waypoints) - 1
	limit := int(math.Ceil(r.Length/step)) + 4*total + 16

	for i := 0; !tracker.Done(); i++ {
		if i > limit {
			return fmt.Errorf("robot stalled before waypoint %d of %d", tracker.Index()+1, total)
		}
		if err := c.Context.Err(); err != nil {
			return err
		}
		target, _ := tracker.Target()
		pos = moveToward(pos, target, step)
		if tracker.Update(pos) {
			msg := fmt.Sprintf("Reached waypoint %d of %d at %s", tracker.Index(), total, pos)
			if err := sink.Notify(msg); err != nil {
				e.log.WithError(err).Warn("notify failed")
			}
			e.log.WithField("line", tracker.Line()).Debug("next proximity line")
		}
	}
	_, err = fmt.Fprintf(c.App.Writer, "arrived after %d waypoints, %.1f m\n", total, r.Length)
	return err
}

func (e *env) export(c *cli.Context) error {
	g, err := e.loadGraph(c)
	if err != nil {
		return err
	}
	data, err := graph.FeatureCollection(g, graph.All).MarshalJSON()
	if err != nil {
		return err
	}
	if out := c.String(flagOut); out != "" {
		return os.WriteFile(out, data, 0o644)
	}
	_, err = fmt.Fprintln(c.App.Writer, string(data))
	return err
}

// inspect reports connected components and compares each edge's tangential
// length with its great-circle length.
func (e *env) inspect(c *cli.Context) error {
	g, err := e.loadGraph(c)
	if err != nil {
		return err
	}
	w := c.App.Writer

	comps := graph.Components(g)
	sizes := lo.Map(comps, func(vs []graph.VertexIndex, _ int) int { return len(vs) })
	fmt.Fprintf(w, "%d vertices, %d edges, %d components %v\n", g.NumVertices(), g.NumEdges(), len(comps), sizes)
	for i := 1; i < len(comps); i++ {
		names := lo.Map(comps[i], func(v graph.VertexIndex, _ int) string { return g.Vertices[v].Name })
		fmt.Fprintf(w, "  unreachable from the main network: %v\n", names)
	}

	var worst float64
	var worstEdge string
	for i := range g.Edges {
		edge := &g.Edges[i]
		var surface float64
		for j := 1; j < len(edge.Points); j++ {
			surface += geo.SurfaceDistance(edge.Points[j-1].Geodetic, edge.Points[j].Geodetic)
		}
		if surface == 0 {
			continue
		}
		if dev := math.Abs(edge.Length-surface) / surface; dev > worst {
			worst, worstEdge = dev, edge.Name
		}
	}
	if worstEdge != "" {
		fmt.Fprintf(w, "largest length deviation from great circle: %.2f%% on %s\n", worst*100, worstEdge)
	}
	return nil
}

func (e *env) compile(c *cli.Context) error {
	g, err := e.loadGraph(c)
	if err != nil {
		return err
	}
	out := c.String(flagOut)
	if err := graph.WriteBinary(out, g); err != nil {
		return err
	}
	_, err = fmt.Fprintf(c.App.Writer, "wrote %s: %d vertices, %d edges\n", out, g.NumVertices(), g.NumEdges())
	return err
}

// position reads --lat/--lon or --x/--y. Geodetic input is converted into
// the configured frame at the map's default height unless --height is set.
func (e *env) position(c *cli.Context) (geo.TangentialPoint, error) {
	if c.IsSet(flagLat) || c.IsSet(flagLon) {
		var err error
		if !c.IsSet(flagLat) {
			err = multierr.Append(err, errors.New("--lat is required with --lon"))
		}
		if !c.IsSet(flagLon) {
			err = multierr.Append(err, errors.New("--lon is required with --lat"))
		}
		if err != nil {
			return geo.TangentialPoint{}, err
		}
		h := e.cfg.Map.DefaultHeight
		if c.IsSet(flagHeight) {
			h = c.Float64(flagHeight)
		}
		return e.frame.ToTangential(geo.GeodeticPoint{
			Lat:    c.Float64(flagLat),
			Lon:    c.Float64(flagLon),
			Height: h,
		}), nil
	}

	var err error
	if !c.IsSet(flagX) {
		err = multierr.Append(err, errors.New("--x is required"))
	}
	if !c.IsSet(flagY) {
		err = multierr.Append(err, errors.New("--y is required"))
	}
	if err != nil {
		return geo.TangentialPoint{}, err
	}
	return geo.TangentialPoint{X: c.Float64(flagX), Y: c.Float64(flagY), Z: c.Float64(flagZ)}, nil
}

func printRoute(w io.Writer, r *routing.Route) error {
	if len(r.Steps) == 0 {
		_, err := fmt.Fprintln(w, "already there")
		return err
	}
	width := slices.Max(lo.Map(r.Steps, func(s routing.Step, _ int) int { return len(s.Edge) }))
	for _, s := range r.Steps {
		if _, err := fmt.Fprintf(w, "%-*s  %s -> %s  %.1f m\n", width, s.Edge, s.From, s.To, s.Length); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "total %.1f m over %d steps\n", r.Length, len(r.Steps))
	return err
}

// moveToward advances pos by at most step meters toward target.
func moveToward(pos, target geo.TangentialPoint, step float64) geo.TangentialPoint {
	d := pos.Distance(target)
	if d <= step {
		return target
	}
	return pos.Lerp(target, step/d)
}
