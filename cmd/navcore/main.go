// Command navcore plans and tracks robot routes over a surveyed path network.
package main

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

const (
	flagConfig   = "config"
	flagMap      = "map"
	flagLogLevel = "log-level"
	flagUIPipe   = "ui-pipe"

	flagOut     = "out"
	flagX       = "x"
	flagY       = "y"
	flagZ       = "z"
	flagLat     = "lat"
	flagLon     = "lon"
	flagHeight  = "height"
	flagTo      = "to"
	flagStep    = "step"
	flagGeoJSON = "geojson"
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	app := newApp(logrus.StandardLogger())
	if err := app.RunContext(context.Background(), os.Args); err != nil {
		logrus.Fatal(err)
	}
}

func newApp(log *logrus.Logger) *cli.App {
	e := &env{log: log}

	positionFlags := []cli.Flag{
		&cli.Float64Flag{Name: flagX, Usage: "tangential x in meters"},
		&cli.Float64Flag{Name: flagY, Usage: "tangential y in meters"},
		&cli.Float64Flag{Name: flagZ, Usage: "tangential z in meters"},
		&cli.Float64Flag{Name: flagLat, Usage: "latitude in degrees"},
		&cli.Float64Flag{Name: flagLon, Usage: "longitude in degrees"},
		&cli.Float64Flag{Name: flagHeight, Usage: "height in meters"},
	}

	return &cli.App{
		Name:  "navcore",
		Usage: "robot path planning over a surveyed campus map",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "path to the YAML config file",
				EnvVars: []string{"NAVCORE_CONFIG"},
			},
			&cli.StringFlag{
				Name:    flagMap,
				Aliases: []string{"m"},
				Usage:   "map file (.osm, .pbf, .geojson or .navgraph), overrides the config",
			},
			&cli.StringFlag{
				Name:  flagLogLevel,
				Usage: "log level (trace, debug, info, warn, warning, error, fatal, panic)",
			},
			&cli.StringFlag{
				Name:  flagUIPipe,
				Usage: "named pipe the UI reads status messages from",
			},
		},
		Before: e.setup,
		After:  e.close,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "serve the navigation API over HTTP",
				Action: e.serve,
			},
			{
				Name:      "route",
				Usage:     "print the shortest path between two named vertices",
				ArgsUsage: "FROM TO",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: flagGeoJSON, Usage: "print the route as GeoJSON"},
				},
				Action: e.route,
			},
			{
				Name:   "locate",
				Usage:  "find the edge closest to a position",
				Flags:  positionFlags,
				Action: e.locate,
			},
			{
				Name:  "plan",
				Usage: "locate a position and plan a path from it to a named vertex",
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: flagTo, Usage: "destination vertex", Required: true},
				}, positionFlags...),
				Action: e.plan,
			},
			{
				Name:      "simulate",
				Usage:     "drive a simulated robot along a route and report waypoint arrivals",
				ArgsUsage: "FROM TO",
				Flags: []cli.Flag{
					&cli.Float64Flag{Name: flagStep, Value: 0.25, Usage: "distance moved per update in meters"},
				},
				Action: e.simulate,
			},
			{
				Name:  "export",
				Usage: "write the graph as GeoJSON",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: flagOut, Aliases: []string{"o"}, Usage: "output file (default stdout)"},
				},
				Action: e.export,
			},
			{
				Name:   "inspect",
				Usage:  "report connectivity and cross-check edge lengths",
				Action: e.inspect,
			},
			{
				Name:  "compile",
				Usage: "write the map as a .navgraph snapshot",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: flagOut, Aliases: []string{"o"}, Usage: "output file", Required: true},
				},
				Action: e.compile,
			},
		},
	}
}
