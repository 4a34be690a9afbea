// Package config holds the navcore settings file.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/dstockhouse/mr-fusion-capstone/pkg/geo"
	"github.com/dstockhouse/mr-fusion-capstone/pkg/mapdata"
	"github.com/dstockhouse/mr-fusion-capstone/pkg/routing"
	"github.com/dstockhouse/mr-fusion-capstone/pkg/traversal"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config is the root of the settings file.
type Config struct {
	Map          Map          `yaml:"map"`
	UIPipe       string       `yaml:"ui_pipe"`
	LogLevel     string       `yaml:"log_level"`
	Frame        Frame        `yaml:"frame"`
	Localization Localization `yaml:"localization"`
	Traversal    Traversal    `yaml:"traversal"`
	Server       Server       `yaml:"server"`
}

// Map selects the map file and how it is read.
type Map struct {
	Path          string       `yaml:"path"`
	DefaultHeight float64      `yaml:"default_height"`
	BBox          mapdata.BBox `yaml:"bbox"`
}

// Frame anchors the tangential frame.
type Frame struct {
	Origin           geo.GeodeticPoint `yaml:"origin"`
	EquatorialRadius float64           `yaml:"equatorial_radius"`
	Eccentricity     float64           `yaml:"eccentricity"`
}

// Localization tunes the edge search.
type Localization struct {
	Samples int     `yaml:"samples"`
	Radius  float64 `yaml:"radius"`
}

// Traversal tunes waypoint arrival.
type Traversal struct {
	OffsetFactor float64 `yaml:"offset_factor"`
}

// Server configures the HTTP API.
type Server struct {
	Addr           string        `yaml:"addr"`
	CORSOrigins    []string      `yaml:"cors_origins"`
	MaxConcurrent  int           `yaml:"max_concurrent"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		LogLevel: "info",
		Map: Map{
			DefaultHeight: geo.DefaultOrigin.Height,
		},
		Frame: Frame{
			Origin:           geo.DefaultOrigin,
			EquatorialRadius: geo.DefaultEllipsoid.EquatorialRadius,
			Eccentricity:     geo.DefaultEllipsoid.Eccentricity,
		},
		Localization: Localization{
			Samples: routing.DefaultSamples,
			Radius:  routing.DefaultRadius,
		},
		Traversal: Traversal{
			OffsetFactor: traversal.DefaultOffsetFactor,
		},
		Server: Server{
			Addr:           ":8080",
			CORSOrigins:    []string{"*"},
			MaxConcurrent:  64,
			RequestTimeout: 5 * time.Second,
			ReadTimeout:    5 * time.Second,
			WriteTimeout:   10 * time.Second,
			IdleTimeout:    60 * time.Second,
		},
	}
}

// Load reads path over the defaults and validates the result. An empty
// path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var err error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			err = multierr.Append(err, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
		}
	}

	_, lerr := c.Level()
	check(lerr == nil, "log_level %q unknown", c.LogLevel)

	o := c.Frame.Origin
	check(o.Lat >= -90 && o.Lat <= 90, "frame.origin.lat %v out of range", o.Lat)
	check(o.Lon >= -180 && o.Lon <= 180, "frame.origin.lon %v out of range", o.Lon)
	check(!math.IsNaN(o.Height) && !math.IsInf(o.Height, 0), "frame.origin.height must be finite")
	check(c.Frame.EquatorialRadius > 0, "frame.equatorial_radius must be positive")
	check(c.Frame.Eccentricity >= 0 && c.Frame.Eccentricity < 1, "frame.eccentricity %v not in [0, 1)", c.Frame.Eccentricity)

	if b := c.Map.BBox; !b.IsZero() {
		check(b.MinLat <= b.MaxLat && b.MinLon <= b.MaxLon, "map.bbox is inverted")
	}

	check(c.Localization.Samples > 0, "localization.samples must be positive")
	check(c.Localization.Radius > 0, "localization.radius must be positive")

	check(c.Traversal.OffsetFactor > 0 && c.Traversal.OffsetFactor < 1,
		"traversal.offset_factor %v not in (0, 1)", c.Traversal.OffsetFactor)

	check(c.Server.Addr != "", "server.addr is required")
	check(c.Server.MaxConcurrent > 0, "server.max_concurrent must be positive")
	check(c.Server.RequestTimeout > 0, "server.request_timeout must be positive")
	return err
}

// Ellipsoid returns the configured Earth model.
// Level parses LogLevel. Any name logrus knows is accepted, including
// "warning".
func (c Config) Level() (logrus.Level, error) {
	return logrus.ParseLevel(c.LogLevel)
}

func (c Config) Ellipsoid() geo.Ellipsoid {
	return geo.Ellipsoid{EquatorialRadius: c.Frame.EquatorialRadius, Eccentricity: c.Frame.Eccentricity}
}

// NewFrame builds the configured tangential frame.
func (c Config) NewFrame() (*geo.Frame, error) {
	return geo.NewFrame(c.Frame.Origin, c.Ellipsoid())
}

// LocatorOptions returns the configured localization options.
func (c Config) LocatorOptions() routing.LocatorOptions {
	return routing.LocatorOptions{Samples: c.Localization.Samples, Radius: c.Localization.Radius}
}

// MapOptions returns loader options logging to log.
func (c Config) MapOptions(log logrus.FieldLogger) mapdata.Options {
	return mapdata.Options{BBox: c.Map.BBox, DefaultHeight: c.Map.DefaultHeight, Log: log}
}
