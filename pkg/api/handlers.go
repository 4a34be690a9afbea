package api

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"mime"
	"net/http"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/dstockhouse/mr-fusion-capstone/pkg/geo"
	"github.com/dstockhouse/mr-fusion-capstone/pkg/routing"
)

const maxBodyBytes = 1024

var (
	errMissingPosition = errors.New("position needs x and y or lat and lon")
	errBadCoordinates  = errors.New("coordinates out of range")
)

// Handlers holds the HTTP handlers and their dependencies.
type Handlers struct {
	router routing.Router
	log    logrus.FieldLogger
}

// NewHandlers creates handlers with the given router. A nil log uses the
// standard logger.
func NewHandlers(router routing.Router, log logrus.FieldLogger) *Handlers {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handlers{
		router: router,
		log:    log.WithField("component", "api"),
	}
}

// HandleRoute handles GET /api/v1/route?from=&to=.
func (h *Handlers) HandleRoute(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to := q.Get("from"), q.Get("to")
	if from == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "from", "")
		return
	}
	if to == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "to", "")
		return
	}

	result, err := h.router.Route(r.Context(), from, to)
	if err != nil {
		h.writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, routeResponse(result))
}

// HandleLocate handles POST /api/v1/locate.
func (h *Handlers) HandleLocate(w http.ResponseWriter, r *http.Request) {
	var req LocateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	pos, err := h.position(req.Position)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_coordinates", "position", err.Error())
		return
	}

	loc, err := h.router.Locate(r.Context(), pos)
	if err != nil {
		h.writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, LocateResponse{
		Edge:           loc.Edge,
		Row:            int(loc.Index.Row),
		Col:            int(loc.Index.Col),
		From:           loc.From,
		To:             loc.To,
		Point:          pointJSON(loc.Point),
		DistanceMeters: loc.Distance,
	})
}

// HandlePlan handles POST /api/v1/plan.
func (h *Handlers) HandlePlan(w http.ResponseWriter, r *http.Request) {
	var req PlanRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.To == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "to", "")
		return
	}
	pos, err := h.position(req.Position)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_coordinates", "position", err.Error())
		return
	}

	result, err := h.router.Plan(r.Context(), pos, req.To)
	if err != nil {
		h.writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, routeResponse(result))
}

// HandleGraph handles GET /api/v1/graph.
func (h *Handlers) HandleGraph(w http.ResponseWriter, r *http.Request) {
	data, err := h.router.GeoJSON().MarshalJSON()
	if err != nil {
		h.log.WithError(err).Error("encode graph")
		writeError(w, http.StatusInternalServerError, "internal_error", "", "")
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.Write(data)
}

// HandleHealth handles GET /api/v1/health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// HandleStats handles GET /api/v1/stats.
func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	s := h.router.Stats()
	writeJSON(w, http.StatusOK, StatsResponse{
		NumVertices:   s.Vertices,
		NumEdges:      s.Edges,
		NumComponents: s.Components,
		Routes:        s.Routes,
		Locates:       s.Locates,
	})
}

// position converts a request position into the router's tangential frame.
func (h *Handlers) position(p PositionJSON) (geo.TangentialPoint, error) {
	if p.Lat != nil || p.Lon != nil {
		if p.Lat == nil || p.Lon == nil {
			return geo.TangentialPoint{}, errMissingPosition
		}
		frame := h.router.Frame()
		g := geo.GeodeticPoint{Lat: *p.Lat, Lon: *p.Lon, Height: frame.Origin().Height}
		if p.Height != nil {
			g.Height = *p.Height
		}
		if err := validateGeodetic(g); err != nil {
			return geo.TangentialPoint{}, err
		}
		return frame.ToTangential(g), nil
	}

	if p.X == nil || p.Y == nil {
		return geo.TangentialPoint{}, errMissingPosition
	}
	t := geo.TangentialPoint{X: *p.X, Y: *p.Y, Z: p.Z}
	if !finite(t.X, t.Y, t.Z) {
		return geo.TangentialPoint{}, errBadCoordinates
	}
	return t, nil
}

// writeQueryError maps router errors onto HTTP statuses.
func (h *Handlers) writeQueryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, routing.ErrNotOnMap):
		writeError(w, http.StatusUnprocessableEntity, "not_on_map", "", "")
	case errors.Is(err, routing.ErrPathDoesNotExist):
		writeError(w, http.StatusNotFound, "no_path", "", "")
	case errors.Is(err, routing.ErrUnknownWaypoint):
		writeError(w, http.StatusNotFound, "unknown_waypoint", "", err.Error())
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "request_timeout", "", "")
	default:
		h.log.WithError(err).Error("query failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "", "")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		writeError(w, http.StatusBadRequest, "invalid_request", "", "content type must be application/json")
		return false
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "", "")
		return false
	}
	return true
}

func routeResponse(r *routing.Route) RouteResponse {
	return RouteResponse{
		TotalDistanceMeters: r.Length,
		Steps: lo.Map(r.Steps, func(s routing.Step, _ int) StepJSON {
			return StepJSON{Edge: s.Edge, From: s.From, To: s.To, DistanceMeters: s.Length}
		}),
		Waypoints: lo.Map(r.Waypoints, func(p geo.TangentialPoint, _ int) PointJSON {
			return pointJSON(p)
		}),
	}
}

func pointJSON(p geo.TangentialPoint) PointJSON {
	return PointJSON{X: p.X, Y: p.Y, Z: p.Z}
}

func validateGeodetic(p geo.GeodeticPoint) error {
	if !finite(p.Lat, p.Lon, p.Height) {
		return errBadCoordinates
	}
	if p.Lat < -90 || p.Lat > 90 || p.Lon < -180 || p.Lon > 180 {
		return errBadCoordinates
	}
	return nil
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, field, msg string) {
	writeJSON(w, status, ErrorResponse{Error: code, Field: field, Message: msg})
}
