package api

// PositionJSON is a robot position. Either the tangential X/Y (meters from
// the frame origin) or Lat/Lon must be given; Lat/Lon wins when both are.
// A missing Height is taken as the frame origin's height.
type PositionJSON struct {
	X      *float64 `json:"x,omitempty"`
	Y      *float64 `json:"y,omitempty"`
	Z      float64  `json:"z,omitempty"`
	Lat    *float64 `json:"lat,omitempty"`
	Lon    *float64 `json:"lon,omitempty"`
	Height *float64 `json:"height,omitempty"`
}

// LocateRequest is the JSON body for POST /api/v1/locate.
type LocateRequest struct {
	Position PositionJSON `json:"position"`
}

// PlanRequest is the JSON body for POST /api/v1/plan.
type PlanRequest struct {
	Position PositionJSON `json:"position"`
	To       string       `json:"to"`
}

// PointJSON is a tangential point in meters.
type PointJSON struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// StepJSON is one edge of a route.
type StepJSON struct {
	Edge           string  `json:"edge"`
	From           string  `json:"from"`
	To             string  `json:"to"`
	DistanceMeters float64 `json:"distance_meters"`
}

// RouteResponse is the JSON response for a successful route or plan query.
type RouteResponse struct {
	TotalDistanceMeters float64     `json:"total_distance_meters"`
	Steps               []StepJSON  `json:"steps"`
	Waypoints           []PointJSON `json:"waypoints"`
}

// LocateResponse is the JSON response for a successful locate query.
type LocateResponse struct {
	Edge           string    `json:"edge"`
	Row            int       `json:"row"`
	Col            int       `json:"col"`
	From           string    `json:"from"`
	To             string    `json:"to"`
	Point          PointJSON `json:"point"`
	DistanceMeters float64   `json:"distance_meters"`
}

// ErrorResponse is the JSON response for errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message,omitempty"`
}

// StatsResponse is the JSON response for GET /api/v1/stats.
type StatsResponse struct {
	NumVertices   int   `json:"num_vertices"`
	NumEdges      int   `json:"num_edges"`
	NumComponents int   `json:"num_components"`
	Routes        int64 `json:"routes"`
	Locates       int64 `json:"locates"`
}

// HealthResponse is the JSON response for GET /api/v1/health.
type HealthResponse struct {
	Status string `json:"status"`
}
