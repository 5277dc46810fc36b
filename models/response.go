package models

// TrackResponse is the response for POST /api/v1/products.
type TrackResponse struct {
	ID int64 `json:"id"`
	ExtractionResult
}

// RefreshResponse is the response for POST /api/v1/refresh.
type RefreshResponse struct {
	Success bool             `json:"success"`
	Updates []RefreshOutcome `json:"updates"`
	Updated int              `json:"updated"`
	Alerts  int              `json:"alerts"`
	Failed  int              `json:"failed"`

	// DurationMs is the wall-clock time of the whole batch.
	DurationMs int64 `json:"duration_ms"`
}

// ErrorResponse wraps an ErrorDetail for failed requests.
type ErrorResponse struct {
	Success bool         `json:"success"`
	Error   *ErrorDetail `json:"error"`
}

// SuccessResponse is returned by endpoints with no other payload.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status   string `json:"status"` // "healthy" or "degraded"
	Uptime   string `json:"uptime"`
	Store    string `json:"store"`
	Renderer string `json:"renderer"`
	Version  string `json:"version"`
}
