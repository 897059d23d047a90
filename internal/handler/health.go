package handler

import (
	"net/http"

	"garbanzo/internal/httputil"
)

// HealthHandler serves the liveness endpoint.
type HealthHandler struct {
	environment string
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(environment string) *HealthHandler {
	return &HealthHandler{environment: environment}
}

// Health handles GET /health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{
		"status":      "ok",
		"environment": h.environment,
	})
}
