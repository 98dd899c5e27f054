package handlers

import (
	"net/http"

	"sedcat-backend/internal/catalog"
	"sedcat-backend/pkg/api"
)

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	registry *catalog.Registry
	version  string
}

// NewHealthHandler creates the health handler.
func NewHealthHandler(registry *catalog.Registry, version string) *HealthHandler {
	return &HealthHandler{registry: registry, version: version}
}

// Health reports process liveness.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	api.Success(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": h.version,
	})
}

// Ready reports whether the service can answer catalog queries. The
// service is ready once at least one catalog is loaded.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	variants := h.registry.Variants()
	if len(variants) == 0 {
		api.Error(w, http.StatusServiceUnavailable, "no catalogs loaded")
		return
	}
	api.Success(w, http.StatusOK, map[string]interface{}{
		"status":   "ready",
		"catalogs": variants,
	})
}
