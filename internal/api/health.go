package api

import (
	"errors"
	"net/http"
	"time"

	respond "github.com/tabvault/tabvault/server/internal/api/respond"
	"github.com/tabvault/tabvault/server/internal/health"
	"github.com/tabvault/tabvault/server/internal/model"
	"github.com/tabvault/tabvault/server/internal/store"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	store     store.Store
	isHealthy func() bool
}

func NewHealthHandler(st store.Store, isHealthy func() bool) *HealthHandler {
	if isHealthy == nil {
		isHealthy = func() bool { return true }
	}
	return &HealthHandler{store: st, isHealthy: isHealthy}
}

// CheckHealth GET /api/health
// Always returns 200; the body reports healthy/unhealthy. A non-200 means
// the handler itself failed.
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	status := "unhealthy"
	if h.isHealthy() {
		status = "healthy"
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// CheckStoreHealth GET /api/health/db
// Probes the store directly instead of reading the cached aggregate flag.
func (h *HealthHandler) CheckStoreHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	code := http.StatusOK
	if err := h.probe(r); err != nil {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}
	respond.WriteJSON(w, code, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *HealthHandler) probe(r *http.Request) error {
	if p, ok := h.store.(health.HealthPinger); ok {
		return p.HealthPing(r.Context())
	}
	_, err := h.store.Collections().Get(r.Context(), "__health_check__")
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return err
	}
	return nil
}
