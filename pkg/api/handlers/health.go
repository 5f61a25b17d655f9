package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/parkwarden/parkwarden/pkg/reconcile"
	"github.com/parkwarden/parkwarden/pkg/store"
)

// HealthHandler handles health check endpoints.
//
// Health endpoints are unauthenticated and provide:
//   - Liveness probe: is the server process running?
//   - Readiness probe: can the server reach its database?
type HealthHandler struct {
	store      store.Store
	dispatcher *reconcile.Dispatcher
}

// NewHealthHandler creates a new health handler. The dispatcher may be nil
// when background reconciliation is disabled.
func NewHealthHandler(st store.Store, dispatcher *reconcile.Dispatcher) *HealthHandler {
	return &HealthHandler{store: st, dispatcher: dispatcher}
}

// Liveness handles GET /health - simple liveness probe.
//
// Returns 200 OK if the server process is running. Designed for Kubernetes
// liveness probes; it should always succeed as long as the HTTP server is
// responsive.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthy(map[string]string{
		"service": "parkwarden",
	}))
}

// Readiness handles GET /health/ready - readiness probe.
//
// Returns 200 OK when the database answers a ping, 503 otherwise. The
// reconciliation queue depth is included for operator visibility.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	start := time.Now()
	if err := h.store.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, unhealthy("database ping failed: "+err.Error()))
		return
	}

	data := map[string]any{
		"database_latency": time.Since(start).String(),
	}
	if h.dispatcher != nil {
		pending, completed, failed := h.dispatcher.Stats()
		data["reconcile_pending"] = pending
		data["reconcile_completed"] = completed
		data["reconcile_failed"] = failed
	}
	writeJSON(w, http.StatusOK, healthy(data))
}
