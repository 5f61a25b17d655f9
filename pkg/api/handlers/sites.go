package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/parkwarden/parkwarden/pkg/export"
	"github.com/parkwarden/parkwarden/pkg/reconcile"
	"github.com/parkwarden/parkwarden/pkg/store"
)

// SiteHandler exposes the site read path plus the per-site actions:
// snapshot export and manual reconciliation.
type SiteHandler struct {
	store      store.Store
	builder    *export.Builder
	publisher  *export.Publisher
	dispatcher *reconcile.Dispatcher
}

// NewSiteHandler creates a site handler. publisher may be nil when no export
// bucket is configured; dispatcher may be nil when background reconciliation
// is disabled.
func NewSiteHandler(st store.Store, builder *export.Builder, publisher *export.Publisher, dispatcher *reconcile.Dispatcher) *SiteHandler {
	return &SiteHandler{store: st, builder: builder, publisher: publisher, dispatcher: dispatcher}
}

// List handles GET /api/v1/sites.
func (h *SiteHandler) List(w http.ResponseWriter, r *http.Request) {
	sites, err := h.store.ListSites(r.Context())
	if err != nil {
		domainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sites)
}

// Get handles GET /api/v1/sites/{id}.
func (h *SiteHandler) Get(w http.ResponseWriter, r *http.Request) {
	site, err := h.store.GetSite(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		domainError(w, r, err)
		return
	}
	if _, err := site.GetConfig(); err != nil {
		domainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, site)
}

// Snapshot handles GET /api/v1/sites/{id}/snapshot.
//
// Builds the customer export document on demand without publishing it.
func (h *SiteHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.builder.Build(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		domainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

// Publish handles POST /api/v1/sites/{id}/export.
//
// Builds and uploads the snapshot for one site to the export bucket.
func (h *SiteHandler) Publish(w http.ResponseWriter, r *http.Request) {
	if h.publisher == nil {
		Problem(w, r, http.StatusServiceUnavailable, "export/disabled", "Export Disabled",
			"no export bucket is configured")
		return
	}

	snapshot, err := h.publisher.PublishSite(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		domainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

// Reconcile handles POST /api/v1/sites/{id}/reconcile.
//
// Queues a full re-evaluation of the site's completed sessions, typically
// after a bulk backfill of payments or permits. Returns 202; the work runs
// in the background.
func (h *SiteHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	if h.dispatcher == nil {
		Problem(w, r, http.StatusServiceUnavailable, "reconcile/disabled", "Reconciliation Disabled",
			"background reconciliation is not running")
		return
	}

	siteID := chi.URLParam(r, "id")
	if _, err := h.store.GetSite(r.Context(), siteID); err != nil {
		domainError(w, r, err)
		return
	}

	if err := h.dispatcher.EnqueueSite(r.Context(), siteID, queryLimit(r, 1000)); err != nil {
		domainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued", "siteId": siteID})
}

// ExportSchema handles GET /api/v1/export/schema.
//
// Returns the JSON-Schema document describing the snapshot format.
func ExportSchema(w http.ResponseWriter, r *http.Request) {
	data, err := export.Schema()
	if err != nil {
		domainError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/schema+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
