package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/parkwarden/parkwarden/pkg/audit"
	"github.com/parkwarden/parkwarden/pkg/models"
	"github.com/parkwarden/parkwarden/pkg/store"
)

// DecisionHandler exposes compliance decisions and the operator review
// action that freezes them.
type DecisionHandler struct {
	store store.Store
	audit *audit.Sink
}

// NewDecisionHandler creates a decision handler.
func NewDecisionHandler(st store.Store, sink *audit.Sink) *DecisionHandler {
	return &DecisionHandler{store: st, audit: sink}
}

// List handles GET /api/v1/decisions?siteId=&outcome=&status=&limit=.
func (h *DecisionHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	decisions, err := h.store.ListDecisions(r.Context(), store.DecisionFilter{
		SiteID:  q.Get("siteId"),
		Outcome: models.DecisionOutcome(q.Get("outcome")),
		Status:  models.DecisionStatus(q.Get("status")),
		Limit:   queryLimit(r, 100),
	})
	if err != nil {
		domainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, decisions)
}

// Get handles GET /api/v1/decisions/{id}.
func (h *DecisionHandler) Get(w http.ResponseWriter, r *http.Request) {
	decision, err := h.store.GetDecision(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		domainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, decision)
}

type reviewDecisionRequest struct {
	Status     string `json:"status"`
	ReviewedBy string `json:"reviewedBy"`
	Notes      string `json:"notes"`
}

// Review handles POST /api/v1/decisions/{id}/review.
//
// An operator approves or declines an enforcement candidate. Once reviewed
// the decision is frozen; no automatic process may overwrite it afterwards.
func (h *DecisionHandler) Review(w http.ResponseWriter, r *http.Request) {
	var req reviewDecisionRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.ReviewedBy == "" {
		BadRequest(w, r, "reviewedBy is required")
		return
	}
	status := models.DecisionStatus(req.Status)
	if status != models.DecisionApproved && status != models.DecisionDeclined {
		BadRequest(w, r, "status must be APPROVED or DECLINED")
		return
	}

	id := chi.URLParam(r, "id")
	decision, err := h.store.GetDecision(r.Context(), id)
	if err != nil {
		domainError(w, r, err)
		return
	}
	if !decision.Status.Mutable() {
		domainError(w, r, models.ErrDecisionFrozen)
		return
	}

	if err := h.store.SetDecisionStatus(r.Context(), id, status); err != nil {
		domainError(w, r, err)
		return
	}

	h.audit.Operator(r.Context(), models.AuditEnforcementReviewed, audit.EntityDecision, id,
		req.ReviewedBy, map[string]any{
			"session_id": decision.SessionID,
			"outcome":    decision.Outcome,
			"status":     status,
			"notes":      req.Notes,
		})

	decision.Status = status
	writeJSON(w, http.StatusOK, decision)
}
