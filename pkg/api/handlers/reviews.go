package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/parkwarden/parkwarden/pkg/models"
	"github.com/parkwarden/parkwarden/pkg/review"
)

// ReviewHandler exposes the plate-review workflow.
type ReviewHandler struct {
	workflow *review.Workflow
}

// NewReviewHandler creates a review handler.
func NewReviewHandler(workflow *review.Workflow) *ReviewHandler {
	return &ReviewHandler{workflow: workflow}
}

// List handles GET /api/v1/reviews?status=PENDING&limit=100.
func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	status := models.ReviewStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = models.ReviewPending
	}

	reviews, err := h.workflow.List(r.Context(), status, queryLimit(r, 100))
	if err != nil {
		domainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

type approveRequest struct {
	ReviewedBy string `json:"reviewedBy"`
}

// Approve handles POST /api/v1/reviews/{id}/approve.
func (h *ReviewHandler) Approve(w http.ResponseWriter, r *http.Request) {
	var req approveRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.ReviewedBy == "" {
		BadRequest(w, r, "reviewedBy is required")
		return
	}

	resolved, err := h.workflow.Approve(r.Context(), chi.URLParam(r, "id"), req.ReviewedBy)
	if err != nil {
		domainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resolved)
}

type correctRequest struct {
	ReviewedBy   string `json:"reviewedBy"`
	CorrectedVRM string `json:"correctedVrm"`
}

// Correct handles POST /api/v1/reviews/{id}/correct.
func (h *ReviewHandler) Correct(w http.ResponseWriter, r *http.Request) {
	var req correctRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.ReviewedBy == "" || req.CorrectedVRM == "" {
		BadRequest(w, r, "reviewedBy and correctedVrm are required")
		return
	}

	resolved, err := h.workflow.Correct(r.Context(), chi.URLParam(r, "id"), req.ReviewedBy, req.CorrectedVRM)
	if err != nil {
		domainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resolved)
}

type discardRequest struct {
	ReviewedBy string `json:"reviewedBy"`
	Reason     string `json:"reason"`
}

// Discard handles POST /api/v1/reviews/{id}/discard.
func (h *ReviewHandler) Discard(w http.ResponseWriter, r *http.Request) {
	var req discardRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.ReviewedBy == "" {
		BadRequest(w, r, "reviewedBy is required")
		return
	}

	resolved, err := h.workflow.Discard(r.Context(), chi.URLParam(r, "id"), req.ReviewedBy, req.Reason)
	if err != nil {
		domainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resolved)
}

type bulkDiscardRequest struct {
	SuspicionTag string `json:"suspicionTag"`
	ReviewedBy   string `json:"reviewedBy"`
	Reason       string `json:"reason"`
	Limit        int    `json:"limit"`
}

// BulkDiscard handles POST /api/v1/reviews/bulk-discard.
//
// Discards every pending review carrying the given suspicion tag. The run is
// not transactional; the response reports per-item outcomes.
func (h *ReviewHandler) BulkDiscard(w http.ResponseWriter, r *http.Request) {
	var req bulkDiscardRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.SuspicionTag == "" || req.ReviewedBy == "" {
		BadRequest(w, r, "suspicionTag and reviewedBy are required")
		return
	}
	if req.Limit <= 0 {
		req.Limit = 500
	}

	result, err := h.workflow.BulkDiscardByReason(r.Context(), req.SuspicionTag, req.ReviewedBy, req.Reason, req.Limit)
	if err != nil {
		domainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
