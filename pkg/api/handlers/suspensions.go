package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/parkwarden/parkwarden/pkg/suspension"
)

// SuspensionHandler exposes enforcement suspensions.
type SuspensionHandler struct {
	registry *suspension.Registry
}

// NewSuspensionHandler creates a suspension handler.
func NewSuspensionHandler(registry *suspension.Registry) *SuspensionHandler {
	return &SuspensionHandler{registry: registry}
}

type createSuspensionRequest struct {
	SiteID    string     `json:"siteId"`
	RuleType  string     `json:"ruleType"`
	StartDate time.Time  `json:"startDate"`
	EndDate   *time.Time `json:"endDate"`
	Reason    string     `json:"reason"`
	CreatedBy string     `json:"createdBy"`
}

// Create handles POST /api/v1/suspensions.
//
// Returns the suspension together with the number of existing enforcement
// candidates it retroactively resolved.
func (h *SuspensionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSuspensionRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.SiteID == "" || req.CreatedBy == "" || req.StartDate.IsZero() {
		BadRequest(w, r, "siteId, createdBy and startDate are required")
		return
	}

	result, err := h.registry.Create(r.Context(), suspension.CreateInput{
		SiteID:    req.SiteID,
		RuleType:  req.RuleType,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Reason:    req.Reason,
		CreatedBy: req.CreatedBy,
	})
	if err != nil {
		domainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

type endSuspensionRequest struct {
	EndedBy string `json:"endedBy"`
	Reason  string `json:"reason"`
}

// End handles POST /api/v1/suspensions/{id}/end.
func (h *SuspensionHandler) End(w http.ResponseWriter, r *http.Request) {
	var req endSuspensionRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.EndedBy == "" {
		BadRequest(w, r, "endedBy is required")
		return
	}

	susp, err := h.registry.End(r.Context(), chi.URLParam(r, "id"), req.EndedBy, req.Reason)
	if err != nil {
		domainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, susp)
}

// List handles GET /api/v1/suspensions?siteId=CP01.
func (h *SuspensionHandler) List(w http.ResponseWriter, r *http.Request) {
	suspensions, err := h.registry.List(r.Context(), r.URL.Query().Get("siteId"))
	if err != nil {
		domainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, suspensions)
}
