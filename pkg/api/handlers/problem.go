package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/parkwarden/parkwarden/internal/logger"
	"github.com/parkwarden/parkwarden/pkg/models"
)

// Problem writes an RFC 7807 problem details response.
//
// Semantics:
//   - type: canonical machine identifier (e.g. "ingest/site_not_found")
//   - title: human-readable short label (e.g. "Site Not Found")
//   - detail: human-readable explanation of the specific error
//
// The request id from the chi middleware is echoed back so a client report
// can be matched against the server log.
func Problem(w http.ResponseWriter, r *http.Request, status int, problemType, title, detail string) {
	res := map[string]any{
		"type":   problemType,
		"title":  title,
		"status": status,
	}
	if detail != "" {
		res["detail"] = detail
	}
	if r != nil {
		res["instance"] = r.URL.EscapedPath()
		if reqID := middleware.GetReqID(r.Context()); reqID != "" {
			res["requestId"] = reqID
		}
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(res); err != nil {
		logger.Error("failed to encode problem response",
			"type", problemType,
			"status", status,
			logger.KeyError, err)
	}
}

// BadRequest writes a 400 validation problem.
func BadRequest(w http.ResponseWriter, r *http.Request, detail string) {
	Problem(w, r, http.StatusBadRequest, "request/invalid", "Invalid Request", detail)
}

// domainError maps a core error onto the matching problem response.
// Unrecognized errors become opaque 500s; the detail stays in the log.
func domainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, models.ErrSiteNotFound):
		Problem(w, r, http.StatusNotFound, "core/site_not_found", "Site Not Found", err.Error())
	case errors.Is(err, models.ErrReviewNotFound):
		Problem(w, r, http.StatusNotFound, "review/not_found", "Review Not Found", err.Error())
	case errors.Is(err, models.ErrSuspensionNotFound):
		Problem(w, r, http.StatusNotFound, "suspension/not_found", "Suspension Not Found", err.Error())
	case errors.Is(err, models.ErrDecisionNotFound):
		Problem(w, r, http.StatusNotFound, "decision/not_found", "Decision Not Found", err.Error())
	case errors.Is(err, models.ErrMissingPlate),
		errors.Is(err, models.ErrReasonTooShort),
		errors.Is(err, models.ErrDateRangeInverted),
		errors.Is(err, models.ErrInvalidCorrection):
		BadRequest(w, r, err.Error())
	case errors.Is(err, models.ErrInvalidTransition),
		errors.Is(err, models.ErrSuspensionEnded),
		errors.Is(err, models.ErrDecisionFrozen):
		Problem(w, r, http.StatusConflict, "core/conflict", "Conflict", err.Error())
	default:
		logger.ErrorCtx(r.Context(), "request failed", logger.KeyError, err)
		Problem(w, r, http.StatusInternalServerError, "core/internal", "Internal Server Error", "")
	}
}
