package handlers

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/parkwarden/parkwarden/pkg/ingest"
)

// IngestHandler exposes the three ingestion feeds over HTTP.
//
// Ingestion returns 2xx once the event is persisted, even when downstream
// work (session reconstruction, reconciliation) is still pending.
type IngestHandler struct {
	pipeline *ingest.Pipeline
}

// NewIngestHandler creates an ingestion handler.
func NewIngestHandler(pipeline *ingest.Pipeline) *IngestHandler {
	return &IngestHandler{pipeline: pipeline}
}

// Movements handles POST /api/v1/movements.
//
// Returns 201 for a new movement, 200 for a suppressed duplicate.
func (h *IngestHandler) Movements(w http.ResponseWriter, r *http.Request) {
	var input ingest.MovementInput
	if !decodeJSONBody(w, r, &input) {
		return
	}

	result, err := h.pipeline.IngestMovement(r.Context(), &input)
	if err != nil {
		var verr validator.ValidationErrors
		if errors.As(err, &verr) {
			BadRequest(w, r, verr.Error())
			return
		}
		domainError(w, r, err)
		return
	}

	status := http.StatusCreated
	if !result.IsNew {
		status = http.StatusOK
	}
	writeJSON(w, status, result)
}

// Payments handles POST /api/v1/payments.
func (h *IngestHandler) Payments(w http.ResponseWriter, r *http.Request) {
	var input ingest.PaymentInput
	if !decodeJSONBody(w, r, &input) {
		return
	}

	result, err := h.pipeline.IngestPayment(r.Context(), &input)
	if err != nil {
		var verr validator.ValidationErrors
		if errors.As(err, &verr) {
			BadRequest(w, r, verr.Error())
			return
		}
		domainError(w, r, err)
		return
	}

	status := http.StatusCreated
	if !result.IsNew {
		status = http.StatusOK
	}
	writeJSON(w, status, result)
}

// Permits handles POST /api/v1/permits.
//
// Permits are upserts: 201 when a new permit row was created, 200 when an
// existing one was refreshed.
func (h *IngestHandler) Permits(w http.ResponseWriter, r *http.Request) {
	var input ingest.PermitInput
	if !decodeJSONBody(w, r, &input) {
		return
	}

	result, err := h.pipeline.IngestPermit(r.Context(), &input)
	if err != nil {
		var verr validator.ValidationErrors
		if errors.As(err, &verr) {
			BadRequest(w, r, verr.Error())
			return
		}
		domainError(w, r, err)
		return
	}

	status := http.StatusCreated
	if !result.IsNew {
		status = http.StatusOK
	}
	writeJSON(w, status, result)
}
