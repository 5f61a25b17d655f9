// Package review implements the plate-review workflow. Suspicious movements
// wait here gated from session reconstruction until an operator approves,
// corrects or discards the read.
package review

import (
	"context"
	"errors"
	"time"

	"github.com/parkwarden/parkwarden/internal/logger"
	"github.com/parkwarden/parkwarden/pkg/audit"
	"github.com/parkwarden/parkwarden/pkg/models"
	"github.com/parkwarden/parkwarden/pkg/plate"
	"github.com/parkwarden/parkwarden/pkg/session"
	"github.com/parkwarden/parkwarden/pkg/store"
)

// Workflow resolves pending plate reviews.
type Workflow struct {
	store         store.Store
	validator     *plate.Validator
	reconstructor *session.Reconstructor
	audit         *audit.Sink
	now           func() time.Time
}

// NewWorkflow creates a review workflow. The validator is the same rule set
// the ingestion pipeline classifies with.
func NewWorkflow(st store.Store, validator *plate.Validator, reconstructor *session.Reconstructor, sink *audit.Sink) *Workflow {
	return &Workflow{
		store:         st,
		validator:     validator,
		reconstructor: reconstructor,
		audit:         sink,
		now:           time.Now,
	}
}

// Approve accepts the plate as read: the review closes, the movement's
// gate clears and the movement re-enters session reconstruction.
func (w *Workflow) Approve(ctx context.Context, reviewID, reviewerID string) (*models.PlateReview, error) {
	review, err := w.store.GetPlateReview(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	now := w.now().UTC()
	review.ReviewStatus = models.ReviewApproved
	review.ReviewedBy = &reviewerID
	review.ReviewedAt = &now
	ok, err := w.store.ResolvePlateReviewIfPending(ctx, review)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.ErrInvalidTransition
	}

	if err := w.store.SetMovementReview(ctx, review.MovementID, false); err != nil {
		return nil, err
	}

	w.audit.Operator(ctx, models.AuditPlateReviewApproved, audit.EntityReview, review.ID,
		reviewerID, map[string]any{
			"movement_id": review.MovementID,
			"vrm":         review.NormalizedVRM,
		})
	w.resubmit(ctx, review.MovementID)
	logger.InfoCtx(ctx, "plate review approved",
		logger.KeyReviewID, review.ID,
		logger.KeyVRM, review.NormalizedVRM,
		logger.KeyActor, reviewerID)
	return review, nil
}

// Correct replaces the misread plate with newVRM, which must classify as a
// valid format. The corrected VRM is the one used in all subsequent
// matching.
func (w *Workflow) Correct(ctx context.Context, reviewID, reviewerID, newVRM string) (*models.PlateReview, error) {
	review, err := w.store.GetPlateReview(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	corrected := plate.Normalize(newVRM)
	if status, _ := w.validator.Validate(corrected); status == models.PlateInvalid {
		return nil, models.ErrInvalidCorrection
	}

	now := w.now().UTC()
	review.ReviewStatus = models.ReviewCorrected
	review.CorrectedVRM = &corrected
	review.ReviewedBy = &reviewerID
	review.ReviewedAt = &now
	ok, err := w.store.ResolvePlateReviewIfPending(ctx, review)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.ErrInvalidTransition
	}

	if err := w.store.UpdateMovementVRM(ctx, review.MovementID, corrected); err != nil {
		return nil, err
	}

	w.audit.Operator(ctx, models.AuditPlateReviewCorrected, audit.EntityReview, review.ID,
		reviewerID, map[string]any{
			"movement_id":   review.MovementID,
			"original_vrm":  review.NormalizedVRM,
			"corrected_vrm": corrected,
		})
	w.resubmit(ctx, review.MovementID)
	logger.InfoCtx(ctx, "plate review corrected",
		logger.KeyReviewID, review.ID,
		logger.KeyVRM, corrected,
		logger.KeyActor, reviewerID)
	return review, nil
}

// Discard rejects the read entirely. The movement stays out of session
// reconstruction for good.
func (w *Workflow) Discard(ctx context.Context, reviewID, reviewerID, reason string) (*models.PlateReview, error) {
	review, err := w.store.GetPlateReview(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	now := w.now().UTC()
	review.ReviewStatus = models.ReviewDiscarded
	review.ReviewedBy = &reviewerID
	review.ReviewedAt = &now
	review.DiscardReason = &reason
	ok, err := w.store.ResolvePlateReviewIfPending(ctx, review)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.ErrInvalidTransition
	}

	if err := w.store.SetMovementDiscarded(ctx, review.MovementID); err != nil {
		return nil, err
	}

	w.audit.Operator(ctx, models.AuditPlateReviewDiscarded, audit.EntityReview, review.ID,
		reviewerID, map[string]any{
			"movement_id": review.MovementID,
			"reason":      reason,
		})
	logger.InfoCtx(ctx, "plate review discarded",
		logger.KeyReviewID, review.ID,
		logger.KeyActor, reviewerID)
	return review, nil
}

// BulkDiscardResult summarizes one bulk discard run.
type BulkDiscardResult struct {
	Matched   int `json:"matched"`
	Discarded int `json:"discarded"`
	Failed    int `json:"failed"`
}

// BulkDiscardByReason discards pending reviews carrying a suspicion tag.
// Non-transactional: each item fails or succeeds on its own.
func (w *Workflow) BulkDiscardByReason(ctx context.Context, tag, reviewerID, reason string, limit int) (*BulkDiscardResult, error) {
	pending, err := w.store.ListPendingReviewsByReason(ctx, tag, limit)
	if err != nil {
		return nil, err
	}

	result := &BulkDiscardResult{Matched: len(pending)}
	for _, r := range pending {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if _, err := w.Discard(ctx, r.ID, reviewerID, reason); err != nil {
			result.Failed++
			logger.WarnCtx(ctx, "bulk discard item failed",
				logger.KeyReviewID, r.ID,
				logger.KeyError, err)
			continue
		}
		result.Discarded++
	}
	logger.InfoCtx(ctx, "bulk discard finished",
		"tag", tag,
		logger.KeyProcessed, result.Matched,
		logger.KeyUpdated, result.Discarded,
		logger.KeyFailed, result.Failed)
	return result, nil
}

// List returns reviews in the given status, oldest first.
func (w *Workflow) List(ctx context.Context, status models.ReviewStatus, limit int) ([]*models.PlateReview, error) {
	return w.store.ListPlateReviews(ctx, status, limit)
}

// resubmit feeds the un-gated movement back into session reconstruction.
// A failure is logged only; the review resolution itself stands.
func (w *Workflow) resubmit(ctx context.Context, movementID string) {
	movement, err := w.store.GetMovement(ctx, movementID)
	if err != nil {
		logger.ErrorCtx(ctx, "resubmit movement load failed",
			logger.KeyMovementID, movementID,
			logger.KeyError, err)
		return
	}
	if _, err := w.reconstructor.ProcessMovement(ctx, movement); err != nil {
		if errors.Is(err, models.ErrExitBeforeEntry) {
			// The corrected exit predates the open session; it stays
			// recorded without closing anything.
			return
		}
		logger.ErrorCtx(ctx, "resubmitted movement processing failed",
			logger.KeyMovementID, movementID,
			logger.KeyError, err)
	}
}
