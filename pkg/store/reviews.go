package store

import (
	"context"

	"github.com/parkwarden/parkwarden/pkg/models"
)

// ============================================
// PLATE REVIEW OPERATIONS
// ============================================

func (s *GORMStore) GetPlateReview(ctx context.Context, id string) (*models.PlateReview, error) {
	return getByField[models.PlateReview](s.db, ctx, "id", id, models.ErrReviewNotFound)
}

func (s *GORMStore) GetPlateReviewByMovement(ctx context.Context, movementID string) (*models.PlateReview, error) {
	return getByField[models.PlateReview](s.db, ctx, "movement_id", movementID, models.ErrReviewNotFound)
}

// CreatePlateReview queues a suspicious movement for operator review.
func (s *GORMStore) CreatePlateReview(ctx context.Context, r *models.PlateReview) (string, error) {
	return createWithID(s.db, ctx, r, func(rv *models.PlateReview, id string) { rv.ID = id }, r.ID, models.ErrReviewNotFound)
}

// ResolvePlateReviewIfPending applies a review resolution only while the
// review is still PENDING. Returns false when the guard fails, which the
// workflow maps to models.ErrInvalidTransition.
func (s *GORMStore) ResolvePlateReviewIfPending(ctx context.Context, r *models.PlateReview) (bool, error) {
	result := s.db.WithContext(ctx).
		Model(&models.PlateReview{}).
		Where("id = ? AND review_status = ?", r.ID, models.ReviewPending).
		Updates(map[string]any{
			"review_status":  r.ReviewStatus,
			"corrected_vrm":  r.CorrectedVRM,
			"reviewed_by":    r.ReviewedBy,
			"reviewed_at":    r.ReviewedAt,
			"discard_reason": r.DiscardReason,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ListPlateReviews returns reviews in the given status, oldest first.
func (s *GORMStore) ListPlateReviews(ctx context.Context, status models.ReviewStatus, limit int) ([]*models.PlateReview, error) {
	if limit <= 0 {
		limit = 100
	}
	var reviews []*models.PlateReview
	err := s.db.WithContext(ctx).
		Where("review_status = ?", status).
		Order("created_at").
		Limit(limit).
		Find(&reviews).Error
	if err != nil {
		return nil, err
	}
	return reviews, nil
}

// ListPendingReviewsByReason returns pending reviews whose suspicion reasons
// include the given tag, oldest first. Reasons are a JSON array; the LIKE
// match is adequate because tags never substring each other.
func (s *GORMStore) ListPendingReviewsByReason(ctx context.Context, reason string, limit int) ([]*models.PlateReview, error) {
	if limit <= 0 {
		limit = 100
	}
	var reviews []*models.PlateReview
	err := s.db.WithContext(ctx).
		Where("review_status = ? AND suspicion_reasons LIKE ?", models.ReviewPending, "%\""+reason+"\"%").
		Order("created_at").
		Limit(limit).
		Find(&reviews).Error
	if err != nil {
		return nil, err
	}
	return reviews, nil
}
