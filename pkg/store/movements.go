package store

import (
	"context"
	"time"

	"github.com/parkwarden/parkwarden/pkg/models"
)

// ============================================
// MOVEMENT OPERATIONS
// ============================================

func (s *GORMStore) GetMovement(ctx context.Context, id string) (*models.Movement, error) {
	return getByField[models.Movement](s.db, ctx, "id", id, models.ErrMovementNotFound)
}

// GetMovementByIdentity looks up a movement by its natural key
// (site, plate, timestamp).
func (s *GORMStore) GetMovementByIdentity(ctx context.Context, siteID, vrm string, timestamp time.Time) (*models.Movement, error) {
	var m models.Movement
	err := s.db.WithContext(ctx).
		Where("site_id = ? AND vrm = ? AND timestamp = ?", siteID, vrm, timestamp).
		First(&m).Error
	if err != nil {
		return nil, convertNotFoundError(err, models.ErrMovementNotFound)
	}
	return &m, nil
}

// CreateMovement persists a new movement. A unique violation on the natural
// key is reported as models.ErrDuplicateMovement; the pre-check in ingestion
// is an optimization only.
func (s *GORMStore) CreateMovement(ctx context.Context, m *models.Movement) (string, error) {
	return createWithID(s.db, ctx, m, func(mv *models.Movement, id string) { mv.ID = id }, m.ID, models.ErrDuplicateMovement)
}

// UpdateMovementImages replaces the stored image list of a movement.
// Only image URLs may be patched on an existing movement.
func (s *GORMStore) UpdateMovementImages(ctx context.Context, id, images string) error {
	result := s.db.WithContext(ctx).
		Model(&models.Movement{}).
		Where("id = ?", id).
		Update("images", images)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrMovementNotFound
	}
	return nil
}

// SetMovementReview flips the requires_review gate on a movement.
func (s *GORMStore) SetMovementReview(ctx context.Context, id string, requiresReview bool) error {
	result := s.db.WithContext(ctx).
		Model(&models.Movement{}).
		Where("id = ?", id).
		Update("requires_review", requiresReview)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrMovementNotFound
	}
	return nil
}

// SetMovementDiscarded marks a movement discarded. Discarded movements
// never enter session reconstruction.
func (s *GORMStore) SetMovementDiscarded(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).
		Model(&models.Movement{}).
		Where("id = ?", id).
		Update("discarded", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrMovementNotFound
	}
	return nil
}

// UpdateMovementVRM rewrites the plate on a movement after a review
// correction. The corrected VRM is the one used in all subsequent matching.
func (s *GORMStore) UpdateMovementVRM(ctx context.Context, id, vrm string) error {
	result := s.db.WithContext(ctx).
		Model(&models.Movement{}).
		Where("id = ?", id).
		Updates(map[string]any{"vrm": vrm, "requires_review": false})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrMovementNotFound
	}
	return nil
}
