package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/parkwarden/parkwarden/pkg/models"
)

// ============================================
// ENFORCEMENT SUSPENSION OPERATIONS
// ============================================

func (s *GORMStore) GetSuspension(ctx context.Context, id string) (*models.EnforcementSuspension, error) {
	return getByField[models.EnforcementSuspension](s.db, ctx, "id", id, models.ErrSuspensionNotFound)
}

func (s *GORMStore) CreateSuspension(ctx context.Context, susp *models.EnforcementSuspension) (string, error) {
	return createWithID(s.db, ctx, susp, func(sp *models.EnforcementSuspension, id string) { sp.ID = id }, susp.ID, models.ErrSuspensionNotFound)
}

// EndSuspension closes an active suspension at the given instant. Prior
// retroactive flips are not reversed.
func (s *GORMStore) EndSuspension(ctx context.Context, id string, endedBy, reason string, at time.Time) error {
	var existing models.EnforcementSuspension
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&existing).Error; err != nil {
		return convertNotFoundError(err, models.ErrSuspensionNotFound)
	}
	if !existing.Active {
		return models.ErrSuspensionEnded
	}

	return s.db.WithContext(ctx).
		Model(&existing).
		Updates(map[string]any{
			"active":       false,
			"end_date":     at,
			"ended_by":     endedBy,
			"ended_reason": reason,
		}).Error
}

// ActiveSuspensionAt returns the most recently created suspension in force
// at the site and instant, or nil when enforcement is enabled.
func (s *GORMStore) ActiveSuspensionAt(ctx context.Context, siteID string, at time.Time) (*models.EnforcementSuspension, error) {
	var susp models.EnforcementSuspension
	err := s.db.WithContext(ctx).
		Where("site_id = ? AND active = ?", siteID, true).
		Where("start_date <= ? AND (end_date IS NULL OR end_date >= ?)", at, at).
		Order("created_at DESC").
		First(&susp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &susp, nil
}

// ListSuspensions returns suspensions, optionally scoped to one site,
// newest first.
func (s *GORMStore) ListSuspensions(ctx context.Context, siteID string) ([]*models.EnforcementSuspension, error) {
	q := s.db.WithContext(ctx).Model(&models.EnforcementSuspension{})
	if siteID != "" {
		q = q.Where("site_id = ?", siteID)
	}

	var suspensions []*models.EnforcementSuspension
	if err := q.Order("created_at DESC").Find(&suspensions).Error; err != nil {
		return nil, err
	}
	return suspensions, nil
}
