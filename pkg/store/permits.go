package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/parkwarden/parkwarden/pkg/models"
)

// ============================================
// PERMIT OPERATIONS
// ============================================

func (s *GORMStore) GetPermit(ctx context.Context, id string) (*models.Permit, error) {
	return getByField[models.Permit](s.db, ctx, "id", id, models.ErrPermitNotFound)
}

// UpsertPermit inserts or updates a permit. Identity is the external board
// item id when present, otherwise (vrm, site, type). Returns the permit id
// and whether a new row was created.
func (s *GORMStore) UpsertPermit(ctx context.Context, permit *models.Permit) (string, bool, error) {
	var existing models.Permit
	q := s.db.WithContext(ctx)
	if permit.BoardItemID != nil {
		q = q.Where("board_item_id = ?", *permit.BoardItemID)
	} else if permit.SiteID != nil {
		q = q.Where("vrm = ? AND site_id = ? AND type = ?", permit.VRM, *permit.SiteID, permit.Type)
	} else {
		q = q.Where("vrm = ? AND site_id IS NULL AND type = ?", permit.VRM, permit.Type)
	}

	err := q.First(&existing).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, err
		}
		id, err := createWithID(s.db, ctx, permit, func(p *models.Permit, id string) { p.ID = id }, permit.ID, models.ErrPermitNotFound)
		if err != nil {
			return "", false, err
		}
		return id, true, nil
	}

	permit.ID = existing.ID
	permit.CreatedAt = existing.CreatedAt
	if err := s.db.WithContext(ctx).
		Model(&existing).
		Select("VRM", "SiteID", "Type", "Active", "StartDate", "EndDate", "Source", "Metadata").
		Updates(permit).Error; err != nil {
		return "", false, err
	}
	return existing.ID, false, nil
}

// ListPermitsForVRM returns permits for a plate that are scoped to the given
// site or global. Applicability at an instant is resolved by the caller via
// Permit.AppliesAt.
func (s *GORMStore) ListPermitsForVRM(ctx context.Context, vrm, siteID string) ([]*models.Permit, error) {
	var permits []*models.Permit
	err := s.db.WithContext(ctx).
		Where("vrm = ? AND (site_id = ? OR site_id IS NULL)", vrm, siteID).
		Find(&permits).Error
	if err != nil {
		return nil, err
	}
	return permits, nil
}

// ListActivePermitsForSite returns permits applying at a site at the given
// instant, for the customer export whitelist.
func (s *GORMStore) ListActivePermitsForSite(ctx context.Context, siteID string, at time.Time) ([]*models.Permit, error) {
	var permits []*models.Permit
	err := s.db.WithContext(ctx).
		Where("active = ? AND (site_id = ? OR site_id IS NULL)", true, siteID).
		Where("start_date <= ? AND (end_date IS NULL OR end_date > ?)", at, at).
		Order("vrm").
		Find(&permits).Error
	if err != nil {
		return nil, err
	}
	return permits, nil
}
