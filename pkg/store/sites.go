package store

import (
	"context"

	"github.com/parkwarden/parkwarden/pkg/models"
)

// ============================================
// SITE OPERATIONS
// ============================================

func (s *GORMStore) GetSite(ctx context.Context, id string) (*models.Site, error) {
	return getByField[models.Site](s.db, ctx, "id", id, models.ErrSiteNotFound)
}

func (s *GORMStore) ListSites(ctx context.Context) ([]*models.Site, error) {
	var sites []*models.Site
	if err := s.db.WithContext(ctx).Order("id").Find(&sites).Error; err != nil {
		return nil, err
	}
	return sites, nil
}

func (s *GORMStore) ListActiveSites(ctx context.Context) ([]*models.Site, error) {
	var sites []*models.Site
	if err := s.db.WithContext(ctx).Where("active = ?", true).Order("id").Find(&sites).Error; err != nil {
		return nil, err
	}
	return sites, nil
}

// SaveSite upserts a site by its short code. Sites are owned externally;
// this write path exists for admin tooling and bootstrap seeds.
func (s *GORMStore) SaveSite(ctx context.Context, site *models.Site) error {
	return s.db.WithContext(ctx).Save(site).Error
}
