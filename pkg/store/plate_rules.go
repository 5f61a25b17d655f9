package store

import (
	"context"

	"github.com/parkwarden/parkwarden/pkg/models"
)

// ============================================
// PLATE RULE OPERATIONS
// ============================================

// ListActivePlateRules returns the active plate classification rules in
// priority order. An empty result makes the validator fall back to the
// built-in UK patterns.
func (s *GORMStore) ListActivePlateRules(ctx context.Context) ([]*models.PlateRule, error) {
	var rules []*models.PlateRule
	err := s.db.WithContext(ctx).
		Where("active = ?", true).
		Order("priority").
		Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

// SavePlateRule upserts a plate classification rule (admin tooling).
func (s *GORMStore) SavePlateRule(ctx context.Context, rule *models.PlateRule) (string, error) {
	if rule.ID == "" {
		return createWithID(s.db, ctx, rule, func(r *models.PlateRule, id string) { r.ID = id }, "", models.ErrInvariantViolation)
	}
	if err := s.db.WithContext(ctx).Save(rule).Error; err != nil {
		return "", err
	}
	return rule.ID, nil
}
