package store

import (
	"context"
	"time"

	"github.com/parkwarden/parkwarden/pkg/models"
)

// ============================================
// PAYMENT OPERATIONS
// ============================================

func (s *GORMStore) GetPayment(ctx context.Context, id string) (*models.Payment, error) {
	return getByField[models.Payment](s.db, ctx, "id", id, models.ErrPaymentNotFound)
}

// GetPaymentByReference looks up a payment by its dedupe key.
func (s *GORMStore) GetPaymentByReference(ctx context.Context, externalReference, source string) (*models.Payment, error) {
	var p models.Payment
	err := s.db.WithContext(ctx).
		Where("external_reference = ? AND source = ?", externalReference, source).
		First(&p).Error
	if err != nil {
		return nil, convertNotFoundError(err, models.ErrPaymentNotFound)
	}
	return &p, nil
}

// CreatePayment persists a payment. The unique index on
// (external_reference, source) resolves dedupe races.
func (s *GORMStore) CreatePayment(ctx context.Context, p *models.Payment) (string, error) {
	return createWithID(s.db, ctx, p, func(pm *models.Payment, id string) { pm.ID = id }, p.ID, models.ErrDuplicatePayment)
}

// ListPaymentsOverlapping returns payments for (vrm, site) whose
// [start, expiry] window intersects [from, to], earliest first.
func (s *GORMStore) ListPaymentsOverlapping(ctx context.Context, vrm, siteID string, from, to time.Time) ([]*models.Payment, error) {
	var payments []*models.Payment
	err := s.db.WithContext(ctx).
		Where("vrm = ? AND site_id = ?", vrm, siteID).
		Where("start_time <= ? AND expiry_time > ?", to, from).
		Order("start_time").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

// SiteHasPayments reports whether any payment was ever recorded at a site.
// Distinguishes NO_VALID_PAYMENT from UNAUTHORISED_PARKING for AUTO sites.
func (s *GORMStore) SiteHasPayments(ctx context.Context, siteID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("site_id = ?", siteID).
		Limit(1).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListActivePaymentsForSite returns payments whose window covers the given
// instant at a site, for the customer export.
func (s *GORMStore) ListActivePaymentsForSite(ctx context.Context, siteID string, at time.Time) ([]*models.Payment, error) {
	var payments []*models.Payment
	err := s.db.WithContext(ctx).
		Where("site_id = ? AND start_time <= ? AND expiry_time > ?", siteID, at, at).
		Order("vrm").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}
