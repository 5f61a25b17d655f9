package models

import "time"

// Payment is a paid parking tariff window for a vehicle at a site.
// Payments are never edited; duplicates are suppressed on
// (external_reference, source).
type Payment struct {
	ID     string  `gorm:"primaryKey;size:36" json:"id"`
	VRM    string  `gorm:"not null;size:16;index:idx_payments_site_vrm,priority:2" json:"vrm"`
	SiteID string  `gorm:"not null;size:16;index:idx_payments_site_vrm,priority:1" json:"site_id"`
	Amount float64 `gorm:"not null" json:"amount"`

	StartTime  time.Time `gorm:"not null" json:"start_time"`
	ExpiryTime time.Time `gorm:"not null" json:"expiry_time"`

	Source            string `gorm:"not null;size:64;uniqueIndex:idx_payments_dedupe,priority:2" json:"source"`
	ExternalReference string `gorm:"not null;size:128;uniqueIndex:idx_payments_dedupe,priority:1" json:"external_reference"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for Payment.
func (Payment) TableName() string {
	return "payments"
}

// Covers reports whether the payment alone spans the mandatory window.
func (p *Payment) Covers(mandatoryStart, mandatoryEnd time.Time) bool {
	return !p.StartTime.After(mandatoryStart) && !p.ExpiryTime.Before(mandatoryEnd)
}
