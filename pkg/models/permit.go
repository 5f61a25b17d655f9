package models

import "time"

// Permit authorises a vehicle to park. A permit with a nil SiteID is global
// and applies at every site; site applicability is resolved at match time
// rather than by comparing possibly-nil fields.
type Permit struct {
	ID     string     `gorm:"primaryKey;size:36" json:"id"`
	VRM    string     `gorm:"not null;size:16;index" json:"vrm"`
	SiteID *string    `gorm:"size:16;index" json:"site_id,omitempty"`
	Type   PermitType `gorm:"not null;size:16" json:"type"`
	// Active carries no column default: a zero value next to a default tag
	// would be dropped from the insert, and an explicitly inactive permit
	// must survive creation.
	Active bool `gorm:"not null" json:"active"`

	StartDate time.Time  `gorm:"not null" json:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty"` // nil = indefinite

	Source string `gorm:"size:64" json:"source,omitempty"`

	// BoardItemID links the permit to its external workflow-board item.
	// When present it is the upsert identity.
	BoardItemID *string `gorm:"size:64;uniqueIndex" json:"board_item_id,omitempty"`

	Metadata  string    `gorm:"type:text" json:"-"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for Permit.
func (Permit) TableName() string {
	return "permits"
}

// Global reports whether the permit applies at every site.
func (p *Permit) Global() bool {
	return p.SiteID == nil
}

// AppliesAt reports whether the permit authorises parking at the given site
// and instant: active, started, not yet ended, and scoped to the site or
// global.
func (p *Permit) AppliesAt(t time.Time, siteID string) bool {
	if !p.Active {
		return false
	}
	if p.StartDate.After(t) {
		return false
	}
	if p.EndDate != nil && !p.EndDate.After(t) {
		return false
	}
	return p.SiteID == nil || *p.SiteID == siteID
}
