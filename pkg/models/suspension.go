package models

import "time"

// EnforcementSuspension disables enforcement at a site for a bounded period.
// Creating one retroactively flips matching unreviewed candidate decisions.
type EnforcementSuspension struct {
	ID       string `gorm:"primaryKey;size:36" json:"id"`
	SiteID   string `gorm:"not null;size:16;index" json:"site_id"`
	RuleType string `gorm:"size:64" json:"rule_type,omitempty"`

	StartDate time.Time  `gorm:"not null" json:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty"` // nil = open-ended

	Reason    string `gorm:"not null;size:512" json:"reason"`
	CreatedBy string `gorm:"not null;size:64" json:"created_by"`
	Active    bool   `gorm:"default:true;index" json:"active"`

	EndedBy     *string `gorm:"size:64" json:"ended_by,omitempty"`
	EndedReason *string `gorm:"size:512" json:"ended_reason,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for EnforcementSuspension.
func (EnforcementSuspension) TableName() string {
	return "enforcement_suspensions"
}

// AppliesAt reports whether the suspension is in force at the given instant.
func (s *EnforcementSuspension) AppliesAt(t time.Time) bool {
	if !s.Active {
		return false
	}
	if s.StartDate.After(t) {
		return false
	}
	return s.EndDate == nil || !s.EndDate.Before(t)
}
