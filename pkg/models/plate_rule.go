package models

import "time"

// PlateRule is one regex classification rule for plate validation. Rules are
// evaluated in Priority order; the first match wins. When no active rules
// exist the validator falls back to built-in UK patterns.
type PlateRule struct {
	ID       string           `gorm:"primaryKey;size:36" json:"id"`
	Name     string           `gorm:"not null;size:64" json:"name"`
	Pattern  string           `gorm:"not null;size:255" json:"pattern"`
	Status   ValidationStatus `gorm:"not null;size:32" json:"status"`
	Priority int              `gorm:"not null;default:0;index" json:"priority"`
	Active   bool             `gorm:"default:true" json:"active"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for PlateRule.
func (PlateRule) TableName() string {
	return "plate_rules"
}
