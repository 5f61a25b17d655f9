package models

import (
	"encoding/json"
	"time"
)

// PlateReview queues a suspicious movement for a human operator. One review
// exists per suspicious movement.
type PlateReview struct {
	ID         string `gorm:"primaryKey;size:36" json:"id"`
	MovementID string `gorm:"not null;size:36;uniqueIndex" json:"movement_id"`

	OriginalVRM   string    `gorm:"not null;size:32" json:"original_vrm"`
	NormalizedVRM string    `gorm:"not null;size:16" json:"normalized_vrm"`
	SiteID        string    `gorm:"not null;size:16;index" json:"site_id"`
	Timestamp     time.Time `gorm:"not null" json:"timestamp"`

	// SuspicionReasons is a JSON array of suspicion tags.
	SuspicionReasons string `gorm:"type:text" json:"-"`

	ValidationStatus ValidationStatus `gorm:"size:32" json:"validation_status"`
	ReviewStatus     ReviewStatus     `gorm:"not null;size:16;index" json:"review_status"`

	CorrectedVRM *string `gorm:"size:16" json:"corrected_vrm,omitempty"`
	Images       string  `gorm:"type:text" json:"-"`

	ReviewedBy    *string    `gorm:"size:64" json:"reviewed_by,omitempty"`
	ReviewedAt    *time.Time `json:"reviewed_at,omitempty"`
	DiscardReason *string    `gorm:"size:255" json:"discard_reason,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for PlateReview.
func (PlateReview) TableName() string {
	return "plate_reviews"
}

// GetSuspicionReasons returns the parsed suspicion tag list.
func (r *PlateReview) GetSuspicionReasons() ([]string, error) {
	if r.SuspicionReasons == "" {
		return nil, nil
	}
	var reasons []string
	if err := json.Unmarshal([]byte(r.SuspicionReasons), &reasons); err != nil {
		return nil, err
	}
	return reasons, nil
}

// SetSuspicionReasons stores the suspicion tag list.
func (r *PlateReview) SetSuspicionReasons(reasons []string) error {
	if len(reasons) == 0 {
		r.SuspicionReasons = ""
		return nil
	}
	data, err := json.Marshal(reasons)
	if err != nil {
		return err
	}
	r.SuspicionReasons = string(data)
	return nil
}
