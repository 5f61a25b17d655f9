package models

import (
	"encoding/json"
	"time"
)

// Image is a camera capture attached to a movement.
type Image struct {
	URL  string `json:"url"`
	Type string `json:"type"` // plate, overview, context
}

// Movement is one camera detection event. Movements are immutable once
// written; identity is (site, plate, timestamp).
type Movement struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	SiteID    string    `gorm:"not null;size:16;uniqueIndex:idx_movements_identity,priority:1" json:"site_id"`
	VRM       string    `gorm:"not null;size:16;uniqueIndex:idx_movements_identity,priority:2" json:"vrm"`
	Timestamp time.Time `gorm:"not null;uniqueIndex:idx_movements_identity,priority:3" json:"timestamp"`
	CameraID  string    `gorm:"size:64" json:"camera_id,omitempty"`
	Direction Direction `gorm:"not null;size:16" json:"direction"`

	// RawPayload is the opaque camera payload as received.
	RawPayload string `gorm:"type:text" json:"-"`

	// Images is a JSON array of Image entries.
	Images string `gorm:"type:text" json:"-"`

	RequiresReview bool `gorm:"default:false;index" json:"requires_review"`
	Discarded      bool `gorm:"default:false" json:"discarded"`

	Confidence *float64  `json:"confidence,omitempty"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for Movement.
func (Movement) TableName() string {
	return "movements"
}

// GetImages returns the parsed image list.
func (m *Movement) GetImages() ([]Image, error) {
	if m.Images == "" {
		return nil, nil
	}
	var images []Image
	if err := json.Unmarshal([]byte(m.Images), &images); err != nil {
		return nil, err
	}
	return images, nil
}

// SetImages stores the image list.
func (m *Movement) SetImages(images []Image) error {
	if len(images) == 0 {
		m.Images = ""
		return nil
	}
	data, err := json.Marshal(images)
	if err != nil {
		return err
	}
	m.Images = string(data)
	return nil
}

// Processable reports whether the movement may enter session reconstruction.
// Review-gated and discarded movements are skipped entirely.
func (m *Movement) Processable() bool {
	return !m.RequiresReview && !m.Discarded
}
