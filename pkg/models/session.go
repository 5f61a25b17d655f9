package models

import "time"

// Session is an entry/exit pair for one vehicle at one site.
//
// At most one open session (EndTime IS NULL) may exist per (site, plate);
// the store enforces this with a partial unique index and the loser of a
// concurrent create treats the violation as a duplicate-entry skip.
type Session struct {
	ID              string        `gorm:"primaryKey;size:36" json:"id"`
	SiteID          string        `gorm:"not null;size:16;index:idx_sessions_site_vrm" json:"site_id"`
	VRM             string        `gorm:"not null;size:16;index:idx_sessions_site_vrm" json:"vrm"`
	StartTime       time.Time     `gorm:"not null;index" json:"start_time"`
	EndTime         *time.Time    `json:"end_time,omitempty"`
	DurationMinutes *int64        `json:"duration_minutes,omitempty"`
	EntryMovementID string        `gorm:"not null;size:36" json:"entry_movement_id"`
	ExitMovementID  *string       `gorm:"size:36" json:"exit_movement_id,omitempty"`
	Status          SessionStatus `gorm:"not null;size:16;index" json:"status"`
	CreatedAt       time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for Session.
func (Session) TableName() string {
	return "sessions"
}

// Open reports whether the session is still awaiting an exit.
func (s *Session) Open() bool {
	return s.EndTime == nil
}

// Duration returns the session duration, using now for open sessions.
func (s *Session) Duration(now time.Time) time.Duration {
	if s.EndTime != nil {
		return s.EndTime.Sub(s.StartTime)
	}
	return now.Sub(s.StartTime)
}

// DurationMinutesAt computes the whole-minute duration at the given end.
func DurationMinutesAt(start, end time.Time) int64 {
	return int64(end.Sub(start) / time.Minute)
}
