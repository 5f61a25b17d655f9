package models

import "time"

// JobLock is a store-backed singleton guard for scheduled jobs. A second
// tick observing a held lock skips its run. Locks held by a node are cleared
// when that node's process starts, so a crashed worker cannot wedge a job.
type JobLock struct {
	Name       string    `gorm:"primaryKey;size:64" json:"name"`
	HolderNode string    `gorm:"not null;size:128" json:"holder_node"`
	AcquiredAt time.Time `gorm:"not null" json:"acquired_at"`
}

// TableName returns the table name for JobLock.
func (JobLock) TableName() string {
	return "job_locks"
}
