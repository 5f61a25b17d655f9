package store

import (
	"context"
	"time"

	"github.com/parkwarden/parkwarden/pkg/models"
)

// ============================================
// JOB LOCK OPERATIONS
// ============================================

// AcquireJobLock takes the named singleton lock. A held lock surfaces as
// models.ErrJobLockHeld; the caller skips its run.
func (s *GORMStore) AcquireJobLock(ctx context.Context, name, holder string, at time.Time) error {
	lock := models.JobLock{Name: name, HolderNode: holder, AcquiredAt: at}
	if err := s.db.WithContext(ctx).Create(&lock).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.ErrJobLockHeld
		}
		return err
	}
	return nil
}

// ReleaseJobLock drops the named lock if held by this holder.
func (s *GORMStore) ReleaseJobLock(ctx context.Context, name, holder string) error {
	return s.db.WithContext(ctx).
		Where("name = ? AND holder_node = ?", name, holder).
		Delete(&models.JobLock{}).Error
}

// ClearJobLocksForHolder drops every lock owned by a node. Run at process
// start so a crashed worker's stale flags clear.
func (s *GORMStore) ClearJobLocksForHolder(ctx context.Context, holder string) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("holder_node = ?", holder).
		Delete(&models.JobLock{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
