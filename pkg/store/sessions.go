package store

import (
	"context"
	"time"

	"github.com/parkwarden/parkwarden/pkg/models"
)

// ============================================
// SESSION OPERATIONS
// ============================================

func (s *GORMStore) GetSession(ctx context.Context, id string) (*models.Session, error) {
	return getByField[models.Session](s.db, ctx, "id", id, models.ErrSessionNotFound)
}

// GetOpenSession returns the open session for (site, plate), if any.
func (s *GORMStore) GetOpenSession(ctx context.Context, siteID, vrm string) (*models.Session, error) {
	var session models.Session
	err := s.db.WithContext(ctx).
		Where("site_id = ? AND vrm = ? AND end_time IS NULL", siteID, vrm).
		First(&session).Error
	if err != nil {
		return nil, convertNotFoundError(err, models.ErrSessionNotFound)
	}
	return &session, nil
}

// CreateSession opens a new session. The partial unique index on open
// sessions resolves concurrent entries: the loser receives
// models.ErrOpenSessionExists and records a duplicate-entry skip.
func (s *GORMStore) CreateSession(ctx context.Context, session *models.Session) (string, error) {
	return createWithID(s.db, ctx, session, func(se *models.Session, id string) { se.ID = id }, session.ID, models.ErrOpenSessionExists)
}

// CloseSession completes an open session. The WHERE end_time IS NULL guard
// makes concurrent closes idempotent: only one writer wins.
func (s *GORMStore) CloseSession(ctx context.Context, id string, exitMovementID string, endTime time.Time, durationMinutes int64, status models.SessionStatus) error {
	result := s.db.WithContext(ctx).
		Model(&models.Session{}).
		Where("id = ? AND end_time IS NULL", id).
		Updates(map[string]any{
			"end_time":         endTime,
			"duration_minutes": durationMinutes,
			"exit_movement_id": exitMovementID,
			"status":           status,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrSessionNotFound
	}
	return nil
}

// ExpireSession auto-closes a stale open session without an exit movement.
func (s *GORMStore) ExpireSession(ctx context.Context, id string, endTime time.Time, durationMinutes int64) error {
	result := s.db.WithContext(ctx).
		Model(&models.Session{}).
		Where("id = ? AND end_time IS NULL", id).
		Updates(map[string]any{
			"end_time":         endTime,
			"duration_minutes": durationMinutes,
			"status":           models.SessionExpired,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrSessionNotFound
	}
	return nil
}

// ListStaleOpenSessions returns open sessions that started before the given
// cutoff, oldest first, capped at limit.
func (s *GORMStore) ListStaleOpenSessions(ctx context.Context, cutoff time.Time, limit int) ([]*models.Session, error) {
	var sessions []*models.Session
	err := s.db.WithContext(ctx).
		Where("end_time IS NULL AND start_time < ?", cutoff).
		Order("start_time").
		Limit(limit).
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

// FindCompletedSessionsOverlapping returns completed sessions for
// (vrm, site) whose [start, end] interval overlaps [from, to].
func (s *GORMStore) FindCompletedSessionsOverlapping(ctx context.Context, vrm, siteID string, from, to time.Time) ([]*models.Session, error) {
	var sessions []*models.Session
	err := s.db.WithContext(ctx).
		Where("vrm = ? AND site_id = ? AND status = ?", vrm, siteID, models.SessionCompleted).
		Where("start_time <= ? AND end_time >= ?", to, from).
		Order("start_time").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

// FindCompletedSessionsForVRM returns completed sessions for a plate,
// optionally scoped to one site. A nil siteID means all sites (global
// permit reconciliation).
func (s *GORMStore) FindCompletedSessionsForVRM(ctx context.Context, vrm string, siteID *string) ([]*models.Session, error) {
	q := s.db.WithContext(ctx).
		Where("vrm = ? AND status = ?", vrm, models.SessionCompleted)
	if siteID != nil {
		q = q.Where("site_id = ?", *siteID)
	}

	var sessions []*models.Session
	if err := q.Order("start_time").Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

// ListCompletedSessionsForSite returns completed sessions at a site, newest
// first, capped at limit. Used by the bulk admin reconciliation.
func (s *GORMStore) ListCompletedSessionsForSite(ctx context.Context, siteID string, limit int) ([]*models.Session, error) {
	var sessions []*models.Session
	err := s.db.WithContext(ctx).
		Where("site_id = ? AND status = ?", siteID, models.SessionCompleted).
		Order("start_time DESC").
		Limit(limit).
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}
