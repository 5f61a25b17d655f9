// Package session reconstructs parking sessions from entry and exit
// movements. One open session may exist per (site, plate); the store's
// partial unique index enforces this and concurrent entry races resolve to
// exactly one session.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/parkwarden/parkwarden/internal/logger"
	"github.com/parkwarden/parkwarden/pkg/audit"
	"github.com/parkwarden/parkwarden/pkg/metrics"
	"github.com/parkwarden/parkwarden/pkg/models"
	"github.com/parkwarden/parkwarden/pkg/rules"
	"github.com/parkwarden/parkwarden/pkg/store"
)

// DefaultStaleThreshold is how long a session may stay open before the
// expiry job closes it.
const DefaultStaleThreshold = 24 * time.Hour

// ExpiryBatchLimit caps how many sessions one expiry pass closes.
const ExpiryBatchLimit = 1000

// Reconstructor drives the per-(site, plate) session state machine.
type Reconstructor struct {
	store   store.Store
	engine  *rules.Engine
	audit   *audit.Sink
	metrics *metrics.CoreMetrics
	now     func() time.Time
}

// NewReconstructor creates a session reconstructor.
func NewReconstructor(st store.Store, engine *rules.Engine, sink *audit.Sink) *Reconstructor {
	return &Reconstructor{store: st, engine: engine, audit: sink, now: time.Now}
}

// SetMetrics attaches session lifecycle metrics. A nil argument leaves
// instrumentation as a no-op.
func (r *Reconstructor) SetMetrics(m *metrics.CoreMetrics) {
	r.metrics = m
}

// ProcessMovement applies one movement to the state machine. Discarded
// movements are refused with ErrMovementDiscarded and review-gated ones with
// ErrReviewGateActive; an exit predating the open session returns
// ErrExitBeforeEntry and leaves the session open. Returns the affected
// session, nil when the movement produced no session change (orphan exit,
// duplicate entry, unknown direction).
func (r *Reconstructor) ProcessMovement(ctx context.Context, m *models.Movement) (*models.Session, error) {
	if m.Discarded {
		return nil, fmt.Errorf("movement %s: %w", m.ID, models.ErrMovementDiscarded)
	}
	if m.RequiresReview {
		return nil, fmt.Errorf("movement %s: %w", m.ID, models.ErrReviewGateActive)
	}

	switch m.Direction {
	case models.DirectionEntry:
		return r.handleEntry(ctx, m)
	case models.DirectionExit:
		return r.handleExit(ctx, m)
	default:
		logger.DebugCtx(ctx, "movement with unknown direction ignored",
			logger.KeyMovementID, m.ID,
			logger.KeySiteID, m.SiteID,
			logger.KeyVRM, m.VRM)
		return nil, nil
	}
}

func (r *Reconstructor) handleEntry(ctx context.Context, m *models.Movement) (*models.Session, error) {
	open, err := r.store.GetOpenSession(ctx, m.SiteID, m.VRM)
	if err != nil && !errors.Is(err, models.ErrSessionNotFound) {
		return nil, err
	}
	if open != nil {
		// Duplicate-entry suppression: the session stays as it is.
		r.recordDuplicateEntry(ctx, m, open)
		return nil, nil
	}

	session := &models.Session{
		SiteID:          m.SiteID,
		VRM:             m.VRM,
		StartTime:       m.Timestamp,
		EntryMovementID: m.ID,
		Status:          models.SessionProvisional,
	}
	if _, err := r.store.CreateSession(ctx, session); err != nil {
		if errors.Is(err, models.ErrOpenSessionExists) {
			// Lost a concurrent entry race; the winner's session stands.
			r.recordDuplicateEntry(ctx, m, nil)
			return nil, nil
		}
		return nil, fmt.Errorf("create session: %w", err)
	}

	r.metrics.RecordSession("created")
	r.audit.System(ctx, models.AuditSessionCreated, audit.EntitySession, session.ID, map[string]any{
		"site_id":           m.SiteID,
		"vrm":               m.VRM,
		"entry_movement_id": m.ID,
		"start_time":        m.Timestamp,
	})
	logger.InfoCtx(ctx, "session opened",
		logger.KeySessionID, session.ID,
		logger.KeySiteID, m.SiteID,
		logger.KeyVRM, m.VRM)
	return session, nil
}

func (r *Reconstructor) handleExit(ctx context.Context, m *models.Movement) (*models.Session, error) {
	open, err := r.store.GetOpenSession(ctx, m.SiteID, m.VRM)
	if err != nil {
		if errors.Is(err, models.ErrSessionNotFound) {
			// Orphan exit: recorded, no session created.
			logger.WarnCtx(ctx, "orphan exit with no open session",
				logger.KeyMovementID, m.ID,
				logger.KeySiteID, m.SiteID,
				logger.KeyVRM, m.VRM)
			return nil, nil
		}
		return nil, err
	}

	if m.Timestamp.Before(open.StartTime) {
		// Out-of-order exit; the open session stays open.
		logger.WarnCtx(ctx, "exit predates open session, refusing to close",
			logger.KeyMovementID, m.ID,
			logger.KeySessionID, open.ID,
			logger.KeySiteID, m.SiteID,
			logger.KeyVRM, m.VRM)
		return nil, models.ErrExitBeforeEntry
	}

	duration := models.DurationMinutesAt(open.StartTime, m.Timestamp)
	if err := r.store.CloseSession(ctx, open.ID, m.ID, m.Timestamp, duration, models.SessionCompleted); err != nil {
		return nil, fmt.Errorf("close session %s: %w", open.ID, err)
	}

	closed, err := r.store.GetSession(ctx, open.ID)
	if err != nil {
		return nil, err
	}

	r.metrics.RecordSession("completed")
	r.audit.System(ctx, models.AuditSessionCompleted, audit.EntitySession, closed.ID, map[string]any{
		"site_id":          m.SiteID,
		"vrm":              m.VRM,
		"exit_movement_id": m.ID,
		"duration_minutes": duration,
	})
	logger.InfoCtx(ctx, "session completed",
		logger.KeySessionID, closed.ID,
		logger.KeySiteID, m.SiteID,
		logger.KeyVRM, m.VRM,
		"duration_minutes", duration)

	if _, _, err := r.engine.Apply(ctx, closed, rules.KindInitial); err != nil {
		// The session is closed either way; evaluation can be replayed.
		logger.ErrorCtx(ctx, "rule evaluation failed for completed session",
			logger.KeySessionID, closed.ID,
			logger.KeyError, err)
	}
	return closed, nil
}

func (r *Reconstructor) recordDuplicateEntry(ctx context.Context, m *models.Movement, open *models.Session) {
	details := map[string]any{
		"site_id":     m.SiteID,
		"vrm":         m.VRM,
		"movement_id": m.ID,
	}
	entityID := m.ID
	if open != nil {
		details["open_session_id"] = open.ID
		entityID = open.ID
	}
	r.audit.System(ctx, models.AuditDuplicateEntrySkipped, audit.EntitySession, entityID, details)
	logger.InfoCtx(ctx, "duplicate entry skipped",
		logger.KeyMovementID, m.ID,
		logger.KeySiteID, m.SiteID,
		logger.KeyVRM, m.VRM)
}

// ExpireStale closes sessions open longer than threshold, up to
// ExpiryBatchLimit per pass. Expired sessions never reach the rule engine.
// parentAuditID links the per-session audit records to the job summary.
func (r *Reconstructor) ExpireStale(ctx context.Context, threshold time.Duration, parentAuditID string) (int, error) {
	now := r.now().UTC()
	cutoff := now.Add(-threshold)

	stale, err := r.store.ListStaleOpenSessions(ctx, cutoff, ExpiryBatchLimit)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, s := range stale {
		if err := ctx.Err(); err != nil {
			return expired, err
		}
		duration := models.DurationMinutesAt(s.StartTime, now)
		if err := r.store.ExpireSession(ctx, s.ID, now, duration); err != nil {
			logger.ErrorCtx(ctx, "session expiry failed",
				logger.KeySessionID, s.ID,
				logger.KeyError, err)
			continue
		}
		expired++
		r.metrics.RecordSession("expired")
		r.audit.Job(ctx, models.AuditSessionExpired, audit.EntitySession, s.ID,
			"session-expiry", parentAuditID, map[string]any{
				"site_id":          s.SiteID,
				"vrm":              s.VRM,
				"open_since":       s.StartTime,
				"duration_minutes": duration,
			})
	}
	return expired, nil
}
