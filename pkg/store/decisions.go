package store

import (
	"context"
	"time"

	"github.com/parkwarden/parkwarden/pkg/models"
)

// ============================================
// DECISION OPERATIONS
// ============================================

func (s *GORMStore) GetDecision(ctx context.Context, id string) (*models.Decision, error) {
	return getByField[models.Decision](s.db, ctx, "id", id, models.ErrDecisionNotFound)
}

func (s *GORMStore) GetDecisionBySession(ctx context.Context, sessionID string) (*models.Decision, error) {
	return getByField[models.Decision](s.db, ctx, "session_id", sessionID, models.ErrDecisionNotFound)
}

// CreateDecision persists a new decision. The unique index on session_id
// reports models.ErrDecisionExists to a losing concurrent writer.
func (s *GORMStore) CreateDecision(ctx context.Context, d *models.Decision) (string, error) {
	return createWithID(s.db, ctx, d, func(dc *models.Decision, id string) { dc.ID = id }, d.ID, models.ErrDecisionExists)
}

// UpdateDecisionIfMutable overwrites a decision only while its status is
// still NEW or CANDIDATE. Returns false when the guard fails: a concurrent
// operator review wins and the automatic update silently yields.
func (s *GORMStore) UpdateDecisionIfMutable(ctx context.Context, d *models.Decision) (bool, error) {
	result := s.db.WithContext(ctx).
		Model(&models.Decision{}).
		Where("session_id = ? AND status IN ?", d.SessionID,
			[]models.DecisionStatus{models.DecisionNew, models.DecisionCandidate}).
		Updates(map[string]any{
			"outcome":      d.Outcome,
			"rule_applied": d.RuleApplied,
			"rationale":    d.Rationale,
			"status":       d.Status,
			"params":       d.Params,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// SetDecisionStatus transitions a decision's workflow status. Used by the
// operator review path; automatic writers go through UpdateDecisionIfMutable.
func (s *GORMStore) SetDecisionStatus(ctx context.Context, id string, status models.DecisionStatus) error {
	result := s.db.WithContext(ctx).
		Model(&models.Decision{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrDecisionNotFound
	}
	return nil
}

// ListUnreviewedCandidates returns enforcement candidates still open to
// automatic re-evaluation, oldest first, whose session has a real exit.
func (s *GORMStore) ListUnreviewedCandidates(ctx context.Context, limit int) ([]*models.Decision, error) {
	var decisions []*models.Decision
	err := s.db.WithContext(ctx).
		Where("outcome = ? AND status IN ?", models.OutcomeEnforcementCandidate,
			[]models.DecisionStatus{models.DecisionNew, models.DecisionCandidate}).
		Where("session_id IN (?)", s.db.Model(&models.Session{}).
			Select("id").
			Where("status = ?", models.SessionCompleted)).
		Order("created_at").
		Limit(limit).
		Find(&decisions).Error
	if err != nil {
		return nil, err
	}
	return decisions, nil
}

// DecisionFilter narrows ListDecisions.
type DecisionFilter struct {
	SiteID  string
	Outcome models.DecisionOutcome
	Status  models.DecisionStatus
	Limit   int
}

// ListDecisions returns decisions matching the filter, newest first.
func (s *GORMStore) ListDecisions(ctx context.Context, filter DecisionFilter) ([]*models.Decision, error) {
	q := s.db.WithContext(ctx).Model(&models.Decision{})
	if filter.Outcome != "" {
		q = q.Where("outcome = ?", filter.Outcome)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.SiteID != "" {
		q = q.Where("session_id IN (?)", s.db.Model(&models.Session{}).
			Select("id").
			Where("site_id = ?", filter.SiteID))
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	var decisions []*models.Decision
	if err := q.Order("created_at DESC").Limit(limit).Find(&decisions).Error; err != nil {
		return nil, err
	}
	return decisions, nil
}

// FlipCandidatesForSuspension retroactively resolves unreviewed enforcement
// candidates whose session started inside the suspension range at the site.
// One bulk statement; returns the number of flipped decisions.
func (s *GORMStore) FlipCandidatesForSuspension(ctx context.Context, siteID string, from time.Time, to *time.Time) (int64, error) {
	sessionQuery := s.db.Model(&models.Session{}).
		Select("id").
		Where("site_id = ? AND start_time >= ?", siteID, from)
	if to != nil {
		sessionQuery = sessionQuery.Where("start_time <= ?", *to)
	}

	result := s.db.WithContext(ctx).
		Model(&models.Decision{}).
		Where("outcome = ? AND status = ?", models.OutcomeEnforcementCandidate, models.DecisionNew).
		Where("session_id IN (?)", sessionQuery).
		Updates(map[string]any{
			"outcome":      models.OutcomeCompliant,
			"rule_applied": models.RuleEnforcementDisabledRetroactive,
			"status":       models.DecisionAutoResolved,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
