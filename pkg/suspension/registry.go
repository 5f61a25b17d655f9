// Package suspension manages enforcement suspensions: bounded periods where
// a site produces no enforcement candidates. Creating a suspension also
// retroactively resolves unreviewed candidates that fall inside its range.
package suspension

import (
	"context"
	"strings"
	"time"

	"github.com/parkwarden/parkwarden/internal/logger"
	"github.com/parkwarden/parkwarden/pkg/audit"
	"github.com/parkwarden/parkwarden/pkg/models"
	"github.com/parkwarden/parkwarden/pkg/store"
)

// minReasonLength guards against empty or throwaway justifications; every
// suspension must say why enforcement stopped.
const minReasonLength = 10

// Registry creates, ends and queries enforcement suspensions.
type Registry struct {
	store store.Store
	audit *audit.Sink
}

// NewRegistry creates a suspension registry on the given store.
func NewRegistry(st store.Store, sink *audit.Sink) *Registry {
	return &Registry{store: st, audit: sink}
}

// CreateInput describes a new suspension.
type CreateInput struct {
	SiteID    string
	RuleType  string
	StartDate time.Time
	EndDate   *time.Time
	Reason    string
	CreatedBy string
}

// CreateResult reports the persisted suspension and how many existing
// candidate decisions it retroactively resolved.
type CreateResult struct {
	Suspension        *models.EnforcementSuspension
	DecisionsResolved int64
}

// Create validates and persists a suspension, then retroactively flips all
// unreviewed enforcement candidates whose session started inside the range.
// The flip is one bulk statement with one summary audit record.
func (r *Registry) Create(ctx context.Context, input CreateInput) (*CreateResult, error) {
	if len(strings.TrimSpace(input.Reason)) < minReasonLength {
		return nil, models.ErrReasonTooShort
	}
	if input.EndDate != nil && !input.EndDate.After(input.StartDate) {
		return nil, models.ErrDateRangeInverted
	}
	if _, err := r.store.GetSite(ctx, input.SiteID); err != nil {
		return nil, err
	}

	susp := &models.EnforcementSuspension{
		SiteID:    input.SiteID,
		RuleType:  input.RuleType,
		StartDate: input.StartDate,
		EndDate:   input.EndDate,
		Reason:    input.Reason,
		CreatedBy: input.CreatedBy,
		Active:    true,
	}
	if _, err := r.store.CreateSuspension(ctx, susp); err != nil {
		return nil, err
	}

	auditID := r.audit.Operator(ctx, models.AuditRuleCreated, audit.EntitySuspension, susp.ID,
		input.CreatedBy, map[string]any{
			"site_id":    input.SiteID,
			"start_date": input.StartDate,
			"end_date":   input.EndDate,
			"reason":     input.Reason,
		})

	flipped, err := r.store.FlipCandidatesForSuspension(ctx, input.SiteID, input.StartDate, input.EndDate)
	if err != nil {
		// The suspension itself persisted; the retroactive sweep can be
		// replayed by the scheduled re-evaluator.
		logger.ErrorCtx(ctx, "retroactive decision flip failed",
			logger.KeySiteID, input.SiteID,
			logger.KeyError, err)
		return &CreateResult{Suspension: susp}, nil
	}
	if flipped > 0 {
		r.audit.Record(ctx, audit.Event{
			Action:     models.AuditRetroactiveUpdateApplied,
			EntityType: audit.EntitySuspension,
			EntityID:   susp.ID,
			Actor:      input.CreatedBy,
			ActorType:  models.ActorTypeOperator,
			SiteID:     input.SiteID,
			ParentID:   auditID,
			Details:    map[string]any{"decisions_resolved": flipped},
		})
	}

	logger.InfoCtx(ctx, "enforcement suspension created",
		logger.KeySiteID, input.SiteID,
		"suspension_id", susp.ID,
		"decisions_resolved", flipped)
	return &CreateResult{Suspension: susp, DecisionsResolved: flipped}, nil
}

// End closes an active suspension. Decisions already flipped by the
// suspension stay resolved.
func (r *Registry) End(ctx context.Context, id, endedBy, reason string) (*models.EnforcementSuspension, error) {
	if err := r.store.EndSuspension(ctx, id, endedBy, reason, time.Now().UTC()); err != nil {
		return nil, err
	}
	susp, err := r.store.GetSuspension(ctx, id)
	if err != nil {
		return nil, err
	}

	r.audit.Operator(ctx, models.AuditRuleEnded, audit.EntitySuspension, id, endedBy,
		map[string]any{"reason": reason})
	logger.InfoCtx(ctx, "enforcement suspension ended",
		logger.KeySiteID, susp.SiteID,
		"suspension_id", id)
	return susp, nil
}

// IsDisabled reports whether enforcement is suspended at the site and instant.
func (r *Registry) IsDisabled(ctx context.Context, siteID string, at time.Time) (bool, error) {
	susp, err := r.store.ActiveSuspensionAt(ctx, siteID, at)
	if err != nil {
		return false, err
	}
	return susp != nil, nil
}

// List returns suspensions, optionally scoped to one site.
func (r *Registry) List(ctx context.Context, siteID string) ([]*models.EnforcementSuspension, error) {
	return r.store.ListSuspensions(ctx, siteID)
}
