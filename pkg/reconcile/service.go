// Package reconcile re-evaluates past decisions when late payments or
// permits arrive. Re-evaluation only ever touches decisions still in NEW or
// CANDIDATE; reviewed decisions are frozen.
package reconcile

import (
	"context"
	"time"

	"github.com/parkwarden/parkwarden/internal/logger"
	"github.com/parkwarden/parkwarden/pkg/audit"
	"github.com/parkwarden/parkwarden/pkg/models"
	"github.com/parkwarden/parkwarden/pkg/rules"
	"github.com/parkwarden/parkwarden/pkg/store"
)

// Result summarizes one reconciliation run.
type Result struct {
	SessionsReevaluated int `json:"sessions_reevaluated"`
	DecisionsUpdated    int `json:"decisions_updated"`
}

// Service applies reconciliation triggers against completed sessions.
type Service struct {
	store  store.Store
	engine *rules.Engine
	audit  *audit.Sink
}

// NewService creates a reconciliation service.
func NewService(st store.Store, engine *rules.Engine, sink *audit.Sink) *Service {
	return &Service{store: st, engine: engine, audit: sink}
}

// OnPayment re-evaluates completed sessions for (vrm, site) whose interval
// overlaps the payment window.
func (s *Service) OnPayment(ctx context.Context, vrm, siteID string, start, expiry time.Time, paymentID string) (Result, error) {
	sessions, err := s.store.FindCompletedSessionsOverlapping(ctx, vrm, siteID, start, expiry)
	if err != nil {
		return Result{}, err
	}

	result := s.reevaluate(ctx, sessions)
	s.audit.System(ctx, models.AuditReconciliationTriggered, audit.EntityPayment, paymentID, map[string]any{
		"vrm":                  vrm,
		"site_id":              siteID,
		"sessions_reevaluated": result.SessionsReevaluated,
		"decisions_updated":    result.DecisionsUpdated,
	})
	logger.InfoCtx(ctx, "payment reconciliation finished",
		logger.KeyVRM, vrm,
		logger.KeySiteID, siteID,
		logger.KeyPaymentID, paymentID,
		logger.KeyProcessed, result.SessionsReevaluated,
		logger.KeyUpdated, result.DecisionsUpdated)
	return result, nil
}

// OnPermit re-evaluates completed sessions for a VRM at the permit's site,
// or at every site for a global permit. A deactivated permit is a no-op: a
// removed permit never changes a past compliant decision.
func (s *Service) OnPermit(ctx context.Context, vrm string, siteID *string, active bool, permitID string) (Result, error) {
	if !active {
		logger.DebugCtx(ctx, "inactive permit, no reconciliation",
			logger.KeyVRM, vrm,
			logger.KeyPermitID, permitID)
		return Result{}, nil
	}

	sessions, err := s.store.FindCompletedSessionsForVRM(ctx, vrm, siteID)
	if err != nil {
		return Result{}, err
	}

	result := s.reevaluate(ctx, sessions)
	s.audit.System(ctx, models.AuditReconciliationTriggered, audit.EntityPermit, permitID, map[string]any{
		"vrm":                  vrm,
		"sessions_reevaluated": result.SessionsReevaluated,
		"decisions_updated":    result.DecisionsUpdated,
	})
	logger.InfoCtx(ctx, "permit reconciliation finished",
		logger.KeyVRM, vrm,
		logger.KeyPermitID, permitID,
		logger.KeyProcessed, result.SessionsReevaluated,
		logger.KeyUpdated, result.DecisionsUpdated)
	return result, nil
}

// OnSite re-evaluates up to limit completed sessions at a site. Bulk form
// used by admin tooling after configuration changes.
func (s *Service) OnSite(ctx context.Context, siteID string, limit int) (Result, error) {
	sessions, err := s.store.ListCompletedSessionsForSite(ctx, siteID, limit)
	if err != nil {
		return Result{}, err
	}

	result := s.reevaluate(ctx, sessions)
	logger.InfoCtx(ctx, "site reconciliation finished",
		logger.KeySiteID, siteID,
		logger.KeyProcessed, result.SessionsReevaluated,
		logger.KeyUpdated, result.DecisionsUpdated)
	return result, nil
}

func (s *Service) reevaluate(ctx context.Context, sessions []*models.Session) Result {
	var result Result
	for _, session := range sessions {
		if ctx.Err() != nil {
			return result
		}
		result.SessionsReevaluated++
		_, changed, err := s.engine.Apply(ctx, session, rules.KindReconciled)
		if err != nil {
			logger.ErrorCtx(ctx, "reconciliation evaluation failed",
				logger.KeySessionID, session.ID,
				logger.KeyError, err)
			continue
		}
		if changed {
			result.DecisionsUpdated++
		}
	}
	return result
}
