// Package rules evaluates completed sessions against the compliance cascade
// and writes the resulting decisions.
//
// Evaluation is a fixed ordered cascade; the first matching clause wins.
// Writes respect the decision freeze: once an operator has reviewed a
// decision its outcome never changes automatically.
package rules

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/parkwarden/parkwarden/internal/logger"
	"github.com/parkwarden/parkwarden/pkg/audit"
	"github.com/parkwarden/parkwarden/pkg/metrics"
	"github.com/parkwarden/parkwarden/pkg/models"
	"github.com/parkwarden/parkwarden/pkg/store"
)

// Kind distinguishes why an evaluation ran; it selects the rationale suffix
// and the audit action on re-evaluations.
type Kind string

const (
	// KindInitial is the first evaluation after a session completes.
	KindInitial Kind = "INITIAL"

	// KindReconciled is a re-evaluation triggered by a late payment or permit.
	KindReconciled Kind = "RECONCILED"

	// KindAutoReevaluated is a re-evaluation by the scheduled sweep.
	KindAutoReevaluated Kind = "AUTO_REEVALUATED"
)

// Verdict is the outcome of one cascade evaluation, before persistence.
type Verdict struct {
	Outcome   models.DecisionOutcome
	Rule      models.RuleTag
	Rationale string
	Params    map[string]any
}

// Engine evaluates sessions and persists decisions.
type Engine struct {
	store   store.Store
	audit   *audit.Sink
	metrics *metrics.CoreMetrics
	now     func() time.Time
}

// NewEngine creates a rule engine on the given store.
func NewEngine(st store.Store, sink *audit.Sink) *Engine {
	return &Engine{store: st, audit: sink, now: time.Now}
}

// SetMetrics attaches decision metrics. A nil argument leaves instrumentation
// as a no-op.
func (e *Engine) SetMetrics(m *metrics.CoreMetrics) {
	e.metrics = m
}

// Evaluate runs the cascade for a session without writing anything.
func (e *Engine) Evaluate(ctx context.Context, session *models.Session) (*Verdict, error) {
	site, err := e.store.GetSite(ctx, session.SiteID)
	if err != nil {
		return nil, fmt.Errorf("load site %s: %w", session.SiteID, err)
	}
	cfg, err := site.GetConfig()
	if err != nil {
		return nil, fmt.Errorf("parse config for site %s: %w", session.SiteID, err)
	}
	grace := cfg.GracePeriods

	// Clause 1: enforcement suspended at session start.
	susp, err := e.store.ActiveSuspensionAt(ctx, session.SiteID, session.StartTime)
	if err != nil {
		return nil, fmt.Errorf("check suspension: %w", err)
	}
	if susp != nil {
		return &Verdict{
			Outcome:   models.OutcomeCompliant,
			Rule:      models.RuleEnforcementDisabled,
			Rationale: fmt.Sprintf("enforcement suspended at site %s (suspension %s)", session.SiteID, susp.ID),
		}, nil
	}

	// Clause 2: valid permit at session start. Payments are not consulted.
	permits, err := e.store.ListPermitsForVRM(ctx, session.VRM, session.SiteID)
	if err != nil {
		return nil, fmt.Errorf("list permits: %w", err)
	}
	for _, p := range permits {
		if p.AppliesAt(session.StartTime, session.SiteID) {
			return &Verdict{
				Outcome:   models.OutcomeCompliant,
				Rule:      models.RuleValidPermit,
				Rationale: fmt.Sprintf("permit %s (%s) applies at session start", p.ID, p.Type),
				Params:    map[string]any{"permitId": p.ID, "permitType": string(p.Type)},
			}, nil
		}
	}

	totalGrace := time.Duration(grace.Entry+grace.Exit) * time.Minute

	// Clause 3: incomplete session.
	if session.EndTime == nil {
		if session.Duration(e.now()) <= totalGrace {
			return &Verdict{
				Outcome:   models.OutcomeCompliant,
				Rule:      models.RuleWithinGrace,
				Rationale: "open session still inside combined grace window",
			}, nil
		}
		return &Verdict{
			Outcome:   models.OutcomeRequiresReview,
			Rule:      models.RuleIncompleteSession,
			Rationale: "open session exceeded combined grace window without an exit",
		}, nil
	}

	mandatoryStart := session.StartTime.Add(time.Duration(grace.Entry) * time.Minute)
	mandatoryEnd := session.EndTime.Add(-time.Duration(grace.Exit) * time.Minute)

	var payments []*models.Payment
	if mandatoryEnd.After(mandatoryStart) {
		payments, err = e.store.ListPaymentsOverlapping(ctx, session.VRM, session.SiteID, mandatoryStart, mandatoryEnd)
		if err != nil {
			return nil, fmt.Errorf("list payments: %w", err)
		}
	}

	// Clause 4: a single payment covers the whole mandatory window.
	for _, p := range payments {
		if p.Covers(mandatoryStart, mandatoryEnd) {
			return &Verdict{
				Outcome:   models.OutcomeCompliant,
				Rule:      models.RuleValidPayment,
				Rationale: fmt.Sprintf("payment %s covers mandatory window", p.ID),
				Params:    map[string]any{"paymentId": p.ID},
			}, nil
		}
	}

	// Clause 5: short stay.
	if session.Duration(e.now()) <= totalGrace {
		return &Verdict{
			Outcome:   models.OutcomeCompliant,
			Rule:      models.RuleWithinGrace,
			Rationale: "stay inside combined entry and exit grace",
		}, nil
	}

	// Clause 6: partial payment that expired during the stay. When several
	// qualify the one with the latest expiry determines the overstay.
	if v := e.overstayVerdict(payments, mandatoryStart, mandatoryEnd, grace.Overstay); v != nil {
		return v, nil
	}

	// Clause 7: no payment at all; outcome depends on the site payment model.
	return e.unauthorisedVerdict(ctx, session.SiteID, cfg.EnforcementType)
}

func (e *Engine) overstayVerdict(payments []*models.Payment, mandatoryStart, mandatoryEnd time.Time, overstayGrace int) *Verdict {
	var best *models.Payment
	for _, p := range payments {
		if p.StartTime.After(mandatoryEnd) {
			continue
		}
		if !p.ExpiryTime.After(mandatoryStart) || !p.ExpiryTime.Before(mandatoryEnd) {
			continue
		}
		if best == nil || p.ExpiryTime.After(best.ExpiryTime) {
			best = p
		}
	}
	if best == nil {
		return nil
	}

	overMinutes := int64(mandatoryEnd.Sub(best.ExpiryTime) / time.Minute)
	if overMinutes > int64(overstayGrace) {
		return &Verdict{
			Outcome:   models.OutcomeEnforcementCandidate,
			Rule:      models.RuleOverstay,
			Rationale: fmt.Sprintf("payment %s expired %d min before mandatory end (threshold %d)", best.ID, overMinutes, overstayGrace),
			Params: map[string]any{
				"overstayMinutes":   overMinutes,
				"overstayThreshold": overstayGrace,
				"paymentId":         best.ID,
			},
		}
	}
	return &Verdict{
		Outcome:   models.OutcomeCompliant,
		Rule:      models.RuleOverstayWithinGrace,
		Rationale: fmt.Sprintf("payment %s expired %d min early, inside overstay grace", best.ID, overMinutes),
		Params:    map[string]any{"paymentId": best.ID},
	}
}

func (e *Engine) unauthorisedVerdict(ctx context.Context, siteID string, enforcement models.EnforcementType) (*Verdict, error) {
	payAndDisplay := false
	switch enforcement {
	case models.EnforcementPayAndDisplay, models.EnforcementMixed:
		payAndDisplay = true
	case models.EnforcementPermitOnly:
		payAndDisplay = false
	default:
		// AUTO: infer the payment model from whether the site has ever
		// taken a payment.
		has, err := e.store.SiteHasPayments(ctx, siteID)
		if err != nil {
			return nil, fmt.Errorf("probe site payments: %w", err)
		}
		payAndDisplay = has
	}

	if payAndDisplay {
		return &Verdict{
			Outcome:   models.OutcomeEnforcementCandidate,
			Rule:      models.RuleNoValidPayment,
			Rationale: "no valid payment for the mandatory window",
		}, nil
	}
	return &Verdict{
		Outcome:   models.OutcomeEnforcementCandidate,
		Rule:      models.RuleUnauthorisedParking,
		Rationale: "no permit at a permit-controlled site",
	}, nil
}

// Apply evaluates a session and persists the decision, honouring the freeze
// and the uniqueness invariant. Returns the current decision and whether
// this call changed it.
func (e *Engine) Apply(ctx context.Context, session *models.Session, kind Kind) (*models.Decision, bool, error) {
	existing, err := e.store.GetDecisionBySession(ctx, session.ID)
	if err != nil && !errors.Is(err, models.ErrDecisionNotFound) {
		return nil, false, err
	}
	if existing != nil && !existing.Mutable() {
		// Human-reviewed; frozen.
		logger.DebugCtx(ctx, "decision frozen, skipping evaluation",
			logger.KeySessionID, session.ID,
			logger.KeyStatus, string(existing.Status))
		return existing, false, nil
	}

	verdict, err := e.Evaluate(ctx, session)
	if err != nil {
		return nil, false, err
	}

	if existing == nil {
		created, err := e.createDecision(ctx, session, verdict)
		if err == nil {
			return created, true, nil
		}
		if !errors.Is(err, models.ErrDecisionExists) {
			return nil, false, err
		}
		// Lost a create race; fall through to the update path.
		existing, err = e.store.GetDecisionBySession(ctx, session.ID)
		if err != nil {
			return nil, false, err
		}
		if !existing.Mutable() {
			return existing, false, nil
		}
	}

	if kind != KindInitial && existing.Outcome == verdict.Outcome {
		// Re-evaluations only write when the outcome changes.
		return existing, false, nil
	}

	updated := &models.Decision{
		ID:          existing.ID,
		SessionID:   existing.SessionID,
		Outcome:     verdict.Outcome,
		RuleApplied: verdict.Rule,
		Rationale:   existing.Rationale,
		Status:      existing.Status,
	}
	if err := updated.SetParams(verdict.Params); err != nil {
		return nil, false, err
	}
	// An initial evaluation that finds an existing decision is a replay
	// after the session's inputs changed; its note uses the reconciliation
	// tag so the rationale trail stays within the documented vocabulary.
	suffix := string(kind)
	if kind == KindInitial {
		suffix = string(KindReconciled)
	}
	updated.AppendRationale(fmt.Sprintf("%s: %s", suffix, verdict.Rationale))

	ok, err := e.store.UpdateDecisionIfMutable(ctx, updated)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		// An operator review won the race; re-read the frozen row.
		frozen, err := e.store.GetDecisionBySession(ctx, session.ID)
		if err != nil {
			return nil, false, err
		}
		return frozen, false, nil
	}

	e.metrics.RecordDecision(string(verdict.Outcome))
	action := models.AuditDecisionReconciled
	if kind == KindAutoReevaluated {
		action = models.AuditDecisionAutoReevaluated
	}
	e.audit.System(ctx, action, audit.EntityDecision, updated.ID, map[string]any{
		"session_id":   session.ID,
		"outcome":      string(verdict.Outcome),
		"rule_applied": string(verdict.Rule),
		"previous":     string(existing.Outcome),
	})
	logger.InfoCtx(ctx, "decision updated",
		logger.KeySessionID, session.ID,
		logger.KeyDecisionID, updated.ID,
		logger.KeyOutcome, string(verdict.Outcome),
		logger.KeyRule, string(verdict.Rule))
	return updated, true, nil
}

func (e *Engine) createDecision(ctx context.Context, session *models.Session, verdict *Verdict) (*models.Decision, error) {
	decision := &models.Decision{
		SessionID:   session.ID,
		Outcome:     verdict.Outcome,
		RuleApplied: verdict.Rule,
		Rationale:   verdict.Rationale,
		Status:      models.DecisionNew,
	}
	if err := decision.SetParams(verdict.Params); err != nil {
		return nil, err
	}
	if _, err := e.store.CreateDecision(ctx, decision); err != nil {
		return nil, err
	}

	e.metrics.RecordDecision(string(verdict.Outcome))
	e.audit.System(ctx, models.AuditDecisionCreated, audit.EntityDecision, decision.ID, map[string]any{
		"session_id":   session.ID,
		"outcome":      string(verdict.Outcome),
		"rule_applied": string(verdict.Rule),
	})
	logger.InfoCtx(ctx, "decision created",
		logger.KeySessionID, session.ID,
		logger.KeyDecisionID, decision.ID,
		logger.KeyOutcome, string(verdict.Outcome),
		logger.KeyRule, string(verdict.Rule))
	return decision, nil
}
