package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/parkwarden/parkwarden/pkg/models"
)

func newTestStore(t *testing.T) *GORMStore {
	t.Helper()

	st, err := New(&Config{
		Type:   DatabaseTypeSQLite,
		SQLite: SQLiteConfig{Path: ":memory:"},
	})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	if err := st.SaveSite(context.Background(), &models.Site{
		ID:     "GRN01",
		Name:   "Green Lane",
		Active: true,
	}); err != nil {
		t.Fatalf("failed to seed site: %v", err)
	}
	return st
}

func TestMovementIdentityDedupe(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	ts := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	first := &models.Movement{SiteID: "GRN01", VRM: "AB12CDE", Timestamp: ts, Direction: models.DirectionEntry}
	if _, err := st.CreateMovement(ctx, first); err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	dup := &models.Movement{SiteID: "GRN01", VRM: "AB12CDE", Timestamp: ts, Direction: models.DirectionEntry}
	if _, err := st.CreateMovement(ctx, dup); !errors.Is(err, models.ErrDuplicateMovement) {
		t.Fatalf("expected ErrDuplicateMovement, got %v", err)
	}

	// Same plate one second later is a distinct movement.
	next := &models.Movement{SiteID: "GRN01", VRM: "AB12CDE", Timestamp: ts.Add(time.Second), Direction: models.DirectionEntry}
	if _, err := st.CreateMovement(ctx, next); err != nil {
		t.Fatalf("distinct timestamp rejected: %v", err)
	}
}

func TestSingleOpenSessionPerPlate(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	start := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	entry := &models.Movement{SiteID: "GRN01", VRM: "AB12CDE", Timestamp: start, Direction: models.DirectionEntry}
	entryID, err := st.CreateMovement(ctx, entry)
	if err != nil {
		t.Fatalf("entry movement failed: %v", err)
	}

	sessionID, err := st.CreateSession(ctx, &models.Session{
		SiteID:          "GRN01",
		VRM:             "AB12CDE",
		StartTime:       start,
		EntryMovementID: entryID,
		Status:          models.SessionProvisional,
	})
	if err != nil {
		t.Fatalf("first session failed: %v", err)
	}

	_, err = st.CreateSession(ctx, &models.Session{
		SiteID:          "GRN01",
		VRM:             "AB12CDE",
		StartTime:       start.Add(time.Minute),
		EntryMovementID: entryID,
		Status:          models.SessionProvisional,
	})
	if !errors.Is(err, models.ErrOpenSessionExists) {
		t.Fatalf("expected ErrOpenSessionExists, got %v", err)
	}

	// Closing the session releases the slot.
	end := start.Add(45 * time.Minute)
	if err := st.CloseSession(ctx, sessionID, entryID, end, 45, models.SessionCompleted); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if _, err := st.CreateSession(ctx, &models.Session{
		SiteID:          "GRN01",
		VRM:             "AB12CDE",
		StartTime:       end.Add(time.Hour),
		EntryMovementID: entryID,
		Status:          models.SessionProvisional,
	}); err != nil {
		t.Fatalf("session after close rejected: %v", err)
	}
}

func TestPaymentDedupeByReference(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	pay := &models.Payment{
		VRM:               "AB12CDE",
		SiteID:            "GRN01",
		Amount:            4.50,
		StartTime:         time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC),
		ExpiryTime:        time.Date(2026, 8, 1, 11, 0, 0, 0, time.UTC),
		Source:            "paybyphone",
		ExternalReference: "PBP-1001",
	}
	if _, err := st.CreatePayment(ctx, pay); err != nil {
		t.Fatalf("first payment failed: %v", err)
	}

	replay := *pay
	replay.ID = ""
	if _, err := st.CreatePayment(ctx, &replay); !errors.Is(err, models.ErrDuplicatePayment) {
		t.Fatalf("expected ErrDuplicatePayment, got %v", err)
	}

	// Same reference from another provider is a different payment.
	other := *pay
	other.ID = ""
	other.Source = "ringo"
	if _, err := st.CreatePayment(ctx, &other); err != nil {
		t.Fatalf("cross-source payment rejected: %v", err)
	}
}

func TestUpdateDecisionIfMutableHonorsFreeze(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	id, err := st.CreateDecision(ctx, &models.Decision{
		SessionID:   "sess-1",
		Outcome:     models.OutcomeEnforcementCandidate,
		RuleApplied: models.RuleNoValidPayment,
		Rationale:   "no payment covering session",
		Status:      models.DecisionCandidate,
	})
	if err != nil {
		t.Fatalf("create decision failed: %v", err)
	}

	decision, err := st.GetDecision(ctx, id)
	if err != nil {
		t.Fatalf("get decision failed: %v", err)
	}

	decision.Outcome = models.OutcomeCompliant
	decision.Rationale += " | RECONCILED: late payment found"
	updated, err := st.UpdateDecisionIfMutable(ctx, decision)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if !updated {
		t.Fatal("expected candidate decision to be mutable")
	}

	// A human verdict freezes the decision against re-evaluation.
	if err := st.SetDecisionStatus(ctx, id, models.DecisionApproved); err != nil {
		t.Fatalf("set status failed: %v", err)
	}
	decision.Rationale += " | AUTO_REEVALUATED: should not land"
	updated, err = st.UpdateDecisionIfMutable(ctx, decision)
	if err != nil {
		t.Fatalf("update after freeze errored: %v", err)
	}
	if updated {
		t.Fatal("frozen decision must not be overwritten")
	}
}

func TestFlipCandidatesForSuspension(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	windowStart := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	windowEnd := time.Date(2026, 8, 8, 0, 0, 0, 0, time.UTC)

	mkSession := func(vrm string, start time.Time) string {
		entry := &models.Movement{SiteID: "GRN01", VRM: vrm, Timestamp: start, Direction: models.DirectionEntry}
		entryID, err := st.CreateMovement(ctx, entry)
		if err != nil {
			t.Fatalf("movement for %s failed: %v", vrm, err)
		}
		end := start.Add(time.Hour)
		sessID, err := st.CreateSession(ctx, &models.Session{
			SiteID: "GRN01", VRM: vrm, StartTime: start,
			EntryMovementID: entryID, Status: models.SessionProvisional,
		})
		if err != nil {
			t.Fatalf("session for %s failed: %v", vrm, err)
		}
		if err := st.CloseSession(ctx, sessID, entryID, end, 60, models.SessionCompleted); err != nil {
			t.Fatalf("close for %s failed: %v", vrm, err)
		}
		return sessID
	}

	inside := mkSession("AA11AAA", windowStart.Add(24*time.Hour))
	outside := mkSession("BB22BBB", windowStart.Add(-48*time.Hour))

	for _, sessID := range []string{inside, outside} {
		if _, err := st.CreateDecision(ctx, &models.Decision{
			SessionID:   sessID,
			Outcome:     models.OutcomeEnforcementCandidate,
			RuleApplied: models.RuleNoValidPayment,
			Status:      models.DecisionCandidate,
		}); err != nil {
			t.Fatalf("decision for %s failed: %v", sessID, err)
		}
	}

	flipped, err := st.FlipCandidatesForSuspension(ctx, "GRN01", windowStart, &windowEnd)
	if err != nil {
		t.Fatalf("flip failed: %v", err)
	}
	if flipped != 1 {
		t.Fatalf("expected 1 flipped decision, got %d", flipped)
	}

	insideDecision, err := st.GetDecisionBySession(ctx, inside)
	if err != nil {
		t.Fatalf("get inside decision failed: %v", err)
	}
	if insideDecision.Status != models.DecisionAutoResolved {
		t.Fatalf("inside decision status = %s, want AUTO_RESOLVED", insideDecision.Status)
	}

	outsideDecision, err := st.GetDecisionBySession(ctx, outside)
	if err != nil {
		t.Fatalf("get outside decision failed: %v", err)
	}
	if outsideDecision.Status != models.DecisionCandidate {
		t.Fatalf("outside decision status = %s, want CANDIDATE", outsideDecision.Status)
	}
}

func TestResolvePlateReviewIfPendingIsSingleShot(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	id, err := st.CreatePlateReview(ctx, &models.PlateReview{
		MovementID:    "mov-1",
		OriginalVRM:   "4B12CDE",
		NormalizedVRM: "4B12CDE",
		SiteID:        "GRN01",
		Timestamp:     time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC),
		ReviewStatus:  models.ReviewPending,
	})
	if err != nil {
		t.Fatalf("create review failed: %v", err)
	}

	review, err := st.GetPlateReview(ctx, id)
	if err != nil {
		t.Fatalf("get review failed: %v", err)
	}

	reviewer := "operator@example.com"
	now := time.Now().UTC()
	review.ReviewStatus = models.ReviewApproved
	review.ReviewedBy = &reviewer
	review.ReviewedAt = &now

	resolved, err := st.ResolvePlateReviewIfPending(ctx, review)
	if err != nil {
		t.Fatalf("first resolve failed: %v", err)
	}
	if !resolved {
		t.Fatal("expected pending review to resolve")
	}

	// Second operator loses the race and must see no-op.
	review.ReviewStatus = models.ReviewDiscarded
	resolved, err = st.ResolvePlateReviewIfPending(ctx, review)
	if err != nil {
		t.Fatalf("second resolve errored: %v", err)
	}
	if resolved {
		t.Fatal("resolved review must not be resolved twice")
	}
}

func TestJobLockLifecycle(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if err := st.AcquireJobLock(ctx, "reevaluate", "node-a", now); err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	if err := st.AcquireJobLock(ctx, "reevaluate", "node-b", now); !errors.Is(err, models.ErrJobLockHeld) {
		t.Fatalf("expected ErrJobLockHeld, got %v", err)
	}

	// Another node releasing is a no-op; the holder's release frees the lock.
	if err := st.ReleaseJobLock(ctx, "reevaluate", "node-b"); err != nil {
		t.Fatalf("foreign release errored: %v", err)
	}
	if err := st.AcquireJobLock(ctx, "reevaluate", "node-b", now); !errors.Is(err, models.ErrJobLockHeld) {
		t.Fatalf("lock should still be held, got %v", err)
	}
	if err := st.ReleaseJobLock(ctx, "reevaluate", "node-a"); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if err := st.AcquireJobLock(ctx, "reevaluate", "node-b", now); err != nil {
		t.Fatalf("acquire after release failed: %v", err)
	}

	// Startup cleanup clears everything a crashed node still holds.
	if err := st.AcquireJobLock(ctx, "expiry", "node-b", now); err != nil {
		t.Fatalf("second lock failed: %v", err)
	}
	cleared, err := st.ClearJobLocksForHolder(ctx, "node-b")
	if err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if cleared != 2 {
		t.Fatalf("expected 2 cleared locks, got %d", cleared)
	}
}

func TestListDecisionsFiltersBySite(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	if err := st.SaveSite(ctx, &models.Site{ID: "BLU02", Name: "Blue Road", Active: true}); err != nil {
		t.Fatalf("failed to seed second site: %v", err)
	}

	mkDecision := func(site, vrm string) {
		start := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
		entryID, err := st.CreateMovement(ctx, &models.Movement{SiteID: site, VRM: vrm, Timestamp: start, Direction: models.DirectionEntry})
		if err != nil {
			t.Fatalf("movement failed: %v", err)
		}
		sessID, err := st.CreateSession(ctx, &models.Session{
			SiteID: site, VRM: vrm, StartTime: start,
			EntryMovementID: entryID, Status: models.SessionProvisional,
		})
		if err != nil {
			t.Fatalf("session failed: %v", err)
		}
		if err := st.CloseSession(ctx, sessID, entryID, start.Add(time.Hour), 60, models.SessionCompleted); err != nil {
			t.Fatalf("close failed: %v", err)
		}
		if _, err := st.CreateDecision(ctx, &models.Decision{
			SessionID:   sessID,
			Outcome:     models.OutcomeEnforcementCandidate,
			RuleApplied: models.RuleNoValidPayment,
			Status:      models.DecisionCandidate,
		}); err != nil {
			t.Fatalf("decision failed: %v", err)
		}
	}

	mkDecision("GRN01", "AA11AAA")
	mkDecision("BLU02", "BB22BBB")

	decisions, err := st.ListDecisions(ctx, DecisionFilter{SiteID: "GRN01"})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(decisions) != 1 {
		t.Fatalf("expected 1 decision for GRN01, got %d", len(decisions))
	}

	all, err := st.ListDecisions(ctx, DecisionFilter{})
	if err != nil {
		t.Fatalf("unfiltered list failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 decisions total, got %d", len(all))
	}
}
