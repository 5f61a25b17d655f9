package suspension

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/parkwarden/parkwarden/pkg/audit"
	"github.com/parkwarden/parkwarden/pkg/models"
	"github.com/parkwarden/parkwarden/pkg/store"
)

func newTestRegistry(t *testing.T) (*Registry, *store.GORMStore) {
	t.Helper()
	st, err := store.New(&store.Config{
		Type:   store.DatabaseTypeSQLite,
		SQLite: store.SQLiteConfig{Path: ":memory:"},
	})
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	site := &models.Site{ID: "CP01", Name: "Test Car Park", Active: true}
	if err := st.SaveSite(context.Background(), site); err != nil {
		t.Fatalf("save site: %v", err)
	}
	return NewRegistry(st, audit.NewSink(st)), st
}

func seedCandidate(t *testing.T, st *store.GORMStore, vrm string, start time.Time, status models.DecisionStatus) *models.Decision {
	t.Helper()
	ctx := context.Background()
	end := start.Add(2 * time.Hour)
	duration := models.DurationMinutesAt(start, end)
	session := &models.Session{
		SiteID:          "CP01",
		VRM:             vrm,
		StartTime:       start,
		EndTime:         &end,
		DurationMinutes: &duration,
		EntryMovementID: "mov-" + vrm,
		Status:          models.SessionCompleted,
	}
	if _, err := st.CreateSession(ctx, session); err != nil {
		t.Fatalf("create session: %v", err)
	}
	decision := &models.Decision{
		SessionID:   session.ID,
		Outcome:     models.OutcomeEnforcementCandidate,
		RuleApplied: models.RuleNoValidPayment,
		Status:      status,
	}
	if _, err := st.CreateDecision(ctx, decision); err != nil {
		t.Fatalf("create decision: %v", err)
	}
	return decision
}

func TestCreateValidation(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	t.Run("reason too short", func(t *testing.T) {
		_, err := reg.Create(ctx, CreateInput{
			SiteID: "CP01", StartDate: start, Reason: "short", CreatedBy: "ops",
		})
		if !errors.Is(err, models.ErrReasonTooShort) {
			t.Errorf("err = %v, want ErrReasonTooShort", err)
		}
	})

	t.Run("whitespace padding does not count", func(t *testing.T) {
		_, err := reg.Create(ctx, CreateInput{
			SiteID: "CP01", StartDate: start, Reason: "   ab   ", CreatedBy: "ops",
		})
		if !errors.Is(err, models.ErrReasonTooShort) {
			t.Errorf("err = %v, want ErrReasonTooShort", err)
		}
	})

	t.Run("inverted range", func(t *testing.T) {
		end := start.Add(-time.Hour)
		_, err := reg.Create(ctx, CreateInput{
			SiteID: "CP01", StartDate: start, EndDate: &end,
			Reason: "roadworks closure", CreatedBy: "ops",
		})
		if !errors.Is(err, models.ErrDateRangeInverted) {
			t.Errorf("err = %v, want ErrDateRangeInverted", err)
		}
	})

	t.Run("unknown site", func(t *testing.T) {
		_, err := reg.Create(ctx, CreateInput{
			SiteID: "NOPE", StartDate: start,
			Reason: "roadworks closure", CreatedBy: "ops",
		})
		if !errors.Is(err, models.ErrSiteNotFound) {
			t.Errorf("err = %v, want ErrSiteNotFound", err)
		}
	})
}

func TestCreateFlipsUnreviewedCandidates(t *testing.T) {
	reg, st := newTestRegistry(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	end := start.Add(48 * time.Hour)

	inRange := seedCandidate(t, st, "AA11AAA", start.Add(6*time.Hour), models.DecisionNew)
	outOfRange := seedCandidate(t, st, "BB22BBB", start.Add(-6*time.Hour), models.DecisionNew)
	reviewed := seedCandidate(t, st, "CC33CCC", start.Add(7*time.Hour), models.DecisionApproved)

	result, err := reg.Create(ctx, CreateInput{
		SiteID:    "CP01",
		StartDate: start,
		EndDate:   &end,
		Reason:    "flooding, site closed to the public",
		CreatedBy: "ops@example.com",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if result.DecisionsResolved != 1 {
		t.Errorf("resolved = %d, want 1", result.DecisionsResolved)
	}

	flipped, err := st.GetDecision(ctx, inRange.ID)
	if err != nil {
		t.Fatalf("read flipped: %v", err)
	}
	if flipped.Outcome != models.OutcomeCompliant ||
		flipped.RuleApplied != models.RuleEnforcementDisabledRetroactive ||
		flipped.Status != models.DecisionAutoResolved {
		t.Errorf("flipped decision = %v/%v/%v", flipped.Outcome, flipped.RuleApplied, flipped.Status)
	}

	untouched, _ := st.GetDecision(ctx, outOfRange.ID)
	if untouched.Outcome != models.OutcomeEnforcementCandidate {
		t.Errorf("out-of-range decision was flipped")
	}
	frozen, _ := st.GetDecision(ctx, reviewed.ID)
	if frozen.Status != models.DecisionApproved {
		t.Errorf("reviewed decision status changed to %v", frozen.Status)
	}
}

func TestCreateOpenEndedFlipsEverythingAfterStart(t *testing.T) {
	reg, st := newTestRegistry(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	seedCandidate(t, st, "AA11AAA", start.Add(time.Hour), models.DecisionNew)
	seedCandidate(t, st, "BB22BBB", start.Add(100*24*time.Hour), models.DecisionNew)

	result, err := reg.Create(ctx, CreateInput{
		SiteID:    "CP01",
		StartDate: start,
		Reason:    "enforcement paused pending contract renewal",
		CreatedBy: "ops@example.com",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if result.DecisionsResolved != 2 {
		t.Errorf("resolved = %d, want 2", result.DecisionsResolved)
	}
}

func TestEndSuspension(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	created, err := reg.Create(ctx, CreateInput{
		SiteID:    "CP01",
		StartDate: start,
		Reason:    "flooding, site closed to the public",
		CreatedBy: "ops@example.com",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	ended, err := reg.End(ctx, created.Suspension.ID, "ops@example.com", "water receded")
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if ended.Active {
		t.Error("suspension still active after End")
	}
	if ended.EndedBy == nil || *ended.EndedBy != "ops@example.com" {
		t.Errorf("ended_by = %v", ended.EndedBy)
	}

	if _, err := reg.End(ctx, created.Suspension.ID, "ops@example.com", "again"); !errors.Is(err, models.ErrSuspensionEnded) {
		t.Errorf("second end err = %v, want ErrSuspensionEnded", err)
	}
}

func TestIsDisabled(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	if _, err := reg.Create(ctx, CreateInput{
		SiteID:    "CP01",
		StartDate: start,
		EndDate:   &end,
		Reason:    "flooding, site closed to the public",
		CreatedBy: "ops@example.com",
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"inside range", start.Add(time.Hour), true},
		{"at start", start, true},
		{"at end", end, true},
		{"before start", start.Add(-time.Minute), false},
		{"after end", end.Add(time.Minute), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := reg.IsDisabled(ctx, "CP01", tt.at)
			if err != nil {
				t.Fatalf("IsDisabled: %v", err)
			}
			if got != tt.want {
				t.Errorf("IsDisabled(%v) = %v, want %v", tt.at, got, tt.want)
			}
		})
	}
}
