package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/parkwarden/parkwarden/pkg/audit"
	"github.com/parkwarden/parkwarden/pkg/models"
	"github.com/parkwarden/parkwarden/pkg/rules"
	"github.com/parkwarden/parkwarden/pkg/store"
)

var baseTime = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func newTestReconstructor(t *testing.T) (*Reconstructor, *store.GORMStore) {
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

	sink := audit.NewSink(st)
	return NewReconstructor(st, rules.NewEngine(st, sink), sink), st
}

func seedMovement(t *testing.T, st *store.GORMStore, vrm string, at time.Time, dir models.Direction) *models.Movement {
	t.Helper()
	m := &models.Movement{
		SiteID:    "CP01",
		VRM:       vrm,
		Timestamp: at,
		Direction: dir,
	}
	if _, err := st.CreateMovement(context.Background(), m); err != nil {
		t.Fatalf("create movement: %v", err)
	}
	return m
}

func TestEntryOpensSession(t *testing.T) {
	rec, st := newTestReconstructor(t)
	ctx := context.Background()
	entry := seedMovement(t, st, "AB12CDE", baseTime, models.DirectionEntry)

	session, err := rec.ProcessMovement(ctx, entry)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if session == nil {
		t.Fatal("no session created")
	}
	if session.Status != models.SessionProvisional {
		t.Errorf("status = %v, want PROVISIONAL", session.Status)
	}
	if !session.StartTime.Equal(baseTime) {
		t.Errorf("start = %v, want movement timestamp", session.StartTime)
	}

	open, err := st.GetOpenSession(ctx, "CP01", "AB12CDE")
	if err != nil {
		t.Fatalf("open session lookup: %v", err)
	}
	if open.ID != session.ID {
		t.Errorf("open session %q != created %q", open.ID, session.ID)
	}
}

func TestDuplicateEntrySuppressed(t *testing.T) {
	rec, st := newTestReconstructor(t)
	ctx := context.Background()

	first := seedMovement(t, st, "AB12CDE", baseTime, models.DirectionEntry)
	opened, err := rec.ProcessMovement(ctx, first)
	if err != nil {
		t.Fatalf("first entry: %v", err)
	}

	second := seedMovement(t, st, "AB12CDE", baseTime.Add(5*time.Minute), models.DirectionEntry)
	dup, err := rec.ProcessMovement(ctx, second)
	if err != nil {
		t.Fatalf("second entry: %v", err)
	}
	if dup != nil {
		t.Errorf("duplicate entry opened a second session %q", dup.ID)
	}

	open, err := st.GetOpenSession(ctx, "CP01", "AB12CDE")
	if err != nil {
		t.Fatalf("open session lookup: %v", err)
	}
	if open.ID != opened.ID || !open.StartTime.Equal(baseTime) {
		t.Errorf("open session changed by duplicate entry")
	}

	trail, err := st.ListAuditForEntity(ctx, "session", opened.ID)
	if err != nil {
		t.Fatalf("audit trail: %v", err)
	}
	found := false
	for _, r := range trail {
		if r.Action == models.AuditDuplicateEntrySkipped {
			found = true
		}
	}
	if !found {
		t.Error("duplicate entry not audited")
	}
}

func TestExitCompletesSessionAndEvaluates(t *testing.T) {
	rec, st := newTestReconstructor(t)
	ctx := context.Background()

	entry := seedMovement(t, st, "AB12CDE", baseTime, models.DirectionEntry)
	if _, err := rec.ProcessMovement(ctx, entry); err != nil {
		t.Fatalf("entry: %v", err)
	}

	exit := seedMovement(t, st, "AB12CDE", baseTime.Add(2*time.Hour), models.DirectionExit)
	closed, err := rec.ProcessMovement(ctx, exit)
	if err != nil {
		t.Fatalf("exit: %v", err)
	}
	if closed == nil {
		t.Fatal("exit returned no session")
	}
	if closed.Status != models.SessionCompleted {
		t.Errorf("status = %v, want COMPLETED", closed.Status)
	}
	if closed.DurationMinutes == nil || *closed.DurationMinutes != 120 {
		t.Errorf("duration = %v, want 120", closed.DurationMinutes)
	}
	if closed.ExitMovementID == nil || *closed.ExitMovementID != exit.ID {
		t.Errorf("exit movement = %v", closed.ExitMovementID)
	}

	decision, err := st.GetDecisionBySession(ctx, closed.ID)
	if err != nil {
		t.Fatalf("decision lookup: %v", err)
	}
	if decision.Status != models.DecisionNew {
		t.Errorf("decision status = %v", decision.Status)
	}

	if _, err := st.GetOpenSession(ctx, "CP01", "AB12CDE"); !errors.Is(err, models.ErrSessionNotFound) {
		t.Errorf("open session still present after exit: %v", err)
	}
}

func TestExitBeforeEntryRefused(t *testing.T) {
	rec, st := newTestReconstructor(t)
	ctx := context.Background()

	entry := seedMovement(t, st, "AB12CDE", baseTime, models.DirectionEntry)
	if _, err := rec.ProcessMovement(ctx, entry); err != nil {
		t.Fatalf("entry: %v", err)
	}

	early := seedMovement(t, st, "AB12CDE", baseTime.Add(-10*time.Minute), models.DirectionExit)
	got, err := rec.ProcessMovement(ctx, early)
	if !errors.Is(err, models.ErrExitBeforeEntry) {
		t.Fatalf("err = %v, want ErrExitBeforeEntry", err)
	}
	if got != nil {
		t.Error("out-of-order exit closed the session")
	}

	open, err := st.GetOpenSession(ctx, "CP01", "AB12CDE")
	if err != nil || open == nil {
		t.Fatalf("session no longer open: %v", err)
	}
}

func TestOrphanExitCreatesNothing(t *testing.T) {
	rec, st := newTestReconstructor(t)
	ctx := context.Background()

	exit := seedMovement(t, st, "AB12CDE", baseTime, models.DirectionExit)
	got, err := rec.ProcessMovement(ctx, exit)
	if err != nil {
		t.Fatalf("orphan exit: %v", err)
	}
	if got != nil {
		t.Error("orphan exit produced a session")
	}
	if _, err := st.GetOpenSession(ctx, "CP01", "AB12CDE"); !errors.Is(err, models.ErrSessionNotFound) {
		t.Errorf("unexpected open session: %v", err)
	}
}

func TestReviewGatedMovementRefused(t *testing.T) {
	rec, st := newTestReconstructor(t)
	ctx := context.Background()

	gated := &models.Movement{
		SiteID:         "CP01",
		VRM:            "II11III",
		Timestamp:      baseTime,
		Direction:      models.DirectionEntry,
		RequiresReview: true,
	}
	if _, err := st.CreateMovement(ctx, gated); err != nil {
		t.Fatalf("create movement: %v", err)
	}

	got, err := rec.ProcessMovement(ctx, gated)
	if !errors.Is(err, models.ErrReviewGateActive) {
		t.Fatalf("err = %v, want ErrReviewGateActive", err)
	}
	if got != nil {
		t.Error("review-gated movement opened a session")
	}

	discarded := &models.Movement{
		SiteID:    "CP01",
		VRM:       "ZZ99ZZZ",
		Timestamp: baseTime,
		Direction: models.DirectionEntry,
		Discarded: true,
	}
	if _, err := st.CreateMovement(ctx, discarded); err != nil {
		t.Fatalf("create movement: %v", err)
	}

	got, err = rec.ProcessMovement(ctx, discarded)
	if !errors.Is(err, models.ErrMovementDiscarded) {
		t.Fatalf("err = %v, want ErrMovementDiscarded", err)
	}
	if got != nil {
		t.Error("discarded movement opened a session")
	}
	if _, err := st.GetOpenSession(ctx, "CP01", "ZZ99ZZZ"); !errors.Is(err, models.ErrSessionNotFound) {
		t.Errorf("unexpected open session: %v", err)
	}
}

func TestUnknownDirectionIgnored(t *testing.T) {
	rec, st := newTestReconstructor(t)
	ctx := context.Background()

	m := seedMovement(t, st, "AB12CDE", baseTime, models.DirectionUnknown)
	got, err := rec.ProcessMovement(ctx, m)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if got != nil {
		t.Error("unknown direction opened a session")
	}
}

func TestExpireStale(t *testing.T) {
	rec, st := newTestReconstructor(t)
	ctx := context.Background()
	now := baseTime.Add(30 * time.Hour)
	rec.now = func() time.Time { return now }

	staleEntry := seedMovement(t, st, "AA11AAA", baseTime, models.DirectionEntry)
	staleSession, err := rec.ProcessMovement(ctx, staleEntry)
	if err != nil {
		t.Fatalf("stale entry: %v", err)
	}
	freshEntry := seedMovement(t, st, "BB22BBB", now.Add(-time.Hour), models.DirectionEntry)
	fresh, err := rec.ProcessMovement(ctx, freshEntry)
	if err != nil {
		t.Fatalf("fresh entry: %v", err)
	}

	expired, err := rec.ExpireStale(ctx, DefaultStaleThreshold, "")
	if err != nil {
		t.Fatalf("expire: %v", err)
	}
	if expired != 1 {
		t.Errorf("expired = %d, want 1", expired)
	}

	// The stale session is closed as EXPIRED and never evaluated.
	stale, err := st.FindCompletedSessionsForVRM(ctx, "AA11AAA", nil)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if len(stale) != 0 {
		t.Errorf("expired session listed as completed")
	}
	if _, err := st.GetOpenSession(ctx, "CP01", "AA11AAA"); !errors.Is(err, models.ErrSessionNotFound) {
		t.Errorf("stale session still open: %v", err)
	}

	sessions, err := st.ListStaleOpenSessions(ctx, now.Add(time.Minute), 10)
	if err != nil {
		t.Fatalf("list open: %v", err)
	}
	if len(sessions) != 1 || sessions[0].ID != fresh.ID {
		t.Errorf("fresh session not preserved: %v", sessions)
	}

	freshSession, err := st.GetSession(ctx, sessions[0].ID)
	if err != nil {
		t.Fatalf("get fresh: %v", err)
	}
	if freshSession.Status != models.SessionProvisional {
		t.Errorf("fresh session status = %v", freshSession.Status)
	}

	if _, err := st.GetDecisionBySession(ctx, staleSession.ID); !errors.Is(err, models.ErrDecisionNotFound) {
		t.Errorf("expired session has a decision: %v", err)
	}
}
