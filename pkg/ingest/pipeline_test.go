package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/parkwarden/parkwarden/pkg/audit"
	"github.com/parkwarden/parkwarden/pkg/models"
	"github.com/parkwarden/parkwarden/pkg/reconcile"
	"github.com/parkwarden/parkwarden/pkg/rules"
	"github.com/parkwarden/parkwarden/pkg/session"
	"github.com/parkwarden/parkwarden/pkg/store"
)

var baseTime = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func newTestPipeline(t *testing.T) (*Pipeline, *store.GORMStore, *reconcile.Dispatcher) {
	t.Helper()
	ctx := context.Background()
	st, err := store.New(&store.Config{
		Type:   store.DatabaseTypeSQLite,
		SQLite: store.SQLiteConfig{Path: ":memory:"},
	})
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	site := &models.Site{ID: "CP01", Name: "Test Car Park", Active: true}
	if err := site.SetConfig(&models.SiteConfig{
		GracePeriods:    models.DefaultGracePeriods(),
		EnforcementType: models.EnforcementAuto,
		Cameras: []models.CameraConfig{
			{ID: "cam-north", TowardsDirection: models.DirectionEntry, AwayDirection: models.DirectionExit},
			{ID: "cam-south", TowardsDirection: models.DirectionExit, AwayDirection: models.DirectionEntry},
		},
	}); err != nil {
		t.Fatalf("set config: %v", err)
	}
	if err := st.SaveSite(ctx, site); err != nil {
		t.Fatalf("save site: %v", err)
	}

	sink := audit.NewSink(st)
	engine := rules.NewEngine(st, sink)
	reconstructor := session.NewReconstructor(st, engine, sink)
	dispatcher := reconcile.NewDispatcher(reconcile.NewService(st, engine, sink), reconcile.DispatcherConfig{QueueSize: 16, Workers: 1})
	dispatcher.Start(ctx)
	t.Cleanup(func() { dispatcher.Stop(5 * time.Second) })

	pipeline, err := NewPipeline(ctx, st, reconstructor, dispatcher, sink)
	if err != nil {
		t.Fatalf("create pipeline: %v", err)
	}
	return pipeline, st, dispatcher
}

func conf(c float64) *float64 { return &c }

func active(b bool) *bool { return &b }

func TestIngestMovementOpensSession(t *testing.T) {
	p, st, _ := newTestPipeline(t)
	ctx := context.Background()

	result, err := p.IngestMovement(ctx, &MovementInput{
		SiteID:     "CP01",
		Timestamp:  baseTime,
		VRM:        "ab12 cde",
		CameraID:   "CAM-NORTH", // id lookup is case-insensitive
		Direction:  "TOWARDS",
		Confidence: conf(0.95),
	})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if !result.IsNew {
		t.Error("IsNew = false on first ingest")
	}
	if result.Movement.VRM != "AB12CDE" {
		t.Errorf("vrm = %q, want normalized AB12CDE", result.Movement.VRM)
	}
	if result.Movement.Direction != models.DirectionEntry {
		t.Errorf("direction = %v, want ENTRY via camera mapping", result.Movement.Direction)
	}
	if result.Session == nil || result.Session.Status != models.SessionProvisional {
		t.Fatalf("session = %+v, want provisional session", result.Session)
	}

	open, err := st.GetOpenSession(ctx, "CP01", "AB12CDE")
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	if open.EntryMovementID != result.Movement.ID {
		t.Errorf("entry movement = %q", open.EntryMovementID)
	}
}

func TestIngestMovementCameraMappingInvertsDirection(t *testing.T) {
	p, _, _ := newTestPipeline(t)
	ctx := context.Background()

	// cam-south points outward: TOWARDS the camera means leaving.
	result, err := p.IngestMovement(ctx, &MovementInput{
		SiteID:    "CP01",
		Timestamp: baseTime,
		VRM:       "AB12CDE",
		CameraID:  "cam-south",
		Direction: "TOWARDS",
	})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if result.Movement.Direction != models.DirectionExit {
		t.Errorf("direction = %v, want EXIT via camera mapping", result.Movement.Direction)
	}
}

func TestIngestMovementGlobalDirectionFallback(t *testing.T) {
	p, _, _ := newTestPipeline(t)
	ctx := context.Background()

	tests := []struct {
		raw  string
		want models.Direction
	}{
		{"IN", models.DirectionEntry},
		{"out", models.DirectionExit},
		{"ENTRY", models.DirectionEntry},
		{"sideways", models.DirectionUnknown},
		{"", models.DirectionUnknown},
	}
	for i, tt := range tests {
		result, err := p.IngestMovement(ctx, &MovementInput{
			SiteID:    "CP01",
			Timestamp: baseTime.Add(time.Duration(i) * time.Minute),
			VRM:       "XY34XWV",
			CameraID:  "cam-unknown",
			Direction: tt.raw,
		})
		if err != nil {
			t.Fatalf("ingest %q: %v", tt.raw, err)
		}
		if result.Movement.Direction != tt.want {
			t.Errorf("direction(%q) = %v, want %v", tt.raw, result.Movement.Direction, tt.want)
		}
	}
}

func TestIngestMovementRejectsMissingPlateAndSite(t *testing.T) {
	p, _, _ := newTestPipeline(t)
	ctx := context.Background()

	if _, err := p.IngestMovement(ctx, &MovementInput{
		SiteID:    "CP01",
		Timestamp: baseTime,
	}); err != models.ErrMissingPlate {
		t.Errorf("missing plate err = %v", err)
	}

	if _, err := p.IngestMovement(ctx, &MovementInput{
		SiteID:    "NOPE",
		Timestamp: baseTime,
		VRM:       "AB12CDE",
	}); err != models.ErrSiteNotFound {
		t.Errorf("unknown site err = %v", err)
	}
}

func TestIngestMovementDedupePatchesRemoteImages(t *testing.T) {
	p, st, _ := newTestPipeline(t)
	ctx := context.Background()

	first, err := p.IngestMovement(ctx, &MovementInput{
		SiteID:    "CP01",
		Timestamp: baseTime,
		VRM:       "AB12CDE",
		Direction: "IN",
		Images: []models.Image{
			{URL: "https://camera.example.com/shots/1.jpg", Type: "plate"},
			{URL: "file:///archive/overview-1.jpg", Type: "overview"},
		},
	})
	if err != nil {
		t.Fatalf("first ingest: %v", err)
	}

	second, err := p.IngestMovement(ctx, &MovementInput{
		SiteID:    "CP01",
		Timestamp: baseTime,
		VRM:       "AB12CDE",
		Direction: "IN",
		Images: []models.Image{
			{URL: "file:///archive/plate-1.jpg", Type: "plate"},
			{URL: "file:///archive/overview-other.jpg", Type: "overview"},
		},
	})
	if err != nil {
		t.Fatalf("second ingest: %v", err)
	}
	if second.IsNew {
		t.Error("IsNew = true on duplicate")
	}
	if second.Movement.ID != first.Movement.ID {
		t.Error("duplicate created a second movement")
	}

	stored, err := st.GetMovement(ctx, first.Movement.ID)
	if err != nil {
		t.Fatalf("get movement: %v", err)
	}
	images, err := stored.GetImages()
	if err != nil {
		t.Fatalf("parse images: %v", err)
	}
	byType := map[string]string{}
	for _, img := range images {
		byType[img.Type] = img.URL
	}
	if byType["plate"] != "file:///archive/plate-1.jpg" {
		t.Errorf("remote plate url not patched: %q", byType["plate"])
	}
	if byType["overview"] != "file:///archive/overview-1.jpg" {
		t.Errorf("local overview url was overwritten: %q", byType["overview"])
	}
}

func TestIngestMovementSuspiciousPlateGatesSession(t *testing.T) {
	p, st, _ := newTestPipeline(t)
	ctx := context.Background()

	result, err := p.IngestMovement(ctx, &MovementInput{
		SiteID:     "CP01",
		Timestamp:  baseTime,
		VRM:        "AB12CDE",
		Direction:  "IN",
		Confidence: conf(0.4),
	})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if !result.Movement.RequiresReview {
		t.Error("low-confidence movement not review gated")
	}
	if result.Session != nil {
		t.Error("review-gated movement opened a session")
	}
	if result.Review == nil {
		t.Fatal("no plate review created")
	}
	if result.Review.ReviewStatus != models.ReviewPending {
		t.Errorf("review status = %v", result.Review.ReviewStatus)
	}
	reasons, err := result.Review.GetSuspicionReasons()
	if err != nil {
		t.Fatalf("reasons: %v", err)
	}
	if len(reasons) != 1 || reasons[0] != models.SuspicionLowConfidence {
		t.Errorf("reasons = %v, want [LOW_CONFIDENCE]", reasons)
	}

	if _, err := st.GetOpenSession(ctx, "CP01", "AB12CDE"); err != models.ErrSessionNotFound {
		t.Errorf("open session exists for gated movement: %v", err)
	}
}

func TestIngestPaymentDedupe(t *testing.T) {
	p, _, d := newTestPipeline(t)
	ctx := context.Background()

	input := &PaymentInput{
		VRM:               "ab12cde",
		SiteID:            "CP01",
		Amount:            4.50,
		StartTime:         baseTime,
		ExpiryTime:        baseTime.Add(2 * time.Hour),
		Source:            "paybyphone",
		ExternalReference: "txn-100",
	}
	first, err := p.IngestPayment(ctx, input)
	if err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	if !first.IsNew || first.Payment.VRM != "AB12CDE" {
		t.Errorf("first = %+v", first)
	}

	second, err := p.IngestPayment(ctx, input)
	if err != nil {
		t.Fatalf("second ingest: %v", err)
	}
	if second.IsNew {
		t.Error("IsNew = true on duplicate payment")
	}
	if second.Payment.ID != first.Payment.ID {
		t.Error("duplicate created a second payment")
	}

	d.Stop(5 * time.Second)
	if pending, _, _ := d.Stats(); pending != 0 {
		t.Errorf("pending = %d after stop", pending)
	}
}

func TestIngestPermitUpsert(t *testing.T) {
	p, _, _ := newTestPipeline(t)
	ctx := context.Background()

	boardID := "board-42"
	first, err := p.IngestPermit(ctx, &PermitInput{
		VRM:         "AB12CDE",
		Type:        string(models.PermitResident),
		Active:      active(true),
		StartDate:   baseTime,
		BoardItemID: &boardID,
	})
	if err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	if !first.IsNew {
		t.Error("IsNew = false on first permit")
	}

	// Same board item: update, not insert.
	second, err := p.IngestPermit(ctx, &PermitInput{
		VRM:         "AB12CDE",
		Type:        string(models.PermitResident),
		Active:      active(false),
		StartDate:   baseTime,
		BoardItemID: &boardID,
	})
	if err != nil {
		t.Fatalf("second ingest: %v", err)
	}
	if second.IsNew {
		t.Error("IsNew = true on board item update")
	}
	if second.Permit.ID != first.Permit.ID {
		t.Errorf("update created a new permit: %q vs %q", second.Permit.ID, first.Permit.ID)
	}
	if second.Permit.Active {
		t.Error("active flag not updated")
	}
}

func TestIngestPermitActiveFlagOnCreate(t *testing.T) {
	p, st, _ := newTestPipeline(t)
	ctx := context.Background()

	// A board sync can deliver a deactivation before the matching create, so
	// a brand-new permit may arrive already inactive. The stored row must
	// keep the explicit false rather than the column default.
	inactive, err := p.IngestPermit(ctx, &PermitInput{
		VRM:       "AB12CDE",
		Type:      string(models.PermitResident),
		Active:    active(false),
		StartDate: baseTime,
	})
	if err != nil {
		t.Fatalf("ingest inactive permit: %v", err)
	}
	if !inactive.IsNew {
		t.Error("IsNew = false on first permit")
	}
	stored, err := st.GetPermit(ctx, inactive.Permit.ID)
	if err != nil {
		t.Fatalf("load permit: %v", err)
	}
	if stored.Active {
		t.Error("explicitly inactive permit stored as active")
	}

	// Omitting the flag still means active.
	defaulted, err := p.IngestPermit(ctx, &PermitInput{
		VRM:       "CD34EFG",
		Type:      string(models.PermitResident),
		StartDate: baseTime,
	})
	if err != nil {
		t.Fatalf("ingest defaulted permit: %v", err)
	}
	stored, err = st.GetPermit(ctx, defaulted.Permit.ID)
	if err != nil {
		t.Fatalf("load permit: %v", err)
	}
	if !stored.Active {
		t.Error("permit without an active flag stored as inactive")
	}
}

func TestIngestPaymentTriggersReconciliation(t *testing.T) {
	p, st, d := newTestPipeline(t)
	ctx := context.Background()

	// Complete a session with no payment: enforcement candidate.
	if _, err := p.IngestMovement(ctx, &MovementInput{
		SiteID: "CP01", Timestamp: baseTime, VRM: "AB12CDE", Direction: "IN",
	}); err != nil {
		t.Fatalf("entry: %v", err)
	}
	exitResult, err := p.IngestMovement(ctx, &MovementInput{
		SiteID: "CP01", Timestamp: baseTime.Add(2 * time.Hour), VRM: "AB12CDE", Direction: "OUT",
	})
	if err != nil {
		t.Fatalf("exit: %v", err)
	}
	sessionID := exitResult.Session.ID

	decision, err := st.GetDecisionBySession(ctx, sessionID)
	if err != nil {
		t.Fatalf("decision: %v", err)
	}
	if decision.Outcome != models.OutcomeEnforcementCandidate {
		t.Fatalf("outcome = %v before payment", decision.Outcome)
	}

	// Late covering payment arrives.
	if _, err := p.IngestPayment(ctx, &PaymentInput{
		VRM:               "AB12CDE",
		SiteID:            "CP01",
		Amount:            6,
		StartTime:         baseTime,
		ExpiryTime:        baseTime.Add(2 * time.Hour),
		Source:            "paybyphone",
		ExternalReference: "txn-late",
	}); err != nil {
		t.Fatalf("payment: %v", err)
	}

	d.Stop(5 * time.Second)

	updated, err := st.GetDecisionBySession(ctx, sessionID)
	if err != nil {
		t.Fatalf("decision after reconcile: %v", err)
	}
	if updated.Outcome != models.OutcomeCompliant || updated.RuleApplied != models.RuleValidPayment {
		t.Errorf("decision = %v/%v, want COMPLIANT/VALID_PAYMENT", updated.Outcome, updated.RuleApplied)
	}
}
