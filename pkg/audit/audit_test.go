package audit

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/parkwarden/parkwarden/pkg/models"
)

type fakeRecorder struct {
	records []*models.AuditRecord
	err     error
}

func (f *fakeRecorder) AppendAudit(_ context.Context, record *models.AuditRecord) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	record.ID = "audit-1"
	f.records = append(f.records, record)
	return record.ID, nil
}

func TestSinkRecord(t *testing.T) {
	rec := &fakeRecorder{}
	sink := NewSink(rec)
	sink.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	id := sink.Record(context.Background(), Event{
		Action:     models.AuditSessionCreated,
		EntityType: EntitySession,
		EntityID:   "sess-1",
		Actor:      "system",
		ActorType:  models.ActorTypeSystem,
		SiteID:     "CP01",
		VRM:        "AB12CDE",
		Details:    map[string]any{"start_time": "2026-03-01T12:00:00Z"},
	})

	if id != "audit-1" {
		t.Fatalf("id = %q, want audit-1", id)
	}
	if len(rec.records) != 1 {
		t.Fatalf("got %d records, want 1", len(rec.records))
	}
	got := rec.records[0]
	if got.Action != models.AuditSessionCreated {
		t.Errorf("action = %q", got.Action)
	}
	if got.SiteID == nil || *got.SiteID != "CP01" {
		t.Errorf("site_id = %v", got.SiteID)
	}
	if got.VRM == nil || *got.VRM != "AB12CDE" {
		t.Errorf("vrm = %v", got.VRM)
	}
	if !strings.Contains(got.Details, "start_time") {
		t.Errorf("details = %q", got.Details)
	}
	if !got.Timestamp.Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("timestamp = %v", got.Timestamp)
	}
}

func TestSinkRecordDefaultsActor(t *testing.T) {
	rec := &fakeRecorder{}
	sink := NewSink(rec)

	sink.Record(context.Background(), Event{
		Action:     models.AuditMovementIngested,
		EntityType: EntityMovement,
		EntityID:   "mov-1",
	})

	got := rec.records[0]
	if got.Actor != "system" || got.ActorType != models.ActorTypeSystem {
		t.Errorf("actor = %q/%q, want system/SYSTEM", got.Actor, got.ActorType)
	}
}

func TestSinkRecordSwallowsWriteError(t *testing.T) {
	sink := NewSink(&fakeRecorder{err: errors.New("db down")})

	id := sink.Record(context.Background(), Event{
		Action:     models.AuditMovementIngested,
		EntityType: EntityMovement,
		EntityID:   "mov-1",
	})
	if id != "" {
		t.Errorf("id = %q, want empty on write failure", id)
	}
}

func TestSinkJobLinksParent(t *testing.T) {
	rec := &fakeRecorder{}
	sink := NewSink(rec)

	sink.Job(context.Background(), models.AuditSessionExpired, EntitySession, "sess-9",
		"session-expiry", "parent-7", nil)

	got := rec.records[0]
	if got.ActorType != models.ActorTypeJob || got.Actor != "session-expiry" {
		t.Errorf("actor = %q/%q", got.Actor, got.ActorType)
	}
	if got.ParentAuditID == nil || *got.ParentAuditID != "parent-7" {
		t.Errorf("parent = %v", got.ParentAuditID)
	}
}
