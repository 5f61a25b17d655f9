// Package audit records state-changing core actions to the append-only
// audit trail. Every record answers who did what to which entity and when;
// job runs carry a parent record so per-item records can be traced back to
// the batch that produced them.
package audit

import (
	"context"
	"time"

	"github.com/parkwarden/parkwarden/internal/logger"
	"github.com/parkwarden/parkwarden/pkg/models"
)

// Entity types referenced by audit records.
const (
	EntityMovement   = "movement"
	EntitySession    = "session"
	EntityDecision   = "decision"
	EntityPayment    = "payment"
	EntityPermit     = "permit"
	EntitySuspension = "suspension"
	EntityReview     = "plate_review"
	EntityJob        = "job"
)

// Recorder persists audit records. Satisfied by store.Store.
type Recorder interface {
	AppendAudit(ctx context.Context, record *models.AuditRecord) (string, error)
}

// Event describes one auditable action before persistence.
type Event struct {
	Action     string
	EntityType string
	EntityID   string
	Actor      string
	ActorType  string
	SiteID     string
	VRM        string
	ParentID   string
	Details    map[string]any
}

// Sink writes audit events to the store. A failed write is logged and
// swallowed: auditing must never fail the operation it describes.
type Sink struct {
	recorder Recorder
	now      func() time.Time
}

// NewSink creates a sink backed by the given recorder.
func NewSink(recorder Recorder) *Sink {
	return &Sink{recorder: recorder, now: time.Now}
}

// Record persists one audit event and returns the record id, empty when the
// write failed.
func (s *Sink) Record(ctx context.Context, event Event) string {
	record := &models.AuditRecord{
		EntityType: event.EntityType,
		EntityID:   event.EntityID,
		Action:     event.Action,
		Actor:      event.Actor,
		ActorType:  event.ActorType,
		Timestamp:  s.now().UTC(),
	}
	if record.Actor == "" {
		record.Actor = "system"
		record.ActorType = models.ActorTypeSystem
	}
	if event.SiteID != "" {
		record.SiteID = &event.SiteID
	}
	if event.VRM != "" {
		record.VRM = &event.VRM
	}
	if event.ParentID != "" {
		record.ParentAuditID = &event.ParentID
	}
	if err := record.SetDetails(event.Details); err != nil {
		logger.WarnCtx(ctx, "audit details not serializable",
			logger.KeyAction, event.Action,
			logger.KeyError, err)
	}

	id, err := s.recorder.AppendAudit(ctx, record)
	if err != nil {
		logger.ErrorCtx(ctx, "audit write failed",
			logger.KeyAction, event.Action,
			logger.KeyEntityType, event.EntityType,
			logger.KeyEntityID, event.EntityID,
			logger.KeyError, err)
		return ""
	}
	return id
}

// System records an event performed by the core itself.
func (s *Sink) System(ctx context.Context, action, entityType, entityID string, details map[string]any) string {
	return s.Record(ctx, Event{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Actor:      "system",
		ActorType:  models.ActorTypeSystem,
		Details:    details,
	})
}

// Operator records an event performed by a named human operator.
func (s *Sink) Operator(ctx context.Context, action, entityType, entityID, operator string, details map[string]any) string {
	return s.Record(ctx, Event{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Actor:      operator,
		ActorType:  models.ActorTypeOperator,
		Details:    details,
	})
}

// Job records an event produced by a scheduled job. parentID links per-item
// records to the batch summary; empty for the summary itself.
func (s *Sink) Job(ctx context.Context, action, entityType, entityID, jobName, parentID string, details map[string]any) string {
	return s.Record(ctx, Event{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Actor:      jobName,
		ActorType:  models.ActorTypeJob,
		ParentID:   parentID,
		Details:    details,
	})
}
