package logger

import "log/slog"

// Standard field keys for structured logging. Use these keys consistently
// across all log statements for log aggregation and querying.
const (
	// Distributed tracing
	KeyTraceID = "trace_id"
	KeySpanID  = "span_id"

	// Request correlation
	KeyRequestID = "request_id"

	// Domain identifiers
	KeySiteID     = "site_id"
	KeyVRM        = "vrm"
	KeyMovementID = "movement_id"
	KeySessionID  = "session_id"
	KeyDecisionID = "decision_id"
	KeyReviewID   = "review_id"
	KeyPaymentID  = "payment_id"
	KeyPermitID   = "permit_id"
	KeyCameraID   = "camera_id"

	// Rule engine
	KeyOutcome = "outcome"
	KeyRule    = "rule"
	KeyStatus  = "status"

	// Movements
	KeyDirection = "direction"
	KeyTimestamp = "timestamp"

	// Scheduled jobs
	KeyJob       = "job"
	KeyBatchSize = "batch_size"
	KeyProcessed = "processed"
	KeyUpdated   = "updated"
	KeyFailed    = "failed"

	// Operation metadata
	KeyDurationMs = "duration_ms"
	KeyError      = "error"
	KeyActor      = "actor"
	KeyAction     = "action"

	// Audit trail
	KeyEntityType = "entity_type"
	KeyEntityID   = "entity_id"
)

// Field constructors for type safety.

// SiteID returns a slog.Attr for a site identifier
func SiteID(id string) slog.Attr {
	return slog.String(KeySiteID, id)
}

// VRM returns a slog.Attr for a normalized plate
func VRM(vrm string) slog.Attr {
	return slog.String(KeyVRM, vrm)
}

// MovementID returns a slog.Attr for a movement identifier
func MovementID(id string) slog.Attr {
	return slog.String(KeyMovementID, id)
}

// SessionID returns a slog.Attr for a session identifier
func SessionID(id string) slog.Attr {
	return slog.String(KeySessionID, id)
}

// DecisionID returns a slog.Attr for a decision identifier
func DecisionID(id string) slog.Attr {
	return slog.String(KeyDecisionID, id)
}

// Outcome returns a slog.Attr for a decision outcome
func Outcome(outcome string) slog.Attr {
	return slog.String(KeyOutcome, outcome)
}

// Rule returns a slog.Attr for the rule tag a decision applied
func Rule(rule string) slog.Attr {
	return slog.String(KeyRule, rule)
}

// Job returns a slog.Attr for a scheduled job name
func Job(name string) slog.Attr {
	return slog.String(KeyJob, name)
}

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}
