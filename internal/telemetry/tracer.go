package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Common attribute keys for compliance-core operations.
// These follow OpenTelemetry semantic conventions where applicable.
// Domain keys use the "enforcement." prefix.
const (
	// ========================================================================
	// Client attributes
	// ========================================================================
	AttrClientIP   = "client.ip"
	AttrClientAddr = "client.address"

	// ========================================================================
	// Domain attributes
	// ========================================================================
	AttrSiteID     = "enforcement.site_id"
	AttrVRM        = "enforcement.vrm"
	AttrMovementID = "enforcement.movement_id"
	AttrSessionID  = "enforcement.session_id"
	AttrDecisionID = "enforcement.decision_id"
	AttrOutcome    = "enforcement.outcome"
	AttrRule       = "enforcement.rule"
	AttrReviewID   = "enforcement.review_id"
	AttrPaymentID  = "enforcement.payment_id"
	AttrPermitID   = "enforcement.permit_id"
	AttrFeed       = "enforcement.feed"
	AttrDirection  = "enforcement.direction"

	// ========================================================================
	// Background job attributes
	// ========================================================================
	AttrJobName   = "job.name"
	AttrBatchSize = "job.batch_size"

	// ========================================================================
	// Storage backend attributes
	// ========================================================================
	AttrBucket = "storage.bucket"
	AttrKey    = "storage.key"
	AttrRegion = "storage.region"
)

// Span names.
// Format: <component>.<operation>
const (
	// Ingestion spans
	SpanIngestMovement = "ingest.movement"
	SpanIngestPayment  = "ingest.payment"
	SpanIngestPermit   = "ingest.permit"

	// Session and decision spans
	SpanSessionProcess  = "session.process"
	SpanSessionExpire   = "session.expire"
	SpanRulesEvaluate   = "rules.evaluate"
	SpanRulesApply      = "rules.apply"
	SpanReconcileTask   = "reconcile.task"
	SpanReevaluateSweep = "scheduler.reevaluate"

	// Export spans
	SpanExportSnapshot = "export.snapshot"
	SpanExportPublish  = "export.publish"
)

// ClientIP returns an attribute for client IP address
func ClientIP(ip string) attribute.KeyValue {
	return attribute.String(AttrClientIP, ip)
}

// ClientAddr returns an attribute for full client address
func ClientAddr(addr string) attribute.KeyValue {
	return attribute.String(AttrClientAddr, addr)
}

// SiteID returns an attribute for the site identifier
func SiteID(id string) attribute.KeyValue {
	return attribute.String(AttrSiteID, id)
}

// VRM returns an attribute for the normalized plate
func VRM(vrm string) attribute.KeyValue {
	return attribute.String(AttrVRM, vrm)
}

// MovementID returns an attribute for a movement identifier
func MovementID(id string) attribute.KeyValue {
	return attribute.String(AttrMovementID, id)
}

// SessionID returns an attribute for a session identifier
func SessionID(id string) attribute.KeyValue {
	return attribute.String(AttrSessionID, id)
}

// DecisionID returns an attribute for a decision identifier
func DecisionID(id string) attribute.KeyValue {
	return attribute.String(AttrDecisionID, id)
}

// Outcome returns an attribute for a decision outcome
func Outcome(outcome string) attribute.KeyValue {
	return attribute.String(AttrOutcome, outcome)
}

// Rule returns an attribute for the rule tag a decision applied
func Rule(rule string) attribute.KeyValue {
	return attribute.String(AttrRule, rule)
}

// ReviewID returns an attribute for a plate review identifier
func ReviewID(id string) attribute.KeyValue {
	return attribute.String(AttrReviewID, id)
}

// PaymentID returns an attribute for a payment identifier
func PaymentID(id string) attribute.KeyValue {
	return attribute.String(AttrPaymentID, id)
}

// PermitID returns an attribute for a permit identifier
func PermitID(id string) attribute.KeyValue {
	return attribute.String(AttrPermitID, id)
}

// Feed returns an attribute for the ingestion feed name
func Feed(feed string) attribute.KeyValue {
	return attribute.String(AttrFeed, feed)
}

// Direction returns an attribute for a movement direction
func Direction(direction string) attribute.KeyValue {
	return attribute.String(AttrDirection, direction)
}

// JobName returns an attribute for a scheduled job name
func JobName(name string) attribute.KeyValue {
	return attribute.String(AttrJobName, name)
}

// BatchSize returns an attribute for a job batch limit
func BatchSize(n int) attribute.KeyValue {
	return attribute.Int(AttrBatchSize, n)
}

// Bucket returns an attribute for S3 bucket name
func Bucket(name string) attribute.KeyValue {
	return attribute.String(AttrBucket, name)
}

// StorageKey returns an attribute for S3 object key
func StorageKey(key string) attribute.KeyValue {
	return attribute.String(AttrKey, key)
}

// Region returns an attribute for cloud region
func Region(region string) attribute.KeyValue {
	return attribute.String(AttrRegion, region)
}

// StartIngestSpan starts a span for one feed ingestion.
// This is a convenience function that sets common attributes.
func StartIngestSpan(ctx context.Context, feed, siteID, vrm string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		Feed(feed),
	}
	if siteID != "" {
		allAttrs = append(allAttrs, SiteID(siteID))
	}
	if vrm != "" {
		allAttrs = append(allAttrs, VRM(vrm))
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, "ingest."+feed, trace.WithAttributes(allAttrs...))
}

// StartJobSpan starts a span for one scheduled job run.
func StartJobSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		JobName(name),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, "job."+name, trace.WithAttributes(allAttrs...))
}

// StartExportSpan starts a span for a snapshot export operation.
func StartExportSpan(ctx context.Context, operation, siteID string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{}
	if siteID != "" {
		allAttrs = append(allAttrs, SiteID(siteID))
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, "export."+operation, trace.WithAttributes(allAttrs...))
}
