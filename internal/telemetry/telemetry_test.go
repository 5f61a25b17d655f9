package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.False(t, cfg.Enabled)
	assert.Equal(t, "parkwarden", cfg.ServiceName)
	assert.Equal(t, "dev", cfg.ServiceVersion)
	assert.Equal(t, "localhost:4317", cfg.Endpoint)
	assert.True(t, cfg.Insecure)
	assert.Equal(t, 1.0, cfg.SampleRate)
}

func TestInitDisabled(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.Enabled = false

	shutdown, err := Init(ctx, cfg)
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	// Should be able to call shutdown without error
	err = shutdown(ctx)
	assert.NoError(t, err)

	// Should not be enabled
	assert.False(t, IsEnabled())
}

func TestTracerReturnsNoOp(t *testing.T) {
	// Reset state
	tracer = nil
	enabled = false

	// Without initialization, should return no-op tracer
	tr := Tracer()
	require.NotNil(t, tr)
}

func TestStartSpan(t *testing.T) {
	ctx := context.Background()

	// Even without initialization, StartSpan should work (no-op)
	newCtx, span := StartSpan(ctx, "test.operation")
	require.NotNil(t, newCtx)
	require.NotNil(t, span)

	// Should be able to end the span
	span.End()
}

func TestSpanFromContext(t *testing.T) {
	ctx := context.Background()

	// Should return a span even without active span
	span := SpanFromContext(ctx)
	require.NotNil(t, span)
}

func TestAddEvent(t *testing.T) {
	ctx := context.Background()

	// Should not panic with no active span
	require.NotPanics(t, func() {
		AddEvent(ctx, "test.event")
	})
}

func TestRecordError(t *testing.T) {
	ctx := context.Background()

	// Should not panic with nil error
	require.NotPanics(t, func() {
		RecordError(ctx, nil)
	})

	// Should not panic with error
	require.NotPanics(t, func() {
		RecordError(ctx, errors.New("test error"))
	})
}

func TestSetStatus(t *testing.T) {
	ctx := context.Background()

	// Should not panic
	require.NotPanics(t, func() {
		SetStatus(ctx, codes.Ok, "success")
	})

	require.NotPanics(t, func() {
		SetStatus(ctx, codes.Error, "failed")
	})
}

func TestSetAttributes(t *testing.T) {
	ctx := context.Background()

	// Should not panic
	require.NotPanics(t, func() {
		SetAttributes(ctx, ClientIP("192.168.1.1"))
	})
}

func TestTraceID(t *testing.T) {
	ctx := context.Background()

	// Without active span, should return empty string
	traceID := TraceID(ctx)
	assert.Equal(t, "", traceID)
}

func TestSpanID(t *testing.T) {
	ctx := context.Background()

	// Without active span, should return empty string
	spanID := SpanID(ctx)
	assert.Equal(t, "", spanID)
}

func TestAttributeHelpers(t *testing.T) {
	t.Run("ClientIP", func(t *testing.T) {
		attr := ClientIP("192.168.1.100")
		assert.Equal(t, AttrClientIP, string(attr.Key))
		assert.Equal(t, "192.168.1.100", attr.Value.AsString())
	})

	t.Run("ClientAddr", func(t *testing.T) {
		attr := ClientAddr("192.168.1.100:12345")
		assert.Equal(t, AttrClientAddr, string(attr.Key))
		assert.Equal(t, "192.168.1.100:12345", attr.Value.AsString())
	})

	t.Run("SiteID", func(t *testing.T) {
		attr := SiteID("CP01")
		assert.Equal(t, AttrSiteID, string(attr.Key))
		assert.Equal(t, "CP01", attr.Value.AsString())
	})

	t.Run("VRM", func(t *testing.T) {
		attr := VRM("AB12CDE")
		assert.Equal(t, AttrVRM, string(attr.Key))
		assert.Equal(t, "AB12CDE", attr.Value.AsString())
	})

	t.Run("SessionID", func(t *testing.T) {
		attr := SessionID("sess-1")
		assert.Equal(t, AttrSessionID, string(attr.Key))
		assert.Equal(t, "sess-1", attr.Value.AsString())
	})

	t.Run("Outcome", func(t *testing.T) {
		attr := Outcome("COMPLIANT")
		assert.Equal(t, AttrOutcome, string(attr.Key))
		assert.Equal(t, "COMPLIANT", attr.Value.AsString())
	})

	t.Run("Rule", func(t *testing.T) {
		attr := Rule("VALID_PAYMENT")
		assert.Equal(t, AttrRule, string(attr.Key))
		assert.Equal(t, "VALID_PAYMENT", attr.Value.AsString())
	})

	t.Run("Feed", func(t *testing.T) {
		attr := Feed("movement")
		assert.Equal(t, AttrFeed, string(attr.Key))
		assert.Equal(t, "movement", attr.Value.AsString())
	})

	t.Run("JobName", func(t *testing.T) {
		attr := JobName("decision-reevaluate")
		assert.Equal(t, AttrJobName, string(attr.Key))
		assert.Equal(t, "decision-reevaluate", attr.Value.AsString())
	})

	t.Run("BatchSize", func(t *testing.T) {
		attr := BatchSize(500)
		assert.Equal(t, AttrBatchSize, string(attr.Key))
		assert.Equal(t, int64(500), attr.Value.AsInt64())
	})

	t.Run("Bucket", func(t *testing.T) {
		attr := Bucket("my-bucket")
		assert.Equal(t, AttrBucket, string(attr.Key))
		assert.Equal(t, "my-bucket", attr.Value.AsString())
	})

	t.Run("StorageKey", func(t *testing.T) {
		attr := StorageKey("exports/CP01.json")
		assert.Equal(t, AttrKey, string(attr.Key))
		assert.Equal(t, "exports/CP01.json", attr.Value.AsString())
	})
}

func TestStartIngestSpan(t *testing.T) {
	ctx := context.Background()

	newCtx, span := StartIngestSpan(ctx, "movement", "CP01", "AB12CDE")
	require.NotNil(t, newCtx)
	require.NotNil(t, span)
	span.End()

	// With empty site and plate
	newCtx2, span2 := StartIngestSpan(ctx, "permit", "", "")
	require.NotNil(t, newCtx2)
	require.NotNil(t, span2)
	span2.End()

	// With additional attributes
	newCtx3, span3 := StartIngestSpan(ctx, "payment", "CP01", "AB12CDE", Direction("ENTRY"))
	require.NotNil(t, newCtx3)
	require.NotNil(t, span3)
	span3.End()
}

func TestStartJobSpan(t *testing.T) {
	ctx := context.Background()

	newCtx, span := StartJobSpan(ctx, "session-expiry")
	require.NotNil(t, newCtx)
	require.NotNil(t, span)
	span.End()

	// With additional attributes
	newCtx2, span2 := StartJobSpan(ctx, "decision-reevaluate", BatchSize(500))
	require.NotNil(t, newCtx2)
	require.NotNil(t, span2)
	span2.End()
}

func TestStartExportSpan(t *testing.T) {
	ctx := context.Background()

	newCtx, span := StartExportSpan(ctx, "snapshot", "CP01")
	require.NotNil(t, newCtx)
	require.NotNil(t, span)
	span.End()

	// Site-independent operation
	newCtx2, span2 := StartExportSpan(ctx, "publish", "", Bucket("exports"))
	require.NotNil(t, newCtx2)
	require.NotNil(t, span2)
	span2.End()
}
