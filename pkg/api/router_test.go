package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkwarden/parkwarden/pkg/api/handlers"
	"github.com/parkwarden/parkwarden/pkg/audit"
	"github.com/parkwarden/parkwarden/pkg/export"
	"github.com/parkwarden/parkwarden/pkg/ingest"
	"github.com/parkwarden/parkwarden/pkg/models"
	"github.com/parkwarden/parkwarden/pkg/plate"
	"github.com/parkwarden/parkwarden/pkg/reconcile"
	"github.com/parkwarden/parkwarden/pkg/review"
	"github.com/parkwarden/parkwarden/pkg/rules"
	"github.com/parkwarden/parkwarden/pkg/session"
	"github.com/parkwarden/parkwarden/pkg/store"
	"github.com/parkwarden/parkwarden/pkg/suspension"
)

func newTestAPI(t *testing.T) (http.Handler, *store.GORMStore) {
	t.Helper()
	ctx := context.Background()

	st, err := store.New(&store.Config{
		Type:   store.DatabaseTypeSQLite,
		SQLite: store.SQLiteConfig{Path: ":memory:"},
	})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	site := &models.Site{ID: "CP01", Name: "Test Car Park", Active: true}
	require.NoError(t, st.SaveSite(ctx, site))

	sink := audit.NewSink(st)
	engine := rules.NewEngine(st, sink)
	reconstructor := session.NewReconstructor(st, engine, sink)
	service := reconcile.NewService(st, engine, sink)

	dispatcher := reconcile.NewDispatcher(service, reconcile.DefaultDispatcherConfig())
	dispatcher.Start(ctx)
	t.Cleanup(func() { dispatcher.Stop(5 * time.Second) })

	pipeline, err := ingest.NewPipeline(ctx, st, reconstructor, dispatcher, sink)
	require.NoError(t, err)

	workflow := review.NewWorkflow(st, plate.NewValidator(nil), reconstructor, sink)
	registry := suspension.NewRegistry(st, sink)
	builder := export.NewBuilder(st, 0)

	router := NewRouter(Services{
		Health:      handlers.NewHealthHandler(st, dispatcher),
		Ingest:      handlers.NewIngestHandler(pipeline),
		Reviews:     handlers.NewReviewHandler(workflow),
		Suspensions: handlers.NewSuspensionHandler(registry),
		Decisions:   handlers.NewDecisionHandler(st, sink),
		Sites:       handlers.NewSiteHandler(st, builder, nil, dispatcher),
	})
	return router, st
}

func postJSON(t *testing.T, router http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func get(t *testing.T, router http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	router, _ := newTestAPI(t)

	rec := get(t, router, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = get(t, router, "/health/ready")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "database_latency")
}

func TestMovementIngestion(t *testing.T) {
	router, _ := newTestAPI(t)

	payload := map[string]any{
		"siteId":    "CP01",
		"vrm":       "AB12CDE",
		"timestamp": "2026-03-02T09:00:00Z",
		"direction": "IN",
	}

	rec := postJSON(t, router, "/api/v1/movements", payload)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var result ingest.MovementResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.IsNew)
	assert.NotNil(t, result.Session)

	// Replay is suppressed with 200.
	rec = postJSON(t, router, "/api/v1/movements", payload)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.False(t, result.IsNew)
}

func TestMovementIngestionProblems(t *testing.T) {
	router, _ := newTestAPI(t)

	t.Run("unknown site", func(t *testing.T) {
		rec := postJSON(t, router, "/api/v1/movements", map[string]any{
			"siteId":    "NOPE",
			"vrm":       "AB12CDE",
			"timestamp": "2026-03-02T09:00:00Z",
			"direction": "IN",
		})
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	})

	t.Run("missing plate", func(t *testing.T) {
		rec := postJSON(t, router, "/api/v1/movements", map[string]any{
			"siteId":    "CP01",
			"timestamp": "2026-03-02T09:00:00Z",
			"direction": "IN",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/movements", bytes.NewReader([]byte("{not json")))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	})
}

func TestPaymentIngestionDedupe(t *testing.T) {
	router, _ := newTestAPI(t)

	payload := map[string]any{
		"siteId":            "CP01",
		"vrm":               "AB12CDE",
		"amount":            4.5,
		"startTime":         "2026-03-02T09:00:00Z",
		"expiryTime":        "2026-03-02T11:00:00Z",
		"source":            "paybyphone",
		"externalReference": "txn-1",
	}

	rec := postJSON(t, router, "/api/v1/payments", payload)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = postJSON(t, router, "/api/v1/payments", payload)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSuspensionLifecycle(t *testing.T) {
	router, _ := newTestAPI(t)

	rec := postJSON(t, router, "/api/v1/suspensions", map[string]any{
		"siteId":    "CP01",
		"ruleType":  "FREE_PARKING_PERIOD",
		"startDate": "2026-03-01T00:00:00Z",
		"reason":    "December free parking trial",
		"createdBy": "ops@example.com",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created suspension.CreateResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotNil(t, created.Suspension)

	endPath := fmt.Sprintf("/api/v1/suspensions/%s/end", created.Suspension.ID)
	rec = postJSON(t, router, endPath, map[string]any{
		"endedBy": "ops@example.com",
		"reason":  "trial finished",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Ending twice conflicts.
	rec = postJSON(t, router, endPath, map[string]any{
		"endedBy": "ops@example.com",
		"reason":  "trial finished",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = get(t, router, "/api/v1/suspensions?siteId=CP01")
	assert.Equal(t, http.StatusOK, rec.Code)

	// Short reason is a validation error.
	rec = postJSON(t, router, "/api/v1/suspensions", map[string]any{
		"siteId":    "CP01",
		"startDate": "2026-03-01T00:00:00Z",
		"reason":    "short",
		"createdBy": "ops@example.com",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDecisionReviewFreezes(t *testing.T) {
	router, st := newTestAPI(t)
	ctx := context.Background()

	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)
	duration := models.DurationMinutesAt(start, end)
	sess := &models.Session{
		SiteID: "CP01", VRM: "AB12CDE",
		StartTime: start, EndTime: &end, DurationMinutes: &duration,
		EntryMovementID: "mov-1", Status: models.SessionCompleted,
	}
	_, err := st.CreateSession(ctx, sess)
	require.NoError(t, err)
	decision := &models.Decision{
		SessionID:   sess.ID,
		Outcome:     models.OutcomeEnforcementCandidate,
		RuleApplied: models.RuleNoValidPayment,
		Status:      models.DecisionCandidate,
	}
	_, err = st.CreateDecision(ctx, decision)
	require.NoError(t, err)

	reviewPath := fmt.Sprintf("/api/v1/decisions/%s/review", decision.ID)
	rec := postJSON(t, router, reviewPath, map[string]any{
		"status":     "APPROVED",
		"reviewedBy": "ops@example.com",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Second review conflicts: the decision is frozen.
	rec = postJSON(t, router, reviewPath, map[string]any{
		"status":     "DECLINED",
		"reviewedBy": "ops2@example.com",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = get(t, router, "/api/v1/decisions?siteId=CP01&status=APPROVED")
	assert.Equal(t, http.StatusOK, rec.Code)
	var decisions []*models.Decision
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decisions))
	require.Len(t, decisions, 1)
	assert.Equal(t, models.DecisionApproved, decisions[0].Status)
}

func TestSiteSnapshotAndSchema(t *testing.T) {
	router, _ := newTestAPI(t)

	rec := get(t, router, "/api/v1/sites/CP01/snapshot")
	require.Equal(t, http.StatusOK, rec.Code)
	var snapshot export.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snapshot))
	assert.Equal(t, "CP01", snapshot.SiteID)

	rec = get(t, router, "/api/v1/export/schema")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/schema+json", rec.Header().Get("Content-Type"))

	// No bucket configured: publish answers 503.
	rec = postJSON(t, router, "/api/v1/sites/CP01/export", map[string]any{})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSiteReconcileQueued(t *testing.T) {
	router, _ := newTestAPI(t)

	rec := postJSON(t, router, "/api/v1/sites/CP01/reconcile", map[string]any{})
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec = postJSON(t, router, "/api/v1/sites/NOPE/reconcile", map[string]any{})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
