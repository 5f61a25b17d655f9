//go:build integration

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/parkwarden/parkwarden/pkg/models"
)

// newPostgresStore starts a throwaway PostgreSQL container and opens the
// store against it. Opening applies the embedded migrations.
func newPostgresStore(t *testing.T) *GORMStore {
	t.Helper()
	ctx := context.Background()

	// PostgreSQL logs "ready to accept connections" twice during startup,
	// once during bootstrap and once when fully ready.
	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("parkwarden_test"),
		postgres.WithUsername("parkwarden"),
		postgres.WithPassword("parkwarden"),
		testcontainers.WithWaitStrategyAndDeadline(5*time.Minute,
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2),
			wait.ForListeningPort("5432/tcp"),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("failed to get container port: %v", err)
	}

	st, err := New(&Config{
		Type: DatabaseTypePostgres,
		Postgres: PostgresConfig{
			Host:     host,
			Port:     port.Int(),
			Database: "parkwarden_test",
			User:     "parkwarden",
			Password: "parkwarden",
			SSLMode:  "disable",
		},
	})
	if err != nil {
		t.Fatalf("failed to open postgres store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestPostgresMigrationsAndRoundTrip(t *testing.T) {
	st := newPostgresStore(t)
	ctx := context.Background()

	if err := st.Ping(ctx); err != nil {
		t.Fatalf("ping failed: %v", err)
	}

	if err := st.SaveSite(ctx, &models.Site{ID: "GRN01", Name: "Green Lane", Active: true}); err != nil {
		t.Fatalf("save site failed: %v", err)
	}

	start := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	entryID, err := st.CreateMovement(ctx, &models.Movement{
		SiteID:    "GRN01",
		VRM:       "AB12CDE",
		Timestamp: start,
		Direction: models.DirectionEntry,
	})
	if err != nil {
		t.Fatalf("create movement failed: %v", err)
	}

	// The dedupe index must survive the Postgres migration path too.
	_, err = st.CreateMovement(ctx, &models.Movement{
		SiteID:    "GRN01",
		VRM:       "AB12CDE",
		Timestamp: start,
		Direction: models.DirectionEntry,
	})
	if !errors.Is(err, models.ErrDuplicateMovement) {
		t.Fatalf("expected ErrDuplicateMovement, got %v", err)
	}

	sessID, err := st.CreateSession(ctx, &models.Session{
		SiteID:          "GRN01",
		VRM:             "AB12CDE",
		StartTime:       start,
		EntryMovementID: entryID,
		Status:          models.SessionProvisional,
	})
	if err != nil {
		t.Fatalf("create session failed: %v", err)
	}

	// Partial unique index on open sessions.
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

	if err := st.CloseSession(ctx, sessID, entryID, start.Add(time.Hour), 60, models.SessionCompleted); err != nil {
		t.Fatalf("close session failed: %v", err)
	}

	session, err := st.GetSession(ctx, sessID)
	if err != nil {
		t.Fatalf("get session failed: %v", err)
	}
	if session.Status != models.SessionCompleted || session.DurationMinutes == nil || *session.DurationMinutes != 60 {
		t.Fatalf("unexpected closed session: %+v", session)
	}
}

func TestPostgresJobLockContention(t *testing.T) {
	st := newPostgresStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if err := st.AcquireJobLock(ctx, "reevaluate", "node-a", now); err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	if err := st.AcquireJobLock(ctx, "reevaluate", "node-b", now); !errors.Is(err, models.ErrJobLockHeld) {
		t.Fatalf("expected ErrJobLockHeld, got %v", err)
	}
	if err := st.ReleaseJobLock(ctx, "reevaluate", "node-a"); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if err := st.AcquireJobLock(ctx, "reevaluate", "node-b", now); err != nil {
		t.Fatalf("acquire after release failed: %v", err)
	}
}
