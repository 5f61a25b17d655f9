package scheduler

import (
	"context"
	"time"

	"github.com/parkwarden/parkwarden/internal/logger"
	"github.com/parkwarden/parkwarden/pkg/audit"
	"github.com/parkwarden/parkwarden/pkg/models"
	"github.com/parkwarden/parkwarden/pkg/rules"
	"github.com/parkwarden/parkwarden/pkg/session"
	"github.com/parkwarden/parkwarden/pkg/store"
)

// Reevaluator sweeps unreviewed enforcement candidates and re-runs the rule
// engine over them, catching late payments and permits the event-driven
// reconciliation missed.
type Reevaluator struct {
	store     store.Store
	engine    *rules.Engine
	audit     *audit.Sink
	batchSize int
}

// NewReevaluator creates the candidate sweep job.
func NewReevaluator(st store.Store, engine *rules.Engine, sink *audit.Sink, batchSize int) *Reevaluator {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &Reevaluator{store: st, engine: engine, audit: sink, batchSize: batchSize}
}

// Run executes one sweep. Human-reviewed decisions are never flipped; the
// engine skips writes when the outcome is unchanged.
func (r *Reevaluator) Run(ctx context.Context) error {
	candidates, err := r.store.ListUnreviewedCandidates(ctx, r.batchSize)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		return nil
	}

	processed, updated, failed := 0, 0, 0
	for _, decision := range candidates {
		if err := ctx.Err(); err != nil {
			break
		}
		sess, err := r.store.GetSession(ctx, decision.SessionID)
		if err != nil {
			logger.ErrorCtx(ctx, "candidate session load failed",
				logger.KeyDecisionID, decision.ID,
				logger.KeySessionID, decision.SessionID,
				logger.KeyError, err)
			failed++
			continue
		}
		processed++

		_, changed, err := r.engine.Apply(ctx, sess, rules.KindAutoReevaluated)
		if err != nil {
			logger.ErrorCtx(ctx, "candidate re-evaluation failed",
				logger.KeyDecisionID, decision.ID,
				logger.KeySessionID, sess.ID,
				logger.KeyError, err)
			failed++
			continue
		}
		if changed {
			updated++
		}
	}

	r.audit.Job(ctx, models.AuditDecisionAutoReevaluated, audit.EntityJob, JobReevaluate,
		JobReevaluate, "", map[string]any{
			"candidates": len(candidates),
			"processed":  processed,
			"updated":    updated,
			"failed":     failed,
		})
	logger.InfoCtx(ctx, "candidate sweep finished",
		logger.KeyJob, JobReevaluate,
		logger.KeyBatchSize, len(candidates),
		logger.KeyProcessed, processed,
		logger.KeyUpdated, updated,
		logger.KeyFailed, failed)
	return nil
}

// ExpiryJob closes sessions that stayed open past the stale threshold.
type ExpiryJob struct {
	reconstructor *session.Reconstructor
	audit         *audit.Sink
	threshold     time.Duration
}

// NewExpiryJob creates the stale-session expiry job.
func NewExpiryJob(reconstructor *session.Reconstructor, sink *audit.Sink, threshold time.Duration) *ExpiryJob {
	if threshold <= 0 {
		threshold = session.DefaultStaleThreshold
	}
	return &ExpiryJob{reconstructor: reconstructor, audit: sink, threshold: threshold}
}

// Run executes one expiry pass. Each expired session gets its own audit
// record linked to the batch summary.
func (e *ExpiryJob) Run(ctx context.Context) error {
	summaryID := e.audit.Job(ctx, models.AuditSessionExpired, audit.EntityJob, JobExpiry,
		JobExpiry, "", nil)

	expired, err := e.reconstructor.ExpireStale(ctx, e.threshold, summaryID)
	if err != nil {
		return err
	}
	logger.InfoCtx(ctx, "expiry pass finished",
		logger.KeyJob, JobExpiry,
		logger.KeyProcessed, expired)
	return nil
}
