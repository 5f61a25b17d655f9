// Package scheduler runs the periodic jobs of the compliance core: the
// decision re-evaluation sweep and stale-session expiry. Jobs are singletons
// guarded by store-backed locks, so overlapping runs and concurrent nodes
// skip instead of double-processing.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/parkwarden/parkwarden/internal/logger"
	"github.com/parkwarden/parkwarden/pkg/metrics"
	"github.com/parkwarden/parkwarden/pkg/models"
	"github.com/parkwarden/parkwarden/pkg/store"
)

// Job names used for locks and audit actors.
const (
	JobReevaluate = "decision-reevaluate"
	JobExpiry     = "session-expiry"
)

// Config holds scheduler intervals and batch limits.
type Config struct {
	// ReevaluateInterval is how often the candidate sweep runs.
	// Default: 30 minutes
	ReevaluateInterval time.Duration `mapstructure:"reevaluate_interval" yaml:"reevaluate_interval"`

	// ReevaluateBatchSize caps decisions per sweep.
	// Default: 500
	ReevaluateBatchSize int `mapstructure:"reevaluate_batch_size" yaml:"reevaluate_batch_size"`

	// ExpiryInterval is how often stale sessions are closed.
	// Default: 1 hour
	ExpiryInterval time.Duration `mapstructure:"expiry_interval" yaml:"expiry_interval"`

	// StaleThreshold is how long a session may stay open.
	// Default: 24 hours
	StaleThreshold time.Duration `mapstructure:"stale_threshold" yaml:"stale_threshold"`
}

// ApplyDefaults fills zero values with defaults.
func (c *Config) ApplyDefaults() {
	if c.ReevaluateInterval <= 0 {
		c.ReevaluateInterval = 30 * time.Minute
	}
	if c.ReevaluateBatchSize <= 0 {
		c.ReevaluateBatchSize = 500
	}
	if c.ExpiryInterval <= 0 {
		c.ExpiryInterval = time.Hour
	}
	if c.StaleThreshold <= 0 {
		c.StaleThreshold = 24 * time.Hour
	}
}

// job is one periodic task.
type job struct {
	name     string
	interval time.Duration
	run      func(ctx context.Context) error
}

// Scheduler owns the periodic job loop.
type Scheduler struct {
	store   store.Store
	holder  string
	jobs    []job
	metrics *metrics.CoreMetrics

	wg        sync.WaitGroup
	stopCh    chan struct{}
	stoppedCh chan struct{}
	started   bool
	mu        sync.Mutex
}

// New creates a scheduler. The holder string identifies this process in the
// job lock table.
func New(st store.Store) *Scheduler {
	hostname, _ := os.Hostname()
	return &Scheduler{
		store:     st,
		holder:    fmt.Sprintf("%s-%d", hostname, os.Getpid()),
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// SetMetrics attaches job-run metrics. A nil argument leaves instrumentation
// as a no-op.
func (s *Scheduler) SetMetrics(m *metrics.CoreMetrics) {
	s.metrics = m
}

// Register adds a periodic job.
func (s *Scheduler) Register(name string, interval time.Duration, run func(ctx context.Context) error) {
	s.jobs = append(s.jobs, job{name: name, interval: interval, run: run})
}

// Start clears any stale locks this holder left behind (a crashed run never
// releases), then launches one ticker loop per job.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	s.mu.Unlock()

	cleared, err := s.store.ClearJobLocksForHolder(ctx, s.holder)
	if err != nil {
		return fmt.Errorf("clear stale job locks: %w", err)
	}
	if cleared > 0 {
		logger.Warn("cleared stale job locks from previous run",
			"holder", s.holder, "count", cleared)
	}

	logger.Info("starting scheduler", "holder", s.holder, "jobs", len(s.jobs))
	for _, j := range s.jobs {
		s.wg.Add(1)
		go s.loop(ctx, j)
	}
	go func() {
		s.wg.Wait()
		close(s.stoppedCh)
	}()
	return nil
}

// Stop signals the loops to exit and waits at most timeout.
func (s *Scheduler) Stop(timeout time.Duration) {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	s.mu.Unlock()

	close(s.stopCh)
	select {
	case <-s.stoppedCh:
		logger.Info("scheduler stopped")
	case <-time.After(timeout):
		logger.Warn("scheduler stop timed out")
	}
}

func (s *Scheduler) loop(ctx context.Context, j job) {
	defer s.wg.Done()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx, j.name, j.run)
		}
	}
}

// RunOnce executes one guarded job run. A held lock means another run is in
// flight and this one is skipped.
func (s *Scheduler) RunOnce(ctx context.Context, name string, run func(ctx context.Context) error) {
	if err := s.store.AcquireJobLock(ctx, name, s.holder, time.Now().UTC()); err != nil {
		if errors.Is(err, models.ErrJobLockHeld) {
			logger.Debug("job lock held, skipping run", logger.KeyJob, name)
			return
		}
		logger.Error("job lock acquisition failed",
			logger.KeyJob, name, logger.KeyError, err)
		return
	}
	defer func() {
		if err := s.store.ReleaseJobLock(context.WithoutCancel(ctx), name, s.holder); err != nil {
			logger.Error("job lock release failed",
				logger.KeyJob, name, logger.KeyError, err)
		}
	}()

	start := time.Now()
	err := run(ctx)
	elapsed := time.Since(start)
	s.metrics.RecordJobRun(name, elapsed, err)
	if err != nil {
		logger.Error("job run failed",
			logger.KeyJob, name,
			logger.KeyDurationMs, float64(elapsed.Milliseconds()),
			logger.KeyError, err)
		return
	}
	logger.Info("job run finished",
		logger.KeyJob, name,
		logger.KeyDurationMs, float64(elapsed.Milliseconds()))
}
