package reconcile

import (
	"context"
	"sync"
	"time"

	"github.com/parkwarden/parkwarden/internal/logger"
)

// taskKind discriminates queued reconciliation triggers.
type taskKind int

const (
	taskPayment taskKind = iota
	taskPermit
	taskSite
)

// task is one pending reconciliation trigger.
type task struct {
	kind taskKind

	vrm    string
	siteID string

	// payment fields
	start     time.Time
	expiry    time.Time
	paymentID string

	// permit fields
	permitSiteID *string
	permitActive bool
	permitID     string

	// site fields
	limit int
}

// DispatcherConfig holds configuration for the background dispatcher.
type DispatcherConfig struct {
	// QueueSize is the maximum number of pending triggers.
	// Default: 1000
	QueueSize int

	// Workers is the number of concurrent reconciliation workers.
	// Default: 2
	Workers int

	// TaskTimeout bounds one reconciliation run.
	// Default: 2 minutes
	TaskTimeout time.Duration
}

// DefaultDispatcherConfig returns sensible defaults.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		QueueSize:   1000,
		Workers:     2,
		TaskTimeout: 2 * time.Minute,
	}
}

// Dispatcher runs reconciliation triggers in the background, decoupling
// ingestion latency from decision re-evaluation. A full queue blocks the
// producer instead of dropping the trigger: a dropped trigger would leave a
// stale enforcement candidate standing.
type Dispatcher struct {
	service *Service
	queue   chan task
	timeout time.Duration

	workers   int
	wg        sync.WaitGroup
	stopCh    chan struct{}
	stoppedCh chan struct{}
	started   bool

	mu        sync.Mutex
	pending   int
	completed int
	failed    int
}

// NewDispatcher creates a background dispatcher for the given service.
func NewDispatcher(service *Service, cfg DispatcherConfig) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1000
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = 2 * time.Minute
	}

	return &Dispatcher{
		service:   service,
		queue:     make(chan task, cfg.QueueSize),
		timeout:   cfg.TaskTimeout,
		workers:   cfg.Workers,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Start begins processing queued triggers.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	if d.started {
		d.mu.Unlock()
		return
	}
	d.started = true
	d.mu.Unlock()

	logger.Info("starting reconciliation dispatcher", "workers", d.workers)

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx)
	}

	go func() {
		d.wg.Wait()
		close(d.stoppedCh)
	}()
}

// Stop drains the queue and shuts the workers down, waiting at most timeout.
func (d *Dispatcher) Stop(timeout time.Duration) {
	d.mu.Lock()
	if !d.started {
		d.mu.Unlock()
		return
	}
	d.started = false
	d.mu.Unlock()

	logger.Info("stopping reconciliation dispatcher", "pending", d.Pending())
	close(d.stopCh)

	select {
	case <-d.stoppedCh:
		logger.Info("reconciliation dispatcher stopped")
	case <-time.After(timeout):
		logger.Warn("reconciliation dispatcher stop timed out", "pending", d.Pending())
	}
}

// EnqueuePayment queues a payment trigger. Blocks while the queue is full.
func (d *Dispatcher) EnqueuePayment(ctx context.Context, vrm, siteID string, start, expiry time.Time, paymentID string) error {
	return d.enqueue(ctx, task{
		kind:      taskPayment,
		vrm:       vrm,
		siteID:    siteID,
		start:     start,
		expiry:    expiry,
		paymentID: paymentID,
	})
}

// EnqueuePermit queues a permit trigger. Blocks while the queue is full.
func (d *Dispatcher) EnqueuePermit(ctx context.Context, vrm string, siteID *string, active bool, permitID string) error {
	return d.enqueue(ctx, task{
		kind:         taskPermit,
		vrm:          vrm,
		permitSiteID: siteID,
		permitActive: active,
		permitID:     permitID,
	})
}

// EnqueueSite queues a bulk site trigger. Blocks while the queue is full.
func (d *Dispatcher) EnqueueSite(ctx context.Context, siteID string, limit int) error {
	return d.enqueue(ctx, task{kind: taskSite, siteID: siteID, limit: limit})
}

func (d *Dispatcher) enqueue(ctx context.Context, t task) error {
	select {
	case d.queue <- t:
	case <-ctx.Done():
		return ctx.Err()
	}
	d.mu.Lock()
	d.pending++
	d.mu.Unlock()
	return nil
}

// Pending returns the number of queued triggers.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Stats returns dispatcher counters.
func (d *Dispatcher) Stats() (pending, completed, failed int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending, d.completed, d.failed
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()

	for {
		select {
		case <-d.stopCh:
			d.drainQueue()
			return

		case <-ctx.Done():
			return

		case t, ok := <-d.queue:
			if !ok {
				return
			}
			d.process(t)
		}
	}
}

// drainQueue processes remaining triggers during shutdown.
func (d *Dispatcher) drainQueue() {
	for {
		select {
		case t, ok := <-d.queue:
			if !ok {
				return
			}
			d.process(t)
		default:
			return
		}
	}
}

func (d *Dispatcher) process(t task) {
	// Detached context: the producing request has already returned.
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	var err error
	switch t.kind {
	case taskPayment:
		_, err = d.service.OnPayment(ctx, t.vrm, t.siteID, t.start, t.expiry, t.paymentID)
	case taskPermit:
		_, err = d.service.OnPermit(ctx, t.vrm, t.permitSiteID, t.permitActive, t.permitID)
	case taskSite:
		_, err = d.service.OnSite(ctx, t.siteID, t.limit)
	}

	d.mu.Lock()
	d.pending--
	if err != nil {
		d.failed++
	} else {
		d.completed++
	}
	d.mu.Unlock()

	if err != nil {
		logger.Error("reconciliation trigger failed",
			logger.KeyVRM, t.vrm,
			logger.KeySiteID, t.siteID,
			logger.KeyError, err)
	}
}
