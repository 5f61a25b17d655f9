// Package anpr polls an upstream camera feed for plate read events and hands
// them to the ingestion pipeline. The feed endpoint returns a JSON array of
// movement events; a since cursor keeps each poll incremental. Replayed
// events are harmless because ingestion dedupes on the event identity.
package anpr

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/parkwarden/parkwarden/internal/logger"
	"github.com/parkwarden/parkwarden/pkg/ingest"
)

// DefaultPollInterval is how often the feed is polled.
const DefaultPollInterval = time.Minute

// DefaultRequestTimeout bounds one feed request.
const DefaultRequestTimeout = 60 * time.Second

// MovementSink receives polled events. *ingest.Pipeline satisfies this.
type MovementSink interface {
	IngestMovement(ctx context.Context, input *ingest.MovementInput) (*ingest.MovementResult, error)
}

// Config holds the feed endpoint and polling cadence.
type Config struct {
	// URL is the camera feed endpoint.
	URL string

	// PollInterval is how often the feed is polled.
	// Default: 1 minute
	PollInterval time.Duration

	// RequestTimeout bounds one feed request.
	// Default: 60 seconds
	RequestTimeout time.Duration
}

// ApplyDefaults fills zero values with defaults.
func (c *Config) ApplyDefaults() {
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
}

// Poller drives the periodic feed fetch loop.
type Poller struct {
	sink     MovementSink
	feedURL  string
	interval time.Duration
	client   *http.Client

	// since is the timestamp cursor of the newest event fetched so far.
	since time.Time

	mu        sync.Mutex
	started   bool
	stopCh    chan struct{}
	stoppedCh chan struct{}
}

// NewPoller creates a feed poller delivering into sink.
func NewPoller(sink MovementSink, cfg Config) *Poller {
	cfg.ApplyDefaults()
	return &Poller{
		sink:     sink,
		feedURL:  cfg.URL,
		interval: cfg.PollInterval,
		client: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Start launches the poll loop. The first poll runs immediately.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	logger.Info("starting camera feed poller",
		"url", p.feedURL,
		"interval", p.interval.String())

	go func() {
		defer close(p.stoppedCh)

		p.pollOnce(ctx)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-p.stopCh:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.pollOnce(ctx)
			}
		}
	}()
}

// Stop signals the loop to exit and waits at most timeout.
func (p *Poller) Stop(timeout time.Duration) {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()

	close(p.stopCh)
	select {
	case <-p.stoppedCh:
		logger.Info("camera feed poller stopped")
	case <-time.After(timeout):
		logger.Warn("camera feed poller stop timed out")
	}
}

// pollOnce fetches one batch and ingests every event. A fetch failure leaves
// the cursor untouched so the next poll retries the same window.
func (p *Poller) pollOnce(ctx context.Context) {
	events, err := p.fetch(ctx)
	if err != nil {
		logger.ErrorCtx(ctx, "camera feed fetch failed",
			"url", p.feedURL,
			logger.KeyError, err)
		return
	}
	if len(events) == 0 {
		return
	}

	ingested, failed := 0, 0
	for i := range events {
		event := &events[i]
		if _, err := p.sink.IngestMovement(ctx, event); err != nil {
			failed++
			logger.ErrorCtx(ctx, "polled movement rejected",
				logger.KeySiteID, event.SiteID,
				logger.KeyVRM, event.Plate(),
				logger.KeyError, err)
		} else {
			ingested++
		}
		if event.Timestamp.After(p.since) {
			p.since = event.Timestamp
		}
	}

	logger.InfoCtx(ctx, "camera feed poll finished",
		"fetched", len(events),
		"ingested", ingested,
		"failed", failed,
		"cursor", p.since.UTC().Format(time.RFC3339))
}

// fetch requests all events newer than the cursor.
func (p *Poller) fetch(ctx context.Context) ([]ingest.MovementInput, error) {
	endpoint := p.feedURL
	if !p.since.IsZero() {
		u, err := url.Parse(p.feedURL)
		if err != nil {
			return nil, fmt.Errorf("parse feed url: %w", err)
		}
		q := u.Query()
		q.Set("since", p.since.UTC().Format(time.RFC3339))
		u.RawQuery = q.Encode()
		endpoint = u.String()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create feed request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("feed returned %d: %s", resp.StatusCode, string(body))
	}

	var events []ingest.MovementInput
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		return nil, fmt.Errorf("decode feed response: %w", err)
	}
	return events, nil
}
