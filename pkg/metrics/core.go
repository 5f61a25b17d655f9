package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// CoreMetrics counts the domain events of the compliance core.
//
// A nil *CoreMetrics is valid and every method on it is a no-op, so callers
// never need to guard their instrumentation sites.
type CoreMetrics struct {
	ingestTotal    *prometheus.CounterVec
	sessionsTotal  *prometheus.CounterVec
	decisionsTotal *prometheus.CounterVec
	jobRunsTotal   *prometheus.CounterVec
	jobDuration    *prometheus.HistogramVec
}

// NewCoreMetrics creates the domain metric set.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewCoreMetrics() *CoreMetrics {
	reg := GetRegistry()
	if reg == nil {
		return nil
	}

	return &CoreMetrics{
		ingestTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "parkwarden_ingest_total",
				Help: "Ingested events by feed and result",
			},
			[]string{"feed", "result"},
		),
		sessionsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "parkwarden_sessions_total",
				Help: "Session lifecycle events",
			},
			[]string{"event"},
		),
		decisionsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "parkwarden_decisions_total",
				Help: "Decisions written by outcome",
			},
			[]string{"outcome"},
		),
		jobRunsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "parkwarden_job_runs_total",
				Help: "Scheduled job runs by job and status",
			},
			[]string{"job", "status"},
		),
		jobDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "parkwarden_job_duration_seconds",
				Help: "Scheduled job run duration in seconds",
				Buckets: []float64{
					0.1, // trivial batches
					0.5,
					1,
					5,
					30,  // full re-evaluation sweeps
					120, // worst-case backlogs
				},
			},
			[]string{"job"},
		),
	}
}

// RecordIngest counts one ingested event.
// feed is "movement", "payment" or "permit"; result is "new", "duplicate"
// or "rejected".
func (m *CoreMetrics) RecordIngest(feed, result string) {
	if m != nil {
		m.ingestTotal.WithLabelValues(feed, result).Inc()
	}
}

// RecordSession counts one session lifecycle event
// ("created", "completed", "expired").
func (m *CoreMetrics) RecordSession(event string) {
	if m != nil {
		m.sessionsTotal.WithLabelValues(event).Inc()
	}
}

// RecordDecision counts one decision write by outcome.
func (m *CoreMetrics) RecordDecision(outcome string) {
	if m != nil {
		m.decisionsTotal.WithLabelValues(outcome).Inc()
	}
}

// RecordJobRun records one scheduled job run.
func (m *CoreMetrics) RecordJobRun(job string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.jobRunsTotal.WithLabelValues(job, status).Inc()
	m.jobDuration.WithLabelValues(job).Observe(duration.Seconds())
}
