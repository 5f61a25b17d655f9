// Package metrics provides optional Prometheus metrics.
//
// Metrics are opt-in: until InitRegistry is called every constructor returns
// nil and the nil receivers are no-ops, so a disabled deployment pays zero
// overhead.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	mu       sync.RWMutex
	registry *prometheus.Registry
)

// InitRegistry creates the metrics registry with the standard Go and process
// collectors. Safe to call more than once; later calls are no-ops.
func InitRegistry() {
	mu.Lock()
	defer mu.Unlock()
	if registry != nil {
		return
	}
	registry = prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// IsEnabled reports whether metrics collection is active.
func IsEnabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return registry != nil
}

// GetRegistry returns the active registry, or nil when metrics are disabled.
func GetRegistry() *prometheus.Registry {
	mu.RLock()
	defer mu.RUnlock()
	return registry
}

// Handler returns the HTTP handler serving the /metrics endpoint, or nil
// when metrics are disabled.
func Handler() http.Handler {
	reg := GetRegistry()
	if reg == nil {
		return nil
	}
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// QueueStats is implemented by background workers exposing queue counters.
type QueueStats interface {
	Stats() (pending, completed, failed int)
}

// RegisterQueueCollector exposes a background queue's depth and totals as
// gauges. No-op when metrics are disabled.
func RegisterQueueCollector(name string, q QueueStats) {
	reg := GetRegistry()
	if reg == nil || q == nil {
		return
	}

	reg.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name:        "parkwarden_queue_pending",
			Help:        "Tasks currently waiting in a background queue",
			ConstLabels: prometheus.Labels{"queue": name},
		},
		func() float64 {
			pending, _, _ := q.Stats()
			return float64(pending)
		},
	))
	reg.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name:        "parkwarden_queue_completed_total",
			Help:        "Tasks completed by a background queue since start",
			ConstLabels: prometheus.Labels{"queue": name},
		},
		func() float64 {
			_, completed, _ := q.Stats()
			return float64(completed)
		},
	))
	reg.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name:        "parkwarden_queue_failed_total",
			Help:        "Tasks failed in a background queue since start",
			ConstLabels: prometheus.Labels{"queue": name},
		},
		func() float64 {
			_, _, failed := q.Stats()
			return float64(failed)
		},
	))
}
