package metrics

import (
	"testing"
	"time"
)

type fakeQueue struct{}

func (fakeQueue) Stats() (int, int, int) { return 3, 10, 1 }

func TestNilCoreMetricsIsNoOp(t *testing.T) {
	var m *CoreMetrics
	m.RecordIngest("movement", "new")
	m.RecordSession("created")
	m.RecordDecision("COMPLIANT")
	m.RecordJobRun("decision-reevaluate", time.Second, nil)
}

func TestRegistryLifecycle(t *testing.T) {
	InitRegistry()
	if !IsEnabled() {
		t.Fatal("registry not enabled after init")
	}
	// Idempotent; a second init keeps the same registry.
	reg := GetRegistry()
	InitRegistry()
	if GetRegistry() != reg {
		t.Fatal("second InitRegistry replaced the registry")
	}
	if Handler() == nil {
		t.Fatal("handler nil with registry enabled")
	}

	m := NewCoreMetrics()
	if m == nil {
		t.Fatal("core metrics nil with registry enabled")
	}
	m.RecordIngest("payment", "duplicate")
	m.RecordJobRun("session-expiry", 250*time.Millisecond, nil)

	RegisterQueueCollector("reconcile", fakeQueue{})
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	found := map[string]bool{}
	for _, f := range families {
		found[f.GetName()] = true
	}
	for _, want := range []string{
		"parkwarden_ingest_total",
		"parkwarden_job_duration_seconds",
		"parkwarden_queue_pending",
	} {
		if !found[want] {
			t.Errorf("metric %s not exported", want)
		}
	}
}
