package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/parkwarden/parkwarden/pkg/store"
)

func TestGetDefaultConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	if cfg.Logging.Level != "INFO" {
		t.Errorf("logging level = %q", cfg.Logging.Level)
	}
	if cfg.Database.Type != store.DatabaseTypeSQLite {
		t.Errorf("database type = %q", cfg.Database.Type)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("shutdown timeout = %v", cfg.ShutdownTimeout)
	}
	if cfg.Scheduler.ReevaluateInterval != 30*time.Minute {
		t.Errorf("reevaluate interval = %v", cfg.Scheduler.ReevaluateInterval)
	}
	if cfg.Scheduler.ReevaluateBatchSize != 500 {
		t.Errorf("reevaluate batch size = %d", cfg.Scheduler.ReevaluateBatchSize)
	}
	if cfg.Scheduler.StaleThreshold != 24*time.Hour {
		t.Errorf("stale threshold = %v", cfg.Scheduler.StaleThreshold)
	}
	if cfg.Reconcile.Workers != 2 || cfg.Reconcile.QueueSize != 1000 {
		t.Errorf("reconcile defaults = %+v", cfg.Reconcile)
	}
	if cfg.ANPR.RequestTimeout != 60*time.Second {
		t.Errorf("anpr request timeout = %v", cfg.ANPR.RequestTimeout)
	}

	if err := Validate(cfg); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestApplyDefaultsPreservesExplicitValues(t *testing.T) {
	cfg := &Config{
		Logging: LoggingConfig{Level: "debug"},
		Scheduler: SchedulerConfig{
			ReevaluateBatchSize: 50,
		},
	}
	ApplyDefaults(cfg)

	// Level is normalized to uppercase.
	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("level = %q", cfg.Logging.Level)
	}
	if cfg.Scheduler.ReevaluateBatchSize != 50 {
		t.Errorf("batch size overridden: %d", cfg.Scheduler.ReevaluateBatchSize)
	}
	if cfg.Scheduler.ExpiryInterval != time.Hour {
		t.Errorf("expiry interval = %v", cfg.Scheduler.ExpiryInterval)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Run("invalid log level", func(t *testing.T) {
		cfg := GetDefaultConfig()
		cfg.Logging.Level = "LOUD"
		err := Validate(cfg)
		if err == nil {
			t.Fatal("expected validation error")
		}
		if !strings.Contains(err.Error(), "oneof") {
			t.Errorf("err = %v, want oneof violation", err)
		}
	})

	t.Run("export enabled without bucket", func(t *testing.T) {
		cfg := GetDefaultConfig()
		cfg.Export.Enabled = true
		if err := Validate(cfg); err == nil {
			t.Fatal("expected validation error")
		}
	})

	t.Run("poller enabled without url", func(t *testing.T) {
		cfg := GetDefaultConfig()
		cfg.ANPR.Enabled = true
		if err := Validate(cfg); err == nil {
			t.Fatal("expected validation error")
		}
	})
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
logging:
  level: debug
  format: json
database:
  type: sqlite
  sqlite:
    path: /tmp/parkwarden-test.db
scheduler:
  reevaluate_interval: 10m
  stale_threshold: 48h
anpr:
  enabled: true
  url: http://cameras.example.com/events
  poll_interval: 30s
`
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Logging.Level != "DEBUG" || cfg.Logging.Format != "json" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
	if cfg.Scheduler.ReevaluateInterval != 10*time.Minute {
		t.Errorf("reevaluate interval = %v", cfg.Scheduler.ReevaluateInterval)
	}
	if cfg.Scheduler.StaleThreshold != 48*time.Hour {
		t.Errorf("stale threshold = %v", cfg.Scheduler.StaleThreshold)
	}
	// Untouched sections still get defaults.
	if cfg.Scheduler.ExpiryInterval != time.Hour {
		t.Errorf("expiry interval = %v", cfg.Scheduler.ExpiryInterval)
	}
	if cfg.ANPR.URL != "http://cameras.example.com/events" {
		t.Errorf("anpr url = %q", cfg.ANPR.URL)
	}
	if cfg.ANPR.PollInterval != 30*time.Second {
		t.Errorf("poll interval = %v", cfg.ANPR.PollInterval)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Logging.Level != "INFO" {
		t.Errorf("level = %q", cfg.Logging.Level)
	}
}

func TestSaveAndReloadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg := GetDefaultConfig()
	cfg.Logging.Format = "json"
	cfg.Scheduler.ReevaluateBatchSize = 100
	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("save: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("config mode = %v, want 0600", info.Mode().Perm())
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if loaded.Logging.Format != "json" {
		t.Errorf("format = %q", loaded.Logging.Format)
	}
	if loaded.Scheduler.ReevaluateBatchSize != 100 {
		t.Errorf("batch size = %d", loaded.Scheduler.ReevaluateBatchSize)
	}
}
