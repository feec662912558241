// internal/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.LogLevel != "info" || !cfg.Persist || cfg.Engine != "builtin" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.MaxConcurrent != 4 {
		t.Errorf("expected max_concurrent 4, got %d", cfg.MaxConcurrent)
	}
	if cfg.Retention.EpisodesTTLDays != 14 || cfg.Retention.LedgerTTLDays != 30 {
		t.Errorf("unexpected retention defaults: %+v", cfg.Retention)
	}
	if cfg.Retention.CompactAfterDays != 3 || cfg.Retention.IntervalMinutes != 60 {
		t.Errorf("unexpected retention defaults: %+v", cfg.Retention)
	}

	// The default config is materialized for the operator to edit.
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected default config file: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	doc := `{
  "data_dir": "/var/lib/chronicle",
  "log_level": "debug",
  "retention": {
    "episodes_ttl_days": 7,
    "compact_after_days": 1
  }
}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DataDir != "/var/lib/chronicle" || cfg.LogLevel != "debug" {
		t.Errorf("file values not applied: %+v", cfg)
	}

	policy := cfg.Policy()
	if policy.EpisodesTTLDays != 7 || policy.CompactAfterDays != 1 {
		t.Errorf("unexpected policy: %+v", policy)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	t.Setenv("CHRONICLE_DATA_DIR", "/tmp/chronicle-test")
	t.Setenv("CHRONICLE_LOG_LEVEL", "warn")
	t.Setenv("CHRONICLE_PERSIST", "false")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DataDir != "/tmp/chronicle-test" {
		t.Errorf("expected env data dir, got %s", cfg.DataDir)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("expected env log level, got %s", cfg.LogLevel)
	}
	if cfg.Persist {
		t.Error("expected persist disabled via env")
	}
}

func TestIntervalMS(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.json"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.IntervalMS() != 60*60*1000 {
		t.Errorf("expected hourly interval, got %d", cfg.IntervalMS())
	}
}
