package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv("PORT", "")
	t.Setenv("LOCK_STORE_DRIVER", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "3000" {
		t.Fatalf("expected default port 3000, got %s", cfg.Port)
	}
	if cfg.LockStore.Driver != "postgres" {
		t.Fatalf("expected postgres lock store, got %s", cfg.LockStore.Driver)
	}
	if cfg.Scheduler.SweepEvery != 10*time.Minute {
		t.Fatalf("unexpected sweep interval: %v", cfg.Scheduler.SweepEvery)
	}
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "storepost.yaml")
	body := []byte(`
port: "8080"
lockStore:
  driver: sqlite
generation:
  model: local-model
  ratePerMinute: 5
scheduler:
  sweepEvery: 1m
`)
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(configPathEnv, path)
	t.Setenv("PORT", "9090")
	t.Setenv("LOCK_STORE_DRIVER", "")
	t.Setenv("GENERATION_MODEL", "")
	t.Setenv("GENERATION_RATE_PER_MINUTE", "")
	t.Setenv("SCHEDULER_SWEEP_EVERY", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "9090" {
		t.Fatalf("env should override file, got port %s", cfg.Port)
	}
	if cfg.LockStore.Driver != "sqlite" {
		t.Fatalf("expected driver from file, got %s", cfg.LockStore.Driver)
	}
	if cfg.Generation.Model != "local-model" || cfg.Generation.RatePerMinute != 5 {
		t.Fatalf("unexpected generation config: %+v", cfg.Generation)
	}
	if cfg.Scheduler.SweepEvery != time.Minute {
		t.Fatalf("unexpected sweep interval: %v", cfg.Scheduler.SweepEvery)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Setenv(configPathEnv, filepath.Join(t.TempDir(), "missing.yaml"))

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}
