package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Delivery.Interval != 5*time.Second {
		t.Fatalf("expected delivery interval 5s, got %v", cfg.Delivery.Interval)
	}
	if cfg.Delivery.BatchSize != 10 {
		t.Fatalf("expected batch size 10, got %d", cfg.Delivery.BatchSize)
	}
	if cfg.Delivery.MaxAttempts != 5 {
		t.Fatalf("expected max attempts 5, got %d", cfg.Delivery.MaxAttempts)
	}
	if cfg.Monitor.Interval != 30*time.Second {
		t.Fatalf("expected monitor interval 30s, got %v", cfg.Monitor.Interval)
	}
	if cfg.Monitor.MaxInFlight != 20 {
		t.Fatalf("expected max in-flight 20, got %d", cfg.Monitor.MaxInFlight)
	}
	if cfg.Dispatcher.ShutdownGrace != 5*time.Second {
		t.Fatalf("expected shutdown grace 5s, got %v", cfg.Dispatcher.ShutdownGrace)
	}
	if cfg.Metrics.MaxLabelSets != 10000 {
		t.Fatalf("expected label budget 10000, got %d", cfg.Metrics.MaxLabelSets)
	}
}

func TestDatabaseDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db.internal",
		Port:     5432,
		User:     "hookpulse",
		Password: "hunter2",
		Database: "hookpulse",
		SSLMode:  "require",
	}

	want := "host=db.internal port=5432 user=hookpulse password=hunter2 dbname=hookpulse sslmode=require"
	if got := cfg.DSN(); got != want {
		t.Fatalf("expected DSN %q, got %q", want, got)
	}
}
