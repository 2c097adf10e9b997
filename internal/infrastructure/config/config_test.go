package config_test

import (
	"testing"
	"time"

	"github.com/iho/mailrecon/internal/infrastructure/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL == "" {
		t.Fatalf("expected default database URL to be set")
	}
	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default HTTP port 8080, got %s", cfg.HTTPPort)
	}
	if cfg.ScanLookbackDays != 3 || cfg.ScanLeaseTTL != 15*time.Minute {
		t.Fatalf("unexpected scan defaults: lookback=%d lease=%s", cfg.ScanLookbackDays, cfg.ScanLeaseTTL)
	}
	if cfg.ReconcileToleranceDays != 1 || cfg.ReconcileMaxPerMovement != 5 {
		t.Fatalf("unexpected reconciliation defaults: %+v", cfg)
	}
	if len(cfg.BankSenders) != 0 || len(cfg.UtilitySenders) != 0 {
		t.Fatalf("expected no default sender domains, got %v %v", cfg.BankSenders, cfg.UtilitySenders)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis://example")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATABASE_TIMEOUT", "45s")
	t.Setenv("SCAN_SCHEDULE", "0 */2 * * *")
	t.Setenv("SCAN_AUTO_RECONCILE", "true")
	t.Setenv("BANK_SENDER_DOMAINS", "bank.example,otherbank.example")
	t.Setenv("RECONCILE_TOLERANCE_DAYS", "3")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL != "postgres://example" {
		t.Fatalf("expected custom database URL, got %s", cfg.DatabaseURL)
	}
	if cfg.RedisURL != "redis://example" {
		t.Fatalf("expected custom redis URL, got %s", cfg.RedisURL)
	}
	if cfg.HTTPPort != "9090" {
		t.Fatalf("expected HTTP port override, got %s", cfg.HTTPPort)
	}
	if cfg.DatabaseTimeout != 45*time.Second {
		t.Fatalf("expected database timeout override, got %s", cfg.DatabaseTimeout)
	}
	if cfg.ScanSchedule != "0 */2 * * *" || !cfg.ScanAutoReconcile {
		t.Fatalf("expected scan overrides, got schedule=%q auto=%v", cfg.ScanSchedule, cfg.ScanAutoReconcile)
	}
	if len(cfg.BankSenders) != 2 || cfg.BankSenders[1] != "otherbank.example" {
		t.Fatalf("expected bank sender list, got %v", cfg.BankSenders)
	}
	if cfg.ReconcileToleranceDays != 3 {
		t.Fatalf("expected tolerance override, got %d", cfg.ReconcileToleranceDays)
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	t.Setenv("HTTP_READ_TIMEOUT", "not-a-duration")

	if _, err := config.Load(); err == nil {
		t.Fatalf("expected error for invalid duration")
	}
}

func TestLoadRejectsOutOfRangeSettings(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "tolerance above cap", key: "RECONCILE_TOLERANCE_DAYS", value: "7"},
		{name: "zero candidates per movement", key: "RECONCILE_MAX_PER_MOVEMENT", value: "0"},
		{name: "negative lookback", key: "SCAN_LOOKBACK_DAYS", value: "-1"},
		{name: "min conns above max", key: "DATABASE_MIN_CONNS", value: "100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := config.Load(); err == nil {
				t.Fatalf("expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}
