package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func envMap(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "payroll.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := writeConfig(t, `
wallet:
  mode: devnet
ledger:
  path: /var/lib/payroll/ledger.json
  minLatency: 200ms
  jitter: 0s
submit:
  ratePerSecond: 2.5
  burst: 10
log:
  format: json
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Mode != "devnet" {
		t.Fatalf("expected mode=devnet, got %q", cfg.Mode)
	}
	if cfg.LedgerPath != "/var/lib/payroll/ledger.json" {
		t.Fatalf("unexpected ledger path %q", cfg.LedgerPath)
	}
	if cfg.MinLatency != 200*time.Millisecond {
		t.Fatalf("expected minLatency=200ms, got %s", cfg.MinLatency)
	}
	if cfg.Jitter != 0 {
		t.Fatalf("explicit zero jitter must override the default, got %s", cfg.Jitter)
	}
	if cfg.SubmitRate != 2.5 || cfg.SubmitBurst != 10 {
		t.Fatalf("unexpected submit limits %v/%d", cfg.SubmitRate, cfg.SubmitBurst)
	}
	if cfg.LogFormat != "json" {
		t.Fatalf("expected log format json, got %q", cfg.LogFormat)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("unset keys must keep defaults, got log level %q", cfg.LogLevel)
	}
}

func TestLoadErrorsOnMissingOrInvalidExplicitPath(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config")
	}
	path := writeConfig(t, "ledger: [unclosed")
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestLedgerSecretIsNotReadFromFile(t *testing.T) {
	path := writeConfig(t, "ledger:\n  secret: from-file\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.LedgerSecret != "" {
		t.Fatalf("ledger secret must only come from the environment, got %q", cfg.LedgerSecret)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := Default()
	ApplyEnvOverrides(&cfg, envMap(map[string]string{
		"PAYROLL_LEDGER_SECRET":      " hunter2 ",
		"PAYROLL_LEDGER_MIN_LATENCY": "0s",
		"PAYROLL_LEDGER_JITTER":      "not-a-duration",
		"PAYROLL_SUBMIT_RATE":        "0.5",
		"PAYROLL_SUBMIT_BURST":       "x",
		"PAYROLL_MODE":               "devnet",
		"PAYROLL_METRICS_TEXTFILE":   "/tmp/payroll.prom",
	}))

	if cfg.LedgerSecret != "hunter2" {
		t.Fatalf("expected trimmed secret, got %q", cfg.LedgerSecret)
	}
	if cfg.MinLatency != 0 {
		t.Fatalf("expected minLatency=0, got %s", cfg.MinLatency)
	}
	if cfg.Jitter != time.Second {
		t.Fatalf("invalid duration must be ignored, got %s", cfg.Jitter)
	}
	if cfg.SubmitRate != 0.5 {
		t.Fatalf("expected submit rate 0.5, got %v", cfg.SubmitRate)
	}
	if cfg.SubmitBurst != Default().SubmitBurst {
		t.Fatalf("invalid burst must be ignored, got %d", cfg.SubmitBurst)
	}
	if cfg.Mode != "devnet" || cfg.MetricsTextfile != "/tmp/payroll.prom" {
		t.Fatalf("unexpected overrides: %+v", cfg)
	}
}

func TestDefaultsMatchSimulatedConfirmationDelay(t *testing.T) {
	cfg := Default()
	if cfg.MinLatency != 1500*time.Millisecond || cfg.Jitter != time.Second {
		t.Fatalf("unexpected latency defaults %s + %s", cfg.MinLatency, cfg.Jitter)
	}
}
