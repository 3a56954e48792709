package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"stealth-payroll/go-backend/internal/config"
	"stealth-payroll/go-backend/internal/identity"
	"stealth-payroll/go-backend/internal/ledger"
	"stealth-payroll/go-backend/internal/payroll"
	"stealth-payroll/go-backend/internal/platform/privacylog"
	"stealth-payroll/go-backend/internal/platform/ratelimiter"

	"github.com/prometheus/client_golang/prometheus"
)

type appRuntime struct {
	cfg      config.Config
	logger   *slog.Logger
	ledger   *ledger.Simulated
	payroll  *payroll.Service
	registry *prometheus.Registry
}

func newRuntime(configPath string) (*appRuntime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if !identity.Mode(cfg.Mode).Valid() {
		return nil, fmt.Errorf("%w: %q", identity.ErrInvalidMode, cfg.Mode)
	}
	logger := privacylog.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	l, err := ledger.NewEncryptedPersistent(cfg.LedgerPath, cfg.LedgerSecret, ledger.Options{
		MinLatency: cfg.MinLatency,
		Jitter:     cfg.Jitter,
	})
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}

	registry := prometheus.NewRegistry()
	svc, err := payroll.NewService(payroll.ServiceDeps{
		Ledger:     l,
		Limiter:    ratelimiter.New(cfg.SubmitRate, cfg.SubmitBurst, 10*time.Minute),
		Logger:     logger,
		Registerer: registry,
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("runtime ready", "mode", cfg.Mode, "encrypted_ledger", cfg.LedgerSecret != "")
	return &appRuntime{cfg: cfg, logger: logger, ledger: l, payroll: svc, registry: registry}, nil
}

func (r *appRuntime) mode() identity.Mode {
	return identity.Mode(r.cfg.Mode)
}

// flushMetrics writes the registry for a node_exporter textfile collector
// when a path is configured.
func (r *appRuntime) flushMetrics() {
	if r.cfg.MetricsTextfile == "" {
		return
	}
	if err := prometheus.WriteToTextfile(r.cfg.MetricsTextfile, r.registry); err != nil {
		r.logger.Warn("metrics textfile write failed", "error", err)
	}
}
