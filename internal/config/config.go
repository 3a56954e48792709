// Package config loads the payroll backend settings from YAML and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const envPrefix = "PAYROLL_"

type Config struct {
	Mode            string
	LedgerPath      string
	LedgerSecret    string
	MinLatency      time.Duration
	Jitter          time.Duration
	SubmitRate      float64
	SubmitBurst     int
	MetricsTextfile string
	LogLevel        string
	LogFormat       string
}

// FileConfig is the on-disk layout. The ledger passphrase is deliberately
// absent: it is only read from PAYROLL_LEDGER_SECRET.
type FileConfig struct {
	Wallet struct {
		Mode string `yaml:"mode"`
	} `yaml:"wallet"`
	Ledger struct {
		Path       string         `yaml:"path"`
		MinLatency time.Duration  `yaml:"minLatency"`
		Jitter     *time.Duration `yaml:"jitter"`
	} `yaml:"ledger"`
	Submit struct {
		RatePerSecond float64 `yaml:"ratePerSecond"`
		Burst         int     `yaml:"burst"`
	} `yaml:"submit"`
	Metrics struct {
		Textfile string `yaml:"textfile"`
	} `yaml:"metrics"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

func Default() Config {
	return Config{
		Mode:        "mock",
		LedgerPath:  "data/ledger.json",
		MinLatency:  1500 * time.Millisecond,
		Jitter:      time.Second,
		SubmitRate:  1,
		SubmitBurst: 5,
		LogLevel:    "info",
		LogFormat:   "text",
	}
}

// Load reads configPath, or the first default location that exists, merges it
// over Default and applies environment overrides. A missing explicit path or
// unparsable file is an error; missing default files are not.
func Load(configPath string) (Config, error) {
	cfg := Default()

	candidates := []string{"go-backend/configs/payroll.yaml", "configs/payroll.yaml"}
	explicit := strings.TrimSpace(configPath) != ""
	if explicit {
		candidates = []string{strings.TrimSpace(configPath)}
	}

	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			if !explicit && errors.Is(err, os.ErrNotExist) {
				continue
			}
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		var parsed FileConfig
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
		Merge(&cfg, parsed)
		break
	}

	ApplyEnvOverrides(&cfg, os.Getenv)
	return cfg, nil
}

func Merge(dst *Config, src FileConfig) {
	if v := strings.TrimSpace(src.Wallet.Mode); v != "" {
		dst.Mode = v
	}
	if v := strings.TrimSpace(src.Ledger.Path); v != "" {
		dst.LedgerPath = v
	}
	if src.Ledger.MinLatency != 0 {
		dst.MinLatency = src.Ledger.MinLatency
	}
	if src.Ledger.Jitter != nil {
		dst.Jitter = *src.Ledger.Jitter
	}
	if src.Submit.RatePerSecond != 0 {
		dst.SubmitRate = src.Submit.RatePerSecond
	}
	if src.Submit.Burst != 0 {
		dst.SubmitBurst = src.Submit.Burst
	}
	if v := strings.TrimSpace(src.Metrics.Textfile); v != "" {
		dst.MetricsTextfile = v
	}
	if v := strings.TrimSpace(src.Log.Level); v != "" {
		dst.LogLevel = v
	}
	if v := strings.TrimSpace(src.Log.Format); v != "" {
		dst.LogFormat = v
	}
}

// ApplyEnvOverrides applies PAYROLL_* variables. Values that do not parse are
// ignored.
func ApplyEnvOverrides(cfg *Config, getenv func(string) string) {
	str := func(name string, dst *string) {
		if v := strings.TrimSpace(getenv(envPrefix + name)); v != "" {
			*dst = v
		}
	}
	dur := func(name string, dst *time.Duration) {
		if d, err := time.ParseDuration(strings.TrimSpace(getenv(envPrefix + name))); err == nil && d >= 0 {
			*dst = d
		}
	}

	str("MODE", &cfg.Mode)
	str("LEDGER_PATH", &cfg.LedgerPath)
	str("LEDGER_SECRET", &cfg.LedgerSecret)
	str("METRICS_TEXTFILE", &cfg.MetricsTextfile)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("LOG_FORMAT", &cfg.LogFormat)
	dur("LEDGER_MIN_LATENCY", &cfg.MinLatency)
	dur("LEDGER_JITTER", &cfg.Jitter)

	if v, err := strconv.ParseFloat(strings.TrimSpace(getenv(envPrefix+"SUBMIT_RATE")), 64); err == nil {
		cfg.SubmitRate = v
	}
	if v, err := strconv.Atoi(strings.TrimSpace(getenv(envPrefix + "SUBMIT_BURST"))); err == nil {
		cfg.SubmitBurst = v
	}
}
