package slo

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Default burn-rate thresholds, used when the config omits them.
const (
	defaultMediumThreshold   = 2.0
	defaultHighThreshold     = 5.0
	defaultCriticalThreshold = 10.0
)

// LoadConfig reads and validates an SLO configuration file. A missing or
// malformed file is a configuration error and is surfaced immediately.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read SLO config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse SLO config %s: %w", path, err)
	}

	if cfg.SLOs.Availability.Target <= 0 || cfg.SLOs.Availability.Target > 100 {
		return nil, fmt.Errorf("SLO config %s: slos.availability.target must be in (0, 100], got %v",
			path, cfg.SLOs.Availability.Target)
	}
	if cfg.SLOs.Latency.P95ThresholdMs <= 0 {
		return nil, fmt.Errorf("SLO config %s: slos.latency.p95_threshold_ms must be positive, got %v",
			path, cfg.SLOs.Latency.P95ThresholdMs)
	}

	applyThresholdDefaults(&cfg.BurnRate.Thresholds)

	return &cfg, nil
}

func applyThresholdDefaults(t *BurnThresholds) {
	if t.Low == 0 {
		t.Low = 1.0
	}
	if t.Medium == 0 {
		t.Medium = defaultMediumThreshold
	}
	if t.High == 0 {
		t.High = defaultHighThreshold
	}
	if t.Critical == 0 {
		t.Critical = defaultCriticalThreshold
	}
}
