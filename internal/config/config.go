// Package config loads the immutable runtime configuration. It is built
// once at startup and passed by reference into each component; no
// evaluator reads ambient process state during evaluation.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all runtime settings.
type Config struct {
	LogLevel  string          `mapstructure:"log_level"`
	Paths     PathsConfig     `mapstructure:"paths"`
	Cost      CostConfig      `mapstructure:"cost"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Audit     AuditConfig     `mapstructure:"audit"`
	Explainer ExplainerConfig `mapstructure:"explainer"`
}

// PathsConfig locates the declarative inputs.
type PathsConfig struct {
	SLOConfig    string `mapstructure:"slo_config"`
	Policies     string `mapstructure:"policies"`
	PolicySchema string `mapstructure:"policy_schema"`
	Metrics      string `mapstructure:"metrics"`
	CostData     string `mapstructure:"cost_data"`
}

// CostConfig carries the week-over-week spike thresholds, percent.
type CostConfig struct {
	WarnPct  float64 `mapstructure:"warn_pct"`
	BlockPct float64 `mapstructure:"block_pct"`
}

// TelemetryConfig selects where metric snapshots come from.
type TelemetryConfig struct {
	Source        string        `mapstructure:"source"` // "file" or "prometheus"
	PrometheusURL string        `mapstructure:"prometheus_url"`
	Queries       QueriesConfig `mapstructure:"queries"`
}

// QueriesConfig holds the instant queries used when telemetry comes from
// Prometheus.
type QueriesConfig struct {
	TotalRequests  string `mapstructure:"total_requests"`
	FailedRequests string `mapstructure:"failed_requests"`
	LatencyP95Ms   string `mapstructure:"latency_p95_ms"`
	LatencyP99Ms   string `mapstructure:"latency_p99_ms"`
	HourlyBurnRate string `mapstructure:"hourly_burn_rate"`
}

// AuditConfig selects and locates the decision record store.
type AuditConfig struct {
	Backend string `mapstructure:"backend"` // "jsonl" or "sqlite"
	Dir     string `mapstructure:"dir"`
	DBPath  string `mapstructure:"db_path"`
}

// ExplainerConfig selects the narrative backend.
type ExplainerConfig struct {
	Backend string `mapstructure:"backend"`
}

// Load reads configuration from an optional YAML file with DEPLOYGUARD_*
// environment overrides applied on top of the defaults.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("log_level", "info")
	v.SetDefault("paths.slo_config", "config/slos.yaml")
	v.SetDefault("paths.policies", "config/policies.yaml")
	v.SetDefault("paths.policy_schema", "schemas/policies_v1.json")
	v.SetDefault("paths.metrics", "data/metrics.json")
	v.SetDefault("paths.cost_data", "data/cost.json")
	v.SetDefault("cost.warn_pct", 20.0)
	v.SetDefault("cost.block_pct", 30.0)
	v.SetDefault("telemetry.source", "file")
	v.SetDefault("audit.backend", "jsonl")
	v.SetDefault("audit.dir", "data/audit")
	v.SetDefault("audit.db_path", "data/audit/decisions.db")
	v.SetDefault("explainer.backend", "rule_based")

	v.SetEnvPrefix("DEPLOYGUARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config failed: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config failed: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks if configuration is valid.
func (c *Config) Validate() error {
	if c.Paths.SLOConfig == "" {
		return fmt.Errorf("paths.slo_config is required")
	}
	if c.Paths.Policies == "" {
		return fmt.Errorf("paths.policies is required")
	}

	if c.Cost.WarnPct <= 0 || c.Cost.BlockPct <= 0 {
		return fmt.Errorf("cost thresholds must be positive (warn=%v, block=%v)",
			c.Cost.WarnPct, c.Cost.BlockPct)
	}
	if c.Cost.BlockPct < c.Cost.WarnPct {
		return fmt.Errorf("cost.block_pct (%v) must be >= cost.warn_pct (%v)",
			c.Cost.BlockPct, c.Cost.WarnPct)
	}

	if c.Telemetry.Source != "file" && c.Telemetry.Source != "prometheus" {
		return fmt.Errorf("telemetry source must be 'file' or 'prometheus'")
	}
	if c.Telemetry.Source == "prometheus" {
		if c.Telemetry.PrometheusURL == "" {
			return fmt.Errorf("telemetry.prometheus_url required when source is 'prometheus'")
		}
		q := c.Telemetry.Queries
		if q.TotalRequests == "" || q.FailedRequests == "" || q.LatencyP95Ms == "" {
			return fmt.Errorf("telemetry.queries.{total_requests,failed_requests,latency_p95_ms} required when source is 'prometheus'")
		}
	}

	if c.Audit.Backend != "jsonl" && c.Audit.Backend != "sqlite" {
		return fmt.Errorf("audit backend must be 'jsonl' or 'sqlite'")
	}

	return nil
}
