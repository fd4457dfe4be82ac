package slo

// Config holds the SLO targets and burn-rate thresholds loaded from YAML.
type Config struct {
	SLOs     Targets  `yaml:"slos"`
	BurnRate BurnRate `yaml:"burn_rate"`
}

// Targets groups the per-signal objectives.
type Targets struct {
	Availability Availability `yaml:"availability"`
	Latency      Latency      `yaml:"latency"`
}

// Availability is the success-ratio objective.
type Availability struct {
	Target     float64 `yaml:"target"` // e.g. 99.9
	WindowDays int     `yaml:"window_days,omitempty"`
}

// Latency is the p95 latency objective.
type Latency struct {
	P95ThresholdMs float64 `yaml:"p95_threshold_ms"`
	WindowDays     int     `yaml:"window_days,omitempty"`
}

// BurnRate holds the burn-rate classification thresholds.
type BurnRate struct {
	Thresholds BurnThresholds `yaml:"thresholds"`
}

// BurnThresholds are numeric multipliers of the sustainable baseline (1.0)
// at which the burn-rate label escalates.
type BurnThresholds struct {
	Low      float64 `yaml:"low"`
	Medium   float64 `yaml:"medium"`
	High     float64 `yaml:"high"`
	Critical float64 `yaml:"critical"`
}

// BurnLabel classifies the speed of error-budget consumption.
type BurnLabel string

const (
	BurnLow      BurnLabel = "low"
	BurnMedium   BurnLabel = "medium"
	BurnHigh     BurnLabel = "high"
	BurnCritical BurnLabel = "critical"
)

// Result holds all evaluated reliability signals. It is constructed fresh
// on every evaluation and never mutated afterwards.
type Result struct {
	AvailabilityPct       float64   `json:"availability_pct"`
	ErrorBudgetPct        float64   `json:"error_budget_pct"` // % of budget remaining
	BurnRate              BurnLabel `json:"burn_rate"`
	BurnRateValue         float64   `json:"burn_rate_value"`
	LatencyP95Ms          float64   `json:"latency_p95_ms"`
	LatencyP99Ms          float64   `json:"latency_p99_ms"`
	LatencyCompliant      bool      `json:"latency_compliant"`
	AvailabilityCompliant bool      `json:"availability_compliant"`

	// Raw metadata for downstream consumers (reports, narratives).
	Details Details `json:"details"`
}

// Details carries evaluation metadata alongside the core signals.
type Details struct {
	Service               string    `json:"service"`
	TotalRequests         int64     `json:"total_requests"`
	FailedRequests        int64     `json:"failed_requests"`
	AvailabilityTargetPct float64   `json:"availability_target_pct"`
	LatencyTargetP95Ms    float64   `json:"latency_target_p95_ms"`
	AvgBurnRate           float64   `json:"avg_burn_rate"`
	RecentBurnRate        float64   `json:"recent_burn_rate"`
	HourlyBurnRates       []float64 `json:"hourly_burn_rates"`
}

// Healthy reports whether all reliability signals are inside their comfort
// zone: both compliance checks pass, at least 20% of the error budget
// remains and the burn rate is low or medium.
func (r *Result) Healthy() bool {
	return r.AvailabilityCompliant &&
		r.LatencyCompliant &&
		r.ErrorBudgetPct >= 20 &&
		(r.BurnRate == BurnLow || r.BurnRate == BurnMedium)
}
