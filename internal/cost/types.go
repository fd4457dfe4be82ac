package cost

import "github.com/deployguard/deployguard/internal/telemetry"

// Trend classifies the week-over-week spend movement.
type Trend string

const (
	TrendStable  Trend = "stable"
	TrendRising  Trend = "rising"
	TrendFalling Trend = "falling"
	TrendSpiking Trend = "spiking"
)

// Default week-over-week thresholds, percent.
const (
	DefaultWarnSpikePct  = 20.0
	DefaultBlockSpikePct = 30.0
)

// Thresholds are the week-over-week percentages at which spend is
// considered rising respectively spiking.
type Thresholds struct {
	WarnPct  float64
	BlockPct float64
}

// DefaultThresholds returns the standard 20/30 warn/block split.
func DefaultThresholds() Thresholds {
	return Thresholds{WarnPct: DefaultWarnSpikePct, BlockPct: DefaultBlockSpikePct}
}

// Result holds all evaluated cost signals for a service.
type Result struct {
	Service              string                `json:"service"`
	CurrentWeekAvgUSD    float64               `json:"current_week_avg_usd"`
	PreviousWeekAvgUSD   float64               `json:"previous_week_avg_usd"`
	WoWChangePct         float64               `json:"wow_change_pct"` // positive = increase
	Trend                Trend                 `json:"trend"`
	SpikeDetected        bool                  `json:"spike_detected"`
	BudgetUSD            float64               `json:"budget_usd"`
	MTDSpendUSD          float64               `json:"mtd_spend_usd"`
	BudgetUtilisationPct float64               `json:"budget_utilisation_pct"`
	DailyCosts           []telemetry.DailyCost `json:"daily_costs,omitempty"` // trailing week, ascending

	Details Details `json:"details"`
}

// Details carries evaluation metadata alongside the core signals.
type Details struct {
	Currency       string  `json:"currency"`
	WarnThreshold  float64 `json:"warn_threshold"`
	BlockThreshold float64 `json:"block_threshold"`
	Observations   int     `json:"observations"`
}
