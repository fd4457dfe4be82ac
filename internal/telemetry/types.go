package telemetry

// LatencyPercentiles holds observed request latency percentiles in milliseconds.
type LatencyPercentiles struct {
	P50Ms float64 `json:"p50_ms,omitempty"`
	P95Ms float64 `json:"p95_ms"`
	P99Ms float64 `json:"p99_ms,omitempty"`
}

// Metrics is a point-in-time snapshot of service telemetry used by the
// reliability evaluator.
type Metrics struct {
	Service            string             `json:"service"`
	WindowDays         int                `json:"window_days,omitempty"`
	TotalRequests      int64              `json:"total_requests"`
	FailedRequests     int64              `json:"failed_requests"`
	LatencyPercentiles LatencyPercentiles `json:"latency_percentiles"`
	HourlyBurnRate     []float64          `json:"hourly_burn_rate,omitempty"`
}

// DailyCost is one day of observed cloud spend.
type DailyCost struct {
	Date string  `json:"date"` // ISO-8601, YYYY-MM-DD
	Cost float64 `json:"cost"`
}

// CostData is the spend history snapshot used by the cost evaluator.
// DailyCosts order is not guaranteed; the evaluator sorts by date itself.
type CostData struct {
	Service          string      `json:"service"`
	Currency         string      `json:"currency,omitempty"`
	CollectedAt      string      `json:"collected_at,omitempty"`
	DailyCosts       []DailyCost `json:"daily_costs"`
	BudgetUSDMonthly float64     `json:"budget_usd_monthly"`
}

// MetricsSource provides a telemetry snapshot for evaluation.
type MetricsSource interface {
	Metrics() (*Metrics, error)
}

// CostSource provides a spend history snapshot for evaluation.
type CostSource interface {
	Costs() (*CostData, error)
}
