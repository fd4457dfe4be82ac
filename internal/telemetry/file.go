package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
)

// FileSource reads telemetry snapshots from JSON files on disk.
type FileSource struct {
	metricsPath string
	costPath    string
}

// NewFileSource creates a file-backed telemetry source. Either path may be
// empty if the corresponding snapshot is never requested.
func NewFileSource(metricsPath, costPath string) *FileSource {
	return &FileSource{
		metricsPath: metricsPath,
		costPath:    costPath,
	}
}

// rawMetrics mirrors Metrics with pointer fields so missing required keys
// can be distinguished from zero values.
type rawMetrics struct {
	Service            string    `json:"service"`
	WindowDays         int       `json:"window_days"`
	TotalRequests      *int64    `json:"total_requests"`
	FailedRequests     *int64    `json:"failed_requests"`
	LatencyPercentiles *rawLat   `json:"latency_percentiles"`
	HourlyBurnRate     []float64 `json:"hourly_burn_rate"`
}

type rawLat struct {
	P50Ms float64  `json:"p50_ms"`
	P95Ms *float64 `json:"p95_ms"`
	P99Ms *float64 `json:"p99_ms"`
}

// Metrics implements MetricsSource. Missing required fields are fatal;
// an absent p99 falls back to p95 and an absent burn-rate series defaults
// to a single steady-state sample.
func (s *FileSource) Metrics() (*Metrics, error) {
	data, err := os.ReadFile(s.metricsPath)
	if err != nil {
		return nil, fmt.Errorf("read metrics snapshot: %w", err)
	}

	var raw rawMetrics
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse metrics snapshot %s: %w", s.metricsPath, err)
	}

	if raw.TotalRequests == nil {
		return nil, fmt.Errorf("metrics snapshot %s: missing total_requests", s.metricsPath)
	}
	if raw.FailedRequests == nil {
		return nil, fmt.Errorf("metrics snapshot %s: missing failed_requests", s.metricsPath)
	}
	if raw.LatencyPercentiles == nil || raw.LatencyPercentiles.P95Ms == nil {
		return nil, fmt.Errorf("metrics snapshot %s: missing latency_percentiles.p95_ms", s.metricsPath)
	}

	p95 := *raw.LatencyPercentiles.P95Ms
	p99 := p95
	if raw.LatencyPercentiles.P99Ms != nil {
		p99 = *raw.LatencyPercentiles.P99Ms
	}

	burn := raw.HourlyBurnRate
	if len(burn) == 0 {
		burn = []float64{1.0}
	}

	return &Metrics{
		Service:        raw.Service,
		WindowDays:     raw.WindowDays,
		TotalRequests:  *raw.TotalRequests,
		FailedRequests: *raw.FailedRequests,
		LatencyPercentiles: LatencyPercentiles{
			P50Ms: raw.LatencyPercentiles.P50Ms,
			P95Ms: p95,
			P99Ms: p99,
		},
		HourlyBurnRate: burn,
	}, nil
}

// Costs implements CostSource.
func (s *FileSource) Costs() (*CostData, error) {
	data, err := os.ReadFile(s.costPath)
	if err != nil {
		return nil, fmt.Errorf("read cost snapshot: %w", err)
	}

	var cd CostData
	if err := json.Unmarshal(data, &cd); err != nil {
		return nil, fmt.Errorf("parse cost snapshot %s: %w", s.costPath, err)
	}

	if len(cd.DailyCosts) == 0 {
		return nil, fmt.Errorf("cost snapshot %s: daily_costs is empty", s.costPath)
	}

	return &cd, nil
}
