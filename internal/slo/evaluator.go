package slo

import (
	"fmt"
	"math"

	"github.com/deployguard/deployguard/internal/telemetry"
)

// Evaluator converts raw request and latency counters into reliability
// signals. It holds only its immutable inputs, so independent evaluations
// may run concurrently without coordination.
type Evaluator struct {
	cfg    *Config
	source telemetry.MetricsSource
}

// NewEvaluator creates a reliability evaluator backed by the given
// telemetry source.
func NewEvaluator(cfg *Config, source telemetry.MetricsSource) *Evaluator {
	return &Evaluator{cfg: cfg, source: source}
}

// Evaluate reads a fresh telemetry snapshot and computes all reliability
// signals against the configured targets.
func (e *Evaluator) Evaluate() (*Result, error) {
	metrics, err := e.source.Metrics()
	if err != nil {
		return nil, fmt.Errorf("fetch metrics: %w", err)
	}
	return e.evaluateMetrics(metrics), nil
}

func (e *Evaluator) evaluateMetrics(m *telemetry.Metrics) *Result {
	target := e.cfg.SLOs.Availability.Target

	availabilityPct := ComputeAvailability(m.TotalRequests, m.FailedRequests)
	errorBudgetPct := ComputeErrorBudget(availabilityPct, target, m.FailedRequests)

	avgBurn, recentBurn := summarizeBurnRates(m.HourlyBurnRate)
	label := ClassifyBurnRate(recentBurn, errorBudgetPct, e.cfg.BurnRate.Thresholds)

	p95 := m.LatencyPercentiles.P95Ms
	p99 := m.LatencyPercentiles.P99Ms
	latencyThreshold := e.cfg.SLOs.Latency.P95ThresholdMs

	return &Result{
		AvailabilityPct:       availabilityPct,
		ErrorBudgetPct:        errorBudgetPct,
		BurnRate:              label,
		BurnRateValue:         round(recentBurn, 2),
		LatencyP95Ms:          p95,
		LatencyP99Ms:          p99,
		LatencyCompliant:      p95 <= latencyThreshold,
		AvailabilityCompliant: availabilityPct >= target,
		Details: Details{
			Service:               m.Service,
			TotalRequests:         m.TotalRequests,
			FailedRequests:        m.FailedRequests,
			AvailabilityTargetPct: target,
			LatencyTargetP95Ms:    latencyThreshold,
			AvgBurnRate:           round(avgBurn, 2),
			RecentBurnRate:        round(recentBurn, 2),
			HourlyBurnRates:       m.HourlyBurnRate,
		},
	}
}

// ComputeAvailability returns the success ratio as a percentage rounded to
// six decimals. Zero traffic is defined as fully available rather than a
// division error.
func ComputeAvailability(total, failed int64) float64 {
	if total <= 0 {
		return 100.0
	}
	success := total - failed
	if success < 0 {
		success = 0
	}
	return round(float64(success)/float64(total)*100, 6)
}

// ComputeErrorBudget returns the percentage of the allowed failure
// headroom still unconsumed, clamped to [0, 100] and rounded to two
// decimals. With a 100% target there is no headroom at all: any failure
// consumes the entire budget.
func ComputeErrorBudget(availabilityPct, target float64, failed int64) float64 {
	allowedFailPct := 100.0 - target
	actualFailPct := 100.0 - availabilityPct

	var consumedPct float64
	if allowedFailPct > 0 {
		consumedPct = (actualFailPct / allowedFailPct) * 100
	} else if failed > 0 {
		consumedPct = 100.0
	}

	return round(math.Max(0, 100.0-consumedPct), 2)
}

// ClassifyBurnRate maps the recent numeric burn and the remaining budget
// onto a severity label. The label escalates on either axis so a low
// numeric burn with an already exhausted budget is still flagged.
func ClassifyBurnRate(recentBurn, errorBudgetPct float64, t BurnThresholds) BurnLabel {
	switch {
	case recentBurn >= t.Critical || errorBudgetPct < 10:
		return BurnCritical
	case recentBurn >= t.High || errorBudgetPct < 20:
		return BurnHigh
	case recentBurn >= t.Medium || errorBudgetPct < 50:
		return BurnMedium
	default:
		return BurnLow
	}
}

// summarizeBurnRates returns the mean of the whole series and the mean of
// its last three samples (or fewer when the series is shorter).
func summarizeBurnRates(rates []float64) (avg, recent float64) {
	if len(rates) == 0 {
		return 1.0, 1.0
	}

	var sum float64
	for _, r := range rates {
		sum += r
	}
	avg = sum / float64(len(rates))

	n := 3
	if len(rates) < n {
		n = len(rates)
	}
	var recentSum float64
	for _, r := range rates[len(rates)-n:] {
		recentSum += r
	}
	recent = recentSum / float64(n)

	return avg, recent
}

func round(v float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(v*pow) / pow
}
