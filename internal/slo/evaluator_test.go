package slo

import (
	"math"
	"testing"

	"github.com/deployguard/deployguard/internal/telemetry"
)

func testConfig() *Config {
	return &Config{
		SLOs: Targets{
			Availability: Availability{Target: 99.9, WindowDays: 30},
			Latency:      Latency{P95ThresholdMs: 500, WindowDays: 30},
		},
		BurnRate: BurnRate{
			Thresholds: BurnThresholds{Low: 1.0, Medium: 2.0, High: 5.0, Critical: 10.0},
		},
	}
}

type staticMetrics struct {
	m *telemetry.Metrics
}

func (s staticMetrics) Metrics() (*telemetry.Metrics, error) {
	return s.m, nil
}

func steadyBurn(n int, v float64) []float64 {
	rates := make([]float64, n)
	for i := range rates {
		rates[i] = v
	}
	return rates
}

func TestComputeAvailability(t *testing.T) {
	tests := []struct {
		name     string
		total    int64
		failed   int64
		expected float64
	}{
		{name: "perfect", total: 1000, failed: 0, expected: 100.0},
		{name: "99.9%", total: 100000, failed: 100, expected: 99.9},
		{name: "zero traffic defined as fully available", total: 0, failed: 0, expected: 100.0},
		{name: "all failed", total: 500, failed: 500, expected: 0.0},
		{name: "failed exceeding total clamps to zero", total: 100, failed: 150, expected: 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeAvailability(tt.total, tt.failed)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("expected %.6f, got %.6f", tt.expected, got)
			}
			if got < 0 || got > 100 {
				t.Errorf("availability out of range: %v", got)
			}
		})
	}
}

func TestComputeErrorBudget(t *testing.T) {
	tests := []struct {
		name            string
		availabilityPct float64
		target          float64
		failed          int64
		expected        float64
	}{
		{name: "no failures leaves full budget", availabilityPct: 100, target: 99.9, failed: 0, expected: 100.0},
		{name: "half the headroom consumed", availabilityPct: 99.95, target: 99.9, failed: 50, expected: 50.0},
		{name: "headroom exactly consumed", availabilityPct: 99.9, target: 99.9, failed: 100, expected: 0.0},
		{name: "overconsumption clamps at zero", availabilityPct: 99.5, target: 99.9, failed: 500, expected: 0.0},
		{name: "perfection target with failures", availabilityPct: 99.99, target: 100, failed: 1, expected: 0.0},
		{name: "perfection target without failures", availabilityPct: 100, target: 100, failed: 0, expected: 100.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeErrorBudget(tt.availabilityPct, tt.target, tt.failed)
			if math.Abs(got-tt.expected) > 0.01 {
				t.Errorf("expected %.2f, got %.2f", tt.expected, got)
			}
			if got < 0 || got > 100 {
				t.Errorf("error budget out of range: %v", got)
			}
		})
	}
}

func TestClassifyBurnRate(t *testing.T) {
	thresholds := BurnThresholds{Low: 1.0, Medium: 2.0, High: 5.0, Critical: 10.0}

	tests := []struct {
		name           string
		recentBurn     float64
		errorBudgetPct float64
		expected       BurnLabel
	}{
		{name: "steady burn with full budget", recentBurn: 1.0, errorBudgetPct: 100, expected: BurnLow},
		{name: "medium numeric burn", recentBurn: 2.5, errorBudgetPct: 90, expected: BurnMedium},
		{name: "high numeric burn", recentBurn: 6.0, errorBudgetPct: 90, expected: BurnHigh},
		{name: "critical numeric burn", recentBurn: 12.0, errorBudgetPct: 90, expected: BurnCritical},
		// Budget coupling: a low numeric burn is still flagged when the
		// budget is already gone.
		{name: "low burn but exhausted budget", recentBurn: 0.5, errorBudgetPct: 5, expected: BurnCritical},
		{name: "low burn but budget under 20", recentBurn: 0.5, errorBudgetPct: 15, expected: BurnHigh},
		{name: "low burn but budget under 50", recentBurn: 0.5, errorBudgetPct: 45, expected: BurnMedium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyBurnRate(tt.recentBurn, tt.errorBudgetPct, thresholds)
			if got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestEvaluateZeroTraffic(t *testing.T) {
	eval := NewEvaluator(testConfig(), staticMetrics{m: &telemetry.Metrics{
		Service:            "test-service",
		TotalRequests:      0,
		FailedRequests:     0,
		LatencyPercentiles: telemetry.LatencyPercentiles{P95Ms: 100, P99Ms: 150},
		HourlyBurnRate:     []float64{1.0},
	}})

	result, err := eval.Evaluate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.AvailabilityPct != 100.0 {
		t.Errorf("expected availability 100.0, got %v", result.AvailabilityPct)
	}
	if result.ErrorBudgetPct != 100.0 {
		t.Errorf("expected error budget 100.0, got %v", result.ErrorBudgetPct)
	}
}

func TestEvaluateCriticalScenario(t *testing.T) {
	// 950 failures out of 1M at a 99.9 target consumes ~95% of the budget.
	eval := NewEvaluator(testConfig(), staticMetrics{m: &telemetry.Metrics{
		Service:            "checkout-api",
		TotalRequests:      1_000_000,
		FailedRequests:     950,
		LatencyPercentiles: telemetry.LatencyPercentiles{P95Ms: 700, P99Ms: 900},
		HourlyBurnRate:     steadyBurn(24, 12.0),
	}})

	result, err := eval.Evaluate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if math.Abs(result.AvailabilityPct-99.905) > 0.0001 {
		t.Errorf("expected availability ~99.905, got %v", result.AvailabilityPct)
	}
	if math.Abs(result.ErrorBudgetPct-5.0) > 0.01 {
		t.Errorf("expected error budget ~5.0, got %v", result.ErrorBudgetPct)
	}
	if result.BurnRate != BurnCritical {
		t.Errorf("expected burn rate critical, got %s", result.BurnRate)
	}
	if result.LatencyCompliant {
		t.Error("expected latency breach at p95=700 against threshold 500")
	}
	if result.Healthy() {
		t.Error("expected unhealthy result")
	}
}

func TestEvaluateHealthyScenario(t *testing.T) {
	eval := NewEvaluator(testConfig(), staticMetrics{m: &telemetry.Metrics{
		Service:            "checkout-api",
		TotalRequests:      2_592_000,
		FailedRequests:     500,
		LatencyPercentiles: telemetry.LatencyPercentiles{P95Ms: 480, P99Ms: 890},
		HourlyBurnRate:     steadyBurn(24, 1.0),
	}})

	result, err := eval.Evaluate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.AvailabilityCompliant {
		t.Errorf("expected availability compliance at %v", result.AvailabilityPct)
	}
	if !result.LatencyCompliant {
		t.Error("expected latency compliance at p95=480 against threshold 500")
	}
	if result.BurnRate != BurnLow {
		t.Errorf("expected low burn rate, got %s", result.BurnRate)
	}
	if !result.Healthy() {
		t.Error("expected healthy result")
	}
}

func TestRecentBurnUsesLastThreeSamples(t *testing.T) {
	eval := NewEvaluator(testConfig(), staticMetrics{m: &telemetry.Metrics{
		Service:            "test-service",
		TotalRequests:      1000,
		FailedRequests:     0,
		LatencyPercentiles: telemetry.LatencyPercentiles{P95Ms: 100, P99Ms: 150},
		HourlyBurnRate:     []float64{1.0, 1.0, 1.0, 6.0, 6.0, 6.0},
	}})

	result, err := eval.Evaluate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.BurnRateValue != 6.0 {
		t.Errorf("expected recent burn 6.0, got %v", result.BurnRateValue)
	}
	if result.BurnRate != BurnHigh {
		t.Errorf("expected high burn rate, got %s", result.BurnRate)
	}
	if result.Details.AvgBurnRate != 3.5 {
		t.Errorf("expected average burn 3.5, got %v", result.Details.AvgBurnRate)
	}
}

func TestRecentBurnShortSeries(t *testing.T) {
	eval := NewEvaluator(testConfig(), staticMetrics{m: &telemetry.Metrics{
		Service:            "test-service",
		TotalRequests:      1000,
		FailedRequests:     0,
		LatencyPercentiles: telemetry.LatencyPercentiles{P95Ms: 100, P99Ms: 150},
		HourlyBurnRate:     []float64{4.0, 2.0},
	}})

	result, err := eval.Evaluate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.BurnRateValue != 3.0 {
		t.Errorf("expected recent burn 3.0 over two samples, got %v", result.BurnRateValue)
	}
}
