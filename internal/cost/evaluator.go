package cost

import (
	"fmt"
	"math"
	"sort"

	"github.com/deployguard/deployguard/internal/telemetry"
)

// Evaluator converts a daily-spend time series and a monthly budget into
// cost signals. Like the reliability evaluator it is stateless across
// calls; every evaluation reads a fresh snapshot.
type Evaluator struct {
	source     telemetry.CostSource
	thresholds Thresholds
}

// NewEvaluator creates a cost evaluator backed by the given spend source.
func NewEvaluator(source telemetry.CostSource, thresholds Thresholds) *Evaluator {
	if thresholds.WarnPct == 0 {
		thresholds.WarnPct = DefaultWarnSpikePct
	}
	if thresholds.BlockPct == 0 {
		thresholds.BlockPct = DefaultBlockSpikePct
	}
	return &Evaluator{source: source, thresholds: thresholds}
}

// Evaluate reads the spend history and computes trend, spike and budget
// utilisation signals.
func (e *Evaluator) Evaluate() (*Result, error) {
	data, err := e.source.Costs()
	if err != nil {
		return nil, fmt.Errorf("fetch cost data: %w", err)
	}
	return e.evaluateData(data), nil
}

func (e *Evaluator) evaluateData(data *telemetry.CostData) *Result {
	daily := make([]telemetry.DailyCost, len(data.DailyCosts))
	copy(daily, data.DailyCosts)
	sort.SliceStable(daily, func(i, j int) bool { return daily[i].Date < daily[j].Date })

	amounts := make([]float64, len(daily))
	for i, d := range daily {
		amounts[i] = d.Cost
	}

	prevWeek, currWeek := splitWeeks(amounts)
	prevAvg := mean(prevWeek)
	currAvg := mean(currWeek)

	var wowPct float64
	if prevAvg > 0 {
		wowPct = round((currAvg-prevAvg)/prevAvg*100, 2)
	}

	mtd := round(sum(amounts), 2)

	var budgetUtil float64
	if data.BudgetUSDMonthly > 0 {
		budgetUtil = round(mtd/data.BudgetUSDMonthly*100, 2)
	}

	trend := classifyTrend(wowPct, e.thresholds)

	currency := data.Currency
	if currency == "" {
		currency = "USD"
	}

	trailing := daily
	if len(trailing) > 7 {
		trailing = trailing[len(trailing)-7:]
	}

	return &Result{
		Service:              data.Service,
		CurrentWeekAvgUSD:    round(currAvg, 2),
		PreviousWeekAvgUSD:   round(prevAvg, 2),
		WoWChangePct:         wowPct,
		Trend:                trend,
		SpikeDetected:        wowPct >= e.thresholds.WarnPct,
		BudgetUSD:            data.BudgetUSDMonthly,
		MTDSpendUSD:          mtd,
		BudgetUtilisationPct: budgetUtil,
		DailyCosts:           trailing,
		Details: Details{
			Currency:       currency,
			WarnThreshold:  e.thresholds.WarnPct,
			BlockThreshold: e.thresholds.BlockPct,
			Observations:   len(daily),
		},
	}
}

// splitWeeks returns the previous-week and current-week windows. With at
// least 14 observations these are the trailing [-14,-7) and [-7,end)
// slices; a shorter series falls back to a midpoint split so the
// comparison degrades instead of failing.
func splitWeeks(amounts []float64) (prev, curr []float64) {
	n := len(amounts)

	if n >= 14 {
		prev = amounts[n-14 : n-7]
	} else {
		prev = amounts[:n/2]
	}

	if n >= 7 {
		curr = amounts[n-7:]
	} else {
		curr = amounts[n/2:]
	}

	return prev, curr
}

func classifyTrend(wowPct float64, t Thresholds) Trend {
	switch {
	case wowPct >= t.BlockPct:
		return TrendSpiking
	case wowPct >= t.WarnPct:
		return TrendRising
	case wowPct <= -10:
		return TrendFalling
	default:
		return TrendStable
	}
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0.0
	}
	return sum(vals) / float64(len(vals))
}

func sum(vals []float64) float64 {
	var s float64
	for _, v := range vals {
		s += v
	}
	return s
}

func round(v float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(v*pow) / pow
}
