// Package report renders evaluator and decision results as human-readable
// terminal reports.
package report

import (
	"fmt"
	"strings"

	"github.com/deployguard/deployguard/internal/cost"
	"github.com/deployguard/deployguard/internal/decision"
	"github.com/deployguard/deployguard/internal/slo"
)

const rule = "=================================================="

func check(ok bool) string {
	if ok {
		return "OK"
	}
	return "BREACHED"
}

// SLO renders the reliability status report.
func SLO(r *slo.Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", rule)
	fmt.Fprintf(&b, "SLO ENGINE - STATUS REPORT\n")
	fmt.Fprintf(&b, "%s\n", rule)
	fmt.Fprintf(&b, "Service             %s\n", r.Details.Service)
	fmt.Fprintf(&b, "Availability        %.4f%%  [%s]\n", r.AvailabilityPct, check(r.AvailabilityCompliant))
	fmt.Fprintf(&b, "Error budget left   %6.2f%%  %s\n", r.ErrorBudgetPct, budgetBar(r.ErrorBudgetPct, 10))
	fmt.Fprintf(&b, "Burn rate           %s (x%.1f)\n", strings.ToUpper(string(r.BurnRate)), r.BurnRateValue)
	fmt.Fprintf(&b, "Latency p95         %.0f ms (limit %.0f ms)  [%s]\n",
		r.LatencyP95Ms, r.Details.LatencyTargetP95Ms, check(r.LatencyCompliant))
	fmt.Fprintf(&b, "Latency p99         %.0f ms\n", r.LatencyP99Ms)
	fmt.Fprintf(&b, "%s\n", rule)
	if r.Healthy() {
		fmt.Fprintf(&b, "Overall health      HEALTHY\n")
	} else {
		fmt.Fprintf(&b, "Overall health      DEGRADED\n")
	}
	fmt.Fprintf(&b, "%s\n", rule)

	return b.String()
}

// Cost renders the FinOps report.
func Cost(r *cost.Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", rule)
	fmt.Fprintf(&b, "COST COLLECTOR - FINOPS REPORT\n")
	fmt.Fprintf(&b, "%s\n", rule)
	fmt.Fprintf(&b, "Service             %s\n", r.Service)
	fmt.Fprintf(&b, "Prev-week avg       $%.2f/day\n", r.PreviousWeekAvgUSD)
	fmt.Fprintf(&b, "Curr-week avg       $%.2f/day\n", r.CurrentWeekAvgUSD)
	fmt.Fprintf(&b, "WoW change          %+.2f%%\n", r.WoWChangePct)
	fmt.Fprintf(&b, "Trend               %s\n", strings.ToUpper(string(r.Trend)))
	fmt.Fprintf(&b, "Spike detected      %s\n", yesNo(r.SpikeDetected))
	fmt.Fprintf(&b, "MTD spend           $%.2f\n", r.MTDSpendUSD)
	fmt.Fprintf(&b, "Monthly budget      $%.2f\n", r.BudgetUSD)
	fmt.Fprintf(&b, "Budget utilisation  %.2f%%\n", r.BudgetUtilisationPct)
	fmt.Fprintf(&b, "%s\n", rule)

	return b.String()
}

// Decision renders the deployment gate decision report.
func Decision(r *decision.Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", rule)
	fmt.Fprintf(&b, "DEPLOYMENT GUARDRAIL - DECISION REPORT\n")
	fmt.Fprintf(&b, "%s\n", rule)
	fmt.Fprintf(&b, "Decision            %s\n", r.Action)
	fmt.Fprintf(&b, "Policy              [%s] %s\n", r.PolicyID, r.PolicyName)
	fmt.Fprintf(&b, "Reason              %s\n", r.Reason)

	if s := r.SLO; s != nil {
		fmt.Fprintf(&b, "%s\n", rule)
		fmt.Fprintf(&b, "SLO signals:\n")
		fmt.Fprintf(&b, "  Availability      %.4f%%\n", s.AvailabilityPct)
		fmt.Fprintf(&b, "  Error budget      %.2f%% remaining\n", s.ErrorBudgetPct)
		fmt.Fprintf(&b, "  Burn rate         %s\n", strings.ToUpper(string(s.BurnRate)))
		fmt.Fprintf(&b, "  Latency p95       %.0f ms (%s)\n", s.LatencyP95Ms, check(s.LatencyCompliant))
	}

	if c := r.Cost; c != nil {
		fmt.Fprintf(&b, "%s\n", rule)
		fmt.Fprintf(&b, "Cost signals:\n")
		fmt.Fprintf(&b, "  WoW change        %+.2f%%\n", c.WoWChangePct)
		fmt.Fprintf(&b, "  Trend             %s\n", strings.ToUpper(string(c.Trend)))
		fmt.Fprintf(&b, "  Spike             %s\n", yesNo(c.SpikeDetected))
	}

	if r.DelayMinutes > 0 {
		fmt.Fprintf(&b, "Delay               %d minutes\n", r.DelayMinutes)
	}

	fmt.Fprintf(&b, "%s\n", rule)
	fmt.Fprintf(&b, "Remediation         %s\n", r.Remediation)
	fmt.Fprintf(&b, "%s\n", rule)

	return b.String()
}

// budgetBar renders a fixed-width gauge of the remaining budget.
func budgetBar(pct float64, width int) string {
	filled := int(pct/100*float64(width) + 0.5)
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", width-filled) + "]"
}

func yesNo(v bool) string {
	if v {
		return "YES"
	}
	return "NO"
}
