package explain

import (
	"fmt"
	"strings"

	"github.com/deployguard/deployguard/internal/decision"
	"github.com/deployguard/deployguard/internal/policy"
	"github.com/deployguard/deployguard/internal/slo"
)

const sectionSep = "------------------------------------------------------------"

// RuleBased is the deterministic narrative backend. It assembles the same
// sections a human incident summary would: what was decided, which
// signals contributed, and what to do next.
type RuleBased struct{}

// Explain implements Explainer.
func (r *RuleBased) Explain(result *decision.Result) (string, error) {
	var b strings.Builder

	service := "unknown"
	if result.SLO != nil && result.SLO.Details.Service != "" {
		service = result.SLO.Details.Service
	}

	fmt.Fprintf(&b, "DEPLOYMENT DECISION NARRATIVE\n\n")
	fmt.Fprintf(&b, "Generated : %s\n", result.Timestamp.Format("2006-01-02 15:04 UTC"))
	fmt.Fprintf(&b, "Service   : %s\n", service)
	fmt.Fprintf(&b, "Decision  : %s\n", result.Action)
	fmt.Fprintf(&b, "Policy    : [%s] %s\n", result.PolicyID, result.PolicyName)

	fmt.Fprintf(&b, "\n%s\nSUMMARY\n%s\n", sectionSep, sectionSep)
	fmt.Fprintf(&b, "Deployment %s.\n\n%s\n", actionVerb(result), result.Reason)

	if issues := collectIssues(result); len(issues) > 0 {
		fmt.Fprintf(&b, "\n%s\nCONTRIBUTING FACTORS\n%s\n", sectionSep, sectionSep)
		for i, issue := range issues {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, issue)
		}
	}

	if s := result.SLO; s != nil {
		fmt.Fprintf(&b, "\n%s\nRELIABILITY SIGNALS\n%s\n", sectionSep, sectionSep)
		fmt.Fprintf(&b, "  Availability      : %.4f%%  (target %.2f%%)\n",
			s.AvailabilityPct, s.Details.AvailabilityTargetPct)
		fmt.Fprintf(&b, "  Error budget left : %.2f%%  %s\n", s.ErrorBudgetPct, budgetStatus(s.ErrorBudgetPct))
		fmt.Fprintf(&b, "  Burn rate         : %s  (x%.1f normal)\n",
			strings.ToUpper(string(s.BurnRate)), s.BurnRateValue)
		fmt.Fprintf(&b, "  Latency p95       : %.0f ms  (%s)\n", s.LatencyP95Ms, latencyStatus(s))
		fmt.Fprintf(&b, "  Latency p99       : %.0f ms\n", s.LatencyP99Ms)
	}

	if c := result.Cost; c != nil {
		fmt.Fprintf(&b, "\n%s\nFINOPS SIGNALS\n%s\n", sectionSep, sectionSep)
		fmt.Fprintf(&b, "  Week-over-week change : %+.2f%%  (%s)\n", c.WoWChangePct, strings.ToUpper(string(c.Trend)))
		fmt.Fprintf(&b, "  Current week avg      : $%.2f/day\n", c.CurrentWeekAvgUSD)
		fmt.Fprintf(&b, "  Previous week avg     : $%.2f/day\n", c.PreviousWeekAvgUSD)
		fmt.Fprintf(&b, "  MTD spend             : $%.2f of $%.2f budget\n", c.MTDSpendUSD, c.BudgetUSD)
		fmt.Fprintf(&b, "  Budget utilisation    : %.2f%%\n", c.BudgetUtilisationPct)
		fmt.Fprintf(&b, "  Spike detected        : %s\n", yesNo(c.SpikeDetected))
	}

	if recs := collectRecommendations(result); len(recs) > 0 {
		fmt.Fprintf(&b, "\n%s\nRECOMMENDED ACTIONS\n%s\n", sectionSep, sectionSep)
		for i, rec := range recs {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, rec)
		}
	}

	fmt.Fprintf(&b, "\n%s\nCONTEXT & NEXT STEPS\n%s\n", sectionSep, sectionSep)
	fmt.Fprintf(&b, "  %s\n\n", result.Remediation)
	fmt.Fprintf(&b, "  If you believe this decision is incorrect:\n")
	fmt.Fprintf(&b, "    - Review the active policy configuration\n")
	fmt.Fprintf(&b, "    - Re-run the evaluation to confirm current signals\n")
	fmt.Fprintf(&b, "    - Escalate to the on-call SRE team with this report\n")
	fmt.Fprintf(&b, "%s\n", sectionSep)

	return b.String(), nil
}

func actionVerb(result *decision.Result) string {
	switch result.Action {
	case policy.ActionBlock:
		return "has been BLOCKED"
	case policy.ActionDelay:
		return fmt.Sprintf("has been DELAYED by %d minutes", result.DelayMinutes)
	case policy.ActionWarn:
		return "is ALLOWED with a WARNING"
	case policy.ActionAllow:
		return "is ALLOWED"
	}
	return string(result.Action)
}

func collectIssues(result *decision.Result) []string {
	var issues []string

	if s := result.SLO; s != nil {
		if s.ErrorBudgetPct < 10 {
			issues = append(issues, fmt.Sprintf(
				"Error budget is critically exhausted (%.1f%% remaining). SLO breach is imminent.",
				s.ErrorBudgetPct))
		} else if s.ErrorBudgetPct < 30 {
			issues = append(issues, fmt.Sprintf(
				"Error budget is running low (%.1f%% remaining). Continued errors will breach the SLO.",
				s.ErrorBudgetPct))
		}
		if s.BurnRate == slo.BurnHigh || s.BurnRate == slo.BurnCritical {
			issues = append(issues, fmt.Sprintf(
				"Error budget is burning at %.1fx the normal rate. At this rate the remaining budget will be exhausted quickly.",
				s.BurnRateValue))
		}
		if !s.LatencyCompliant {
			issues = append(issues, fmt.Sprintf(
				"p95 latency (%.0f ms) exceeds the SLO target (%.0f ms). User experience is degraded.",
				s.LatencyP95Ms, s.Details.LatencyTargetP95Ms))
		}
		if !s.AvailabilityCompliant {
			issues = append(issues, fmt.Sprintf(
				"Availability (%.4f%%) is below the SLO target (%.2f%%).",
				s.AvailabilityPct, s.Details.AvailabilityTargetPct))
		}
	}

	if c := result.Cost; c != nil {
		if c.WoWChangePct >= c.Details.BlockThreshold {
			issues = append(issues, fmt.Sprintf(
				"Cloud costs spiked %.1f%% week-over-week ($%.2f -> $%.2f/day). Deploying now amplifies spend risk.",
				c.WoWChangePct, c.PreviousWeekAvgUSD, c.CurrentWeekAvgUSD))
		} else if c.WoWChangePct >= c.Details.WarnThreshold {
			issues = append(issues, fmt.Sprintf(
				"Cloud costs increased %.1f%% week-over-week. Monitor closely before proceeding.",
				c.WoWChangePct))
		}
	}

	return issues
}

func collectRecommendations(result *decision.Result) []string {
	var recs []string
	s := result.SLO
	c := result.Cost

	if result.Action == policy.ActionBlock {
		recs = append(recs, "Freeze all deployments to this service immediately.")
	}
	if (result.Action == policy.ActionBlock || result.Action == policy.ActionDelay) && s != nil {
		if s.BurnRate == slo.BurnHigh || s.BurnRate == slo.BurnCritical {
			recs = append(recs,
				"Investigate recent error logs and traces. Consider rolling back the last deployment.")
		}
		if !s.LatencyCompliant {
			recs = append(recs,
				"Profile request handlers for latency regressions. Check for dependency slowness (DB, downstream APIs).")
		}
	}
	if c != nil && c.SpikeDetected {
		recs = append(recs,
			"Open a FinOps review ticket. Check for runaway auto-scaling or orphaned resources.")
	}
	if s != nil && s.ErrorBudgetPct < 20 {
		recs = append(recs,
			"Set a budget exhaustion alert in your monitoring platform so on-call is notified before the next threshold is hit.")
	}
	if result.Action == policy.ActionAllow {
		recs = append(recs,
			"All signals are within acceptable thresholds. Proceed with deployment using your standard review process.")
	}

	return recs
}

func budgetStatus(pct float64) string {
	switch {
	case pct < 10:
		return "CRITICAL"
	case pct < 30:
		return "LOW"
	default:
		return "OK"
	}
}

func latencyStatus(s *slo.Result) string {
	if s.LatencyCompliant {
		return "within target"
	}
	return "above target"
}

func yesNo(v bool) string {
	if v {
		return "YES"
	}
	return "NO"
}
