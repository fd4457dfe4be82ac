package decision

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/deployguard/deployguard/internal/cost"
	"github.com/deployguard/deployguard/internal/policy"
	"github.com/deployguard/deployguard/internal/slo"
)

// ReliabilityEvaluator produces reliability signals from telemetry.
type ReliabilityEvaluator interface {
	Evaluate() (*slo.Result, error)
}

// CostEvaluator produces cost signals from spend history.
type CostEvaluator interface {
	Evaluate() (*cost.Result, error)
}

// Engine combines reliability and cost signals and matches them against a
// prioritized policy ruleset. It depends on the evaluator interfaces, not
// concrete types, so either side can be substituted in tests.
type Engine struct {
	policies    []policy.Policy
	reliability ReliabilityEvaluator
	cost        CostEvaluator
}

// NewEngine creates a decision engine over an already loaded, priority
// sorted policy list.
func NewEngine(policies []policy.Policy, reliability ReliabilityEvaluator, costEval CostEvaluator) *Engine {
	return &Engine{
		policies:    policies,
		reliability: reliability,
		cost:        costEval,
	}
}

// Evaluate runs both evaluators, flattens their outputs into the signal
// map and selects the first matching policy in priority order. Every
// policy's match status is recorded in the result trace. When nothing
// matches, a fallback ALLOW is synthesized so a misconfigured ruleset
// never crash-blocks deployments by default.
func (e *Engine) Evaluate() (*Result, error) {
	sloResult, err := e.reliability.Evaluate()
	if err != nil {
		return nil, fmt.Errorf("reliability evaluation: %w", err)
	}

	costResult, err := e.cost.Evaluate()
	if err != nil {
		return nil, fmt.Errorf("cost evaluation: %w", err)
	}

	signals := CollectSignals(sloResult, costResult)

	trace := make([]PolicyTrace, 0, len(e.policies))
	var matched *policy.Policy

	for i := range e.policies {
		p := &e.policies[i]
		ok := policy.Matches(p, signals)
		trace = append(trace, PolicyTrace{
			ID:      p.ID,
			Name:    p.Name,
			Matched: ok,
			Action:  p.Action,
		})
		if ok && matched == nil {
			matched = p
		}
	}

	if matched == nil {
		matched = &policy.Policy{
			ID:          "P-FALLBACK",
			Name:        "Fallback allow",
			Action:      policy.ActionAllow,
			Priority:    999,
			Reason:      "No matching policy found; defaulting to ALLOW",
			Remediation: "Review your policy configuration; a catch-all policy should always match.",
		}
	}

	return &Result{
		EvaluationID:      uuid.NewString(),
		Timestamp:         time.Now().UTC(),
		Action:            matched.Action,
		PolicyID:          matched.ID,
		PolicyName:        matched.Name,
		Reason:            matched.Reason,
		Remediation:       matched.Remediation,
		DelayMinutes:      matched.DelayMinutes,
		SLO:               sloResult,
		Cost:              costResult,
		EvaluatedPolicies: trace,
	}, nil
}

// CollectSignals flattens both evaluator results into the signal map
// policies are matched against. Values are plain float64, string or bool
// so condition comparisons stay type-stable.
func CollectSignals(s *slo.Result, c *cost.Result) policy.Signals {
	return policy.Signals{
		"error_budget_pct":    s.ErrorBudgetPct,
		"burn_rate":           string(s.BurnRate),
		"availability_pct":    s.AvailabilityPct,
		"latency_compliant":   s.LatencyCompliant,
		"cost_spike_pct":      c.WoWChangePct,
		"cost_spike_detected": c.SpikeDetected,
		"cost_trend":          string(c.Trend),
	}
}
