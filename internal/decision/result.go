package decision

import (
	"time"

	"github.com/deployguard/deployguard/internal/cost"
	"github.com/deployguard/deployguard/internal/policy"
	"github.com/deployguard/deployguard/internal/slo"
)

// PolicyTrace records the outcome of evaluating one policy, in priority
// order. The full trace is kept for audit and debugging, not just the
// winning policy.
type PolicyTrace struct {
	ID      string        `json:"id"`
	Name    string        `json:"name"`
	Matched bool          `json:"matched"`
	Action  policy.Action `json:"action"`
}

// Result is a full deployment decision with supporting evidence. It is
// constructed once per evaluation and has no mutable state afterwards; it
// owns both evaluator results for the lifetime of the caller's use.
type Result struct {
	EvaluationID string    `json:"evaluation_id"`
	Timestamp    time.Time `json:"timestamp"`

	Action       policy.Action `json:"action"`
	PolicyID     string        `json:"policy_id"`
	PolicyName   string        `json:"policy_name"`
	Reason       string        `json:"reason"`
	Remediation  string        `json:"remediation"`
	DelayMinutes int           `json:"delay_minutes"`

	SLO  *slo.Result  `json:"slo,omitempty"`
	Cost *cost.Result `json:"cost,omitempty"`

	EvaluatedPolicies []PolicyTrace `json:"evaluated_policies"`
}

// ExitCode maps the decision onto the shell exit code consumed by CI:
// ALLOW and WARN pass, DELAY returns 1, BLOCK returns 2. An unrecognized
// action is treated as BLOCK.
func (r *Result) ExitCode() int {
	switch r.Action {
	case policy.ActionAllow, policy.ActionWarn:
		return 0
	case policy.ActionDelay:
		return 1
	case policy.ActionBlock:
		return 2
	}
	return 2
}
