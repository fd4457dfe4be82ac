// Package explain renders a deployment decision into a human-readable
// narrative. The backend is selected by a single configuration toggle and
// is invisible to the decision engine; the contract is purely input to
// text, with no side effects.
package explain

import (
	"encoding/json"
	"fmt"

	"github.com/deployguard/deployguard/internal/decision"
)

// Explainer turns a decision into free text.
type Explainer interface {
	Explain(result *decision.Result) (string, error)
}

// Backend names accepted by New.
const (
	BackendRuleBased = "rule_based"
)

// New returns the explainer for the configured backend. Unknown backends
// fall back to the rule-based engine so narrative generation never blocks
// a decision.
func New(backend string) Explainer {
	switch backend {
	case "", BackendRuleBased:
		return &RuleBased{}
	default:
		return &RuleBased{}
	}
}

// BuildPrompt renders the decision as a prompt suitable for a generative
// text backend. Kept here so an LLM-backed Explainer can be added without
// touching any callers.
func BuildPrompt(result *decision.Result) (string, error) {
	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal decision: %w", err)
	}

	return "You are an expert Site Reliability Engineer. " +
		"Explain the following deployment decision in clear, concise language " +
		"for a non-technical stakeholder. Include the key reliability and cost signals, " +
		"why the decision was made, and recommended next steps.\n\n" +
		"Decision JSON:\n" + string(payload), nil
}
