package policy

// Action is the gating outcome a policy prescribes.
type Action string

const (
	ActionAllow Action = "ALLOW"
	ActionWarn  Action = "WARN"
	ActionDelay Action = "DELAY"
	ActionBlock Action = "BLOCK"
)

// ValidAction reports whether a is one of the four gating actions.
func ValidAction(a Action) bool {
	switch a {
	case ActionAllow, ActionWarn, ActionDelay, ActionBlock:
		return true
	}
	return false
}

// Condition is a single comparison applied to one signal.
type Condition struct {
	Operator Operator `yaml:"operator" json:"operator"`
	Value    any      `yaml:"value" json:"value"`
}

// Policy is one externally authored gating rule. Policies are immutable
// for the duration of an evaluation; lower priority evaluates first.
type Policy struct {
	ID           string               `yaml:"id" json:"id"`
	Name         string               `yaml:"name" json:"name"`
	Priority     int                  `yaml:"priority" json:"priority"`
	Action       Action               `yaml:"action" json:"action"`
	Conditions   map[string]Condition `yaml:"conditions,omitempty" json:"conditions,omitempty"`
	Reason       string               `yaml:"reason" json:"reason"`
	Remediation  string               `yaml:"remediation" json:"remediation"`
	DelayMinutes int                  `yaml:"delay_minutes,omitempty" json:"delay_minutes,omitempty"`
}

// CatchAll reports whether the policy matches unconditionally.
func (p *Policy) CatchAll() bool {
	return len(p.Conditions) == 0
}

// Signals is the flat signal map the decision engine evaluates policies
// against. Values are plain float64, string or bool.
type Signals map[string]any

// SignalNames are the signal keys the decision engine publishes. Policy
// validation rejects conditions referencing anything else.
var SignalNames = []string{
	"error_budget_pct",
	"burn_rate",
	"availability_pct",
	"latency_compliant",
	"cost_spike_pct",
	"cost_spike_detected",
	"cost_trend",
}
