package policy

// Matches reports whether every condition of the policy is satisfied by
// the signal map. A policy with no conditions always matches (catch-all).
// A condition referencing an absent signal key fails closed: the policy
// does not match and evaluation continues with the next one.
func Matches(p *Policy, signals Signals) bool {
	for key, cond := range p.Conditions {
		value, ok := signals[key]
		if !ok {
			return false
		}
		if !cond.Operator.Apply(value, cond.Value) {
			return false
		}
	}
	return true
}
