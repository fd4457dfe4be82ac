package policy

import "fmt"

// Operator is the closed set of comparison operators a condition may use.
// Unknown operators are rejected when policies are loaded, never silently
// skipped during matching.
type Operator string

const (
	OpLt  Operator = "lt"
	OpLte Operator = "lte"
	OpGt  Operator = "gt"
	OpGte Operator = "gte"
	OpEq  Operator = "eq"
	OpNeq Operator = "neq"
	OpIn  Operator = "in"
)

// ParseOperator validates an operator name. The empty string defaults to
// eq, matching how untyped conditions are commonly authored.
func ParseOperator(s string) (Operator, error) {
	switch Operator(s) {
	case "":
		return OpEq, nil
	case OpLt, OpLte, OpGt, OpGte, OpEq, OpNeq, OpIn:
		return Operator(s), nil
	}
	return "", fmt.Errorf("unknown operator %q", s)
}

// Apply evaluates the operator against a signal value and a condition
// target. Comparisons between incompatible types fail closed.
func (op Operator) Apply(signal, target any) bool {
	switch op {
	case OpLt, OpLte, OpGt, OpGte:
		s, okS := asFloat(signal)
		t, okT := asFloat(target)
		if !okS || !okT {
			return false
		}
		switch op {
		case OpLt:
			return s < t
		case OpLte:
			return s <= t
		case OpGt:
			return s > t
		default:
			return s >= t
		}

	case OpEq:
		return valuesEqual(signal, target)

	case OpNeq:
		return !valuesEqual(signal, target)

	case OpIn:
		list, ok := target.([]any)
		if !ok {
			return false
		}
		for _, item := range list {
			if valuesEqual(signal, item) {
				return true
			}
		}
		return false
	}

	// Unreachable for loader-validated policies.
	return false
}

// valuesEqual compares numerically when both sides are numbers so YAML
// integers match float signals, otherwise falls back to exact equality.
func valuesEqual(a, b any) bool {
	fa, okA := asFloat(a)
	fb, okB := asFloat(b)
	if okA && okB {
		return fa == fb
	}
	return a == b
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
