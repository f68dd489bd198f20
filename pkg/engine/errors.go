package engine

import "fmt"

// FieldNotFoundError indicates a predicate referenced a fact field the
// extractor did not define. The engine treats the owning rule as
// malformed and applies its fail-closed handling.
type FieldNotFoundError struct {
	Field string
}

// Error implements the error interface.
func (e *FieldNotFoundError) Error() string {
	return fmt.Sprintf("fact field %q is not defined", e.Field)
}

// MalformedRuleError wraps the evaluation failure of a single rule.
// It is logged, never returned to callers: malformed rules influence
// the decision through fail-closed firing, not through request errors.
type MalformedRuleError struct {
	RuleID string
	Err    error
}

// Error implements the error interface.
func (e *MalformedRuleError) Error() string {
	return fmt.Sprintf("rule %q predicate cannot be evaluated: %v", e.RuleID, e.Err)
}

// Unwrap returns the underlying evaluation error.
func (e *MalformedRuleError) Unwrap() error {
	return e.Err
}
