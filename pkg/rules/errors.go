package rules

import (
	"errors"
	"fmt"
)

// ErrStoreUnavailable indicates that a rule snapshot could not be
// obtained. Callers must fail closed: an unavailable rule set is never
// interpreted as "no rules apply".
var ErrStoreUnavailable = errors.New("rule store unavailable")

// NotFoundError indicates that no rule exists with the given ID.
type NotFoundError struct {
	RuleID string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("rule %q not found", e.RuleID)
}

// ConflictError indicates that an administrative write conflicts with
// the current state of the store (duplicate create, supersede of an
// already-superseded version, deactivate of an inactive rule).
type ConflictError struct {
	RuleID  string
	Message string
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("rule %q: %s", e.RuleID, e.Message)
}
