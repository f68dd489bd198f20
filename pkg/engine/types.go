package engine

import (
	"time"

	"aoss-hq/sentinel/pkg/rules/ast"
)

// Outcome is the final verdict of an evaluation.
type Outcome string

const (
	// OutcomeAllowed admits the action: no constraint fired.
	OutcomeAllowed Outcome = "ALLOWED"

	// OutcomeRequiresApproval pauses the action until an external
	// approval signal arrives.
	OutcomeRequiresApproval Outcome = "REQUIRES_APPROVAL"

	// OutcomeViolation blocks the action.
	OutcomeViolation Outcome = "VIOLATION"
)

// IsValid reports whether o is a known outcome.
func (o Outcome) IsValid() bool {
	switch o {
	case OutcomeAllowed, OutcomeRequiresApproval, OutcomeViolation:
		return true
	}
	return false
}

// severity orders outcomes for conjunctive combination.
func (o Outcome) severity() int {
	switch o {
	case OutcomeViolation:
		return 2
	case OutcomeRequiresApproval:
		return 1
	default:
		return 0
	}
}

// Combine returns the more severe of two outcomes.
func Combine(a, b Outcome) Outcome {
	if b.severity() > a.severity() {
		return b
	}
	return a
}

// MatchedRule records one rule that fired during evaluation, pinned to
// the sub-action it fired against.
type MatchedRule struct {
	// SubActionIndex is the sequence index of the sub-action the rule
	// fired on.
	SubActionIndex int `json:"sub_action_index"`

	// RuleID identifies the rule.
	RuleID string `json:"rule_id"`

	// RuleVersion is the version of the rule that was in force.
	RuleVersion int `json:"rule_version"`

	// Layer is the policy domain the rule belongs to.
	Layer ast.Layer `json:"layer"`

	// Effect is the rule's declared effect.
	Effect ast.Effect `json:"effect"`

	// Description is the rule's human-readable summary.
	Description string `json:"description,omitempty"`

	// Suppressed is true for a FORBID neutralized by a same-layer
	// ALLOW_EXCEPTION over the identical fact set. Suppressed rules
	// stay in the record so audits can see what would have fired.
	Suppressed bool `json:"suppressed,omitempty"`

	// Malformed is true when the rule fired through fail-closed
	// handling rather than a clean predicate match.
	Malformed bool `json:"malformed,omitempty"`
}

// SubActionRecord is the decision-facing summary of one sub-action.
type SubActionRecord struct {
	Index     int    `json:"index"`
	Text      string `json:"text"`
	Technique string `json:"technique"`
}

// Decision is the complete result of evaluating one action request.
// It carries everything needed to reconstruct the verdict later: the
// sub-actions evaluated, every rule that fired, and the exact rule
// snapshot version that was in force.
type Decision struct {
	// RequestID is the ID of the evaluated ActionRequest.
	RequestID string `json:"request_id"`

	// Outcome is the combined verdict across all sub-actions and layers.
	Outcome Outcome `json:"outcome"`

	// MatchedRules lists every rule that fired, including suppressed ones.
	MatchedRules []MatchedRule `json:"matched_rules"`

	// Explanation is the human-readable account of the verdict.
	Explanation string `json:"explanation"`

	// SubActions are the normalized units that were evaluated.
	SubActions []SubActionRecord `json:"sub_actions"`

	// SnapshotVersion identifies the rule snapshot used. Empty when the
	// store was unavailable and the decision failed closed.
	SnapshotVersion string `json:"snapshot_version"`

	// EvaluatedAt is when the evaluation completed.
	EvaluatedAt time.Time `json:"evaluated_at"`

	// Elapsed is how long the evaluation took.
	Elapsed time.Duration `json:"elapsed_ns"`
}

// Blocked reports whether the decision prevents execution.
func (d *Decision) Blocked() bool {
	return d.Outcome == OutcomeViolation
}
