// Package ast defines the abstract syntax tree for compliance policy rules.
//
// A rule is a versioned constraint belonging to one of four independent
// layers (regulatory, organizational, safety, adversarial). Each rule
// carries a predicate — a structured boolean expression over extracted
// facts — plus an effect that determines what happens when the predicate
// fires: FORBID blocks the action, REQUIRE_APPROVAL pauses it for human
// sign-off, and ALLOW_EXCEPTION suppresses a FORBID from the same layer.
//
// Predicates are built from a small closed set of node types (simple
// field comparisons combined by all/any/not) rather than free-form rule
// code, so rule sets stay statically analyzable and auditable.
package ast
