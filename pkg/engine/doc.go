// Package engine evaluates normalized action requests against the
// versioned rule set and produces compliance decisions.
//
// Evaluation is conjunctive across layers and across sub-actions: the
// final outcome is the most severe verdict produced anywhere, with
// severity ordered VIOLATION > REQUIRES_APPROVAL > ALLOWED. A request
// is only as safe as its most dangerous sub-action.
//
// The engine fails closed. A rule whose predicate cannot be evaluated
// (unknown field, bad regex, malformed tree) is treated as fired when
// its effect is FORBID or REQUIRE_APPROVAL and as not fired when its
// effect is ALLOW_EXCEPTION. An unavailable rule store yields a
// VIOLATION decision rather than a silent allow.
//
// ALLOW_EXCEPTION rules suppress FORBID rules only within their own
// layer, and only when both predicates reference the identical set of
// fact fields. Exceptions never cross layers and never suppress
// malformed rules.
package engine
