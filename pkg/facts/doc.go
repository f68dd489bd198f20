// Package facts derives the flat attribute mapping rule predicates are
// written against.
//
// Extraction is a pure function of the action request, its injected
// context, and one normalized sub-action. It performs no lookups and
// keeps no state, so the same inputs always produce the same facts —
// a requirement for reproducible audit of past decisions.
//
// Temporal facts (day_of_week, is_within_freeze_window) are computed
// from the request's own timestamp and the freeze windows supplied in
// its context, never from the wall clock.
package facts
