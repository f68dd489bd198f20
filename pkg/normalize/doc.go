// Package normalize rewrites a raw action request into canonical
// sub-actions, reversing known evasion techniques before any rule is
// evaluated.
//
// Three techniques are reversed:
//
//   - Chained commands (cmd1 && cmd2, cmd1; cmd2, cmd1 | cmd2) are
//     split into ordered sub-actions, respecting shell quoting.
//   - Shell comments are not discarded: a payload hidden behind "#"
//     becomes its own sub-action and is evaluated like any other.
//   - Base64-looking tokens are decoded and the decoded text is
//     re-normalized recursively, up to a fixed depth bound.
//
// The package obeys one invariant throughout: normalization only ever
// widens the set of sub-actions, never narrows it. Every
// transformation adds sub-actions to evaluate; the original text is
// always represented. Unparseable input degrades to a single literal
// sub-action — never to skipping evaluation.
package normalize
