// Package rules provides the versioned rule store consumed by the
// constraint evaluator.
//
// # Snapshots
//
// The store is read-mostly: evaluations vastly outnumber administrative
// writes. Every write produces a new immutable Snapshot, and an
// in-flight evaluation always holds exactly one snapshot for its whole
// lifetime — it never observes a half-updated rule set.
//
// # Versioning
//
// Rules are never hard-deleted. Editing a rule supersedes the previous
// version; deactivating marks it inactive. Past decisions therefore
// remain interpretable against the rule versions that produced them.
//
// # Sources
//
// Rule content can come from the administration API, from YAML files on
// disk (with fsnotify-driven hot reload), or from a Git repository
// (GitOps mode). See the store and source subpackages.
package rules
