package store

import (
	"context"

	"aoss-hq/sentinel/pkg/rules"
	"aoss-hq/sentinel/pkg/rules/ast"
)

// Store is the administrative surface over the versioned rule set.
//
// Create, Supersede, and Deactivate are the only mutation paths; none
// of them removes history. Every mutation atomically publishes a new
// snapshot for subsequent evaluations.
type Store interface {
	// Snapshot returns the current immutable rule snapshot.
	Snapshot(ctx context.Context) (*rules.Snapshot, error)

	// Create adds a new rule. It fails with a ConflictError if an
	// active rule with the same ID already exists.
	Create(ctx context.Context, rule *ast.PolicyRule) error

	// Get returns the latest version of the rule with the given ID.
	Get(ctx context.Context, id string) (*ast.PolicyRule, error)

	// List returns rules, optionally filtered by layer. When
	// includeInactive is true, superseded and deactivated versions are
	// included for audit inspection.
	List(ctx context.Context, layer ast.Layer, includeInactive bool) ([]*ast.PolicyRule, error)

	// Supersede replaces the current version of a rule with a new one.
	// The old version is retained, marked as superseded.
	Supersede(ctx context.Context, id string, replacement *ast.PolicyRule) (*ast.PolicyRule, error)

	// Deactivate marks the current version of a rule inactive without
	// removing it.
	Deactivate(ctx context.Context, id string) error

	// ReplaceAll swaps the entire active rule set, used by file and git
	// sources on reload. Prior versions loaded from the same source are
	// discarded rather than superseded: the source history is the audit
	// trail in that mode.
	ReplaceAll(ctx context.Context, all []*ast.PolicyRule) error

	// Close releases backend resources.
	Close() error
}
