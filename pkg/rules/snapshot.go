package rules

import (
	"time"

	"github.com/google/uuid"

	"aoss-hq/sentinel/pkg/rules/ast"
)

// Snapshot is an immutable, versioned view of the active rule set.
// Once constructed it is never mutated; administrative writes build a
// replacement snapshot and swap it in atomically.
type Snapshot struct {
	version   string
	createdAt time.Time
	byLayer   map[ast.Layer][]*ast.PolicyRule
	count     int
}

// NewSnapshot builds a snapshot from the given rules. Inactive and
// superseded rules are excluded; the remaining rules are grouped by
// layer in their original order.
func NewSnapshot(all []*ast.PolicyRule) *Snapshot {
	s := &Snapshot{
		version:   uuid.New().String(),
		createdAt: time.Now().UTC(),
		byLayer:   make(map[ast.Layer][]*ast.PolicyRule),
	}
	for _, r := range all {
		if !r.IsActive() {
			continue
		}
		s.byLayer[r.Layer] = append(s.byLayer[r.Layer], r)
		s.count++
	}
	return s
}

// Version returns the unique identifier of this snapshot. It is
// recorded on every decision so audits can reconstruct exactly which
// rule set was in force.
func (s *Snapshot) Version() string {
	return s.version
}

// CreatedAt returns when the snapshot was built.
func (s *Snapshot) CreatedAt() time.Time {
	return s.createdAt
}

// LayerRules returns the active rules of one layer. Callers must not
// modify the returned slice.
func (s *Snapshot) LayerRules(layer ast.Layer) []*ast.PolicyRule {
	return s.byLayer[layer]
}

// Len returns the total number of active rules across all layers.
func (s *Snapshot) Len() int {
	return s.count
}
