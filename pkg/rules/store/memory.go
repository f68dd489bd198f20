package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"aoss-hq/sentinel/pkg/rules"
	"aoss-hq/sentinel/pkg/rules/ast"
)

// MemoryStore implements the Store interface with an in-memory version
// map. It backs file- and git-sourced deployments and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	versions map[string][]*ast.PolicyRule // rule ID -> versions, ascending
	order    []string                     // rule IDs in first-seen order
	snapshot *rules.Snapshot
	logger   *slog.Logger
}

// NewMemoryStore creates an empty in-memory rule store.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		versions: make(map[string][]*ast.PolicyRule),
		logger:   slog.Default().With("component", "rules.store.memory"),
	}
	s.snapshot = rules.NewSnapshot(nil)
	return s
}

// Snapshot returns the current immutable rule snapshot.
func (s *MemoryStore) Snapshot(ctx context.Context) (*rules.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot, nil
}

// Create adds a new rule.
func (s *MemoryStore) Create(ctx context.Context, rule *ast.PolicyRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if latest := s.latestLocked(rule.ID); latest != nil && latest.IsActive() {
		return &rules.ConflictError{RuleID: rule.ID, Message: "an active rule with this id already exists"}
	}

	stored := cloneRule(rule)
	if stored.Version == 0 {
		stored.Version = 1
	}
	stored.Active = true
	stored.SupersededBy = ""

	if _, seen := s.versions[stored.ID]; !seen {
		s.order = append(s.order, stored.ID)
	}
	s.versions[stored.ID] = append(s.versions[stored.ID], stored)
	s.rebuildLocked()

	s.logger.Info("rule created", "rule_id", stored.ID, "layer", stored.Layer, "effect", stored.Effect)
	return nil
}

// Get returns the latest version of the rule with the given ID.
func (s *MemoryStore) Get(ctx context.Context, id string) (*ast.PolicyRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	latest := s.latestLocked(id)
	if latest == nil {
		return nil, &rules.NotFoundError{RuleID: id}
	}
	return cloneRule(latest), nil
}

// List returns rules, optionally filtered by layer.
func (s *MemoryStore) List(ctx context.Context, layer ast.Layer, includeInactive bool) ([]*ast.PolicyRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*ast.PolicyRule
	for _, id := range s.order {
		for _, v := range s.versions[id] {
			if layer != "" && v.Layer != layer {
				continue
			}
			if !includeInactive && !v.IsActive() {
				continue
			}
			out = append(out, cloneRule(v))
		}
	}
	return out, nil
}

// Supersede replaces the current version of a rule with a new one.
func (s *MemoryStore) Supersede(ctx context.Context, id string, replacement *ast.PolicyRule) (*ast.PolicyRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	latest := s.latestLocked(id)
	if latest == nil {
		return nil, &rules.NotFoundError{RuleID: id}
	}
	if !latest.IsActive() {
		return nil, &rules.ConflictError{RuleID: id, Message: "cannot supersede an inactive rule"}
	}

	next := cloneRule(replacement)
	next.ID = id
	next.Layer = latest.Layer // Layer changes would silently move a constraint across domains
	next.Version = latest.Version + 1
	next.Active = true
	next.SupersededBy = ""
	next.CreatedAt = latest.CreatedAt
	next.UpdatedAt = time.Now().UTC()

	latest.SupersededBy = versionRef(id, next.Version)
	latest.UpdatedAt = next.UpdatedAt

	s.versions[id] = append(s.versions[id], next)
	s.rebuildLocked()

	s.logger.Info("rule superseded", "rule_id", id, "new_version", next.Version)
	return cloneRule(next), nil
}

// Deactivate marks the current version of a rule inactive.
func (s *MemoryStore) Deactivate(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	latest := s.latestLocked(id)
	if latest == nil {
		return &rules.NotFoundError{RuleID: id}
	}
	if !latest.IsActive() {
		return &rules.ConflictError{RuleID: id, Message: "rule is already inactive"}
	}

	latest.Active = false
	latest.UpdatedAt = time.Now().UTC()
	s.rebuildLocked()

	s.logger.Info("rule deactivated", "rule_id", id)
	return nil
}

// ReplaceAll swaps the entire active rule set.
func (s *MemoryStore) ReplaceAll(ctx context.Context, all []*ast.PolicyRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	versions := make(map[string][]*ast.PolicyRule, len(all))
	order := make([]string, 0, len(all))
	for _, r := range all {
		stored := cloneRule(r)
		if _, seen := versions[stored.ID]; seen {
			return &rules.ConflictError{RuleID: stored.ID, Message: "duplicate rule id in replacement set"}
		}
		versions[stored.ID] = []*ast.PolicyRule{stored}
		order = append(order, stored.ID)
	}

	s.versions = versions
	s.order = order
	s.rebuildLocked()

	s.logger.Info("rule set replaced", "rule_count", len(all), "snapshot_version", s.snapshot.Version())
	return nil
}

// Close releases resources. The memory store holds none.
func (s *MemoryStore) Close() error {
	return nil
}

// latestLocked returns the newest version of a rule. Callers must hold
// at least a read lock.
func (s *MemoryStore) latestLocked(id string) *ast.PolicyRule {
	vs := s.versions[id]
	if len(vs) == 0 {
		return nil
	}
	return vs[len(vs)-1]
}

// rebuildLocked publishes a fresh snapshot. Callers must hold the write
// lock.
func (s *MemoryStore) rebuildLocked() {
	var all []*ast.PolicyRule
	for _, id := range s.order {
		all = append(all, s.versions[id]...)
	}
	s.snapshot = rules.NewSnapshot(all)
}

// cloneRule copies a rule so stored versions are never aliased by
// callers. Predicate nodes are immutable after parsing and are shared.
func cloneRule(r *ast.PolicyRule) *ast.PolicyRule {
	c := *r
	if r.Scope != nil {
		scope := *r.Scope
		c.Scope = &scope
	}
	return &c
}

func versionRef(id string, version int) string {
	return fmt.Sprintf("%s@v%d", id, version)
}
