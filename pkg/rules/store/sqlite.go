package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver (cgo-free)

	"aoss-hq/sentinel/pkg/rules"
	"aoss-hq/sentinel/pkg/rules/ast"
)

// SQLiteConfig contains configuration for the SQLite rule store.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite rule store configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:        "data/rules.db",
		BusyTimeout: 5 * time.Second,
	}
}

// SQLiteStore implements the Store interface backed by an embedded
// SQLite database. The full rule set is mirrored in memory so snapshot
// reads never touch the database; writes go through the database first
// and republish the in-memory snapshot only on success.
type SQLiteStore struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger

	mu       sync.RWMutex
	versions map[string][]*ast.PolicyRule
	order    []string
	snapshot *rules.Snapshot
}

// NewSQLiteStore opens (or creates) the rule database at the configured
// path and loads the current rule set into memory.
func NewSQLiteStore(config *SQLiteConfig) (*SQLiteStore, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}

	logger := slog.Default().With("component", "rules.store.sqlite")

	db, err := sql.Open("sqlite", config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open rule database %q: %w", config.Path, err)
	}

	s := &SQLiteStore{
		db:       db,
		config:   config,
		logger:   logger,
		versions: make(map[string][]*ast.PolicyRule),
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	if err := s.loadAll(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite rule store initialized",
		"path", config.Path,
		"rule_count", s.snapshot.Len(),
	)

	return s, nil
}

// initialize sets up the schema and pragmas.
func (s *SQLiteStore) initialize() error {
	if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", s.config.BusyTimeout.Milliseconds())); err != nil {
		return fmt.Errorf("failed to set busy timeout: %w", err)
	}
	if _, err := s.db.Exec(ruleSchema); err != nil {
		return fmt.Errorf("failed to create rule schema: %w", err)
	}
	if _, err := s.db.Exec(insertRuleSchemaVersion, ruleSchemaVersion); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	return nil
}

// loadAll reads every rule version from the database and rebuilds the
// in-memory mirror and snapshot.
func (s *SQLiteStore) loadAll(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, version, layer, description, effect, predicate, scope,
		       active, superseded_by, created_at, updated_at
		FROM rules ORDER BY created_at, id, version`)
	if err != nil {
		return fmt.Errorf("failed to load rules: %w", err)
	}
	defer rows.Close()

	versions := make(map[string][]*ast.PolicyRule)
	var order []string

	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return err
		}
		if _, seen := versions[rule.ID]; !seen {
			order = append(order, rule.ID)
		}
		versions[rule.ID] = append(versions[rule.ID], rule)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate rules: %w", err)
	}

	s.mu.Lock()
	s.versions = versions
	s.order = order
	s.rebuildLocked()
	s.mu.Unlock()

	return nil
}

// Snapshot returns the current immutable rule snapshot.
func (s *SQLiteStore) Snapshot(ctx context.Context) (*rules.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		return nil, rules.ErrStoreUnavailable
	}
	return s.snapshot, nil
}

// Create adds a new rule.
func (s *SQLiteStore) Create(ctx context.Context, rule *ast.PolicyRule) error {
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
	now := time.Now().UTC()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now

	if err := s.insertRule(ctx, stored); err != nil {
		return err
	}

	if _, seen := s.versions[stored.ID]; !seen {
		s.order = append(s.order, stored.ID)
	}
	s.versions[stored.ID] = append(s.versions[stored.ID], stored)
	s.rebuildLocked()

	s.logger.Info("rule created", "rule_id", stored.ID, "layer", stored.Layer, "effect", stored.Effect)
	return nil
}

// Get returns the latest version of the rule with the given ID.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*ast.PolicyRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	latest := s.latestLocked(id)
	if latest == nil {
		return nil, &rules.NotFoundError{RuleID: id}
	}
	return cloneRule(latest), nil
}

// List returns rules, optionally filtered by layer.
func (s *SQLiteStore) List(ctx context.Context, layer ast.Layer, includeInactive bool) ([]*ast.PolicyRule, error) {
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
func (s *SQLiteStore) Supersede(ctx context.Context, id string, replacement *ast.PolicyRule) (*ast.PolicyRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	latest := s.latestLocked(id)
	if latest == nil {
		return nil, &rules.NotFoundError{RuleID: id}
	}
	if !latest.IsActive() {
		return nil, &rules.ConflictError{RuleID: id, Message: "cannot supersede an inactive rule"}
	}

	now := time.Now().UTC()
	next := cloneRule(replacement)
	next.ID = id
	next.Layer = latest.Layer
	next.Version = latest.Version + 1
	next.Active = true
	next.SupersededBy = ""
	next.CreatedAt = latest.CreatedAt
	next.UpdatedAt = now

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	ref := versionRef(id, next.Version)
	if _, err := tx.ExecContext(ctx,
		`UPDATE rules SET superseded_by = ?, updated_at = ? WHERE id = ? AND version = ?`,
		ref, now, id, latest.Version); err != nil {
		return nil, fmt.Errorf("failed to mark rule superseded: %w", err)
	}
	if err := insertRuleTx(ctx, tx, next); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit supersede: %w", err)
	}

	latest.SupersededBy = ref
	latest.UpdatedAt = now
	s.versions[id] = append(s.versions[id], next)
	s.rebuildLocked()

	s.logger.Info("rule superseded", "rule_id", id, "new_version", next.Version)
	return cloneRule(next), nil
}

// Deactivate marks the current version of a rule inactive.
func (s *SQLiteStore) Deactivate(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	latest := s.latestLocked(id)
	if latest == nil {
		return &rules.NotFoundError{RuleID: id}
	}
	if !latest.IsActive() {
		return &rules.ConflictError{RuleID: id, Message: "rule is already inactive"}
	}

	now := time.Now().UTC()
	if _, err := s.db.ExecContext(ctx,
		`UPDATE rules SET active = 0, updated_at = ? WHERE id = ? AND version = ?`,
		now, id, latest.Version); err != nil {
		return fmt.Errorf("failed to deactivate rule: %w", err)
	}

	latest.Active = false
	latest.UpdatedAt = now
	s.rebuildLocked()

	s.logger.Info("rule deactivated", "rule_id", id)
	return nil
}

// ReplaceAll swaps the entire active rule set.
func (s *SQLiteStore) ReplaceAll(ctx context.Context, all []*ast.PolicyRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM rules`); err != nil {
		return fmt.Errorf("failed to clear rules: %w", err)
	}

	versions := make(map[string][]*ast.PolicyRule, len(all))
	var order []string
	for _, r := range all {
		stored := cloneRule(r)
		if _, seen := versions[stored.ID]; seen {
			return &rules.ConflictError{RuleID: stored.ID, Message: "duplicate rule id in replacement set"}
		}
		if err := insertRuleTx(ctx, tx, stored); err != nil {
			return err
		}
		versions[stored.ID] = []*ast.PolicyRule{stored}
		order = append(order, stored.ID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rule set replacement: %w", err)
	}

	s.versions = versions
	s.order = order
	s.rebuildLocked()

	s.logger.Info("rule set replaced", "rule_count", len(all), "snapshot_version", s.snapshot.Version())
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) insertRule(ctx context.Context, rule *ast.PolicyRule) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertRuleTx(ctx, tx, rule); err != nil {
		return err
	}
	return tx.Commit()
}

func insertRuleTx(ctx context.Context, tx *sql.Tx, rule *ast.PolicyRule) error {
	predicate, err := marshalPredicate(rule.Predicate)
	if err != nil {
		return fmt.Errorf("failed to encode predicate for rule %q: %w", rule.ID, err)
	}
	scope, err := marshalScope(rule.Scope)
	if err != nil {
		return fmt.Errorf("failed to encode scope for rule %q: %w", rule.ID, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO rules (
			id, version, layer, description, effect, predicate, scope,
			active, superseded_by, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rule.ID, rule.Version, string(rule.Layer), rule.Description, string(rule.Effect),
		predicate, scope, boolToInt(rule.Active), nullable(rule.SupersededBy),
		rule.CreatedAt, rule.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert rule %q: %w", rule.ID, err)
	}
	return nil
}

// rebuildLocked publishes a fresh snapshot. Callers must hold the write
// lock.
func (s *SQLiteStore) rebuildLocked() {
	var all []*ast.PolicyRule
	for _, id := range s.order {
		all = append(all, s.versions[id]...)
	}
	s.snapshot = rules.NewSnapshot(all)
}

// latestLocked returns the newest version of a rule. Callers must hold
// at least a read lock.
func (s *SQLiteStore) latestLocked(id string) *ast.PolicyRule {
	vs := s.versions[id]
	if len(vs) == 0 {
		return nil
	}
	return vs[len(vs)-1]
}

type ruleScanner interface {
	Scan(dest ...interface{}) error
}

func scanRule(row ruleScanner) (*ast.PolicyRule, error) {
	var (
		rule                   ast.PolicyRule
		layer, effect          string
		predicate, scope       sql.NullString
		description, supersede sql.NullString
		active                 int
	)

	err := row.Scan(&rule.ID, &rule.Version, &layer, &description, &effect,
		&predicate, &scope, &active, &supersede, &rule.CreatedAt, &rule.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan rule row: %w", err)
	}

	rule.Layer = ast.Layer(layer)
	rule.Effect = ast.Effect(effect)
	rule.Description = description.String
	rule.SupersededBy = supersede.String
	rule.Active = active != 0

	if predicate.Valid && predicate.String != "" {
		var node ast.ConditionNode
		if err := json.Unmarshal([]byte(predicate.String), &node); err != nil {
			return nil, fmt.Errorf("failed to decode predicate for rule %q: %w", rule.ID, err)
		}
		rule.Predicate = &node
	}
	if scope.Valid && scope.String != "" {
		var sc ast.Scope
		if err := json.Unmarshal([]byte(scope.String), &sc); err != nil {
			return nil, fmt.Errorf("failed to decode scope for rule %q: %w", rule.ID, err)
		}
		rule.Scope = &sc
	}

	return &rule, nil
}

func marshalPredicate(node *ast.ConditionNode) (interface{}, error) {
	if node == nil {
		return nil, nil
	}
	data, err := json.Marshal(node)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func marshalScope(scope *ast.Scope) (interface{}, error) {
	if scope.IsEmpty() {
		return nil, nil
	}
	data, err := json.Marshal(scope)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
