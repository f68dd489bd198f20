package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"aoss-hq/sentinel/pkg/decision"
	"aoss-hq/sentinel/pkg/engine"
	"aoss-hq/sentinel/pkg/rules/ast"
)

func newTestSQLiteStorage(t *testing.T, path string) *SQLiteStorage {
	t.Helper()
	cfg := DefaultSQLiteConfig()
	cfg.Path = path
	s, err := NewSQLiteStorage(cfg)
	if err != nil {
		t.Fatalf("NewSQLiteStorage() failed: %v", err)
	}
	return s
}

// TestSQLiteStorage_RoundTrip tests that a full decision survives
// storage, including the JSON-encoded rule matches and sub-actions.
func TestSQLiteStorage_RoundTrip(t *testing.T) {
	s := newTestSQLiteStorage(t, filepath.Join(t.TempDir(), "decisions.db"))
	defer s.Close()
	ctx := context.Background()

	d := &engine.Decision{
		RequestID: "req-1",
		Outcome:   engine.OutcomeViolation,
		MatchedRules: []engine.MatchedRule{{
			SubActionIndex: 1,
			RuleID:         "adv-no-encoded-execution",
			RuleVersion:    3,
			Layer:          ast.LayerAdversarial,
			Effect:         ast.EffectForbid,
		}},
		Explanation: "ADVERSARIAL rule adv-no-encoded-execution (FORBID) fired on sub-action 1",
		SubActions: []engine.SubActionRecord{
			{Index: 0, Text: "echo 'cm0gLXJmIC8='", Technique: "BASE64"},
			{Index: 1, Text: "rm -rf /", Technique: "BASE64"},
		},
		SnapshotVersion: "snap-1",
		EvaluatedAt:     time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC),
		Elapsed:         2 * time.Millisecond,
	}
	r := decision.NewRecord(d)
	if err := s.Store(ctx, r); err != nil {
		t.Fatalf("Store() failed: %v", err)
	}

	got, err := s.Get(ctx, "req-1")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.ID != r.ID || got.ContentHash != r.ContentHash {
		t.Errorf("record identity: got %s/%s, want %s/%s", got.ID, got.ContentHash, r.ID, r.ContentHash)
	}
	if got.Decision.Outcome != engine.OutcomeViolation {
		t.Errorf("Outcome = %s", got.Decision.Outcome)
	}
	if len(got.Decision.MatchedRules) != 1 || got.Decision.MatchedRules[0].RuleID != "adv-no-encoded-execution" {
		t.Errorf("MatchedRules = %+v", got.Decision.MatchedRules)
	}
	if got.Decision.MatchedRules[0].RuleVersion != 3 {
		t.Errorf("RuleVersion = %d", got.Decision.MatchedRules[0].RuleVersion)
	}
	if len(got.Decision.SubActions) != 2 || got.Decision.SubActions[1].Text != "rm -rf /" {
		t.Errorf("SubActions = %+v", got.Decision.SubActions)
	}
	if got.Decision.Elapsed != 2*time.Millisecond {
		t.Errorf("Elapsed = %v", got.Decision.Elapsed)
	}
}

// TestSQLiteStorage_Idempotency tests the transactional hash check.
func TestSQLiteStorage_Idempotency(t *testing.T) {
	s := newTestSQLiteStorage(t, filepath.Join(t.TempDir(), "decisions.db"))
	defer s.Close()
	ctx := context.Background()
	at := time.Now().UTC()

	if err := s.Store(ctx, record(t, "req-1", engine.OutcomeViolation, at)); err != nil {
		t.Fatal(err)
	}
	if err := s.Store(ctx, record(t, "req-1", engine.OutcomeViolation, at.Add(time.Minute))); err != nil {
		t.Errorf("idempotent re-store failed: %v", err)
	}

	err := s.Store(ctx, record(t, "req-1", engine.OutcomeAllowed, at))
	var integrity *decision.IntegrityError
	if !errors.As(err, &integrity) {
		t.Fatalf("expected IntegrityError, got %v", err)
	}

	n, err := s.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("Count() = %d, want 1", n)
	}
}

// TestSQLiteStorage_Persistence tests that the trail survives reopen.
func TestSQLiteStorage_Persistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decisions.db")
	ctx := context.Background()

	s := newTestSQLiteStorage(t, path)
	if err := s.Store(ctx, record(t, "req-1", engine.OutcomeViolation, time.Now().UTC())); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	reopened := newTestSQLiteStorage(t, path)
	defer reopened.Close()

	got, err := reopened.Get(ctx, "req-1")
	if err != nil {
		t.Fatalf("Get() after reopen failed: %v", err)
	}
	if got.Decision.Outcome != engine.OutcomeViolation {
		t.Errorf("Outcome = %s", got.Decision.Outcome)
	}
}

// TestSQLiteStorage_ListAndPrune tests filters and retention deletes.
func TestSQLiteStorage_ListAndPrune(t *testing.T) {
	s := newTestSQLiteStorage(t, filepath.Join(t.TempDir(), "decisions.db"))
	defer s.Close()
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	outcomes := []engine.Outcome{
		engine.OutcomeAllowed,
		engine.OutcomeViolation,
		engine.OutcomeViolation,
		engine.OutcomeRequiresApproval,
	}
	for i, outcome := range outcomes {
		r := record(t, "req-"+string(rune('a'+i)), outcome, base.Add(time.Duration(i)*time.Hour))
		if err := s.Store(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	violations, err := s.List(ctx, decision.Filter{Outcome: engine.OutcomeViolation})
	if err != nil {
		t.Fatal(err)
	}
	if len(violations) != 2 {
		t.Errorf("violations = %d, want 2", len(violations))
	}

	window, err := s.List(ctx, decision.Filter{
		Since: base.Add(time.Hour),
		Until: base.Add(3 * time.Hour),
		Limit: 1,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(window) != 1 || window[0].Decision.RequestID != "req-b" {
		t.Errorf("window = %+v", window)
	}

	pruned, err := s.PruneBefore(ctx, base.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("PruneBefore() failed: %v", err)
	}
	if pruned != 2 {
		t.Errorf("pruned = %d, want 2", pruned)
	}
	n, _ := s.Count(ctx)
	if n != 2 {
		t.Errorf("Count() = %d, want 2", n)
	}
}
