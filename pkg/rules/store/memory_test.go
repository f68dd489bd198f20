package store

import (
	"context"
	"errors"
	"testing"

	"aoss-hq/sentinel/pkg/rules"
	"aoss-hq/sentinel/pkg/rules/ast"
)

func testRule(id string, layer ast.Layer, effect ast.Effect) *ast.PolicyRule {
	return &ast.PolicyRule{
		ID:     id,
		Layer:  layer,
		Effect: effect,
		Predicate: &ast.ConditionNode{
			Type:     ast.ConditionTypeSimple,
			Field:    "environment",
			Operator: ast.OperatorEqual,
			Value:    "production",
		},
		Version: 1,
		Active:  true,
	}
}

// TestMemoryStore_CreateAndGet tests basic create/get round trips.
func TestMemoryStore_CreateAndGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	rule := testRule("r1", ast.LayerSafety, ast.EffectForbid)
	if err := s.Create(ctx, rule); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	got, err := s.Get(ctx, "r1")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.ID != "r1" || got.Layer != ast.LayerSafety || got.Version != 1 {
		t.Errorf("Get() = %+v", got)
	}

	// Creating a second active rule with the same ID conflicts.
	err = s.Create(ctx, testRule("r1", ast.LayerSafety, ast.EffectForbid))
	var conflict *rules.ConflictError
	if !errors.As(err, &conflict) {
		t.Errorf("expected ConflictError, got %v", err)
	}
}

// TestMemoryStore_GetMissing tests the not-found path.
func TestMemoryStore_GetMissing(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.Get(context.Background(), "nope")
	var notFound *rules.NotFoundError
	if !errors.As(err, &notFound) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}

// TestMemoryStore_Supersede tests versioned replacement.
func TestMemoryStore_Supersede(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Create(ctx, testRule("r1", ast.LayerSafety, ast.EffectForbid)); err != nil {
		t.Fatal(err)
	}

	replacement := testRule("r1", ast.LayerSafety, ast.EffectRequireApproval)
	next, err := s.Supersede(ctx, "r1", replacement)
	if err != nil {
		t.Fatalf("Supersede() failed: %v", err)
	}
	if next.Version != 2 {
		t.Errorf("Version = %d, want 2", next.Version)
	}
	if next.Effect != ast.EffectRequireApproval {
		t.Errorf("Effect = %s", next.Effect)
	}

	// The old version stays on file, marked superseded.
	all, err := s.List(ctx, "", true)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("Expected 2 versions, got %d", len(all))
	}
	if all[0].SupersededBy != "r1@v2" {
		t.Errorf("old SupersededBy = %q", all[0].SupersededBy)
	}

	// Only the new version is active.
	active, err := s.List(ctx, "", false)
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 1 || active[0].Version != 2 {
		t.Errorf("active versions = %+v", active)
	}

	// The snapshot only contains the new version.
	snap, err := s.Snapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Len() != 1 {
		t.Errorf("snapshot Len() = %d, want 1", snap.Len())
	}

	// Supersede keeps the original layer even if the replacement lies.
	crossLayer := testRule("r1", ast.LayerRegulatory, ast.EffectForbid)
	v3, err := s.Supersede(ctx, "r1", crossLayer)
	if err != nil {
		t.Fatal(err)
	}
	if v3.Layer != ast.LayerSafety {
		t.Errorf("Layer = %s, want SAFETY preserved", v3.Layer)
	}
}

// TestMemoryStore_Deactivate tests soft deletion.
func TestMemoryStore_Deactivate(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Create(ctx, testRule("r1", ast.LayerSafety, ast.EffectForbid)); err != nil {
		t.Fatal(err)
	}
	if err := s.Deactivate(ctx, "r1"); err != nil {
		t.Fatalf("Deactivate() failed: %v", err)
	}

	snap, _ := s.Snapshot(ctx)
	if snap.Len() != 0 {
		t.Errorf("snapshot Len() = %d after deactivation", snap.Len())
	}

	// The rule is still on file.
	got, err := s.Get(ctx, "r1")
	if err != nil {
		t.Fatalf("Get() after deactivation failed: %v", err)
	}
	if got.IsActive() {
		t.Error("rule should be inactive")
	}

	// Deactivating twice conflicts.
	var conflict *rules.ConflictError
	if err := s.Deactivate(ctx, "r1"); !errors.As(err, &conflict) {
		t.Errorf("expected ConflictError, got %v", err)
	}
}

// TestMemoryStore_ReplaceAll tests full rule set replacement.
func TestMemoryStore_ReplaceAll(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Create(ctx, testRule("old", ast.LayerSafety, ast.EffectForbid)); err != nil {
		t.Fatal(err)
	}

	first, _ := s.Snapshot(ctx)

	err := s.ReplaceAll(ctx, []*ast.PolicyRule{
		testRule("a", ast.LayerRegulatory, ast.EffectForbid),
		testRule("b", ast.LayerSafety, ast.EffectRequireApproval),
	})
	if err != nil {
		t.Fatalf("ReplaceAll() failed: %v", err)
	}

	snap, _ := s.Snapshot(ctx)
	if snap.Len() != 2 {
		t.Errorf("snapshot Len() = %d, want 2", snap.Len())
	}
	if snap.Version() == first.Version() {
		t.Error("replacement must publish a new snapshot version")
	}
	if _, err := s.Get(ctx, "old"); err == nil {
		t.Error("replaced rule should be gone")
	}

	if len(snap.LayerRules(ast.LayerRegulatory)) != 1 {
		t.Errorf("REGULATORY rules = %d", len(snap.LayerRules(ast.LayerRegulatory)))
	}
}

// TestMemoryStore_ReplaceAllDuplicate tests duplicate rejection.
func TestMemoryStore_ReplaceAllDuplicate(t *testing.T) {
	s := NewMemoryStore()

	err := s.ReplaceAll(context.Background(), []*ast.PolicyRule{
		testRule("dup", ast.LayerSafety, ast.EffectForbid),
		testRule("dup", ast.LayerSafety, ast.EffectForbid),
	})
	var conflict *rules.ConflictError
	if !errors.As(err, &conflict) {
		t.Errorf("expected ConflictError, got %v", err)
	}
}

// TestMemoryStore_CloneIsolation tests that stored rules are not
// aliased by callers.
func TestMemoryStore_CloneIsolation(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	rule := testRule("r1", ast.LayerSafety, ast.EffectForbid)
	rule.Scope = &ast.Scope{Service: "payments"}
	if err := s.Create(ctx, rule); err != nil {
		t.Fatal(err)
	}

	got, _ := s.Get(ctx, "r1")
	got.Scope.Service = "mutated"
	got.Description = "mutated"

	again, _ := s.Get(ctx, "r1")
	if again.Scope.Service != "payments" || again.Description != "" {
		t.Errorf("stored rule was mutated through a returned copy: %+v", again)
	}
}
