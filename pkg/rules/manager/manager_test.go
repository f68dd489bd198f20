package manager

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"aoss-hq/sentinel/pkg/rules/ast"
	"aoss-hq/sentinel/pkg/rules/source"
	"aoss-hq/sentinel/pkg/rules/store"
)

// fakeSource returns canned rule sets, one per Load call.
type fakeSource struct {
	loads []func() ([]*ast.PolicyRule, error)
	calls atomic.Int32
}

func (f *fakeSource) Load(ctx context.Context) ([]*ast.PolicyRule, error) {
	i := int(f.calls.Add(1)) - 1
	if i >= len(f.loads) {
		i = len(f.loads) - 1
	}
	return f.loads[i]()
}

func rulesNamed(ids ...string) []*ast.PolicyRule {
	out := make([]*ast.PolicyRule, 0, len(ids))
	for _, id := range ids {
		out = append(out, &ast.PolicyRule{
			ID:     id,
			Layer:  ast.LayerSafety,
			Effect: ast.EffectForbid,
			Predicate: &ast.ConditionNode{
				Type:     ast.ConditionTypeSimple,
				Field:    "environment",
				Operator: ast.OperatorEqual,
				Value:    "production",
			},
			Version: 1,
			Active:  true,
		})
	}
	return out
}

// TestManager_InitialLoad tests that Start populates the store.
func TestManager_InitialLoad(t *testing.T) {
	st := store.NewMemoryStore()
	src := &fakeSource{loads: []func() ([]*ast.PolicyRule, error){
		func() ([]*ast.PolicyRule, error) { return rulesNamed("a", "b"), nil },
	}}

	m := New(st, src, nil)
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	defer m.Stop()

	snap, _ := st.Snapshot(context.Background())
	if snap.Len() != 2 {
		t.Errorf("snapshot Len() = %d, want 2", snap.Len())
	}
}

// TestManager_InitialLoadFailure tests that a broken source is fatal at
// startup.
func TestManager_InitialLoadFailure(t *testing.T) {
	st := store.NewMemoryStore()
	src := &fakeSource{loads: []func() ([]*ast.PolicyRule, error){
		func() ([]*ast.PolicyRule, error) { return nil, errors.New("no rules for you") },
	}}

	if err := New(st, src, nil).Start(context.Background()); err == nil {
		t.Fatal("expected Start() to fail when the initial load fails")
	}
}

// TestManager_ReloadOnEvent tests that a source event replaces the rule
// set.
func TestManager_ReloadOnEvent(t *testing.T) {
	st := store.NewMemoryStore()
	src := &fakeSource{loads: []func() ([]*ast.PolicyRule, error){
		func() ([]*ast.PolicyRule, error) { return rulesNamed("a"), nil },
		func() ([]*ast.PolicyRule, error) { return rulesNamed("a", "b", "c"), nil },
	}}
	events := make(chan source.Event, 1)

	m := New(st, src, events)
	if err := m.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer m.Stop()

	events <- source.Event{Path: "rules/safety.yaml"}

	deadline := time.Now().Add(2 * time.Second)
	for {
		snap, _ := st.Snapshot(context.Background())
		if snap.Len() == 3 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("snapshot Len() = %d, want 3 after reload event", snap.Len())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// TestManager_FailedReloadKeepsSnapshot tests that a broken reload
// leaves the previous rule set in force.
func TestManager_FailedReloadKeepsSnapshot(t *testing.T) {
	st := store.NewMemoryStore()
	src := &fakeSource{loads: []func() ([]*ast.PolicyRule, error){
		func() ([]*ast.PolicyRule, error) { return rulesNamed("a", "b"), nil },
		func() ([]*ast.PolicyRule, error) { return nil, errors.New("broken yaml") },
	}}
	events := make(chan source.Event, 1)

	m := New(st, src, events)
	if err := m.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	before, _ := st.Snapshot(context.Background())

	events <- source.Event{Path: "rules/safety.yaml"}

	// Wait for the event to be consumed, then stop the watcher so the
	// reload has definitely finished.
	deadline := time.Now().Add(2 * time.Second)
	for src.calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	m.Stop()

	after, _ := st.Snapshot(context.Background())
	if after.Version() != before.Version() {
		t.Error("failed reload must not replace the snapshot")
	}
	if after.Len() != 2 {
		t.Errorf("snapshot Len() = %d, want 2", after.Len())
	}
}
