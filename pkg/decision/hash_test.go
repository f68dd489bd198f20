package decision

import (
	"testing"
	"time"

	"aoss-hq/sentinel/pkg/engine"
	"aoss-hq/sentinel/pkg/rules/ast"
)

func sampleDecision() *engine.Decision {
	return &engine.Decision{
		RequestID: "req-1",
		Outcome:   engine.OutcomeViolation,
		MatchedRules: []engine.MatchedRule{{
			SubActionIndex: 0,
			RuleID:         "sre-no-forced-deletes",
			RuleVersion:    1,
			Layer:          ast.LayerSafety,
			Effect:         ast.EffectForbid,
		}},
		Explanation:     "SAFETY rule sre-no-forced-deletes (FORBID) fired on sub-action 0",
		SubActions:      []engine.SubActionRecord{{Index: 0, Text: "rm --force /data", Technique: "NONE"}},
		SnapshotVersion: "snap-1",
		EvaluatedAt:     time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC),
		Elapsed:         3 * time.Millisecond,
	}
}

// TestContentHash_StableAcrossTimestamps tests that re-evaluations of
// the same verdict hash identically regardless of when they ran.
func TestContentHash_StableAcrossTimestamps(t *testing.T) {
	a := sampleDecision()
	b := sampleDecision()
	b.EvaluatedAt = b.EvaluatedAt.Add(48 * time.Hour)
	b.Elapsed = 900 * time.Millisecond

	if ContentHash(a) != ContentHash(b) {
		t.Error("hash must ignore EvaluatedAt and Elapsed")
	}
	if ContentHash(a) == "" {
		t.Error("hash must not be empty")
	}
	if len(ContentHash(a)) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(ContentHash(a)))
	}
}

// TestContentHash_SensitiveToVerdict tests that every stable field
// participates in the hash.
func TestContentHash_SensitiveToVerdict(t *testing.T) {
	base := ContentHash(sampleDecision())

	mutations := map[string]func(*engine.Decision){
		"request id":  func(d *engine.Decision) { d.RequestID = "req-2" },
		"outcome":     func(d *engine.Decision) { d.Outcome = engine.OutcomeAllowed },
		"explanation": func(d *engine.Decision) { d.Explanation = "different" },
		"snapshot":    func(d *engine.Decision) { d.SnapshotVersion = "snap-2" },
		"rules":       func(d *engine.Decision) { d.MatchedRules[0].RuleVersion = 2 },
		"sub-actions": func(d *engine.Decision) { d.SubActions[0].Text = "ls" },
	}
	for name, mutate := range mutations {
		d := sampleDecision()
		mutate(d)
		if ContentHash(d) == base {
			t.Errorf("%s change did not alter the hash", name)
		}
	}
}
