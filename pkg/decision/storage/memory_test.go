package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"aoss-hq/sentinel/pkg/decision"
	"aoss-hq/sentinel/pkg/engine"
)

func record(t *testing.T, requestID string, outcome engine.Outcome, recordedAt time.Time) *decision.Record {
	t.Helper()
	r := decision.NewRecord(&engine.Decision{
		RequestID:       requestID,
		Outcome:         outcome,
		Explanation:     "test decision",
		SnapshotVersion: "snap-1",
		EvaluatedAt:     recordedAt,
	})
	r.RecordedAt = recordedAt
	return r
}

// TestMemoryStorage_StoreAndGet tests basic round trips.
func TestMemoryStorage_StoreAndGet(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()

	r := record(t, "req-1", engine.OutcomeViolation, time.Now().UTC())
	if err := s.Store(ctx, r); err != nil {
		t.Fatalf("Store() failed: %v", err)
	}

	got, err := s.Get(ctx, "req-1")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.Decision.Outcome != engine.OutcomeViolation || got.ContentHash != r.ContentHash {
		t.Errorf("Get() = %+v", got)
	}

	var notFound *decision.NotFoundError
	if _, err := s.Get(ctx, "absent"); !errors.As(err, &notFound) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}

// TestMemoryStorage_IdempotentStore tests that re-storing the identical
// decision succeeds and a conflicting one is rejected.
func TestMemoryStorage_IdempotentStore(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()
	at := time.Now().UTC()

	if err := s.Store(ctx, record(t, "req-1", engine.OutcomeViolation, at)); err != nil {
		t.Fatal(err)
	}

	// Same stable content, new record ID and timestamp: accepted.
	if err := s.Store(ctx, record(t, "req-1", engine.OutcomeViolation, at.Add(time.Hour))); err != nil {
		t.Errorf("idempotent re-store failed: %v", err)
	}
	n, _ := s.Count(ctx)
	if n != 1 {
		t.Errorf("Count() = %d, want 1", n)
	}

	// Different verdict for the same request: integrity violation.
	err := s.Store(ctx, record(t, "req-1", engine.OutcomeAllowed, at))
	var integrity *decision.IntegrityError
	if !errors.As(err, &integrity) {
		t.Fatalf("expected IntegrityError, got %v", err)
	}
	if integrity.RequestID != "req-1" {
		t.Errorf("RequestID = %q", integrity.RequestID)
	}
}

// TestMemoryStorage_List tests filter application and ordering.
func TestMemoryStorage_List(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	for i, outcome := range []engine.Outcome{
		engine.OutcomeAllowed,
		engine.OutcomeViolation,
		engine.OutcomeRequiresApproval,
		engine.OutcomeViolation,
	} {
		r := record(t, "req-"+string(rune('a'+i)), outcome, base.Add(time.Duration(i)*time.Hour))
		if err := s.Store(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	all, err := s.List(ctx, decision.Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 4 {
		t.Fatalf("List() = %d records, want 4", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].RecordedAt.Before(all[i-1].RecordedAt) {
			t.Error("records not in oldest-first order")
		}
	}

	violations, _ := s.List(ctx, decision.Filter{Outcome: engine.OutcomeViolation})
	if len(violations) != 2 {
		t.Errorf("violations = %d, want 2", len(violations))
	}

	window, _ := s.List(ctx, decision.Filter{
		Since: base.Add(time.Hour),
		Until: base.Add(3 * time.Hour),
	})
	if len(window) != 2 {
		t.Errorf("window = %d records, want 2", len(window))
	}

	limited, _ := s.List(ctx, decision.Filter{Limit: 3})
	if len(limited) != 3 {
		t.Errorf("limited = %d records, want 3", len(limited))
	}
}

// TestMemoryStorage_PruneBefore tests retention pruning.
func TestMemoryStorage_PruneBefore(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		r := record(t, "req-"+string(rune('a'+i)), engine.OutcomeAllowed, base.AddDate(0, 0, i))
		if err := s.Store(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	pruned, err := s.PruneBefore(ctx, base.AddDate(0, 0, 2))
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
	var notFound *decision.NotFoundError
	if _, err := s.Get(ctx, "req-a"); !errors.As(err, &notFound) {
		t.Errorf("pruned record still retrievable: %v", err)
	}
	if _, err := s.Get(ctx, "req-c"); err != nil {
		t.Errorf("kept record lost: %v", err)
	}
}
