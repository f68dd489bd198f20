package storage

import (
	"context"
	"sync"
	"time"

	"aoss-hq/sentinel/pkg/decision"
)

// MemoryStorage is an in-memory decision trail. Records are treated as
// immutable once stored; callers must not modify what they get back.
type MemoryStorage struct {
	mu      sync.RWMutex
	byReqID map[string]*decision.Record
	ordered []*decision.Record
}

// NewMemoryStorage creates an empty in-memory trail.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		byReqID: make(map[string]*decision.Record),
	}
}

// Store persists a record, or verifies it against the existing one.
func (s *MemoryStorage) Store(ctx context.Context, record *decision.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.byReqID[record.Decision.RequestID]
	if ok {
		if existing.ContentHash == record.ContentHash {
			return nil
		}
		return &decision.IntegrityError{
			RequestID:    record.Decision.RequestID,
			ExistingHash: existing.ContentHash,
			NewHash:      record.ContentHash,
		}
	}

	s.byReqID[record.Decision.RequestID] = record
	s.ordered = append(s.ordered, record)
	return nil
}

// Get returns the record for a request ID.
func (s *MemoryStorage) Get(ctx context.Context, requestID string) (*decision.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.byReqID[requestID]
	if !ok {
		return nil, &decision.NotFoundError{RequestID: requestID}
	}
	return record, nil
}

// List returns records matching the filter, oldest first.
func (s *MemoryStorage) List(ctx context.Context, filter decision.Filter) ([]*decision.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*decision.Record
	for _, r := range s.ordered {
		if !matches(r, filter) {
			continue
		}
		out = append(out, r)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

// Count returns the total number of records.
func (s *MemoryStorage) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.ordered)), nil
}

// PruneBefore removes records recorded before the cutoff.
func (s *MemoryStorage) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var kept []*decision.Record
	var pruned int64
	for _, r := range s.ordered {
		if r.RecordedAt.Before(cutoff) {
			delete(s.byReqID, r.Decision.RequestID)
			pruned++
			continue
		}
		kept = append(kept, r)
	}
	s.ordered = kept
	return pruned, nil
}

// Close releases nothing; it exists to satisfy the Storage interface.
func (s *MemoryStorage) Close() error {
	return nil
}

func matches(r *decision.Record, f decision.Filter) bool {
	if f.Outcome != "" && r.Decision.Outcome != f.Outcome {
		return false
	}
	if !f.Since.IsZero() && r.RecordedAt.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && !r.RecordedAt.Before(f.Until) {
		return false
	}
	return true
}
