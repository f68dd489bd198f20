package decision

import (
	"context"
	"time"

	"github.com/google/uuid"

	"aoss-hq/sentinel/pkg/engine"
)

// Record is one immutable entry in the decision trail.
type Record struct {
	// ID is the record's own identifier.
	ID string `json:"id"`

	// Decision is the full evaluation result.
	Decision *engine.Decision `json:"decision"`

	// ContentHash is the hash over the decision's stable fields,
	// used for idempotent re-recording.
	ContentHash string `json:"content_hash"`

	// RecordedAt is when the record was created.
	RecordedAt time.Time `json:"recorded_at"`
}

// NewRecord wraps a decision into a record ready for storage.
func NewRecord(d *engine.Decision) *Record {
	return &Record{
		ID:          uuid.New().String(),
		Decision:    d,
		ContentHash: ContentHash(d),
		RecordedAt:  time.Now().UTC(),
	}
}

// Filter narrows List queries. Zero values mean "no constraint".
type Filter struct {
	// Outcome restricts to records with this outcome.
	Outcome engine.Outcome

	// Since restricts to records recorded at or after this time.
	Since time.Time

	// Until restricts to records recorded before this time.
	Until time.Time

	// Limit caps the number of returned records. Zero means no cap.
	Limit int
}

// Storage is the persistence surface for decision records.
//
// Store is idempotent per request: storing a record whose content hash
// equals the one already on file succeeds without writing, and storing
// a different one fails with an IntegrityError. PruneBefore exists for
// the retention job only, which archives records before removing them;
// nothing else deletes.
type Storage interface {
	// Store persists a record, or verifies it against the existing one.
	Store(ctx context.Context, record *Record) error

	// Get returns the record for a request ID.
	Get(ctx context.Context, requestID string) (*Record, error)

	// List returns records matching the filter, oldest first.
	List(ctx context.Context, filter Filter) ([]*Record, error)

	// Count returns the total number of records.
	Count(ctx context.Context) (int64, error)

	// PruneBefore removes records recorded before the cutoff and
	// returns how many were removed.
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Close releases backend resources.
	Close() error
}
