package recorder

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"aoss-hq/sentinel/pkg/decision"
	"aoss-hq/sentinel/pkg/engine"
)

// Config contains configuration for the decision recorder.
type Config struct {
	// AsyncBuffer is the size of the async write channel buffer.
	// Default: 1000
	AsyncBuffer int

	// WriteTimeout is the timeout for writing a record to storage,
	// and for enqueueing when the buffer is full.
	// Default: 5 seconds
	WriteTimeout time.Duration
}

// DefaultConfig returns the default recorder configuration.
func DefaultConfig() *Config {
	return &Config{
		AsyncBuffer:  1000,
		WriteTimeout: 5 * time.Second,
	}
}

// Recorder writes decision records to storage.
type Recorder struct {
	storage decision.Storage
	config  *Config
	records chan *decision.Record
	done    chan struct{}
	wg      sync.WaitGroup
	logger  *slog.Logger
}

// New creates a recorder over the given storage and starts its
// background worker.
func New(storage decision.Storage, config *Config) *Recorder {
	if config == nil {
		config = DefaultConfig()
	}

	r := &Recorder{
		storage: storage,
		config:  config,
		records: make(chan *decision.Record, config.AsyncBuffer),
		done:    make(chan struct{}),
		logger:  slog.Default().With("component", "decision.recorder"),
	}

	r.wg.Add(1)
	go r.worker()

	return r
}

// RecordSync writes the decision and returns the stored record. A
// conflicting prior decision for the same request surfaces as an
// IntegrityError; an identical one returns successfully without a
// second write.
func (r *Recorder) RecordSync(ctx context.Context, d *engine.Decision) (*decision.Record, error) {
	record := decision.NewRecord(d)
	if err := r.storage.Store(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// Record enqueues the decision for asynchronous writing. It returns
// once the record is buffered; storage errors, including integrity
// conflicts, are logged by the worker.
func (r *Recorder) Record(ctx context.Context, d *engine.Decision) error {
	record := decision.NewRecord(d)

	select {
	case r.records <- record:
		return nil
	case <-time.After(r.config.WriteTimeout):
		r.logger.Error("decision channel full, dropping record",
			"request_id", d.RequestID,
			"channel_capacity", r.config.AsyncBuffer,
		)
		return decision.NewStorageError("recorder", "enqueue", context.DeadlineExceeded)
	case <-r.done:
		return decision.NewStorageError("recorder", "enqueue", context.Canceled)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains the channel and waits for pending writes to finish.
func (r *Recorder) Close() error {
	close(r.done)
	r.wg.Wait()
	return nil
}

func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case record := <-r.records:
			r.write(record)

		case <-r.done:
			for {
				select {
				case record := <-r.records:
					r.write(record)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) write(record *decision.Record) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	err := r.storage.Store(ctx, record)
	if err == nil {
		r.logger.Debug("decision recorded",
			"request_id", record.Decision.RequestID,
			"outcome", record.Decision.Outcome,
		)
		return
	}

	var integrity *decision.IntegrityError
	if errors.As(err, &integrity) {
		r.logger.Error("conflicting decision rejected, trail is append-only",
			"request_id", record.Decision.RequestID,
			"error", err,
		)
		return
	}
	r.logger.Error("failed to store decision record",
		"request_id", record.Decision.RequestID,
		"error", err,
	)
}
