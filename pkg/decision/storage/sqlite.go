package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"aoss-hq/sentinel/pkg/decision"
	"aoss-hq/sentinel/pkg/engine"
)

// SQLiteConfig contains configuration for the SQLite decision trail.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// WALMode enables Write-Ahead Logging for better concurrency.
	// Default: true
	WALMode bool

	// BusyTimeout is how long to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/decisions.db",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStorage implements the decision Storage interface on SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStorage opens the database and initializes the schema.
func NewSQLiteStorage(config *SQLiteConfig) (*SQLiteStorage, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}

	logger := slog.Default().With("component", "decision.storage.sqlite")

	db, err := sql.Open("sqlite3", config.Path)
	if err != nil {
		return nil, decision.NewStorageError("sqlite", "open", err)
	}
	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)

	s := &SQLiteStorage{
		db:     db,
		config: config,
		logger: logger,
	}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("decision storage initialized",
		"path", config.Path,
		"wal_mode", config.WALMode,
	)
	return s, nil
}

func (s *SQLiteStorage) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return decision.NewStorageError("sqlite", "enable_wal", err)
		}
	}
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", s.config.BusyTimeout.Milliseconds())); err != nil {
		return decision.NewStorageError("sqlite", "set_busy_timeout", err)
	}
	if _, err := s.db.Exec(Schema); err != nil {
		return decision.NewStorageError("sqlite", "create_schema", err)
	}
	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return decision.NewStorageError("sqlite", "insert_schema_version", err)
	}
	return nil
}

// Store persists a record, or verifies it against the existing one.
// The check and insert run in one transaction so concurrent writers
// for the same request cannot both insert.
func (s *SQLiteStorage) Store(ctx context.Context, record *decision.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return decision.NewStorageError("sqlite", "begin", err)
	}
	defer tx.Rollback()

	var existingHash string
	err = tx.QueryRowContext(ctx,
		"SELECT content_hash FROM decisions WHERE request_id = ?",
		record.Decision.RequestID,
	).Scan(&existingHash)

	switch {
	case err == nil:
		if existingHash == record.ContentHash {
			return nil
		}
		return &decision.IntegrityError{
			RequestID:    record.Decision.RequestID,
			ExistingHash: existingHash,
			NewHash:      record.ContentHash,
		}
	case err != sql.ErrNoRows:
		return decision.NewStorageError("sqlite", "lookup", err)
	}

	matchedRules, err := json.Marshal(record.Decision.MatchedRules)
	if err != nil {
		return decision.NewStorageError("sqlite", "marshal_matched_rules", err)
	}
	subActions, err := json.Marshal(record.Decision.SubActions)
	if err != nil {
		return decision.NewStorageError("sqlite", "marshal_sub_actions", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO decisions (
			id, request_id, outcome, matched_rules, explanation,
			sub_actions, snapshot_version, evaluated_at, elapsed_ns,
			content_hash, recorded_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.Decision.RequestID,
		string(record.Decision.Outcome),
		string(matchedRules),
		record.Decision.Explanation,
		string(subActions),
		record.Decision.SnapshotVersion,
		record.Decision.EvaluatedAt,
		int64(record.Decision.Elapsed),
		record.ContentHash,
		record.RecordedAt,
	)
	if err != nil {
		return decision.NewStorageError("sqlite", "insert", err)
	}

	if err := tx.Commit(); err != nil {
		return decision.NewStorageError("sqlite", "commit", err)
	}
	return nil
}

// Get returns the record for a request ID.
func (s *SQLiteStorage) Get(ctx context.Context, requestID string) (*decision.Record, error) {
	row := s.db.QueryRowContext(ctx,
		selectColumns+" FROM decisions WHERE request_id = ?", requestID)

	record, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, &decision.NotFoundError{RequestID: requestID}
	}
	if err != nil {
		return nil, decision.NewStorageError("sqlite", "get", err)
	}
	return record, nil
}

// List returns records matching the filter, oldest first.
func (s *SQLiteStorage) List(ctx context.Context, filter decision.Filter) ([]*decision.Record, error) {
	query := selectColumns + " FROM decisions"
	var conds []string
	var args []interface{}

	if filter.Outcome != "" {
		conds = append(conds, "outcome = ?")
		args = append(args, string(filter.Outcome))
	}
	if !filter.Since.IsZero() {
		conds = append(conds, "recorded_at >= ?")
		args = append(args, filter.Since)
	}
	if !filter.Until.IsZero() {
		conds = append(conds, "recorded_at < ?")
		args = append(args, filter.Until)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY recorded_at ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, decision.NewStorageError("sqlite", "list", err)
	}
	defer rows.Close()

	var out []*decision.Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, decision.NewStorageError("sqlite", "scan", err)
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, decision.NewStorageError("sqlite", "iterate", err)
	}
	return out, nil
}

// Count returns the total number of records.
func (s *SQLiteStorage) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM decisions").Scan(&n); err != nil {
		return 0, decision.NewStorageError("sqlite", "count", err)
	}
	return n, nil
}

// PruneBefore removes records recorded before the cutoff.
func (s *SQLiteStorage) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM decisions WHERE recorded_at < ?", cutoff)
	if err != nil {
		return 0, decision.NewStorageError("sqlite", "prune", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, decision.NewStorageError("sqlite", "prune_count", err)
	}
	return n, nil
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

const selectColumns = `SELECT id, request_id, outcome, matched_rules, explanation,
	sub_actions, snapshot_version, evaluated_at, elapsed_ns, content_hash, recorded_at`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*decision.Record, error) {
	var (
		record       decision.Record
		d            engine.Decision
		outcome      string
		matchedRules string
		subActions   string
		elapsed      int64
	)
	err := row.Scan(
		&record.ID,
		&d.RequestID,
		&outcome,
		&matchedRules,
		&d.Explanation,
		&subActions,
		&d.SnapshotVersion,
		&d.EvaluatedAt,
		&elapsed,
		&record.ContentHash,
		&record.RecordedAt,
	)
	if err != nil {
		return nil, err
	}

	d.Outcome = engine.Outcome(outcome)
	d.Elapsed = time.Duration(elapsed)
	if matchedRules != "" {
		if err := json.Unmarshal([]byte(matchedRules), &d.MatchedRules); err != nil {
			return nil, fmt.Errorf("unmarshal matched rules: %w", err)
		}
	}
	if subActions != "" {
		if err := json.Unmarshal([]byte(subActions), &d.SubActions); err != nil {
			return nil, fmt.Errorf("unmarshal sub-actions: %w", err)
		}
	}
	record.Decision = &d
	return &record, nil
}
