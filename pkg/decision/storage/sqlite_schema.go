package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema contains the SQL statements to create the decision trail schema.
const Schema = `
-- Decision records, one per request, append-only
CREATE TABLE IF NOT EXISTS decisions (
    id TEXT PRIMARY KEY,
    request_id TEXT NOT NULL UNIQUE,

    outcome TEXT NOT NULL,
    matched_rules TEXT,
    explanation TEXT,
    sub_actions TEXT,
    snapshot_version TEXT,

    evaluated_at TIMESTAMP NOT NULL,
    elapsed_ns INTEGER NOT NULL,

    content_hash TEXT NOT NULL,
    recorded_at TIMESTAMP NOT NULL
);

-- Schema version table
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

-- Indexes for common queries
CREATE INDEX IF NOT EXISTS idx_decisions_outcome ON decisions(outcome);
CREATE INDEX IF NOT EXISTS idx_decisions_recorded_at ON decisions(recorded_at);
CREATE INDEX IF NOT EXISTS idx_decisions_snapshot_version ON decisions(snapshot_version);
`

// InsertSchemaVersion inserts the schema version into the schema_version table.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version from the database.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`
