package store

// ruleSchemaVersion is the current rule database schema version.
const ruleSchemaVersion = 1

// ruleSchema contains the SQL statements to create the rule database schema.
const ruleSchema = `
-- Versioned policy rules. A (rule id, version) pair is immutable once
-- written; edits insert a new version and mark the old one superseded.
CREATE TABLE IF NOT EXISTS rules (
    id TEXT NOT NULL,
    version INTEGER NOT NULL,
    layer TEXT NOT NULL,
    description TEXT,
    effect TEXT NOT NULL,
    predicate TEXT,
    scope TEXT,
    active INTEGER NOT NULL DEFAULT 1,
    superseded_by TEXT,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,

    PRIMARY KEY (id, version)
);

CREATE INDEX IF NOT EXISTS idx_rules_layer ON rules(layer);
CREATE INDEX IF NOT EXISTS idx_rules_active ON rules(active);

-- Schema version table
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);
`

// insertRuleSchemaVersion inserts the schema version.
const insertRuleSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`
