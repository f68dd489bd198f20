// Package storage provides the decision trail backends.
//
// MemoryStorage serves tests and the check CLI; SQLiteStorage is the
// durable backend for the server. Both enforce the same append-only
// contract: one record per request ID, identical re-stores are no-ops,
// conflicting re-stores fail with an IntegrityError.
package storage
