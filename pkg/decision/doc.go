// Package decision defines the append-only record of compliance
// decisions and the storage surface behind it.
//
// Every evaluated request produces exactly one durable record. Records
// are never updated or deleted through the API: re-recording the
// identical decision for a request is a no-op, and re-recording a
// different decision for the same request is an integrity violation.
// Identity is judged by a content hash over the decision's stable
// fields, so two evaluations that reached the same verdict through the
// same rules compare equal regardless of when they ran.
//
// Subpackages provide the concrete pieces: storage holds the memory
// and SQLite backends, recorder the asynchronous write path, retention
// the scheduled archival job, and export the JSON serialization used
// by both retention and the CLI.
package decision
