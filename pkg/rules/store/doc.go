// Package store provides persistence backends for the versioned rule
// store.
//
// Two backends are available:
//
//   - MemoryStore: in-memory, used for tests and for file/git-sourced
//     rule sets where the files themselves are the source of truth.
//   - SQLiteStore: embedded database for deployments where rules are
//     managed through the administration API and must survive restarts.
//
// Both backends maintain a current immutable Snapshot that is rebuilt
// on every administrative write and handed out to evaluations without
// copying. Writes are copy-on-write: readers holding an older snapshot
// are never affected.
package store
