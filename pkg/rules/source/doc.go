// Package source loads rule sets from external locations.
//
// Two sources are supported:
//
//   - FileSource: a YAML rule file or a directory of rule files on
//     disk, optionally watched with fsnotify so edits republish a new
//     snapshot without a restart.
//   - GitSource: a Git repository holding rule files (GitOps mode),
//     cloned locally and polled for new commits.
//
// A source only produces rules; persistence and snapshot publication
// are the store's job. Reload failures leave the previous snapshot in
// force — a broken rule file must never cause an empty rule set.
package source
