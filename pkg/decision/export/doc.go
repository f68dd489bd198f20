// Package export serializes decision records for archival and CLI
// inspection.
package export
