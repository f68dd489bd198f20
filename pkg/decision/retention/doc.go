// Package retention archives old decision records on a schedule.
//
// The trail is append-only from the API's point of view; retention is
// the one sanctioned removal path, and it exports every record to a
// JSON archive file before pruning it. A failed export aborts the
// cycle with nothing deleted.
package retention
