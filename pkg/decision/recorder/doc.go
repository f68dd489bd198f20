// Package recorder provides the write path onto the decision trail.
//
// The synchronous path (RecordSync) is used where the caller needs the
// integrity verdict immediately, such as the decision API handler. The
// asynchronous path (Record) enqueues onto a buffered channel drained
// by a background worker, so evaluation latency never includes a disk
// write; integrity conflicts on that path are logged, not returned.
package recorder
