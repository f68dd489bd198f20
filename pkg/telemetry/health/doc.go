// Package health aggregates liveness checks for the sentinel daemon.
//
// Components register named checks; the HTTP handler reports 200 when
// every check passes and 503 otherwise, with a JSON body naming the
// failing checks.
package health
