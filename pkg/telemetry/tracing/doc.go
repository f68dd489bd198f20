// Package tracing wires OpenTelemetry span export for the sentinel
// daemon. When tracing is disabled the global provider stays at its
// noop default, so instrumented code paths cost nothing.
package tracing
