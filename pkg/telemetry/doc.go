// Package telemetry groups the observability subpackages: logging,
// metrics, tracing, and health.
package telemetry
