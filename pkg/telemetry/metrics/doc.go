// Package metrics exposes the sentinel Prometheus metrics.
//
// All metrics live under the sentinel namespace:
//   - sentinel_decisions_total: decisions by outcome
//   - sentinel_rule_fires_total: rule fires by layer and effect
//   - sentinel_evaluation_duration_seconds: evaluation latency
//   - sentinel_normalization_techniques_total: evasion techniques seen
//   - sentinel_store_errors_total: rule/decision storage failures
//   - sentinel_decision_writes_total: decision trail writes by status
package metrics
