package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// namespace prefixes every sentinel metric.
const namespace = "sentinel"

// Collector owns the sentinel metric set and its registry.
type Collector struct {
	registry *prometheus.Registry

	decisionsTotal     *prometheus.CounterVec
	ruleFiresTotal     *prometheus.CounterVec
	evaluationDuration prometheus.Histogram
	techniquesTotal    *prometheus.CounterVec
	storeErrorsTotal   *prometheus.CounterVec
	decisionWrites     *prometheus.CounterVec
}

// NewCollector creates and registers the sentinel metrics on a fresh
// registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),

		decisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "decisions_total",
				Help:      "Total compliance decisions by outcome",
			},
			[]string{"outcome"},
		),

		ruleFiresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rule_fires_total",
				Help:      "Total rule fires by layer and effect",
			},
			[]string{"layer", "effect"},
		),

		evaluationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "evaluation_duration_seconds",
				Help:      "Duration of request evaluation in seconds",
				// Evaluations are pure in-memory work, expected well under 10ms
				Buckets: prometheus.ExponentialBuckets(0.000001, 2, 15),
			},
		),

		techniquesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "normalization_techniques_total",
				Help:      "Evasion techniques detected during normalization",
			},
			[]string{"technique"},
		),

		storeErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_errors_total",
				Help:      "Storage failures by store and operation",
			},
			[]string{"store", "operation"},
		),

		decisionWrites: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "decision_writes_total",
				Help:      "Decision trail writes by status",
			},
			[]string{"status"},
		),
	}

	c.registry.MustRegister(
		c.decisionsTotal,
		c.ruleFiresTotal,
		c.evaluationDuration,
		c.techniquesTotal,
		c.storeErrorsTotal,
		c.decisionWrites,
	)
	return c
}

// RecordDecision records one finished evaluation.
func (c *Collector) RecordDecision(outcome string, elapsed time.Duration) {
	c.decisionsTotal.WithLabelValues(outcome).Inc()
	c.evaluationDuration.Observe(elapsed.Seconds())
}

// RecordRuleFire records one rule fire.
func (c *Collector) RecordRuleFire(layer, effect string) {
	c.ruleFiresTotal.WithLabelValues(layer, effect).Inc()
}

// RecordTechnique records one detected evasion technique.
func (c *Collector) RecordTechnique(technique string) {
	c.techniquesTotal.WithLabelValues(technique).Inc()
}

// RecordStoreError records a storage failure.
func (c *Collector) RecordStoreError(store, operation string) {
	c.storeErrorsTotal.WithLabelValues(store, operation).Inc()
}

// RecordDecisionWrite records a decision trail write attempt.
// Status is "stored", "duplicate", "conflict", or "error".
func (c *Collector) RecordDecisionWrite(status string) {
	c.decisionWrites.WithLabelValues(status).Inc()
}
