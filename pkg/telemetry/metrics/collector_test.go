package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestCollector_RecordDecision tests decision recording
func TestCollector_RecordDecision(t *testing.T) {
	collector := NewCollector()

	tests := []struct {
		name    string
		outcome string
		elapsed time.Duration
	}{
		{
			name:    "allowed decision",
			outcome: "ALLOWED",
			elapsed: 120 * time.Microsecond,
		},
		{
			name:    "violation decision",
			outcome: "VIOLATION",
			elapsed: 340 * time.Microsecond,
		},
		{
			name:    "approval decision",
			outcome: "REQUIRES_APPROVAL",
			elapsed: 90 * time.Microsecond,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			collector.RecordDecision(tt.outcome, tt.elapsed)

			count := testutil.ToFloat64(collector.decisionsTotal.WithLabelValues(tt.outcome))
			if count < 1 {
				t.Errorf("Expected decision counter >= 1, got %f", count)
			}
		})
	}
}

// TestCollector_RecordRuleFire tests rule fire recording
func TestCollector_RecordRuleFire(t *testing.T) {
	collector := NewCollector()

	collector.RecordRuleFire("SAFETY", "FORBID")
	collector.RecordRuleFire("SAFETY", "FORBID")
	collector.RecordRuleFire("ADVERSARIAL", "REQUIRE_APPROVAL")

	count := testutil.ToFloat64(collector.ruleFiresTotal.WithLabelValues("SAFETY", "FORBID"))
	if count != 2 {
		t.Errorf("Expected fire count = 2, got %f", count)
	}

	count = testutil.ToFloat64(collector.ruleFiresTotal.WithLabelValues("ADVERSARIAL", "REQUIRE_APPROVAL"))
	if count != 1 {
		t.Errorf("Expected fire count = 1, got %f", count)
	}
}

// TestCollector_RecordTechnique tests technique recording
func TestCollector_RecordTechnique(t *testing.T) {
	collector := NewCollector()

	collector.RecordTechnique("BASE64")
	collector.RecordTechnique("CHAINED")

	count := testutil.ToFloat64(collector.techniquesTotal.WithLabelValues("BASE64"))
	if count < 1 {
		t.Errorf("Expected technique count >= 1, got %f", count)
	}
}

// TestCollector_RecordStoreError tests store error recording
func TestCollector_RecordStoreError(t *testing.T) {
	collector := NewCollector()

	collector.RecordStoreError("rules", "snapshot")
	count := testutil.ToFloat64(collector.storeErrorsTotal.WithLabelValues("rules", "snapshot"))
	if count < 1 {
		t.Errorf("Expected store error count >= 1, got %f", count)
	}
}

// TestCollector_RecordDecisionWrite tests decision write recording
func TestCollector_RecordDecisionWrite(t *testing.T) {
	collector := NewCollector()

	collector.RecordDecisionWrite("stored")
	collector.RecordDecisionWrite("duplicate")
	collector.RecordDecisionWrite("stored")

	count := testutil.ToFloat64(collector.decisionWrites.WithLabelValues("stored"))
	if count != 2 {
		t.Errorf("Expected write count = 2, got %f", count)
	}
}

// TestCollector_Handler tests the exposition endpoint
func TestCollector_Handler(t *testing.T) {
	collector := NewCollector()
	collector.RecordDecision("VIOLATION", time.Millisecond)
	collector.RecordRuleFire("REGULATORY", "FORBID")

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	body := rec.Body.String()
	for _, metric := range []string{
		"sentinel_decisions_total",
		"sentinel_rule_fires_total",
		"sentinel_evaluation_duration_seconds",
	} {
		if !strings.Contains(body, metric) {
			t.Errorf("Exposition missing metric %s", metric)
		}
	}
}

// TestCollector_ConcurrentRecording tests thread-safety
func TestCollector_ConcurrentRecording(t *testing.T) {
	collector := NewCollector()

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				collector.RecordDecision("ALLOWED", time.Microsecond)
				collector.RecordRuleFire("SAFETY", "ALLOW_EXCEPTION")
			}
			done <- true
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	count := testutil.ToFloat64(collector.decisionsTotal.WithLabelValues("ALLOWED"))
	if count != 1000 {
		t.Errorf("Expected 1000 decisions, got %f", count)
	}
}
