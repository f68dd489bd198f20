package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"aoss-hq/sentinel/pkg/decision"
	"aoss-hq/sentinel/pkg/engine"
)

func exportRecords() []*decision.Record {
	return []*decision.Record{
		decision.NewRecord(&engine.Decision{
			RequestID:       "req-1",
			Outcome:         engine.OutcomeViolation,
			Explanation:     "blocked",
			SnapshotVersion: "snap-1",
			EvaluatedAt:     time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC),
		}),
		decision.NewRecord(&engine.Decision{
			RequestID:       "req-2",
			Outcome:         engine.OutcomeAllowed,
			Explanation:     "no constraints fired; the action is allowed",
			SnapshotVersion: "snap-1",
			EvaluatedAt:     time.Date(2026, 8, 28, 11, 0, 0, 0, time.UTC),
		}),
	}
}

// TestJSONExporter_Export tests the compact export round trip.
func TestJSONExporter_Export(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSONExporter(false).Export(exportRecords(), &buf); err != nil {
		t.Fatalf("Export() failed: %v", err)
	}

	var out []*decision.Record
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(out))
	}
	if out[0].Decision.RequestID != "req-1" || out[0].Decision.Outcome != engine.OutcomeViolation {
		t.Errorf("record 0 = %+v", out[0].Decision)
	}
	if out[1].ContentHash == "" {
		t.Error("content hash missing from export")
	}
}

// TestJSONExporter_Pretty tests indented output.
func TestJSONExporter_Pretty(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSONExporter(true).Export(exportRecords(), &buf); err != nil {
		t.Fatalf("Export() failed: %v", err)
	}
	if !strings.Contains(buf.String(), "\n  ") {
		t.Error("pretty export should be indented")
	}

	var out []*decision.Record
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("pretty export is not valid JSON: %v", err)
	}
}

// TestJSONExporter_Empty tests that no records still yields valid JSON.
func TestJSONExporter_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSONExporter(false).Export(nil, &buf); err != nil {
		t.Fatalf("Export() failed: %v", err)
	}
	if buf.String() != "[]" {
		t.Errorf("empty export = %q, want []", buf.String())
	}
}
