package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func logLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("log output is not JSON: %v: %q", err, buf.String())
	}
	return out
}

// TestRedactingHandler_RedactsCommandText tests that raw command
// attributes are blanked above debug level.
func TestRedactingHandler_RedactsCommandText(t *testing.T) {
	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(NewRedactingHandler(inner))

	logger.Info("request evaluated",
		"request_id", "req-1",
		"command", "vault read secret/production/api-keys",
	)

	out := logLine(t, &buf)
	if out["command"] != "[redacted]" {
		t.Errorf("command = %v, want [redacted]", out["command"])
	}
	if out["request_id"] != "req-1" {
		t.Errorf("request_id = %v, want untouched", out["request_id"])
	}
}

// TestRedactingHandler_DebugKeepsOriginals tests that debug records
// pass through unredacted.
func TestRedactingHandler_DebugKeepsOriginals(t *testing.T) {
	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(NewRedactingHandler(inner))

	logger.Debug("normalizing", "raw_text", "echo hello && ls")

	out := logLine(t, &buf)
	if out["raw_text"] != "echo hello && ls" {
		t.Errorf("raw_text = %v, want original at debug level", out["raw_text"])
	}
}

// TestRedactingHandler_WithAttrs tests that pre-bound attributes are
// redacted too.
func TestRedactingHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(NewRedactingHandler(inner)).With("text", "rm -rf /")

	logger.Info("bound attr")

	out := logLine(t, &buf)
	if out["text"] != "[redacted]" {
		t.Errorf("text = %v, want [redacted]", out["text"])
	}
}

// TestRedactingHandler_Enabled tests level passthrough.
func TestRedactingHandler_Enabled(t *testing.T) {
	inner := slog.NewJSONHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn})
	h := NewRedactingHandler(inner)

	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info should be disabled under a warn-level inner handler")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Error("error should be enabled")
	}
}
