package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// TestChecker_Check tests aggregation of per-check results.
func TestChecker_Check(t *testing.T) {
	c := NewChecker()
	c.Register("rules", func(ctx context.Context) error { return nil })
	c.Register("decisions", func(ctx context.Context) error { return nil })

	healthy, results := c.Check(context.Background())
	if !healthy {
		t.Error("all checks pass, want healthy")
	}
	if results["rules"] != "ok" || results["decisions"] != "ok" {
		t.Errorf("results = %v", results)
	}

	c.Register("decisions", func(ctx context.Context) error {
		return errors.New("database is locked")
	})
	healthy, results = c.Check(context.Background())
	if healthy {
		t.Error("one failing check, want unhealthy")
	}
	if results["decisions"] != "database is locked" {
		t.Errorf("results = %v", results)
	}
	if results["rules"] != "ok" {
		t.Errorf("healthy check result = %q", results["rules"])
	}
}

// TestChecker_Handler tests the HTTP surface: 200 when healthy, 503
// when any dependency fails.
func TestChecker_Handler(t *testing.T) {
	c := NewChecker()
	c.Register("rules", func(ctx context.Context) error { return nil })

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body not JSON: %v", err)
	}
	if body.Status != "healthy" || body.Checks["rules"] != "ok" {
		t.Errorf("body = %+v", body)
	}

	c.Register("decisions", func(ctx context.Context) error {
		return errors.New("unavailable")
	})
	rec = httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

// TestChecker_Empty tests that no registered checks means healthy.
func TestChecker_Empty(t *testing.T) {
	healthy, results := NewChecker().Check(context.Background())
	if !healthy || len(results) != 0 {
		t.Errorf("healthy = %v, results = %v", healthy, results)
	}
}
