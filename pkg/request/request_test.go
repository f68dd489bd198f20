package request

import (
	"testing"
	"time"
)

func validRequest() *ActionRequest {
	return &ActionRequest{
		ID:          "req-1",
		Actor:       Actor{Role: "operator", UserID: "u-1"},
		Service:     "payments",
		Environment: "production",
		RawText:     "kubectl get pods",
		RequestedAt: time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC),
	}
}

// TestActionRequest_Validate tests required field checking
func TestActionRequest_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*ActionRequest)
		wantField string
	}{
		{
			name:   "complete request",
			mutate: func(r *ActionRequest) {},
		},
		{
			name:   "empty raw text is allowed",
			mutate: func(r *ActionRequest) { r.RawText = "" },
		},
		{
			name:      "missing id",
			mutate:    func(r *ActionRequest) { r.ID = "" },
			wantField: "id",
		},
		{
			name:      "missing role",
			mutate:    func(r *ActionRequest) { r.Actor.Role = "" },
			wantField: "actor.role",
		},
		{
			name:      "missing service",
			mutate:    func(r *ActionRequest) { r.Service = "" },
			wantField: "service",
		},
		{
			name:      "missing environment",
			mutate:    func(r *ActionRequest) { r.Environment = "" },
			wantField: "environment",
		},
		{
			name:      "zero timestamp",
			mutate:    func(r *ActionRequest) { r.RequestedAt = time.Time{} },
			wantField: "requested_at",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)

			err := req.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}

			inputErr, ok := err.(*InputError)
			if !ok {
				t.Fatalf("Validate() error = %T, want *InputError", err)
			}
			if inputErr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", inputErr.Field, tt.wantField)
			}
		})
	}
}

// TestFreezeWindow_Contains tests window boundary behavior
func TestFreezeWindow_Contains(t *testing.T) {
	window := FreezeWindow{
		Name:  "year-end",
		Start: time.Date(2026, 12, 20, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2027, 1, 5, 0, 0, 0, 0, time.UTC),
	}

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"before window", time.Date(2026, 12, 19, 23, 0, 0, 0, time.UTC), false},
		{"at start", window.Start, true},
		{"inside window", time.Date(2026, 12, 25, 12, 0, 0, 0, time.UTC), true},
		{"at end", window.End, false},
		{"after window", time.Date(2027, 1, 6, 0, 0, 0, 0, time.UTC), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := window.Contains(tt.at); got != tt.want {
				t.Errorf("Contains(%v) = %v, want %v", tt.at, got, tt.want)
			}
		})
	}
}

// TestInputError_Error tests the error message format
func TestInputError_Error(t *testing.T) {
	err := &InputError{Field: "service", Message: "must not be empty"}
	want := "invalid action request: service: must not be empty"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
