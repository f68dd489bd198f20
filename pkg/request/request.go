// Package request defines the action request submitted for a
// compliance decision, together with the externally supplied context
// (freeze windows, incident state) the evaluator needs.
//
// A request is immutable once submitted for evaluation. Context is
// injected by the caller rather than looked up by the engine, so
// evaluation never blocks on an external call and decisions are
// reproducible for audit.
package request

import (
	"fmt"
	"time"
)

// RiskLevel is the caller's declared risk tier for the action.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// Actor identifies who (or what) proposed the action.
type Actor struct {
	// Role is the actor's role (e.g., "admin", "operator", "developer").
	Role string `json:"role"`

	// UserID is the acting user or service account.
	UserID string `json:"user_id"`
}

// FreezeWindow is a time span during which changes are frozen.
type FreezeWindow struct {
	Name  string    `json:"name"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the window.
func (w FreezeWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Context carries externally supplied operational state. The engine
// never fetches this itself; the caller snapshots it at submission
// time so the evaluation stays deterministic and testable without
// live clocks or service calls.
type Context struct {
	// ActiveIncidents lists the IDs of incidents open at submission time.
	ActiveIncidents []string `json:"active_incidents,omitempty"`

	// FreezeWindows lists the change freeze windows in force.
	FreezeWindows []FreezeWindow `json:"freeze_windows,omitempty"`

	// MFAVerified is true if the actor has an active MFA verification.
	MFAVerified bool `json:"mfa_verified"`

	// BackupVerified is true if a verified backup exists for the target.
	BackupVerified bool `json:"backup_verified"`
}

// ActionRequest is the caller's proposal: a shell command or structured
// operation to be admitted, blocked, or held for approval.
type ActionRequest struct {
	// ID uniquely identifies the request. Decisions are keyed by it.
	ID string `json:"id"`

	// Actor is who proposed the action.
	Actor Actor `json:"actor"`

	// Service is the service the action targets.
	Service string `json:"service"`

	// Environment is the target environment ("prod", "staging", "dev").
	Environment string `json:"environment"`

	// Resource is the specific resource acted on, if known.
	Resource string `json:"resource,omitempty"`

	// ResourceType classifies the resource (e.g., "database", "volume").
	ResourceType string `json:"resource_type,omitempty"`

	// Region is the region the action runs in, if known.
	Region string `json:"region,omitempty"`

	// RawText is the proposed command or structured operation.
	RawText string `json:"raw_text"`

	// RequestedAt is when the action was proposed.
	RequestedAt time.Time `json:"requested_at"`

	// DeclaredRisk is the caller's own risk assessment.
	DeclaredRisk RiskLevel `json:"declared_risk,omitempty"`

	// Scopes lists the permissions the caller requests for the action.
	Scopes []string `json:"scopes,omitempty"`

	// Context is the injected operational state.
	Context Context `json:"context"`
}

// InputError indicates a malformed ActionRequest. Such requests are
// rejected before evaluation and no decision is recorded for them.
type InputError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *InputError) Error() string {
	return fmt.Sprintf("invalid action request: %s: %s", e.Field, e.Message)
}

// Validate checks that the request carries every field rules may
// depend on. An incomplete request is an InputError, not a permissive
// default.
func (r *ActionRequest) Validate() error {
	if r.ID == "" {
		return &InputError{Field: "id", Message: "must not be empty"}
	}
	if r.Actor.Role == "" {
		return &InputError{Field: "actor.role", Message: "must not be empty"}
	}
	if r.Service == "" {
		return &InputError{Field: "service", Message: "must not be empty"}
	}
	if r.Environment == "" {
		return &InputError{Field: "environment", Message: "must not be empty"}
	}
	if r.RequestedAt.IsZero() {
		return &InputError{Field: "requested_at", Message: "must be set"}
	}
	return nil
}
