package ast

import "time"

// Layer identifies one of the four independent policy domains.
// Layers are conjunctive: a violation in any single layer blocks the
// action regardless of the other layers' verdicts.
type Layer string

const (
	LayerRegulatory     Layer = "REGULATORY"     // GDPR and other regulatory constraints
	LayerOrganizational Layer = "ORGANIZATIONAL" // Role/permission/approval policy
	LayerSafety         Layer = "SAFETY"         // Platform/SRE operational safety
	LayerAdversarial    Layer = "ADVERSARIAL"    // Obfuscation and integrity checks
)

// Layers returns all layers in their stable evaluation order.
func Layers() []Layer {
	return []Layer{LayerRegulatory, LayerOrganizational, LayerSafety, LayerAdversarial}
}

// IsValid returns true if the layer is one of the four known layers.
func (l Layer) IsValid() bool {
	switch l {
	case LayerRegulatory, LayerOrganizational, LayerSafety, LayerAdversarial:
		return true
	}
	return false
}

// Effect determines what happens when a rule's predicate fires.
type Effect string

const (
	// EffectForbid hard-blocks the action (VIOLATION outcome).
	EffectForbid Effect = "FORBID"

	// EffectRequireApproval pauses the action for an external approval signal.
	EffectRequireApproval Effect = "REQUIRE_APPROVAL"

	// EffectAllowException suppresses a FORBID from the same layer when it
	// fires against the identical fact set. Exceptions never cross layers.
	EffectAllowException Effect = "ALLOW_EXCEPTION"
)

// IsValid returns true if the effect is one of the known effects.
func (e Effect) IsValid() bool {
	switch e {
	case EffectForbid, EffectRequireApproval, EffectAllowException:
		return true
	}
	return false
}

// Scope optionally narrows the set of requests a rule applies to.
// An empty field matches everything; a non-empty field must equal the
// corresponding fact exactly for the rule to be considered at all.
type Scope struct {
	ResourceType string `yaml:"resource_type,omitempty"`
	Region       string `yaml:"region,omitempty"`
	Service      string `yaml:"service,omitempty"`
}

// IsEmpty returns true if the scope does not narrow anything.
func (s *Scope) IsEmpty() bool {
	return s == nil || (s.ResourceType == "" && s.Region == "" && s.Service == "")
}

// PolicyRule is one versioned compliance constraint.
//
// Rules are never hard-deleted. Editing a rule produces a new version
// that supersedes the old one, so decisions recorded against past
// versions remain interpretable in the audit trail.
type PolicyRule struct {
	// ID is the stable identifier of the rule (e.g., "org-only-admin-deletes-users").
	ID string

	// Layer is the policy domain this rule belongs to.
	Layer Layer

	// Description is a human-readable summary used in decision explanations.
	Description string

	// Effect determines the rule's contribution when the predicate fires.
	Effect Effect

	// Predicate is the root of the condition expression. A nil predicate
	// never fires for ALLOW_EXCEPTION rules; for FORBID and
	// REQUIRE_APPROVAL the evaluator treats it as malformed and applies
	// its fail-closed rule.
	Predicate *ConditionNode

	// Scope optionally narrows the rule to a resource type, region, or service.
	Scope *Scope

	// Version is the monotonically increasing version of this rule ID.
	Version int

	// Active is false once the rule has been deactivated or superseded.
	Active bool

	// SupersededBy holds the version ID that replaced this one, if any.
	SupersededBy string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsActive returns true if the rule participates in evaluation.
func (r *PolicyRule) IsActive() bool {
	return r.Active && r.SupersededBy == ""
}

// AppliesTo reports whether the rule's scope matches the given
// resource type, region, and service facts. Empty scope fields match
// any value.
func (r *PolicyRule) AppliesTo(resourceType, region, service string) bool {
	if r.Scope.IsEmpty() {
		return true
	}
	if r.Scope.ResourceType != "" && r.Scope.ResourceType != resourceType {
		return false
	}
	if r.Scope.Region != "" && r.Scope.Region != region {
		return false
	}
	if r.Scope.Service != "" && r.Scope.Service != service {
		return false
	}
	return true
}
