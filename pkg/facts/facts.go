package facts

import (
	"strings"

	"aoss-hq/sentinel/pkg/normalize"
	"aoss-hq/sentinel/pkg/request"
)

// Facts is the flat attribute mapping consumed by rule predicates.
// Keys are the field names predicates reference.
type Facts map[string]interface{}

// Has reports whether the fact field is defined.
func (f Facts) Has(field string) bool {
	_, ok := f[field]
	return ok
}

// Extract builds the fact mapping for one sub-action of a request.
//
// Fields shared by every sub-action of a request (actor, environment,
// temporal facts) come from the request; per-sub-action fields
// (command, action_kind, technique_detected) come from the sub-action
// itself, so one dangerous link of a chain is classified on its own
// text, not on the whole chain.
func Extract(req *request.ActionRequest, sub normalize.SubAction) Facts {
	f := Facts{
		"role":          req.Actor.Role,
		"user_id":       req.Actor.UserID,
		"service":       req.Service,
		"environment":   req.Environment,
		"resource":      req.Resource,
		"resource_type": req.ResourceType,
		"region":        req.Region,
		"declared_risk": string(req.DeclaredRisk),

		"day_of_week": strings.ToUpper(req.RequestedAt.Weekday().String()),
		"hour_of_day": req.RequestedAt.Hour(),

		"is_within_freeze_window": withinFreeze(req),
		"has_active_incident":     len(req.Context.ActiveIncidents) > 0,
		"active_incident_count":   len(req.Context.ActiveIncidents),
		"mfa_verified":            req.Context.MFAVerified,
		"backup_verified":         req.Context.BackupVerified,

		"command":            sub.DecodedText,
		"technique_detected": string(sub.Technique),
		"action_kind":        string(ClassifyAction(sub.DecodedText)),
	}

	if len(req.Scopes) > 0 {
		f["scopes"] = toInterfaceSlice(req.Scopes)
	}

	return f
}

// withinFreeze reports whether the request timestamp falls inside any
// supplied freeze window.
func withinFreeze(req *request.ActionRequest) bool {
	for _, w := range req.Context.FreezeWindows {
		if w.Contains(req.RequestedAt) {
			return true
		}
	}
	return false
}

func toInterfaceSlice(ss []string) []interface{} {
	out := make([]interface{}, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
