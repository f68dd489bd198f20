package decision

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"aoss-hq/sentinel/pkg/engine"
)

// hashedDecision is the canonical projection of a decision for
// hashing. Timestamps and elapsed time are excluded: two evaluations
// that reached the same verdict from the same rules are the same
// decision no matter when they ran.
type hashedDecision struct {
	RequestID       string                   `json:"request_id"`
	Outcome         engine.Outcome           `json:"outcome"`
	MatchedRules    []engine.MatchedRule     `json:"matched_rules"`
	Explanation     string                   `json:"explanation"`
	SubActions      []engine.SubActionRecord `json:"sub_actions"`
	SnapshotVersion string                   `json:"snapshot_version"`
}

// ContentHash returns the hex-encoded SHA-256 of the decision's stable
// fields.
func ContentHash(d *engine.Decision) string {
	data, err := json.Marshal(hashedDecision{
		RequestID:       d.RequestID,
		Outcome:         d.Outcome,
		MatchedRules:    d.MatchedRules,
		Explanation:     d.Explanation,
		SubActions:      d.SubActions,
		SnapshotVersion: d.SnapshotVersion,
	})
	if err != nil {
		// Marshal of these plain types cannot fail; keep the signature
		// simple for callers.
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
