package normalize

// Technique identifies the evasion technique that produced a sub-action.
type Technique string

const (
	// TechniqueNone marks a sub-action taken directly from the raw text.
	TechniqueNone Technique = "NONE"

	// TechniqueBase64 marks a sub-action recovered by base64 decoding,
	// or a literal sub-action on which a decode was attempted.
	TechniqueBase64 Technique = "BASE64"

	// TechniqueCommentHidden marks a sub-action extracted from a shell
	// comment.
	TechniqueCommentHidden Technique = "COMMENT_HIDDEN"

	// TechniqueChained marks a sub-action produced by splitting a
	// command chain.
	TechniqueChained Technique = "CHAINED"
)

// SubAction is one canonical unit derived from a raw action request.
// A request is only as safe as its most dangerous sub-action, so every
// sub-action is evaluated independently.
type SubAction struct {
	// SequenceIndex preserves the original ordering of sub-actions
	// within the request.
	SequenceIndex int

	// DecodedText is the canonical text of this sub-action.
	DecodedText string

	// Technique records how this sub-action was recovered.
	Technique Technique

	// ParentRequestID links the sub-action back to its ActionRequest.
	ParentRequestID string
}
