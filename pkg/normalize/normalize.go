package normalize

import (
	"log/slog"
	"strings"
)

// DefaultMaxDepth bounds recursive re-normalization of decoded
// payloads, so adversarially nested encodings cannot run the
// normalizer forever.
const DefaultMaxDepth = 5

// Normalizer rewrites raw action text into canonical sub-actions.
// It is stateless and safe for concurrent use.
type Normalizer struct {
	maxDepth int
	logger   *slog.Logger
}

// New creates a Normalizer with the given recursion depth bound.
// A non-positive depth falls back to DefaultMaxDepth.
func New(maxDepth int, logger *slog.Logger) *Normalizer {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{
		maxDepth: maxDepth,
		logger:   logger.With("component", "normalize"),
	}
}

// Normalize derives the ordered sub-action list for a raw request.
//
// Empty input yields zero sub-actions; any non-empty input yields at
// least one. Each transformation only adds sub-actions — the original
// text always remains represented, so nothing present in the raw
// request escapes evaluation.
func (n *Normalizer) Normalize(requestID, raw string) []SubAction {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	units := n.expand(raw, TechniqueNone, 0)

	actions := make([]SubAction, len(units))
	for i, u := range units {
		actions[i] = SubAction{
			SequenceIndex:   i,
			DecodedText:     u.text,
			Technique:       u.technique,
			ParentRequestID: requestID,
		}
	}
	return actions
}

// unit is an intermediate sub-action before sequence indexes are assigned.
type unit struct {
	text      string
	technique Technique
}

// expand recursively widens one piece of text into its sub-action
// units. The technique parameter is the label inherited from the
// transformation that produced this text.
func (n *Normalizer) expand(text string, technique Technique, depth int) []unit {
	segments, err := splitChain(text)
	if err != nil {
		// Malformed quoting degrades to one literal sub-action; the
		// text is still evaluated in full.
		n.logger.Debug("chain split failed, treating as literal",
			"error", err,
		)
		return []unit{{text: strings.TrimSpace(text), technique: technique}}
	}

	segTechnique := technique
	if len(segments) > 1 && segTechnique == TechniqueNone {
		segTechnique = TechniqueChained
	}

	var units []unit
	for _, segment := range segments {
		code, comment := splitComment(segment)

		if code != "" {
			units = append(units, n.expandSegment(code, segTechnique, depth)...)
		}

		// A payload hidden behind a comment marker is evaluated as if
		// it were a command of its own, not discarded.
		if comment != "" {
			if depth < n.maxDepth {
				units = append(units, n.expand(comment, TechniqueCommentHidden, depth+1)...)
			} else {
				units = append(units, unit{text: comment, technique: TechniqueCommentHidden})
			}
		}
	}

	if len(units) == 0 {
		// Comment-only or separator-only input: keep the original text
		// as a literal so evaluation never sees an empty set for
		// non-empty input.
		units = append(units, unit{text: strings.TrimSpace(text), technique: technique})
	}

	return units
}

// expandSegment handles base64 widening for one chain segment.
func (n *Normalizer) expandSegment(code string, technique Technique, depth int) []unit {
	decoded, attempted := scanBase64(code)

	self := unit{text: code, technique: technique}
	if attempted {
		// A decode was attempted; even if nothing decoded cleanly the
		// segment is flagged so rules targeting obfuscation can match.
		self.technique = TechniqueBase64
	}

	units := []unit{self}
	for _, text := range decoded {
		if depth < n.maxDepth {
			units = append(units, n.expand(text, TechniqueBase64, depth+1)...)
		} else {
			units = append(units, unit{text: text, technique: TechniqueBase64})
		}
	}
	return units
}
