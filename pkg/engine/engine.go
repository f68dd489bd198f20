package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"aoss-hq/sentinel/pkg/facts"
	"aoss-hq/sentinel/pkg/normalize"
	"aoss-hq/sentinel/pkg/request"
	"aoss-hq/sentinel/pkg/rules"
	"aoss-hq/sentinel/pkg/rules/ast"
)

// SnapshotSource provides the rule snapshot an evaluation runs against.
// The rule store implements it; tests substitute fixed snapshots.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (*rules.Snapshot, error)
}

// Evaluator turns action requests into compliance decisions.
// It is safe for concurrent use.
type Evaluator struct {
	source     SnapshotSource
	normalizer *normalize.Normalizer
	logger     *slog.Logger
	tracer     trace.Tracer
}

// NewEvaluator creates an evaluator over the given snapshot source.
func NewEvaluator(source SnapshotSource, cfg *Config) *Evaluator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "engine")

	return &Evaluator{
		source:     source,
		normalizer: normalize.New(cfg.MaxNormalizeDepth, logger),
		logger:     logger,
		tracer:     otel.Tracer("aoss-hq/sentinel/engine"),
	}
}

// Evaluate produces the decision for one action request.
//
// A malformed request returns an InputError and no decision. An
// unavailable rule store returns a fail-closed VIOLATION decision, not
// an error: callers always get a recordable verdict for a well-formed
// request.
func (e *Evaluator) Evaluate(ctx context.Context, req *request.ActionRequest) (*Decision, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	ctx, span := e.tracer.Start(ctx, "engine.evaluate",
		trace.WithAttributes(attribute.String("request.id", req.ID)))
	defer span.End()

	subs := e.normalizer.Normalize(req.ID, req.RawText)
	span.SetAttributes(attribute.Int("sub_actions", len(subs)))

	snapshot, err := e.source.Snapshot(ctx)
	if err != nil {
		e.logger.Error("rule snapshot unavailable, failing closed",
			"request_id", req.ID,
			"error", err,
		)
		return e.failClosed(req, subs, start), nil
	}

	outcome := OutcomeAllowed
	var matched []MatchedRule
	for _, sub := range subs {
		subOutcome, subMatched := e.evaluateSubAction(req, sub, snapshot)
		outcome = Combine(outcome, subOutcome)
		matched = append(matched, subMatched...)
	}

	d := &Decision{
		RequestID:       req.ID,
		Outcome:         outcome,
		MatchedRules:    matched,
		Explanation:     buildExplanation(subs, matched),
		SubActions:      subActionRecords(subs),
		SnapshotVersion: snapshot.Version(),
		EvaluatedAt:     time.Now().UTC(),
		Elapsed:         time.Since(start),
	}

	span.SetAttributes(attribute.String("outcome", string(d.Outcome)))
	e.logger.Info("request evaluated",
		"request_id", req.ID,
		"outcome", d.Outcome,
		"sub_actions", len(subs),
		"matched_rules", len(matched),
		"snapshot_version", d.SnapshotVersion,
		"elapsed", d.Elapsed,
	)
	return d, nil
}

// evaluateSubAction evaluates every layer against one sub-action's
// fact set and combines the layer verdicts conjunctively.
func (e *Evaluator) evaluateSubAction(req *request.ActionRequest, sub normalize.SubAction, snapshot *rules.Snapshot) (Outcome, []MatchedRule) {
	f := facts.Extract(req, sub)

	outcome := OutcomeAllowed
	var matched []MatchedRule
	for _, layer := range ast.Layers() {
		layerOutcome, layerMatched := e.evaluateLayer(snapshot.LayerRules(layer), f, sub.SequenceIndex)
		outcome = Combine(outcome, layerOutcome)
		matched = append(matched, layerMatched...)
	}
	return outcome, matched
}

// firedRule is one rule whose predicate fired, cleanly or fail-closed.
type firedRule struct {
	rule      *ast.PolicyRule
	malformed bool
}

// evaluateLayer produces one layer's verdict for one sub-action.
//
// Exception suppression is resolved here and nowhere else, which is
// what keeps exceptions from leaking across layers: the forbids and
// exceptions compared below all belong to the same layer by
// construction.
func (e *Evaluator) evaluateLayer(layerRules []*ast.PolicyRule, f facts.Facts, subIndex int) (Outcome, []MatchedRule) {
	resourceType := stringFact(f, "resource_type")
	region := stringFact(f, "region")
	service := stringFact(f, "service")

	var forbids, approvals []firedRule
	exceptions := make(map[string]*ast.PolicyRule)

	for _, r := range layerRules {
		if !r.AppliesTo(resourceType, region, service) {
			continue
		}

		if r.Effect == ast.EffectAllowException {
			// Exceptions fail open in the narrow sense: one that cannot
			// be evaluated simply never suppresses anything.
			if r.Predicate == nil {
				continue
			}
			ok, err := matchCondition(r.Predicate, f)
			if err != nil {
				e.logger.Warn("exception predicate failed, treating as not fired",
					"rule_id", r.ID,
					"error", err,
				)
				continue
			}
			if ok {
				exceptions[factSetKey(r.Predicate)] = r
			}
			continue
		}

		fired, malformed := false, false
		if r.Predicate == nil {
			fired, malformed = true, true
			e.logger.Warn("rule has no predicate, failing closed",
				"rule_id", r.ID,
				"effect", r.Effect,
			)
		} else {
			ok, err := matchCondition(r.Predicate, f)
			if err != nil {
				fired, malformed = true, true
				e.logger.Warn("predicate evaluation failed, failing closed",
					"rule_id", r.ID,
					"effect", r.Effect,
					"error", &MalformedRuleError{RuleID: r.ID, Err: err},
				)
			} else {
				fired = ok
			}
		}
		if fired {
			fr := firedRule{rule: r, malformed: malformed}
			if r.Effect == ast.EffectForbid {
				forbids = append(forbids, fr)
			} else {
				approvals = append(approvals, fr)
			}
		}
	}

	outcome := OutcomeAllowed
	var matched []MatchedRule
	usedExceptions := make(map[string]bool)

	for _, fr := range forbids {
		suppressed := false
		// A malformed forbid fired fail-closed; its declared fact set is
		// not trustworthy, so no exception can suppress it.
		if !fr.malformed {
			if exc, ok := exceptions[factSetKey(fr.rule.Predicate)]; ok {
				suppressed = true
				if !usedExceptions[exc.ID] {
					usedExceptions[exc.ID] = true
					matched = append(matched, newMatchedRule(exc, subIndex, false, false))
				}
			}
		}
		matched = append(matched, newMatchedRule(fr.rule, subIndex, suppressed, fr.malformed))
		if !suppressed {
			outcome = Combine(outcome, OutcomeViolation)
		}
	}

	for _, fr := range approvals {
		matched = append(matched, newMatchedRule(fr.rule, subIndex, false, fr.malformed))
		outcome = Combine(outcome, OutcomeRequiresApproval)
	}

	return outcome, matched
}

// failClosed builds the VIOLATION decision recorded when no rule
// snapshot could be obtained.
func (e *Evaluator) failClosed(req *request.ActionRequest, subs []normalize.SubAction, start time.Time) *Decision {
	return &Decision{
		RequestID:   req.ID,
		Outcome:     OutcomeViolation,
		Explanation: "rule store unavailable; the action is blocked until the rule set can be loaded",
		SubActions:  subActionRecords(subs),
		EvaluatedAt: time.Now().UTC(),
		Elapsed:     time.Since(start),
	}
}

func newMatchedRule(r *ast.PolicyRule, subIndex int, suppressed, malformed bool) MatchedRule {
	return MatchedRule{
		SubActionIndex: subIndex,
		RuleID:         r.ID,
		RuleVersion:    r.Version,
		Layer:          r.Layer,
		Effect:         r.Effect,
		Description:    r.Description,
		Suppressed:     suppressed,
		Malformed:      malformed,
	}
}

func subActionRecords(subs []normalize.SubAction) []SubActionRecord {
	if len(subs) == 0 {
		return nil
	}
	out := make([]SubActionRecord, len(subs))
	for i, s := range subs {
		out[i] = SubActionRecord{
			Index:     s.SequenceIndex,
			Text:      s.DecodedText,
			Technique: string(s.Technique),
		}
	}
	return out
}

// factSetKey canonicalizes the fields a predicate reads. Two
// predicates share a key exactly when they reference the identical
// fact set, which is the condition for exception suppression.
func factSetKey(p *ast.ConditionNode) string {
	return strings.Join(p.ReferencedFields(), "\x1f")
}

func stringFact(f facts.Facts, key string) string {
	s, _ := f[key].(string)
	return s
}

// buildExplanation renders the human-readable account of the verdict.
func buildExplanation(subs []normalize.SubAction, matched []MatchedRule) string {
	if len(subs) == 0 {
		return "request contains no executable action"
	}
	if len(matched) == 0 {
		return "no constraints fired; the action is allowed"
	}

	parts := make([]string, 0, len(matched))
	for _, m := range matched {
		var s string
		switch {
		case m.Effect == ast.EffectAllowException:
			s = fmt.Sprintf("%s exception %s suppressed a forbid on sub-action %d",
				m.Layer, m.RuleID, m.SubActionIndex)
		case m.Suppressed:
			s = fmt.Sprintf("%s rule %s fired on sub-action %d but was suppressed by a same-layer exception",
				m.Layer, m.RuleID, m.SubActionIndex)
		default:
			s = fmt.Sprintf("%s rule %s (%s) fired on sub-action %d",
				m.Layer, m.RuleID, m.Effect, m.SubActionIndex)
		}
		if m.Malformed {
			s += " [predicate unevaluable, failed closed]"
		}
		if m.Description != "" {
			s += ": " + m.Description
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, "; ")
}
