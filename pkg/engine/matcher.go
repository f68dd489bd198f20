package engine

import (
	"fmt"

	"aoss-hq/sentinel/pkg/facts"
	"aoss-hq/sentinel/pkg/rules/ast"
)

// matchCondition evaluates a predicate tree against a fact set.
//
// Any error is an evaluation failure, not a non-match: the caller maps
// it to fail-closed firing according to the rule's effect. A reference
// to an undefined fact field is an error, never a silent false.
func matchCondition(cond *ast.ConditionNode, f facts.Facts) (bool, error) {
	if cond == nil {
		return false, fmt.Errorf("nil condition node")
	}

	switch cond.Type {
	case ast.ConditionTypeSimple:
		return matchSimple(cond, f)

	case ast.ConditionTypeAll:
		if len(cond.Children) == 0 {
			return false, fmt.Errorf("all condition has no children")
		}
		for _, child := range cond.Children {
			ok, err := matchCondition(child, f)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil

	case ast.ConditionTypeAny:
		if len(cond.Children) == 0 {
			return false, fmt.Errorf("any condition has no children")
		}
		for _, child := range cond.Children {
			ok, err := matchCondition(child, f)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil

	case ast.ConditionTypeNot:
		if len(cond.Children) != 1 {
			return false, fmt.Errorf("not condition must have exactly one child, got %d", len(cond.Children))
		}
		ok, err := matchCondition(cond.Children[0], f)
		if err != nil {
			return false, err
		}
		return !ok, nil

	default:
		return false, fmt.Errorf("unknown condition type %q", cond.Type)
	}
}

// matchSimple evaluates one field/operator/value comparison.
func matchSimple(cond *ast.ConditionNode, f facts.Facts) (bool, error) {
	if !f.Has(cond.Field) {
		return false, &FieldNotFoundError{Field: cond.Field}
	}
	matched, err := evalOperator(cond.Operator, f[cond.Field], cond.Value)
	if err != nil {
		return false, fmt.Errorf("field %q: %w", cond.Field, err)
	}
	return matched, nil
}
