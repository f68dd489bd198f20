package ast

import "sort"

// ConditionType represents the type of a predicate expression node.
type ConditionType string

const (
	ConditionTypeSimple ConditionType = "simple" // field op value
	ConditionTypeAll    ConditionType = "all"    // AND of children
	ConditionTypeAny    ConditionType = "any"    // OR of children
	ConditionTypeNot    ConditionType = "not"    // NOT of a single child
)

// Operator represents a comparison operator in a simple condition.
type Operator string

const (
	OperatorEqual        Operator = "=="
	OperatorNotEqual     Operator = "!="
	OperatorLessThan     Operator = "<"
	OperatorGreaterThan  Operator = ">"
	OperatorLessEqual    Operator = "<="
	OperatorGreaterEqual Operator = ">="
	OperatorContains     Operator = "contains"
	OperatorMatches      Operator = "matches" // Regex match
	OperatorStartsWith   Operator = "starts_with"
	OperatorEndsWith     Operator = "ends_with"
	OperatorIn           Operator = "in"
	OperatorNotIn        Operator = "not_in"
)

// IsValid returns true if the operator is one of the known operators.
func (o Operator) IsValid() bool {
	switch o {
	case OperatorEqual, OperatorNotEqual, OperatorLessThan, OperatorGreaterThan,
		OperatorLessEqual, OperatorGreaterEqual, OperatorContains, OperatorMatches,
		OperatorStartsWith, OperatorEndsWith, OperatorIn, OperatorNotIn:
		return true
	}
	return false
}

// ConditionNode represents a predicate expression in the rule AST.
// Simple nodes compare one fact field against a literal value; logical
// nodes (all/any/not) combine child conditions.
type ConditionNode struct {
	Type     ConditionType    // Type of condition
	Field    string           // Fact field name (for Simple conditions)
	Operator Operator         // Comparison operator (for Simple conditions)
	Value    interface{}      // Comparison value (for Simple conditions)
	Children []*ConditionNode // Child conditions (for All/Any/Not)
}

// IsSimple returns true if this is a simple comparison condition.
func (c *ConditionNode) IsSimple() bool {
	return c.Type == ConditionTypeSimple
}

// IsLogical returns true if this is a logical operator (all/any/not).
func (c *ConditionNode) IsLogical() bool {
	return c.Type == ConditionTypeAll || c.Type == ConditionTypeAny || c.Type == ConditionTypeNot
}

// ReferencedFields returns the sorted set of fact fields the predicate
// reads. The evaluator uses this set to decide whether an
// ALLOW_EXCEPTION targets the identical fact set as a FORBID: exception
// suppression requires exact fact-set equality, the stricter reading.
func (c *ConditionNode) ReferencedFields() []string {
	seen := make(map[string]struct{})
	collectFields(c, seen)

	fields := make([]string, 0, len(seen))
	for f := range seen {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

func collectFields(c *ConditionNode, seen map[string]struct{}) {
	if c == nil {
		return
	}
	if c.Type == ConditionTypeSimple && c.Field != "" {
		seen[c.Field] = struct{}{}
	}
	for _, child := range c.Children {
		collectFields(child, seen)
	}
}

// Depth returns the maximum nesting depth of the condition tree.
// Parsers reject trees deeper than their configured limit.
func (c *ConditionNode) Depth() int {
	if c == nil {
		return 0
	}
	max := 0
	for _, child := range c.Children {
		if d := child.Depth(); d > max {
			max = d
		}
	}
	return max + 1
}
