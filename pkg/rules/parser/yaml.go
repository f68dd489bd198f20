package parser

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"aoss-hq/sentinel/pkg/rules/ast"
)

// RuleFile is the parsed representation of one rule file: a layer plus
// the rules declared in it.
type RuleFile struct {
	Layer      ast.Layer
	Rules      []*ast.PolicyRule
	SourceFile string
}

// yamlRuleFile mirrors the on-disk YAML schema.
type yamlRuleFile struct {
	Layer string     `yaml:"layer"`
	Rules []yamlRule `yaml:"rules"`
}

type yamlRule struct {
	ID          string         `yaml:"id"`
	Description string         `yaml:"description"`
	Effect      string         `yaml:"effect"`
	Scope       *ast.Scope     `yaml:"scope"`
	When        *yamlCondition `yaml:"when"`
	Version     int            `yaml:"version"`
	Disabled    bool           `yaml:"disabled"`
}

// yamlCondition is the YAML shape of a predicate node. Exactly one of
// the forms must be set: a simple comparison (field/op/value), or one
// of the logical combinators all/any/not.
type yamlCondition struct {
	Field string      `yaml:"field"`
	Op    string      `yaml:"op"`
	Value interface{} `yaml:"value"`

	All []*yamlCondition `yaml:"all"`
	Any []*yamlCondition `yaml:"any"`
	Not *yamlCondition   `yaml:"not"`
}

// ParseBytes parses rule file content. The name parameter is used in
// error messages only.
func (p *Parser) ParseBytes(data []byte, name string) (*RuleFile, error) {
	var raw yamlRuleFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ParseError{File: name, Message: fmt.Sprintf("invalid YAML: %v", err)}
	}

	layer := ast.Layer(raw.Layer)
	if !layer.IsValid() {
		return nil, &ParseError{File: name, Message: fmt.Sprintf("unknown layer %q", raw.Layer)}
	}

	if len(raw.Rules) == 0 {
		return nil, &ParseError{File: name, Message: "rule file declares no rules"}
	}

	file := &RuleFile{Layer: layer, SourceFile: name}
	seen := make(map[string]struct{}, len(raw.Rules))

	for _, yr := range raw.Rules {
		rule, err := p.buildRule(yr, layer, name)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[rule.ID]; dup {
			return nil, &ParseError{File: name, RuleID: rule.ID, Message: "duplicate rule id"}
		}
		seen[rule.ID] = struct{}{}
		file.Rules = append(file.Rules, rule)
	}

	return file, nil
}

// buildRule converts one YAML rule into its AST form.
func (p *Parser) buildRule(yr yamlRule, layer ast.Layer, file string) (*ast.PolicyRule, error) {
	if yr.ID == "" {
		return nil, &ParseError{File: file, Message: "rule is missing an id"}
	}

	effect := ast.Effect(yr.Effect)
	if !effect.IsValid() {
		return nil, &ParseError{File: file, RuleID: yr.ID, Message: fmt.Sprintf("unknown effect %q", yr.Effect)}
	}

	var predicate *ast.ConditionNode
	if yr.When != nil {
		node, err := p.buildCondition(yr.When, yr.ID, file, 1)
		if err != nil {
			return nil, err
		}
		predicate = node
	}

	version := yr.Version
	if version == 0 {
		version = 1
	}

	now := time.Now().UTC()
	return &ast.PolicyRule{
		ID:          yr.ID,
		Layer:       layer,
		Description: yr.Description,
		Effect:      effect,
		Predicate:   predicate,
		Scope:       yr.Scope,
		Version:     version,
		Active:      !yr.Disabled,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// buildCondition converts one YAML condition node, recursing into
// logical combinators and enforcing the nesting depth limit.
func (p *Parser) buildCondition(yc *yamlCondition, ruleID, file string, depth int) (*ast.ConditionNode, error) {
	if depth > p.maxDepth {
		return nil, &ParseError{File: file, RuleID: ruleID,
			Message: fmt.Sprintf("condition nesting exceeds depth limit %d", p.maxDepth)}
	}

	forms := 0
	if yc.Field != "" || yc.Op != "" {
		forms++
	}
	if len(yc.All) > 0 {
		forms++
	}
	if len(yc.Any) > 0 {
		forms++
	}
	if yc.Not != nil {
		forms++
	}
	if forms != 1 {
		return nil, &ParseError{File: file, RuleID: ruleID,
			Message: "condition must be exactly one of: field comparison, all, any, not"}
	}

	switch {
	case len(yc.All) > 0:
		children, err := p.buildChildren(yc.All, ruleID, file, depth)
		if err != nil {
			return nil, err
		}
		return &ast.ConditionNode{Type: ast.ConditionTypeAll, Children: children}, nil

	case len(yc.Any) > 0:
		children, err := p.buildChildren(yc.Any, ruleID, file, depth)
		if err != nil {
			return nil, err
		}
		return &ast.ConditionNode{Type: ast.ConditionTypeAny, Children: children}, nil

	case yc.Not != nil:
		child, err := p.buildCondition(yc.Not, ruleID, file, depth+1)
		if err != nil {
			return nil, err
		}
		return &ast.ConditionNode{Type: ast.ConditionTypeNot, Children: []*ast.ConditionNode{child}}, nil

	default:
		if yc.Field == "" {
			return nil, &ParseError{File: file, RuleID: ruleID, Message: "comparison is missing a field"}
		}
		op := ast.Operator(yc.Op)
		if !op.IsValid() {
			return nil, &ParseError{File: file, RuleID: ruleID, Message: fmt.Sprintf("unknown operator %q", yc.Op)}
		}
		return &ast.ConditionNode{
			Type:     ast.ConditionTypeSimple,
			Field:    yc.Field,
			Operator: op,
			Value:    yc.Value,
		}, nil
	}
}

func (p *Parser) buildChildren(ycs []*yamlCondition, ruleID, file string, depth int) ([]*ast.ConditionNode, error) {
	children := make([]*ast.ConditionNode, 0, len(ycs))
	for _, yc := range ycs {
		child, err := p.buildCondition(yc, ruleID, file, depth+1)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return children, nil
}
