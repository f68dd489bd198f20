// Package parser parses YAML rule files into policy rule ASTs.
//
// A rule file declares one layer and the rules belonging to it:
//
//	layer: SAFETY
//	rules:
//	  - id: sre-no-friday-prod-deploys
//	    description: No production deploys on Fridays
//	    effect: FORBID
//	    when:
//	      all:
//	        - { field: environment, op: "==", value: prod }
//	        - { field: action_kind, op: "==", value: DEPLOY }
//	        - { field: day_of_week, op: "==", value: FRIDAY }
//
// Predicates are built from simple field comparisons combined by
// all/any/not. The parser enforces structural limits (file size,
// nesting depth) and rejects unknown layers, effects, and operators so
// that malformed rules are caught at load time rather than evaluation
// time.
package parser

import (
	"fmt"
	"os"
)

// Parser parses rule files into policy rule ASTs.
type Parser struct {
	maxFileSize int64 // Maximum file size in bytes (default: 1MB)
	maxDepth    int   // Maximum condition nesting depth (default: 10)
}

// NewParser creates a new parser with default configuration.
func NewParser() *Parser {
	return &Parser{
		maxFileSize: 1 * 1024 * 1024,
		maxDepth:    10,
	}
}

// WithMaxFileSize sets the maximum rule file size.
func (p *Parser) WithMaxFileSize(size int64) *Parser {
	p.maxFileSize = size
	return p
}

// WithMaxDepth sets the maximum condition nesting depth.
func (p *Parser) WithMaxDepth(depth int) *Parser {
	p.maxDepth = depth
	return p
}

// ParseFile parses the rule file at the given path.
func (p *Parser) ParseFile(path string) (*RuleFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to access rule file %q: %w", path, err)
	}
	if info.Size() > p.maxFileSize {
		return nil, &ParseError{
			File:    path,
			Message: fmt.Sprintf("file size %d exceeds limit %d", info.Size(), p.maxFileSize),
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule file %q: %w", path, err)
	}

	return p.ParseBytes(data, path)
}

// ParseError describes a structural problem in a rule file.
type ParseError struct {
	File    string
	RuleID  string
	Message string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.RuleID != "" {
		return fmt.Sprintf("%s: rule %q: %s", e.File, e.RuleID, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}
