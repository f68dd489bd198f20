package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"aoss-hq/sentinel/pkg/cli"
	"aoss-hq/sentinel/pkg/rules/parser"
)

var lintFlags struct {
	file   string
	dir    string
	format string
}

var lintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Validate rule files",
	Long: `Validate rule files for syntax and structural errors.

The lint command parses rule files and checks:
  - YAML syntax
  - Layer, effect, and operator values
  - Predicate structure (all/any/not nesting, operand counts)
  - Duplicate rule IDs within a file

Examples:
  # Lint single file
  sentinel lint --file rules/gdpr.yaml

  # Lint directory
  sentinel lint --dir rules/

  # JSON output for CI/CD
  sentinel lint --dir rules/ --format json`,
	RunE: lintRules,
}

func init() {
	rootCmd.AddCommand(lintCmd)

	lintCmd.Flags().StringVarP(&lintFlags.file, "file", "f", "", "rule file to validate")
	lintCmd.Flags().StringVarP(&lintFlags.dir, "dir", "d", "", "directory of rule files")
	lintCmd.Flags().StringVar(&lintFlags.format, "format", "text", "output format: text, json")
}

func lintRules(cmd *cobra.Command, args []string) error {
	if lintFlags.file == "" && lintFlags.dir == "" {
		return fmt.Errorf("either --file or --dir must be specified")
	}

	var files []string

	if lintFlags.file != "" {
		files = append(files, lintFlags.file)
	}

	if lintFlags.dir != "" {
		for _, pattern := range []string{"*.yaml", "*.yml"} {
			matches, err := filepath.Glob(filepath.Join(lintFlags.dir, pattern))
			if err != nil {
				return fmt.Errorf("failed to list rule files: %w", err)
			}
			files = append(files, matches...)
		}
	}

	if len(files) == 0 {
		return fmt.Errorf("no rule files found")
	}

	results := make([]lintResult, 0, len(files))
	for _, file := range files {
		results = append(results, lintFile(file))
	}

	if lintFlags.format == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(results); err != nil {
			return err
		}
		for _, result := range results {
			if !result.Valid {
				return cli.NewCommandError("lint", fmt.Errorf("validation failed"))
			}
		}
		return nil
	}
	return lintText(results)
}

// lintResult is the validation result for a single rule file.
type lintResult struct {
	File      string      `json:"file"`
	Valid     bool        `json:"valid"`
	RuleCount int         `json:"rule_count"`
	Errors    []lintError `json:"errors,omitempty"`
}

// lintError is a single validation error.
type lintError struct {
	Rule    string `json:"rule,omitempty"`
	Message string `json:"message"`
}

func lintFile(path string) lintResult {
	result := lintResult{File: path, Valid: true}

	file, err := parser.NewParser().ParseFile(path)
	if err != nil {
		result.Valid = false
		var parseErr *parser.ParseError
		if errors.As(err, &parseErr) {
			result.Errors = append(result.Errors, lintError{
				Rule:    parseErr.RuleID,
				Message: parseErr.Message,
			})
		} else {
			result.Errors = append(result.Errors, lintError{Message: err.Error()})
		}
		return result
	}

	result.RuleCount = len(file.Rules)
	return result
}

func lintText(results []lintResult) error {
	totalErrors := 0
	totalRules := 0

	for _, result := range results {
		fmt.Printf("Validating %s...\n", result.File)

		if result.Valid {
			fmt.Printf("✓ %d rule(s) valid\n", result.RuleCount)
			totalRules += result.RuleCount
		}

		for _, e := range result.Errors {
			fmt.Printf("✗ Error: %s", e.Message)
			if e.Rule != "" {
				fmt.Printf(" (rule %s)", e.Rule)
			}
			fmt.Println()
			totalErrors++
		}

		fmt.Println()
	}

	fmt.Println("Summary:")
	fmt.Printf("  %d file(s), %d rule(s), %d error(s)\n", len(results), totalRules, totalErrors)

	if totalErrors > 0 {
		return cli.NewCommandError("lint", fmt.Errorf("validation failed"))
	}
	return nil
}
