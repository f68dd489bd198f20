package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"aoss-hq/sentinel/pkg/cli"
	"aoss-hq/sentinel/pkg/engine"
	"aoss-hq/sentinel/pkg/normalize"
	"aoss-hq/sentinel/pkg/request"
	"aoss-hq/sentinel/pkg/rules/manager"
	"aoss-hq/sentinel/pkg/rules/source"
	"aoss-hq/sentinel/pkg/rules/store"
)

var checkFlags struct {
	rulesPath string
	request   string
	format    string
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Evaluate one action request from the command line",
	Long: `Evaluate a single action request against a rule set without
starting the server. Nothing is recorded; this is for rule authoring
and CI pipelines.

The request is a JSON document in the same shape the decision API
accepts. The command exits non-zero when the verdict is VIOLATION.

Examples:
  # Evaluate a request file against the rules directory
  sentinel check --rules rules/ --request req.json

  # Read the request from stdin
  cat req.json | sentinel check --rules rules/ --request -

  # JSON output for scripting
  sentinel check --rules rules/ --request req.json --format json`,
	RunE: checkRequest,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVarP(&checkFlags.rulesPath, "rules", "r", "rules", "rule file or directory")
	checkCmd.Flags().StringVarP(&checkFlags.request, "request", "f", "", "request JSON file ('-' for stdin)")
	checkCmd.Flags().StringVar(&checkFlags.format, "format", "text", "output format: text, json")
}

func checkRequest(cmd *cobra.Command, args []string) error {
	if checkFlags.request == "" {
		return fmt.Errorf("--request must be specified")
	}

	var (
		data []byte
		err  error
	)
	if checkFlags.request == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(checkFlags.request)
	}
	if err != nil {
		return fmt.Errorf("failed to read request: %w", err)
	}

	var req request.ActionRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("invalid request JSON: %w", err)
	}

	ctx := context.Background()

	// Load the rules into an in-memory store, same path the server uses.
	st := store.NewMemoryStore()
	defer st.Close()
	mgr := manager.New(st, source.NewFileSource(checkFlags.rulesPath, nil), nil)
	if err := mgr.Start(ctx); err != nil {
		return cli.NewCommandError("check", fmt.Errorf("failed to load rules: %w", err))
	}

	evaluator := engine.NewEvaluator(st, nil)
	d, err := evaluator.Evaluate(ctx, &req)
	if err != nil {
		return cli.NewCommandError("check", err)
	}

	if checkFlags.format == "json" {
		formatter := cli.NewFormatter(cli.FormatJSON)
		if err := formatter.FormatTo(os.Stdout, d); err != nil {
			return err
		}
	} else {
		printDecision(d)
	}

	if d.Blocked() {
		return cli.NewCommandError("check", fmt.Errorf("request %s blocked", req.ID))
	}
	return nil
}

func printDecision(d *engine.Decision) {
	fmt.Printf("Request: %s\n", d.RequestID)
	fmt.Printf("Outcome: %s\n", d.Outcome)
	if d.Explanation != "" {
		fmt.Printf("Explanation: %s\n", d.Explanation)
	}

	if len(d.SubActions) > 1 {
		fmt.Printf("\nSub-actions (%d):\n", len(d.SubActions))
		for _, sub := range d.SubActions {
			fmt.Printf("  [%d] %s", sub.Index, sub.Text)
			if sub.Technique != "" && sub.Technique != string(normalize.TechniqueNone) {
				fmt.Printf(" (technique: %s)", sub.Technique)
			}
			fmt.Println()
		}
	}

	if len(d.MatchedRules) > 0 {
		fmt.Printf("\nMatched rules:\n")
		for _, m := range d.MatchedRules {
			fmt.Printf("  %s/%s (%s) on sub-action %d", m.Layer, m.RuleID, m.Effect, m.SubActionIndex)
			if m.Suppressed {
				fmt.Print(" [suppressed by exception]")
			}
			if m.Malformed {
				fmt.Print(" [malformed, failed closed]")
			}
			fmt.Println()
		}
	}
}
