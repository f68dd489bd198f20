package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"aoss-hq/sentinel/pkg/cli"
	"aoss-hq/sentinel/pkg/config"
	"aoss-hq/sentinel/pkg/decision"
	"aoss-hq/sentinel/pkg/decision/export"
	"aoss-hq/sentinel/pkg/decision/storage"
	"aoss-hq/sentinel/pkg/engine"
)

var decisionsFlags struct {
	backend   string
	timeRange string
	outcome   string
	limit     int
	format    string
	output    string
	pretty    bool
}

var decisionsCmd = &cobra.Command{
	Use:   "decisions",
	Short: "Query the decision trail",
	Long: `Query and export recorded decisions for audit and compliance.

Subcommands:
  query   - Query decision records with filters
  export  - Export decision records as a JSON archive

Examples:
  # Show recent violations
  sentinel decisions query --outcome VIOLATION --limit 20

  # Export a time range for an audit
  sentinel decisions export --time-range "2026-08-01T00:00:00Z/2026-09-01T00:00:00Z" -o august.json`,
}

var decisionsQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query decision records",
	Long: `Query decision records with filters.

Time Range Format:
  RFC3339 interval format: "start/end"
  Example: "2026-08-01T00:00:00Z/2026-09-01T00:00:00Z"

Examples:
  # Query by outcome
  sentinel decisions query --outcome VIOLATION

  # Query specific time range
  sentinel decisions query --time-range "2026-08-01T00:00:00Z/2026-09-01T00:00:00Z"

  # JSON output
  sentinel decisions query --format json`,
	RunE: queryDecisions,
}

var decisionsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export decision records",
	Long:  `Export decision records as a JSON archive file.`,
	RunE:  exportDecisions,
}

func init() {
	rootCmd.AddCommand(decisionsCmd)
	decisionsCmd.AddCommand(decisionsQueryCmd, decisionsExportCmd)

	for _, cmd := range []*cobra.Command{decisionsQueryCmd, decisionsExportCmd} {
		cmd.Flags().StringVar(&decisionsFlags.backend, "backend", "", "backend: sqlite, memory (uses config if not specified)")
		cmd.Flags().StringVar(&decisionsFlags.timeRange, "time-range", "", "time range (RFC3339 interval: start/end)")
		cmd.Flags().StringVar(&decisionsFlags.outcome, "outcome", "", "filter by outcome (ALLOWED, REQUIRES_APPROVAL, VIOLATION)")
		cmd.Flags().IntVar(&decisionsFlags.limit, "limit", 0, "max results (0 = no limit)")
		cmd.Flags().StringVarP(&decisionsFlags.output, "output", "o", "", "output file (default: stdout)")
	}
	decisionsQueryCmd.Flags().StringVar(&decisionsFlags.format, "format", "text", "output format: text, json")
	decisionsExportCmd.Flags().BoolVar(&decisionsFlags.pretty, "pretty", false, "indent the exported JSON")
}

func queryDecisions(cmd *cobra.Command, args []string) error {
	records, err := loadDecisions()
	if err != nil {
		return err
	}

	out := os.Stdout
	if decisionsFlags.output != "" {
		out, err = os.Create(decisionsFlags.output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer out.Close()
	}

	if decisionsFlags.format == "json" {
		formatter := cli.NewFormatter(cli.FormatJSON)
		return formatter.FormatTo(out, map[string]interface{}{
			"total_records": len(records),
			"records":       records,
		})
	}

	fmt.Fprintf(out, "Total records: %d\n", len(records))
	fmt.Fprintln(out)

	if len(records) == 0 {
		fmt.Fprintln(out, "No records found.")
		return nil
	}

	for i, record := range records {
		if i > 0 {
			fmt.Fprintln(out)
		}

		fmt.Fprintf(out, "Request ID: %s\n", record.Decision.RequestID)
		fmt.Fprintf(out, "Recorded: %s\n", record.RecordedAt.Format(time.RFC3339))
		fmt.Fprintf(out, "Outcome: %s\n", record.Decision.Outcome)
		if record.Decision.Explanation != "" {
			fmt.Fprintf(out, "Explanation: %s\n", record.Decision.Explanation)
		}
		fmt.Fprintf(out, "Snapshot: %s\n", record.Decision.SnapshotVersion)
		fmt.Fprintf(out, "Content Hash: %s\n", record.ContentHash)

		// Show limited output for large result sets
		if i >= 9 && len(records) > 10 {
			fmt.Fprintln(out)
			fmt.Fprintf(out, "... and %d more records\n", len(records)-10)
			fmt.Fprintf(out, "Use --limit or --output for the full set.\n")
			break
		}
	}

	return nil
}

func exportDecisions(cmd *cobra.Command, args []string) error {
	records, err := loadDecisions()
	if err != nil {
		return err
	}

	out := os.Stdout
	if decisionsFlags.output != "" {
		out, err = os.Create(decisionsFlags.output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer out.Close()
	}

	exporter := export.NewJSONExporter(decisionsFlags.pretty)
	if err := exporter.Export(records, out); err != nil {
		return cli.NewCommandError("decisions", err)
	}

	if decisionsFlags.output != "" {
		fmt.Printf("✓ Exported %d record(s) to %s\n", len(records), decisionsFlags.output)
	}
	return nil
}

// loadDecisions opens the configured trail backend and runs the query
// built from the shared flags.
func loadDecisions() ([]*decision.Record, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	backend := decisionsFlags.backend
	if backend == "" {
		backend = cfg.Decisions.Backend
	}

	var store decision.Storage
	switch backend {
	case "sqlite":
		sqliteCfg := storage.DefaultSQLiteConfig()
		sqliteCfg.Path = cfg.Decisions.SQLite.Path
		store, err = storage.NewSQLiteStorage(sqliteCfg)
		if err != nil {
			return nil, cli.NewCommandError("decisions", fmt.Errorf("failed to open SQLite storage: %w", err))
		}
	case "memory":
		store = storage.NewMemoryStorage()
	default:
		return nil, fmt.Errorf("unsupported backend: %s (supported: sqlite, memory)", backend)
	}
	defer store.Close()

	filter := decision.Filter{Limit: decisionsFlags.limit}

	if decisionsFlags.outcome != "" {
		outcome := engine.Outcome(decisionsFlags.outcome)
		if !outcome.IsValid() {
			return nil, fmt.Errorf("unknown outcome: %s", decisionsFlags.outcome)
		}
		filter.Outcome = outcome
	}

	if decisionsFlags.timeRange != "" {
		since, until, err := parseTimeRange(decisionsFlags.timeRange)
		if err != nil {
			return nil, err
		}
		filter.Since = since
		filter.Until = until
	}

	records, err := store.List(context.Background(), filter)
	if err != nil {
		return nil, cli.NewCommandError("decisions", fmt.Errorf("query failed: %w", err))
	}
	return records, nil
}

func parseTimeRange(value string) (time.Time, time.Time, error) {
	var since, until time.Time

	parts := strings.Split(value, "/")
	if len(parts) != 2 {
		return since, until, fmt.Errorf("invalid time range format (expected: start/end)")
	}

	since, err := time.Parse(time.RFC3339, parts[0])
	if err != nil {
		return since, until, fmt.Errorf("invalid start time: %w", err)
	}
	until, err = time.Parse(time.RFC3339, parts[1])
	if err != nil {
		return since, until, fmt.Errorf("invalid end time: %w", err)
	}
	return since, until, nil
}
