package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"aoss-hq/sentinel/pkg/cli"
	"aoss-hq/sentinel/pkg/config"
	"aoss-hq/sentinel/pkg/decision"
	"aoss-hq/sentinel/pkg/decision/recorder"
	"aoss-hq/sentinel/pkg/decision/retention"
	"aoss-hq/sentinel/pkg/decision/storage"
	"aoss-hq/sentinel/pkg/engine"
	"aoss-hq/sentinel/pkg/rules/manager"
	"aoss-hq/sentinel/pkg/rules/source"
	"aoss-hq/sentinel/pkg/rules/store"
	"aoss-hq/sentinel/pkg/server"
	"aoss-hq/sentinel/pkg/telemetry/health"
	"aoss-hq/sentinel/pkg/telemetry/logging"
	"aoss-hq/sentinel/pkg/telemetry/metrics"
	"aoss-hq/sentinel/pkg/telemetry/tracing"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Sentinel decision server",
	Long: `Start the Sentinel decision server with the specified configuration.

The server loads the rule set from the configured source, then listens
for action requests on the decision API. Every evaluated request is
recorded in the decision trail before the caller sees the verdict.

Examples:
  # Start with default config
  sentinel run

  # Start with custom config
  sentinel run --config /etc/sentinel/config.yaml

  # Override listen address
  sentinel run --listen 0.0.0.0:8385

  # Validate config without starting server
  sentinel run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
}

func runServer(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	// Apply flag overrides
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	// Initialize logging based on config
	logger, err := logging.Setup(cfg.Telemetry.Logging)
	if err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	printBanner(cfg)

	// Cancelled on SIGINT/SIGTERM; everything below shuts down with it.
	ctx := cli.SetupSignalHandler()

	// Initialize tracing (if enabled)
	shutdownTracing, err := tracing.Setup(ctx, cfg.Telemetry.Tracing, Version)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			slog.Warn("tracing shutdown failed", "error", err)
		}
	}()

	// Initialize rule store and source
	ruleStore, ruleManager, err := setupRules(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize rules: %w", err)
	}
	defer ruleStore.Close()
	if ruleManager != nil {
		defer ruleManager.Stop()
	}

	snap, err := ruleStore.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to load initial rule snapshot: %w", err)
	}
	fmt.Printf("✓ Rules loaded (%d rules, snapshot %s)\n", snap.Len(), snap.Version())

	// Initialize decision trail
	decisionStorage, err := setupDecisionStorage(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize decision storage: %w", err)
	}
	defer decisionStorage.Close()

	decisionRecorder := recorder.New(decisionStorage, &recorder.Config{
		AsyncBuffer:  cfg.Decisions.AsyncBuffer,
		WriteTimeout: cfg.Decisions.WriteTimeout,
	})
	defer decisionRecorder.Close()
	fmt.Printf("✓ Decision trail initialized (%s backend)\n", cfg.Decisions.Backend)

	// Start retention scheduler if archival is configured
	if cfg.Decisions.Retention.ArchiveDir != "" {
		archiver := retention.NewArchiver(decisionStorage, &retention.Config{
			MaxAge:     cfg.Decisions.Retention.MaxAge,
			ArchiveDir: cfg.Decisions.Retention.ArchiveDir,
			Schedule:   cfg.Decisions.Retention.Schedule,
		})
		scheduler := retention.NewScheduler(archiver)
		if err := scheduler.Start(ctx); err != nil {
			slog.Warn("failed to start retention scheduler", "error", err)
		} else {
			defer scheduler.Stop()
			if next := scheduler.NextRun(); next != nil {
				slog.Debug("decision retention scheduler started", "next_run", next)
			}
		}
	}

	// Build the evaluator
	evaluator := engine.NewEvaluator(ruleStore, &engine.Config{
		MaxNormalizeDepth: cfg.Engine.MaxNormalizeDepth,
		Logger:            logger,
	})

	// Metrics and health
	var collector *metrics.Collector
	if cfg.Telemetry.Metrics.Enabled {
		collector = metrics.NewCollector()
	}

	checker := health.NewChecker()
	checker.Register("rules", func(ctx context.Context) error {
		_, err := ruleStore.Snapshot(ctx)
		return err
	})
	checker.Register("decisions", func(ctx context.Context) error {
		_, err := decisionStorage.Count(ctx)
		return err
	})

	// Create and start the HTTP server
	srv := server.NewServer(&cfg.Server, cfg.Telemetry.Metrics, server.Deps{
		Evaluator: evaluator,
		Recorder:  decisionRecorder,
		Decisions: decisionStorage,
		Rules:     ruleStore,
		Metrics:   collector,
		Health:    checker,
	})

	fmt.Println()
	fmt.Printf("✓ Server listening on %s\n", cfg.Server.ListenAddress)
	fmt.Printf("✓ Decision endpoint: http://%s/v1/decisions\n", cfg.Server.ListenAddress)
	fmt.Printf("✓ Health endpoint: http://%s/healthz\n", cfg.Server.ListenAddress)
	if cfg.Telemetry.Metrics.Enabled {
		fmt.Printf("✓ Metrics endpoint: http://%s%s\n", cfg.Server.ListenAddress, cfg.Telemetry.Metrics.Path)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}

	fmt.Println("✓ Server stopped")
	return nil
}

// setupRules builds the rule store for the configured mode. File and
// git modes load through a manager that keeps the store current; sqlite
// mode is managed through the administration API instead.
func setupRules(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Store, *manager.Manager, error) {
	switch cfg.Rules.Mode {
	case "file":
		src := source.NewFileSource(cfg.Rules.FilePath, logger)

		var events <-chan source.Event
		if cfg.Rules.Watch {
			watcher := source.NewWatcher(cfg.Rules.FilePath, logger)
			ch, err := watcher.Watch(ctx)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to watch rule files: %w", err)
			}
			events = ch
		}

		st := store.NewMemoryStore()
		mgr := manager.New(st, src, events)
		if err := mgr.Start(ctx); err != nil {
			return nil, nil, err
		}
		return st, mgr, nil

	case "git":
		src, err := source.NewGitSource(&source.GitConfig{
			URL:          cfg.Rules.Git.URL,
			Branch:       cfg.Rules.Git.Branch,
			Path:         cfg.Rules.Git.Path,
			CloneDir:     cfg.Rules.Git.CloneDir,
			PollInterval: cfg.Rules.Git.PollInterval,
			Token:        cfg.Rules.Git.Token,
			SSHKeyPath:   cfg.Rules.Git.SSHKeyPath,
		}, logger)
		if err != nil {
			return nil, nil, err
		}

		events, err := src.Poll(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to start git polling: %w", err)
		}

		st := store.NewMemoryStore()
		mgr := manager.New(st, src, events)
		if err := mgr.Start(ctx); err != nil {
			return nil, nil, err
		}
		return st, mgr, nil

	case "sqlite":
		storeCfg := store.DefaultSQLiteConfig()
		storeCfg.Path = cfg.Rules.SQLite.Path
		st, err := store.NewSQLiteStore(storeCfg)
		if err != nil {
			return nil, nil, err
		}
		return st, nil, nil

	default:
		return nil, nil, fmt.Errorf("unsupported rules mode: %s", cfg.Rules.Mode)
	}
}

// setupDecisionStorage builds the decision trail backend.
func setupDecisionStorage(cfg *config.Config) (decision.Storage, error) {
	switch cfg.Decisions.Backend {
	case "sqlite":
		sqliteCfg := storage.DefaultSQLiteConfig()
		sqliteCfg.Path = cfg.Decisions.SQLite.Path
		return storage.NewSQLiteStorage(sqliteCfg)
	case "memory":
		return storage.NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("unsupported decisions backend: %s", cfg.Decisions.Backend)
	}
}

func printBanner(cfg *config.Config) {
	fmt.Printf("Sentinel v%s\n", Version)
	fmt.Printf("Loading configuration from: %s\n", cfgFile)
	fmt.Println("✓ Configuration loaded")

	switch cfg.Rules.Mode {
	case "file":
		slog.Debug("rules mode", "mode", "file", "path", cfg.Rules.FilePath, "watch", cfg.Rules.Watch)
	case "git":
		slog.Debug("rules mode", "mode", "git", "url", cfg.Rules.Git.URL, "branch", cfg.Rules.Git.Branch)
	case "sqlite":
		slog.Debug("rules mode", "mode", "sqlite", "path", cfg.Rules.SQLite.Path)
	}
	slog.Debug("decisions backend", "backend", cfg.Decisions.Backend)
}
