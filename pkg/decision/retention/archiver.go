package retention

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"aoss-hq/sentinel/pkg/decision"
	"aoss-hq/sentinel/pkg/decision/export"
)

// Config contains configuration for decision retention.
type Config struct {
	// MaxAge is how long records stay in the live trail.
	// Default: 90 days
	MaxAge time.Duration

	// ArchiveDir is where archive files are written. Empty disables
	// archival entirely: nothing is exported and nothing is pruned.
	ArchiveDir string

	// Schedule is the cron expression for archival runs.
	// Default: "0 3 * * *" (daily at 3 AM)
	Schedule string
}

// DefaultConfig returns the default retention configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxAge:   90 * 24 * time.Hour,
		Schedule: "0 3 * * *",
	}
}

// Archiver exports records past their retention age and prunes them.
type Archiver struct {
	storage decision.Storage
	config  *Config
	logger  *slog.Logger
}

// NewArchiver creates an archiver over the given storage.
func NewArchiver(storage decision.Storage, config *Config) *Archiver {
	if config == nil {
		config = DefaultConfig()
	}
	return &Archiver{
		storage: storage,
		config:  config,
		logger:  slog.Default().With("component", "decision.retention"),
	}
}

// Run executes one archival cycle and returns how many records were
// archived and pruned. Records are pruned only after the archive file
// is durably written.
func (a *Archiver) Run(ctx context.Context) (int64, error) {
	if a.config.ArchiveDir == "" {
		a.logger.Debug("archive dir not configured, skipping retention")
		return 0, nil
	}

	cutoff := time.Now().UTC().Add(-a.config.MaxAge)

	records, err := a.storage.List(ctx, decision.Filter{Until: cutoff})
	if err != nil {
		return 0, fmt.Errorf("list expired records: %w", err)
	}
	if len(records) == 0 {
		return 0, nil
	}

	if err := a.writeArchive(records, cutoff); err != nil {
		return 0, err
	}

	pruned, err := a.storage.PruneBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune archived records: %w", err)
	}

	a.logger.Info("decision records archived",
		"archived", len(records),
		"pruned", pruned,
		"cutoff", cutoff,
	)
	return pruned, nil
}

// writeArchive exports records to a timestamped file, fsyncing before
// rename so a crash never leaves a partial archive in place.
func (a *Archiver) writeArchive(records []*decision.Record, cutoff time.Time) error {
	if err := os.MkdirAll(a.config.ArchiveDir, 0o755); err != nil {
		return fmt.Errorf("create archive dir: %w", err)
	}

	name := fmt.Sprintf("decisions-%s.json", cutoff.Format("20060102T150405Z"))
	path := filepath.Join(a.config.ArchiveDir, name)
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create archive file: %w", err)
	}

	exporter := export.NewJSONExporter(false)
	if err := exporter.Export(records, f); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("export archive: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("sync archive: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close archive: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("finalize archive: %w", err)
	}
	return nil
}
