package retention

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the archiver on its cron schedule.
type Scheduler struct {
	archiver *Archiver
	cron     *cron.Cron
	mu       sync.Mutex
	logger   *slog.Logger
	running  bool
}

// NewScheduler creates a scheduler for the archiver.
func NewScheduler(archiver *Archiver) *Scheduler {
	return &Scheduler{
		archiver: archiver,
		cron:     cron.New(),
		logger:   slog.Default().With("component", "decision.scheduler"),
	}
}

// Start begins scheduled archival. An empty schedule disables it.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	schedule := s.archiver.config.Schedule
	if schedule == "" {
		s.logger.Info("archival schedule not configured, skipping scheduler")
		return nil
	}

	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}

	_, err := s.cron.AddFunc(schedule, func() {
		s.runArchival(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule archival: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("retention scheduler started",
		"schedule", schedule,
		"max_age", s.archiver.config.MaxAge,
		"archive_dir", s.archiver.config.ArchiveDir,
	)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

func (s *Scheduler) runArchival(ctx context.Context) {
	pruned, err := s.archiver.Run(ctx)
	if err != nil {
		s.logger.Error("scheduled archival failed", "error", err)
		return
	}
	if pruned > 0 {
		s.logger.Info("scheduled archival completed", "pruned", pruned)
	}
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil && s.running {
		ctx := s.cron.Stop()
		<-ctx.Done()
		s.running = false
		s.logger.Info("retention scheduler stopped")
	}
}

// NextRun returns the next scheduled archival time, if any.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
