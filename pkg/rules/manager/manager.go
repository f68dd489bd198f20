// Package manager wires a rule source to a rule store and keeps the
// store current as the source changes.
//
// The manager performs the initial load, then reloads on every source
// event (file change, new git commit). A failed reload is logged and
// the previous snapshot stays in force; evaluations are never left
// without a rule set because someone committed a broken YAML file.
package manager

import (
	"context"
	"log/slog"
	"sync"

	"aoss-hq/sentinel/pkg/rules/source"
	"aoss-hq/sentinel/pkg/rules/store"
)

// Manager keeps a rule store synchronized with a rule source.
type Manager struct {
	store  store.Store
	source source.Source
	events <-chan source.Event
	logger *slog.Logger

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New creates a manager for the given store and source. The events
// channel is optional; without it the manager only performs the initial
// load.
func New(st store.Store, src source.Source, events <-chan source.Event) *Manager {
	return &Manager{
		store:  st,
		source: src,
		events: events,
		logger: slog.Default().With("component", "rules.manager"),
		stopCh: make(chan struct{}),
	}
}

// Start performs the initial load and begins applying source events in
// the background. The initial load is fatal on error: starting with an
// unknown rule set would make every decision fail closed, which is
// safe but useless.
func (m *Manager) Start(ctx context.Context) error {
	if err := m.Reload(ctx); err != nil {
		return err
	}

	if m.events != nil {
		m.wg.Add(1)
		go m.watch(ctx)
	}

	return nil
}

// Reload loads the source and replaces the store's active rule set.
func (m *Manager) Reload(ctx context.Context) error {
	loaded, err := m.source.Load(ctx)
	if err != nil {
		return err
	}
	if err := m.store.ReplaceAll(ctx, loaded); err != nil {
		return err
	}
	m.logger.Info("rules reloaded", "rule_count", len(loaded))
	return nil
}

// watch applies source events until the context is cancelled or the
// manager is stopped.
func (m *Manager) watch(ctx context.Context) {
	defer m.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopCh:
			return
		case ev, ok := <-m.events:
			if !ok {
				return
			}
			if err := m.Reload(ctx); err != nil {
				m.logger.Error("rule reload failed, keeping previous snapshot",
					"path", ev.Path,
					"error", err,
				)
			}
		}
	}
}

// Stop halts the background watcher and waits for it to exit.
func (m *Manager) Stop() {
	close(m.stopCh)
	m.wg.Wait()
}
