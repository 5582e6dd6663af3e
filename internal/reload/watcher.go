// Package reload polls the training dataset and invalidates the model when the file changes.
package reload

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/Skufu/glucorisk/pkg/logger"
)

const DefaultSchedule = "@every 1m"

// Reloader re-reads its source and reports whether the content changed.
type Reloader interface {
	Reload() (bool, error)
}

type Watcher struct {
	target   Reloader
	schedule string
	cron     *cron.Cron
	log      *zap.Logger
}

type Option func(*Watcher)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(w *Watcher) {
		if c != nil {
			w.cron = c
		}
	}
}

// NewWatcher builds a watcher for target. An empty schedule disables it.
func NewWatcher(target Reloader, schedule string, opts ...Option) *Watcher {
	w := &Watcher{
		target:   target,
		schedule: schedule,
		log:      logger.WithModule("reload"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.cron == nil {
		w.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}
	return w
}

// Start registers the poll job and launches the scheduler.
func (w *Watcher) Start() error {
	if w.schedule == "" || w.target == nil {
		w.log.Info("dataset watch disabled")
		return nil
	}
	if _, err := w.cron.AddFunc(w.schedule, func() { w.Check() }); err != nil {
		return err
	}
	w.cron.Start()
	w.log.Info("dataset watch started", zap.String("schedule", w.schedule))
	return nil
}

// Check runs a single poll. It reports whether the dataset changed.
func (w *Watcher) Check() bool {
	changed, err := w.target.Reload()
	if err != nil {
		w.log.Warn("dataset reload failed", zap.Error(err))
		return false
	}
	if changed {
		w.log.Info("dataset reloaded")
	}
	return changed
}

// Stop halts the scheduler. The returned context is done once a running poll finishes.
func (w *Watcher) Stop() context.Context {
	return w.cron.Stop()
}
