// Copyright (c) 2026 The ballotcore Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"context"
	"log/slog"
	"time"

	"github.com/ballotcore/ballotcore/clock"
	"github.com/ballotcore/ballotcore/db"
)

// Scheduler flips the election open and closed against the configured time
// window. Flips go through a compare-and-set on the settings row, so running
// multiple instances is safe; exactly one wins each transition.
type Scheduler struct {
	store    *db.Store
	clk      clock.Clock
	interval time.Duration
}

func NewScheduler(store *db.Store, clk clock.Clock, interval time.Duration) *Scheduler {
	return &Scheduler{store: store, clk: clk, interval: interval}
}

// Run polls until the context is cancelled. Transient store errors are
// logged and retried on the next tick.
func (s *Scheduler) Run(ctx context.Context) {
	slog.Info("election scheduler started", "interval", s.interval)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("election scheduler stopped")
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick evaluates the window once against the current settings.
func (s *Scheduler) Tick(ctx context.Context) {
	settings, err := s.store.Settings(ctx)
	if err != nil {
		slog.Error("scheduler: read settings", "error", err)
		return
	}
	now := s.clk.Now().UTC()

	if !settings.IsActive && settings.StartTime != nil && !now.Before(*settings.StartTime) &&
		(settings.EndTime == nil || !now.After(*settings.EndTime)) {
		flipped, err := s.store.SetActive(ctx, false, true)
		if err != nil {
			slog.Error("scheduler: open election", "error", err)
		} else if flipped {
			slog.Info("election opened", "start", settings.StartTime, "end", settings.EndTime)
		}
		return
	}

	if settings.IsActive && settings.EndTime != nil && !now.Before(*settings.EndTime) {
		flipped, err := s.store.SetActive(ctx, true, false)
		if err != nil {
			slog.Error("scheduler: close election", "error", err)
		} else if flipped {
			slog.Info("election closed", "end", settings.EndTime)
		}
	}
}
