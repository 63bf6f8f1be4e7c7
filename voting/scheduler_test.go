// Copyright (c) 2026 The ballotcore Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting_test

import (
	"context"
	"testing"
	"time"

	"github.com/ballotcore/ballotcore/clock"
	"github.com/ballotcore/ballotcore/db"
	"github.com/ballotcore/ballotcore/models"
	"github.com/ballotcore/ballotcore/testutil"
	"github.com/ballotcore/ballotcore/voting"
)

func setWindow(t *testing.T, store *db.Store, start, end time.Time) {
	t.Helper()

	startStr := start.Format(time.RFC3339)
	endStr := end.Format(time.RFC3339)
	err := store.UpdateSettings(context.Background(), models.UpdateSettingsRequest{
		StartTime: &startStr,
		EndTime:   &endStr,
	})
	if err != nil {
		t.Fatalf("Failed to set window: %v", err)
	}
}

func isActive(t *testing.T, store *db.Store) bool {
	t.Helper()
	settings, err := store.Settings(context.Background())
	if err != nil {
		t.Fatalf("Failed to read settings: %v", err)
	}
	return settings.IsActive
}

func TestSchedulerOpensAndCloses(t *testing.T) {
	sqlDB := testutil.SetupTestDB(t)
	store := db.NewStore(sqlDB)

	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	clk := clock.NewFake(base)
	sched := voting.NewScheduler(store, clk, time.Second)

	setWindow(t, store, base.Add(time.Hour), base.Add(2*time.Hour))

	// Before the start: nothing to do.
	sched.Tick(context.Background())
	if isActive(t, store) {
		t.Fatal("Election opened before its start time")
	}

	// At the start boundary the election opens; a voter at exactly the start
	// must be admitted.
	clk.Set(base.Add(time.Hour))
	sched.Tick(context.Background())
	if !isActive(t, store) {
		t.Fatal("Election did not open at start time")
	}

	// Repeated ticks inside the window are no-ops.
	clk.Advance(10 * time.Minute)
	sched.Tick(context.Background())
	if !isActive(t, store) {
		t.Fatal("Election flapped closed inside the window")
	}

	// Past the end it closes and stays closed.
	clk.Set(base.Add(2*time.Hour + time.Second))
	sched.Tick(context.Background())
	if isActive(t, store) {
		t.Fatal("Election did not close after end time")
	}
	sched.Tick(context.Background())
	if isActive(t, store) {
		t.Fatal("Election reopened after closing")
	}
}

func TestSchedulerSkipsExpiredWindow(t *testing.T) {
	sqlDB := testutil.SetupTestDB(t)
	store := db.NewStore(sqlDB)

	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	clk := clock.NewFake(base)
	sched := voting.NewScheduler(store, clk, time.Second)

	// Window entirely in the past: the scheduler must never open it.
	setWindow(t, store, base.Add(-2*time.Hour), base.Add(-time.Hour))
	sched.Tick(context.Background())
	if isActive(t, store) {
		t.Fatal("Election opened for an already-expired window")
	}
}

func TestSchedulerClosesManualOpen(t *testing.T) {
	sqlDB := testutil.SetupTestDB(t)
	store := db.NewStore(sqlDB)

	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	clk := clock.NewFake(base)
	sched := voting.NewScheduler(store, clk, time.Second)

	// An admin opened the election by hand with an end time already behind
	// the clock; the scheduler enforces the close.
	past := base.Add(-time.Minute)
	testutil.OpenElection(t, sqlDB, nil, &past)
	sched.Tick(context.Background())
	if isActive(t, store) {
		t.Fatal("Scheduler did not close a manually opened election past its end")
	}
}

func TestSchedulerNoWindowConfigured(t *testing.T) {
	sqlDB := testutil.SetupTestDB(t)
	store := db.NewStore(sqlDB)

	clk := clock.NewFake(time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))
	sched := voting.NewScheduler(store, clk, time.Second)

	// No start or end: scheduler leaves the flag alone in both states.
	sched.Tick(context.Background())
	if isActive(t, store) {
		t.Fatal("Scheduler opened an election with no window")
	}

	testutil.OpenElection(t, sqlDB, nil, nil)
	sched.Tick(context.Background())
	if !isActive(t, store) {
		t.Fatal("Scheduler closed a manually opened election with no end time")
	}
}
