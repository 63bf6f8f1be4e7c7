// Copyright (c) 2026 The ballotcore Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package clock provides an injectable UTC time source so that components
// with time-dependent behavior (election window checks, the scheduler, the
// tally time-lock) can be driven by a fake clock in tests.
package clock

import (
	"sync"
	"time"
)

// Clock supplies the current instant. Implementations must return UTC.
type Clock interface {
	Now() time.Time
}

// System reads the wall clock.
type System struct{}

func (System) Now() time.Time { return time.Now().UTC() }

// Fake is a manually advanced clock for tests.
type Fake struct {
	mu  sync.Mutex
	now time.Time
}

func NewFake(start time.Time) *Fake {
	return &Fake{now: start.UTC()}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = t.UTC()
}
