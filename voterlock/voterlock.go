// Copyright (c) 2026 The ballotcore Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package voterlock provides per-voter mutual exclusion for vote casting.
//
// Exactly one cast may be in flight per voter identifier at a time; casts for
// distinct voters never block each other. The registry is process-local: a
// multi-instance deployment must replace it with a shared lock service.
package voterlock

import (
	"strings"
	"sync"
)

// Registry maps normalized voter identifiers to their mutexes. Per-voter
// entries are created lazily on first acquire and never removed; the map is
// bounded in practice by the voter population.
type Registry struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewRegistry() *Registry {
	return &Registry{locks: make(map[string]*sync.Mutex)}
}

// Acquire blocks until the caller holds the lock for voterID and returns the
// release function. The identifier is trimmed of incidental whitespace so
// " ABC123" and "ABC123" contend on the same lock. Callers must release on
// every exit path:
//
//	release := locks.Acquire(voterID)
//	defer release()
func (r *Registry) Acquire(voterID string) (release func()) {
	key := strings.TrimSpace(voterID)

	r.mu.Lock()
	m, ok := r.locks[key]
	if !ok {
		m = &sync.Mutex{}
		r.locks[key] = m
	}
	r.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// Len reports how many voter locks have been created. Exposed for
// observability; the count only grows.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.locks)
}
