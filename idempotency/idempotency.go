// Copyright (c) 2026 The ballotcore Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package idempotency caches terminal vote-cast responses by client-supplied
// key, so a retried request replays the original payload instead of
// re-executing side effects.
//
// Entries expire after a TTL and the cache holds at most a fixed number of
// entries, evicting the oldest when full. The cache is process-local; a
// multi-instance deployment must back it with a shared store.
package idempotency

import (
	"container/list"
	"sync"
	"time"

	"github.com/ballotcore/ballotcore/clock"
)

const (
	DefaultTTL        = 24 * time.Hour
	DefaultMaxEntries = 65536
)

type entry struct {
	key      string
	response []byte
	storedAt time.Time
}

// Cache is a TTL- and size-bounded response cache. Stored responses are the
// exact marshalled payload returned to the first caller.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]*list.Element
	order      *list.List // oldest at front
	ttl        time.Duration
	maxEntries int
	clk        clock.Clock
}

func NewCache(ttl time.Duration, maxEntries int, clk clock.Clock) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Cache{
		entries:    make(map[string]*list.Element),
		order:      list.New(),
		ttl:        ttl,
		maxEntries: maxEntries,
		clk:        clk,
	}
}

// Get returns the cached response for key, or ok=false if absent or expired.
func (c *Cache) Get(key string) (response []byte, ok bool) {
	if key == "" {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	el, found := c.entries[key]
	if !found {
		return nil, false
	}
	e := el.Value.(*entry)
	if c.clk.Now().Sub(e.storedAt) > c.ttl {
		c.removeLocked(el)
		return nil, false
	}
	return e.response, true
}

// Put stores a response under key. Re-putting an existing key is a no-op:
// the first terminal response wins, which is what retried callers must see.
func (c *Cache) Put(key string, response []byte) {
	if key == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; exists {
		return
	}

	c.sweepLocked()
	for len(c.entries) >= c.maxEntries {
		c.removeLocked(c.order.Front())
	}

	el := c.order.PushBack(&entry{key: key, response: response, storedAt: c.clk.Now()})
	c.entries[key] = el
}

// Len reports the current entry count, expired entries included until swept.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// sweepLocked drops expired entries from the front of the insertion order.
func (c *Cache) sweepLocked() {
	now := c.clk.Now()
	for el := c.order.Front(); el != nil; {
		next := el.Next()
		if now.Sub(el.Value.(*entry).storedAt) <= c.ttl {
			break
		}
		c.removeLocked(el)
		el = next
	}
}

func (c *Cache) removeLocked(el *list.Element) {
	if el == nil {
		return
	}
	delete(c.entries, el.Value.(*entry).key)
	c.order.Remove(el)
}
