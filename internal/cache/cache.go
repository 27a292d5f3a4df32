// Package cache holds the per-user, time-bounded store of the last computed
// recommendation set.
package cache

import (
	"sync"
	"time"

	"github.com/screenpick/screenpick/internal/model"
)

// ResultCache is the per-user recommendation cache. Entries expire after a
// fixed TTL and can be invalidated explicitly (e.g. when the user's
// exclusion list changes).
type ResultCache interface {
	// Get returns the entry for userID if present and unexpired.
	Get(userID string) (*model.CacheEntry, bool)
	// Set stores the entry for userID, stamping it with the current time.
	Set(userID string, entry model.CacheEntry)
	// Invalidate drops the entry for userID.
	Invalidate(userID string)
	// Clear drops all entries.
	Clear()
	// Len returns the number of live entries.
	Len() int
}

// Memory is an in-process ResultCache with an injectable clock so TTL
// expiry is deterministically testable.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]model.CacheEntry
	ttl     time.Duration
	nowFunc func() time.Time
}

// Option configures the memory cache.
type Option func(*Memory)

// WithClock injects a clock for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Memory) {
		m.nowFunc = now
	}
}

// NewMemory creates a memory cache with the given TTL.
func NewMemory(ttl time.Duration, opts ...Option) *Memory {
	m := &Memory{
		entries: make(map[string]model.CacheEntry),
		ttl:     ttl,
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) Get(userID string) (*model.CacheEntry, bool) {
	m.mu.RLock()
	entry, ok := m.entries[userID]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if m.nowFunc().Sub(entry.WrittenAt) >= m.ttl {
		m.Invalidate(userID)
		return nil, false
	}
	return &entry, true
}

func (m *Memory) Set(userID string, entry model.CacheEntry) {
	entry.WrittenAt = m.nowFunc()
	m.mu.Lock()
	m.entries[userID] = entry
	m.mu.Unlock()
}

func (m *Memory) Invalidate(userID string) {
	m.mu.Lock()
	delete(m.entries, userID)
	m.mu.Unlock()
}

func (m *Memory) Clear() {
	m.mu.Lock()
	m.entries = make(map[string]model.CacheEntry)
	m.mu.Unlock()
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
