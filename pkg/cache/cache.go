// Package cache provides a small TTL cache for read-mostly reference data
// (estados, municípios, memoized API payloads). Entries are replaced
// wholesale on expiry, never mutated in place, so concurrent readers only
// need the RWMutex around the map itself.
package cache

import (
	"sync"
	"time"
)

// Clock returns the current time. Injectable so tests can drive expiry.
type Clock func() time.Time

// Store is a TTL key/value cache. The zero value is not usable; use New.
type Store struct {
	mu    sync.RWMutex
	now   Clock
	items map[string]entry
}

type entry struct {
	value     any
	expiresAt time.Time
}

// New creates a Store using the given clock. A nil clock means time.Now.
func New(now Clock) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		now:   now,
		items: make(map[string]entry),
	}
}

// Get returns the cached value for key, or false when the key is absent
// or its TTL has elapsed. Expired entries are evicted lazily.
func (s *Store) Get(key string) (any, bool) {
	s.mu.RLock()
	e, ok := s.items[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if s.now().After(e.expiresAt) {
		s.mu.Lock()
		// Re-check under the write lock: a concurrent Set may have
		// refreshed the entry.
		if cur, ok := s.items[key]; ok && s.now().After(cur.expiresAt) {
			delete(s.items, key)
		}
		s.mu.Unlock()
		return nil, false
	}
	return e.value, true
}

// Set stores value under key for ttl.
func (s *Store) Set(key string, value any, ttl time.Duration) {
	s.mu.Lock()
	s.items[key] = entry{value: value, expiresAt: s.now().Add(ttl)}
	s.mu.Unlock()
}

// Delete removes key if present.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()
}

// Len returns the number of entries, including not-yet-evicted expired ones.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
