package cache

import (
	"strings"
	"sync"
)

// Store is a process-lifetime string cache. Entries are never evicted or
// invalidated; concurrent writers for the same key are resolved by last write.
type Store struct {
	mu    sync.RWMutex
	items map[string]string
}

func New() *Store {
	return &Store{
		items: make(map[string]string),
	}
}

func (s *Store) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[key] = value
}

func (s *Store) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, exists := s.items[key]
	return value, exists
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.items)
}

// Snapshot copies the current entries.
func (s *Store) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]string, len(s.items))
	for k, v := range s.items {
		out[k] = v
	}
	return out
}

// Key normalises a domain the same way news.DomainOf does, so callers that
// pass raw hosts still hit the same entry.
func Key(domain string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(domain)), "www.")
}
