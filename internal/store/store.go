// Package store holds the last successfully fetched copy of each catalog
// collection in process memory. It is the tier consulted after the TTL
// cache and before the bundled fallback dataset.
package store

import (
	"encoding/json"
	"sync"
	"time"
)

// Entry is a stored collection payload with the time it was captured.
type Entry struct {
	Data     json.RawMessage
	StoredAt time.Time
	FromLive bool
}

// Store keeps per-collection payloads and loading flags behind a RWMutex.
type Store struct {
	mu      sync.RWMutex
	entries map[string]Entry
	loading map[string]bool
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		entries: make(map[string]Entry),
		loading: make(map[string]bool),
	}
}

// SetCollection records the payload for a collection.
func (s *Store) SetCollection(collection string, data json.RawMessage, fromLive bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[collection] = Entry{
		Data:     append(json.RawMessage(nil), data...),
		StoredAt: time.Now(),
		FromLive: fromLive,
	}
}

// Collection returns the stored payload for a collection, if any.
func (s *Store) Collection(collection string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[collection]
	return entry, ok
}

// SetLoading flags a collection as having a fetch in flight.
func (s *Store) SetLoading(collection string, loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if loading {
		s.loading[collection] = true
	} else {
		delete(s.loading, collection)
	}
}

// Loading reports whether a fetch is in flight for a collection.
func (s *Store) Loading(collection string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading[collection]
}

// Collections returns the names of all stored collections.
func (s *Store) Collections() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	return names
}
