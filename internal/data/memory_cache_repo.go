package data

import (
	"context"
	"errors"
	"sync"
	"time"
)

type memoryCacheEntry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

func (e memoryCacheEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// MemoryCacheRepo implements the CacheRepository interface with an in-process
// map. Expired entries are dropped lazily on access and swept whenever the
// map grows past sweepThreshold.
type MemoryCacheRepo struct {
	mu           sync.RWMutex
	entries      map[string]memoryCacheEntry
	timeProvider TimeProvider

	sweepThreshold int
}

// NewMemoryCacheRepo creates a new MemoryCacheRepo with real time provider.
func NewMemoryCacheRepo() *MemoryCacheRepo {
	return NewMemoryCacheRepoWithTimeProvider(&RealTimeProvider{})
}

// NewMemoryCacheRepoWithTimeProvider creates a new MemoryCacheRepo with a
// custom time provider (useful for tests).
func NewMemoryCacheRepoWithTimeProvider(tp TimeProvider) *MemoryCacheRepo {
	return &MemoryCacheRepo{
		entries:        make(map[string]memoryCacheEntry),
		timeProvider:   tp,
		sweepThreshold: 1024,
	}
}

// Set stores a value with the given key and TTL. A TTL of 0 means no expiry.
func (m *MemoryCacheRepo) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}

	now := m.timeProvider.Now()
	entry := memoryCacheEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		entry.expiresAt = now.Add(ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = entry
	if len(m.entries) > m.sweepThreshold {
		m.sweepLocked(now)
	}
	return nil
}

// Get retrieves a value by key. Returns nil if the key doesn't exist or has expired.
func (m *MemoryCacheRepo) Get(_ context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, errors.New("key cannot be empty")
	}

	now := m.timeProvider.Now()

	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if entry.expired(now) {
		m.mu.Lock()
		// Re-check under the write lock; another writer may have refreshed it.
		if cur, stillThere := m.entries[key]; stillThere && cur.expired(now) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return nil, nil
	}

	return append([]byte(nil), entry.value...), nil
}

// Delete removes a key. Returns true if the key was present and unexpired.
func (m *MemoryCacheRepo) Delete(_ context.Context, key string) (bool, error) {
	if key == "" {
		return false, errors.New("key cannot be empty")
	}

	now := m.timeProvider.Now()

	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[key]
	if !ok {
		return false, nil
	}
	delete(m.entries, key)
	return !entry.expired(now), nil
}

// Exists checks if a key exists and has not expired.
func (m *MemoryCacheRepo) Exists(ctx context.Context, key string) (bool, error) {
	value, err := m.Get(ctx, key)
	if err != nil {
		return false, err
	}
	return value != nil, nil
}

// SetTTL updates the TTL for an existing key.
func (m *MemoryCacheRepo) SetTTL(_ context.Context, key string, ttl time.Duration) (bool, error) {
	if key == "" {
		return false, errors.New("key cannot be empty")
	}

	now := m.timeProvider.Now()

	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[key]
	if !ok || entry.expired(now) {
		return false, nil
	}
	if ttl > 0 {
		entry.expiresAt = now.Add(ttl)
	} else {
		entry.expiresAt = time.Time{}
	}
	m.entries[key] = entry
	return true, nil
}

// SetIfNotExists atomically sets a key only if it doesn't already exist.
func (m *MemoryCacheRepo) SetIfNotExists(
	_ context.Context,
	key string,
	value []byte,
	ttl time.Duration,
) (bool, error) {
	if key == "" {
		return false, errors.New("key cannot be empty")
	}

	now := m.timeProvider.Now()

	m.mu.Lock()
	defer m.mu.Unlock()
	if entry, ok := m.entries[key]; ok && !entry.expired(now) {
		return false, nil
	}

	newEntry := memoryCacheEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		newEntry.expiresAt = now.Add(ttl)
	}
	m.entries[key] = newEntry
	return true, nil
}

// Health always succeeds for the in-process cache.
func (m *MemoryCacheRepo) Health(_ context.Context) error {
	return nil
}

// Len reports the number of live entries (expired entries excluded).
func (m *MemoryCacheRepo) Len() int {
	now := m.timeProvider.Now()

	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, entry := range m.entries {
		if !entry.expired(now) {
			n++
		}
	}
	return n
}

func (m *MemoryCacheRepo) sweepLocked(now time.Time) {
	for key, entry := range m.entries {
		if entry.expired(now) {
			delete(m.entries, key)
		}
	}
}
