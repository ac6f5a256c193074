package store

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SetAndGetCollection(t *testing.T) {
	s := New()

	_, ok := s.Collection("packages")
	assert.False(t, ok)

	payload := json.RawMessage(`[{"id":"p1"}]`)
	s.SetCollection("packages", payload, true)

	entry, ok := s.Collection("packages")
	require.True(t, ok)
	assert.Equal(t, payload, entry.Data)
	assert.True(t, entry.FromLive)
	assert.False(t, entry.StoredAt.IsZero())
}

func TestStore_SetCollectionCopiesPayload(t *testing.T) {
	s := New()
	payload := json.RawMessage(`[{"id":"p1"}]`)
	s.SetCollection("packages", payload, false)

	payload[2] = 'X'

	entry, ok := s.Collection("packages")
	require.True(t, ok)
	assert.Equal(t, json.RawMessage(`[{"id":"p1"}]`), entry.Data)
}

func TestStore_LoadingFlags(t *testing.T) {
	s := New()

	assert.False(t, s.Loading("packages"))

	s.SetLoading("packages", true)
	assert.True(t, s.Loading("packages"))
	assert.False(t, s.Loading("destinations"))

	s.SetLoading("packages", false)
	assert.False(t, s.Loading("packages"))
}

func TestStore_Collections(t *testing.T) {
	s := New()
	s.SetCollection("packages", json.RawMessage(`[]`), true)
	s.SetCollection("destinations", json.RawMessage(`[]`), false)

	assert.ElementsMatch(t, []string{"packages", "destinations"}, s.Collections())
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.SetCollection("packages", json.RawMessage(`[1,2,3]`), true)
			s.SetLoading("packages", true)
			_, _ = s.Collection("packages")
			_ = s.Loading("packages")
			s.SetLoading("packages", false)
		}()
	}
	wg.Wait()

	entry, ok := s.Collection("packages")
	require.True(t, ok)
	assert.Equal(t, json.RawMessage(`[1,2,3]`), entry.Data)
}
