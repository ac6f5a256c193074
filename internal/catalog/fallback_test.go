package catalog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallback_Collection_Packages(t *testing.T) {
	fb := NewFallback()

	payload, err := fb.Collection(CollectionPackages)
	require.NoError(t, err)

	var items []map[string]any
	require.NoError(t, json.Unmarshal(payload, &items))
	require.NotEmpty(t, items)

	for _, item := range items {
		assert.Equal(t, true, item["active"], "inactive entries must be filtered out")
		assert.NotEmpty(t, item["id"])
		assert.NotEmpty(t, item["title"])
	}
}

func TestFallback_Collection_AllKnownCollections(t *testing.T) {
	fb := NewFallback()

	for _, name := range Collections() {
		payload, err := fb.Collection(name)
		require.NoError(t, err, "collection %s", name)

		var items []any
		require.NoError(t, json.Unmarshal(payload, &items))
		assert.NotEmpty(t, items, "collection %s", name)
	}
}

func TestFallback_Collection_Unknown(t *testing.T) {
	fb := NewFallback()

	_, err := fb.Collection("bookings")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no fallback data")
}

func TestFallback_Collection_NameNormalized(t *testing.T) {
	fb := NewFallback()

	payload, err := fb.Collection("  Packages ")
	require.NoError(t, err)
	assert.NotEmpty(t, payload)
}

func TestFallback_Has(t *testing.T) {
	fb := NewFallback()

	assert.True(t, fb.Has(CollectionDestinations))
	assert.False(t, fb.Has("customers"))
}
