package data

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheRepo_SetGetDelete(t *testing.T) {
	repo := NewMemoryCacheRepo()
	ctx := context.Background()

	t.Run("set and get", func(t *testing.T) {
		err := repo.Set(ctx, "catalog:packages", []byte(`[{"id":"p1"}]`), time.Minute)
		require.NoError(t, err)

		result, err := repo.Get(ctx, "catalog:packages")
		require.NoError(t, err)
		assert.Equal(t, []byte(`[{"id":"p1"}]`), result)
	})

	t.Run("get non-existent key", func(t *testing.T) {
		result, err := repo.Get(ctx, "no:such:key")
		require.NoError(t, err)
		assert.Nil(t, result)
	})

	t.Run("delete existing key", func(t *testing.T) {
		require.NoError(t, repo.Set(ctx, "doomed", []byte("x"), time.Minute))

		deleted, err := repo.Delete(ctx, "doomed")
		require.NoError(t, err)
		assert.True(t, deleted)

		result, err := repo.Get(ctx, "doomed")
		require.NoError(t, err)
		assert.Nil(t, result)
	})

	t.Run("delete non-existent key", func(t *testing.T) {
		deleted, err := repo.Delete(ctx, "no:such:key")
		require.NoError(t, err)
		assert.False(t, deleted)
	})

	t.Run("empty key rejected", func(t *testing.T) {
		assert.Error(t, repo.Set(ctx, "", []byte("x"), 0))
		_, err := repo.Get(ctx, "")
		assert.Error(t, err)
	})
}

func TestMemoryCacheRepo_TTLExpiry(t *testing.T) {
	tp := NewFixedTimeProvider(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	repo := NewMemoryCacheRepoWithTimeProvider(tp)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "k", []byte("v"), 10*time.Minute))

	// Just before expiry the entry is still served.
	tp.AddTime(10*time.Minute - time.Second)
	result, err := repo.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), result)

	// At expiry the entry is gone.
	tp.AddTime(time.Second)
	result, err = repo.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, result)

	exists, err := repo.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemoryCacheRepo_ZeroTTLNeverExpires(t *testing.T) {
	tp := NewFixedTimeProvider(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	repo := NewMemoryCacheRepoWithTimeProvider(tp)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "pinned", []byte("v"), 0))

	tp.AddTime(48 * time.Hour)
	result, err := repo.Get(ctx, "pinned")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), result)
}

func TestMemoryCacheRepo_SetTTL(t *testing.T) {
	tp := NewFixedTimeProvider(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	repo := NewMemoryCacheRepoWithTimeProvider(tp)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "k", []byte("v"), time.Minute))

	ok, err := repo.SetTTL(ctx, "k", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	tp.AddTime(30 * time.Minute)
	result, err := repo.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), result)

	ok, err = repo.SetTTL(ctx, "missing", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCacheRepo_SetIfNotExists(t *testing.T) {
	tp := NewFixedTimeProvider(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	repo := NewMemoryCacheRepoWithTimeProvider(tp)
	ctx := context.Background()

	set, err := repo.SetIfNotExists(ctx, "lock", []byte("a"), time.Minute)
	require.NoError(t, err)
	assert.True(t, set)

	set, err = repo.SetIfNotExists(ctx, "lock", []byte("b"), time.Minute)
	require.NoError(t, err)
	assert.False(t, set)

	result, err := repo.Get(ctx, "lock")
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), result)

	// Expired entries do not block a new set.
	tp.AddTime(2 * time.Minute)
	set, err = repo.SetIfNotExists(ctx, "lock", []byte("c"), time.Minute)
	require.NoError(t, err)
	assert.True(t, set)
}

func TestMemoryCacheRepo_CopiesValues(t *testing.T) {
	repo := NewMemoryCacheRepo()
	ctx := context.Background()

	original := []byte("immutable")
	require.NoError(t, repo.Set(ctx, "k", original, 0))
	original[0] = 'X'

	result, err := repo.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("immutable"), result)

	// Mutating the returned slice must not corrupt the stored value.
	result[0] = 'Y'
	again, err := repo.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("immutable"), again)
}

func TestMemoryCacheRepo_Health(t *testing.T) {
	repo := NewMemoryCacheRepo()
	assert.NoError(t, repo.Health(context.Background()))
}
