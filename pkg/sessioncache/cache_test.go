package sessioncache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"

	"github.com/hybridui/suite/domain"
)

func newCacheTest(t *testing.T) *Cache {
	t.Helper()
	cache, err := Open(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })
	return cache
}

func testEntry() Entry {
	return Entry{
		Token: "tok-1",
		User: domain.UserProfile{
			Username: "admin",
			Email:    "admin@example.com",
			Role:     "admin",
		},
		ExpiresAt: time.Now().Add(30 * time.Minute).UTC(),
	}
}

func TestStoreLoadClear(t *testing.T) {
	cache := newCacheTest(t)
	entry := testEntry()

	require.NoError(t, cache.Store("browser-1", entry))
	assert.True(t, cache.IsAuthenticated("browser-1"))

	loaded, err := cache.Load("browser-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, entry.Token, loaded.Token)
	assert.Equal(t, entry.User, loaded.User)
	assert.True(t, entry.ExpiresAt.Equal(loaded.ExpiresAt))

	require.NoError(t, cache.Clear("browser-1"))
	assert.False(t, cache.IsAuthenticated("browser-1"))

	loaded, err = cache.Load("browser-1")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestClearIsIdempotent(t *testing.T) {
	cache := newCacheTest(t)
	require.NoError(t, cache.Clear("never-stored"))
	require.NoError(t, cache.Clear("never-stored"))
	require.NoError(t, cache.Clear(""))
}

func TestStoreOverwritesPriorEntry(t *testing.T) {
	cache := newCacheTest(t)

	first := testEntry()
	require.NoError(t, cache.Store("browser-1", first))

	second := testEntry()
	second.Token = "tok-2"
	second.User.Username = "user"
	require.NoError(t, cache.Store("browser-1", second))

	loaded, err := cache.Load("browser-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "tok-2", loaded.Token)
	assert.Equal(t, "user", loaded.User.Username)
}

func TestPartialStateTreatedAsNoSession(t *testing.T) {
	cache := newCacheTest(t)
	require.NoError(t, cache.Store("browser-1", testEntry()))

	// Drop the user key, simulating a torn write.
	require.NoError(t, cache.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSessions).Bucket([]byte("browser-1")).Delete(keyUser)
	}))

	loaded, err := cache.Load("browser-1")
	require.NoError(t, err)
	assert.Nil(t, loaded)

	// The broken entry was cleared, not just skipped.
	assert.False(t, cache.IsAuthenticated("browser-1"))
}

func TestCorruptUserPayloadCleared(t *testing.T) {
	cache := newCacheTest(t)
	require.NoError(t, cache.Store("browser-1", testEntry()))

	require.NoError(t, cache.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSessions).Bucket([]byte("browser-1")).Put(keyUser, []byte("not json"))
	}))

	loaded, err := cache.Load("browser-1")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestEvictLeavesConsumableMarker(t *testing.T) {
	cache := newCacheTest(t)
	require.NoError(t, cache.Store("browser-1", testEntry()))

	require.NoError(t, cache.Evict("browser-1"))
	assert.False(t, cache.IsAuthenticated("browser-1"))

	// The marker fires exactly once.
	assert.True(t, cache.ConsumeEviction("browser-1"))
	assert.False(t, cache.ConsumeEviction("browser-1"))
}

func TestClearDoesNotMarkEviction(t *testing.T) {
	cache := newCacheTest(t)
	require.NoError(t, cache.Store("browser-1", testEntry()))

	require.NoError(t, cache.Clear("browser-1"))
	assert.False(t, cache.ConsumeEviction("browser-1"))
}

func TestStoreDropsPendingEvictionMarker(t *testing.T) {
	cache := newCacheTest(t)
	require.NoError(t, cache.Store("browser-1", testEntry()))
	require.NoError(t, cache.Evict("browser-1"))

	// Signing in again supersedes the stale eviction.
	require.NoError(t, cache.Store("browser-1", testEntry()))
	assert.False(t, cache.ConsumeEviction("browser-1"))
	assert.True(t, cache.IsAuthenticated("browser-1"))
}

func TestForEachSkipsIncompleteEntries(t *testing.T) {
	cache := newCacheTest(t)
	require.NoError(t, cache.Store("browser-1", testEntry()))

	other := testEntry()
	other.Token = "tok-2"
	require.NoError(t, cache.Store("browser-2", other))

	require.NoError(t, cache.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSessions).Bucket([]byte("browser-2")).Delete(keyToken)
	}))

	seen := map[string]string{}
	require.NoError(t, cache.ForEach(func(localID string, entry Entry) error {
		seen[localID] = entry.Token
		return nil
	}))

	assert.Equal(t, map[string]string{"browser-1": "tok-1"}, seen)
}
