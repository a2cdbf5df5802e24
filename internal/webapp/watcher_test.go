package webapp

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hybridui/suite/domain"
	"github.com/hybridui/suite/internal/config"
	"github.com/hybridui/suite/pkg/authclient"
	"github.com/hybridui/suite/pkg/sessioncache"
)

func newWatcher(t *testing.T, authURL string) (*Watcher, *sessioncache.Cache) {
	t.Helper()

	cache, err := sessioncache.Open(filepath.Join(t.TempDir(), "watch.db"))
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })

	watcher := NewWatcher(cache, authclient.New(authURL, 2*time.Second), config.WatchConfig{
		Interval:      30 * time.Second,
		RefreshBuffer: 5 * time.Minute,
		ProbeTimeout:  2 * time.Second,
	}, zap.NewNop())
	return watcher, cache
}

func watchedEntry(token string, expiresAt time.Time) sessioncache.Entry {
	return sessioncache.Entry{
		Token:     token,
		User:      domain.UserProfile{Username: "admin", Email: "admin@example.com", Role: "admin"},
		ExpiresAt: expiresAt,
	}
}

func TestSweepEvictsInvalidatedSession(t *testing.T) {
	srv := sessionServiceStub(t, map[string]time.Time{})
	defer srv.Close()
	watcher, cache := newWatcher(t, srv.URL)

	require.NoError(t, cache.Store("browser-1", watchedEntry("tok-dead", time.Now().Add(20*time.Minute))))

	watcher.Sweep()

	assert.False(t, cache.IsAuthenticated("browser-1"))
	// The eviction is flagged so the next page load can explain it.
	assert.True(t, cache.ConsumeEviction("browser-1"))
}

func TestSweepKeepsValidSession(t *testing.T) {
	expiry := time.Now().Add(25 * time.Minute).UTC()
	srv := sessionServiceStub(t, map[string]time.Time{"tok-1": expiry})
	defer srv.Close()
	watcher, cache := newWatcher(t, srv.URL)

	require.NoError(t, cache.Store("browser-1", watchedEntry("tok-1", time.Now().Add(time.Minute))))

	watcher.Sweep()

	entry, err := cache.Load("browser-1")
	require.NoError(t, err)
	require.NotNil(t, entry)
	// Expiry was reconciled to what the service reported.
	assert.True(t, expiry.Equal(entry.ExpiresAt))
}

func TestSweepFailsOpenWhenServiceUnreachable(t *testing.T) {
	srv := sessionServiceStub(t, map[string]time.Time{})
	authURL := srv.URL
	srv.Close()
	watcher, cache := newWatcher(t, authURL)

	require.NoError(t, cache.Store("browser-1", watchedEntry("tok-1", time.Now().Add(time.Minute))))

	watcher.Sweep()

	assert.True(t, cache.IsAuthenticated("browser-1"), "transport failure must not evict")
}

func TestSweepRefreshesSessionNearExpiry(t *testing.T) {
	// The service reports an expiry inside the refresh buffer.
	soon := time.Now().Add(2 * time.Minute).UTC()
	valid := map[string]time.Time{"tok-1": soon}
	srv := sessionServiceStub(t, valid)
	defer srv.Close()
	watcher, cache := newWatcher(t, srv.URL)

	require.NoError(t, cache.Store("browser-1", watchedEntry("tok-1", soon)))

	watcher.Sweep()

	entry, err := cache.Load("browser-1")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.True(t, entry.ExpiresAt.After(soon), "expiry should have been extended by refresh")
	assert.True(t, valid["tok-1"].After(soon), "service-side expiry should have been extended")
}

func TestSweepSkipsOverlappingRun(t *testing.T) {
	srv := sessionServiceStub(t, map[string]time.Time{})
	defer srv.Close()
	watcher, cache := newWatcher(t, srv.URL)

	require.NoError(t, cache.Store("browser-1", watchedEntry("tok-dead", time.Now().Add(20*time.Minute))))

	// Simulate a pass already in flight.
	watcher.running.Store(true)
	watcher.Sweep()
	assert.True(t, cache.IsAuthenticated("browser-1"), "overlapped tick must be a no-op")

	watcher.running.Store(false)
	watcher.Sweep()
	assert.False(t, cache.IsAuthenticated("browser-1"))
}
