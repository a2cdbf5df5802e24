// Package sessioncache persists each origin's local copy of the session.
// Origins cannot share storage, so every app process keeps its own cache
// file; entries are keyed by the browser's local ID cookie. The cache is an
// optimistic mirror of the session store, never an authorization source.
package sessioncache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/hybridui/suite/domain"
)

var (
	bucketSessions = []byte("sessions")

	// bucketEvictions records browsers whose session the validation sweep
	// tore down. The next page load consumes the marker to tell a forced
	// logout apart from a browser that simply never signed in.
	bucketEvictions = []byte("evictions")
)

// Entry keys inside a per-browser bucket. Mirroring the three separate
// browser-storage keys keeps partial state representable, and partial state
// is exactly what Load must detect and discard.
var (
	keyToken     = []byte("token")
	keyUser      = []byte("user")
	keyExpiresAt = []byte("expiresAt")
)

// Entry is one browser's cached session on this origin.
type Entry struct {
	Token     string
	User      domain.UserProfile
	ExpiresAt time.Time
}

// Cache is a bbolt-backed per-origin session cache.
type Cache struct {
	db *bolt.DB
}

// Open initializes the cache file and its bucket.
func Open(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketSessions); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketEvictions)
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &Cache{db: db}, nil
}

// Load returns the cached session for localID, or nil when nothing usable is
// stored. Partial or corrupt state is treated as no session and cleared.
func (c *Cache) Load(localID string) (*Entry, error) {
	if localID == "" {
		return nil, nil
	}

	var entry *Entry
	var broken bool

	err := c.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSessions).Bucket([]byte(localID))
		if b == nil {
			return nil
		}

		token := b.Get(keyToken)
		rawUser := b.Get(keyUser)
		rawExpiry := b.Get(keyExpiresAt)
		if len(token) == 0 || len(rawUser) == 0 || len(rawExpiry) == 0 {
			broken = true
			return nil
		}

		var user domain.UserProfile
		if err := json.Unmarshal(rawUser, &user); err != nil {
			broken = true
			return nil
		}
		var expiresAt time.Time
		if err := expiresAt.UnmarshalText(rawExpiry); err != nil {
			broken = true
			return nil
		}

		entry = &Entry{
			Token:     string(token),
			User:      user,
			ExpiresAt: expiresAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if broken {
		if err := c.Clear(localID); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return entry, nil
}

// Store persists the entry for localID, overwriting any prior one. All three
// fields are written in a single transaction.
func (c *Cache) Store(localID string, entry Entry) error {
	if localID == "" || entry.Token == "" {
		return domain.ErrInvalidPayload
	}

	rawUser, err := json.Marshal(entry.User)
	if err != nil {
		return err
	}
	rawExpiry, err := entry.ExpiresAt.MarshalText()
	if err != nil {
		return err
	}

	return c.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketEvictions).Delete([]byte(localID)); err != nil {
			return err
		}
		root := tx.Bucket(bucketSessions)
		if err := root.DeleteBucket([]byte(localID)); err != nil && err != bolt.ErrBucketNotFound {
			return err
		}
		b, err := root.CreateBucket([]byte(localID))
		if err != nil {
			return err
		}
		if err := b.Put(keyToken, []byte(entry.Token)); err != nil {
			return err
		}
		if err := b.Put(keyUser, rawUser); err != nil {
			return err
		}
		return b.Put(keyExpiresAt, rawExpiry)
	})
}

// Clear removes the entry for localID, along with any pending eviction
// marker. Safe to call when nothing is stored.
func (c *Cache) Clear(localID string) error {
	return c.clear(localID, false)
}

// Evict removes the entry like Clear but leaves an eviction marker: the
// session was torn down out from under the browser, not ended by the user.
func (c *Cache) Evict(localID string) error {
	return c.clear(localID, true)
}

func (c *Cache) clear(localID string, marked bool) error {
	if localID == "" {
		return nil
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		evictions := tx.Bucket(bucketEvictions)
		if marked {
			if err := evictions.Put([]byte(localID), []byte{1}); err != nil {
				return err
			}
		} else if err := evictions.Delete([]byte(localID)); err != nil {
			return err
		}

		err := tx.Bucket(bucketSessions).DeleteBucket([]byte(localID))
		if err == bolt.ErrBucketNotFound {
			return nil
		}
		return err
	})
}

// ConsumeEviction reports whether localID's session was evicted by the
// validation sweep, clearing the marker so the signal fires once.
func (c *Cache) ConsumeEviction(localID string) bool {
	if localID == "" {
		return false
	}
	evicted := false
	err := c.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketEvictions)
		if b.Get([]byte(localID)) == nil {
			return nil
		}
		evicted = true
		return b.Delete([]byte(localID))
	})
	return err == nil && evicted
}

// IsAuthenticated reports whether a complete entry exists locally. This is
// an unverified signal good only for optimistic rendering; authorization
// requires a round-trip to the session service.
func (c *Cache) IsAuthenticated(localID string) bool {
	entry, err := c.Load(localID)
	return err == nil && entry != nil
}

// ForEach visits every complete cached entry. Used by the validation sweep.
func (c *Cache) ForEach(fn func(localID string, entry Entry) error) error {
	type pair struct {
		id    string
		entry Entry
	}
	var pairs []pair

	err := c.db.View(func(tx *bolt.Tx) error {
		root := tx.Bucket(bucketSessions)
		return root.ForEachBucket(func(k []byte) error {
			b := root.Bucket(k)
			token := b.Get(keyToken)
			rawUser := b.Get(keyUser)
			rawExpiry := b.Get(keyExpiresAt)
			if len(token) == 0 || len(rawUser) == 0 || len(rawExpiry) == 0 {
				return nil
			}

			var user domain.UserProfile
			if json.Unmarshal(rawUser, &user) != nil {
				return nil
			}
			var expiresAt time.Time
			if expiresAt.UnmarshalText(rawExpiry) != nil {
				return nil
			}

			pairs = append(pairs, pair{
				id: string(k),
				entry: Entry{
					Token:     string(token),
					User:      user,
					ExpiresAt: expiresAt,
				},
			})
			return nil
		})
	})
	if err != nil {
		return err
	}

	for _, p := range pairs {
		if err := fn(p.id, p.entry); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}
