package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redislib "github.com/redis/go-redis/v9"

	"github.com/hybridui/suite/domain"
	"github.com/hybridui/suite/repository"
)

func newSessionRepoTest(t *testing.T) (repository.SessionRepository, *miniredis.Miniredis, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	client := redislib.NewClient(&redislib.Options{Addr: mr.Addr()})
	repo := NewSessionRepository(client, 30*time.Minute)
	return repo, mr, func() {
		client.Close()
		mr.Close()
	}
}

func testRecord(token string, ttl time.Duration) *domain.Session {
	now := time.Now()
	return &domain.Session{
		Token: token,
		User: domain.UserProfile{
			Username: "admin",
			Email:    "admin@example.com",
			Role:     "admin",
		},
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

func TestSaveGetRoundTrip(t *testing.T) {
	repo, _, done := newSessionRepoTest(t)
	defer done()
	ctx := context.Background()

	saved := testRecord("tok-1", time.Hour)
	if err := repo.Save(ctx, saved); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := repo.Get(ctx, "tok-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.User != saved.User {
		t.Fatalf("user mismatch: got %+v want %+v", got.User, saved.User)
	}
	if !got.ExpiresAt.Equal(saved.ExpiresAt) {
		t.Fatalf("expiry mismatch: got %v want %v", got.ExpiresAt, saved.ExpiresAt)
	}
}

func TestGetUnknownToken(t *testing.T) {
	repo, _, done := newSessionRepoTest(t)
	defer done()

	_, err := repo.Get(context.Background(), "missing")
	if !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestRecordExpiresWithTTL(t *testing.T) {
	repo, mr, done := newSessionRepoTest(t)
	defer done()
	ctx := context.Background()

	if err := repo.Save(ctx, testRecord("tok-ttl", 2*time.Second)); err != nil {
		t.Fatalf("save: %v", err)
	}

	mr.FastForward(time.Second)
	if _, err := repo.Get(ctx, "tok-ttl"); err != nil {
		t.Fatalf("expected record alive at t=1s, got %v", err)
	}

	mr.FastForward(2 * time.Second)
	if _, err := repo.Get(ctx, "tok-ttl"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected record gone at t=3s, got %v", err)
	}
}

func TestTouchSlidesExpiry(t *testing.T) {
	repo, mr, done := newSessionRepoTest(t)
	defer done()
	ctx := context.Background()

	if err := repo.Save(ctx, testRecord("tok-slide", 2*time.Second)); err != nil {
		t.Fatalf("save: %v", err)
	}

	mr.FastForward(time.Second)
	touched, err := repo.Touch(ctx, "tok-slide", 2*time.Second)
	if err != nil {
		t.Fatalf("touch: %v", err)
	}
	if !touched.ExpiresAt.After(time.Now().Add(time.Second)) {
		t.Fatalf("expected extended expiry, got %v", touched.ExpiresAt)
	}

	// The original window would have closed here; the touch keeps it open.
	mr.FastForward(1500 * time.Millisecond)
	if _, err := repo.Get(ctx, "tok-slide"); err != nil {
		t.Fatalf("expected touched record alive, got %v", err)
	}
}

func TestTouchUnknownToken(t *testing.T) {
	repo, _, done := newSessionRepoTest(t)
	defer done()

	_, err := repo.Touch(context.Background(), "missing", time.Minute)
	if !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestDeleteIdempotent(t *testing.T) {
	repo, _, done := newSessionRepoTest(t)
	defer done()
	ctx := context.Background()

	if err := repo.Save(ctx, testRecord("tok-del", time.Hour)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.Delete(ctx, "tok-del"); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := repo.Delete(ctx, "tok-del"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if err := repo.Delete(ctx, "never-existed"); err != nil {
		t.Fatalf("delete of unknown token: %v", err)
	}
}

func TestCorruptRecord(t *testing.T) {
	repo, mr, done := newSessionRepoTest(t)
	defer done()

	mr.Set("session:tok-bad", "not json")
	if _, err := repo.Get(context.Background(), "tok-bad"); err == nil {
		t.Fatal("expected error for corrupt record")
	}
}
