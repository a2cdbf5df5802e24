package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redislib "github.com/redis/go-redis/v9"

	"github.com/hybridui/suite/domain"
	"github.com/hybridui/suite/repository/memory"
	redisRepo "github.com/hybridui/suite/repository/redis"
)

func newAuthTest(t *testing.T, ttl time.Duration) (*UseCase, *miniredis.Miniredis, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	client := redislib.NewClient(&redislib.Options{Addr: mr.Addr()})

	credentials := memory.NewCredentialRepository([]domain.Credential{
		{Username: "admin", Password: "admin", Email: "admin@example.com", Role: "admin"},
		{Username: "user", Password: "user", Email: "user@example.com", Role: "user"},
	})
	sessions := redisRepo.NewSessionRepository(client, ttl)
	providerTokens := redisRepo.NewProviderTokenRepository(client)

	uc := New(credentials, sessions, providerTokens, ttl, nil)
	return uc, mr, func() {
		client.Close()
		mr.Close()
	}
}

func TestLoginThenValidate(t *testing.T) {
	uc, _, done := newAuthTest(t, 30*time.Minute)
	defer done()
	ctx := context.Background()

	session, err := uc.Login(ctx, "admin", "admin")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if session.Token == "" {
		t.Fatal("expected non-empty token")
	}
	if got := session.User; got.Username != "admin" || got.Role != "admin" || got.Email != "admin@example.com" {
		t.Fatalf("unexpected profile: %+v", got)
	}
	wantExpiry := time.Now().Add(30 * time.Minute)
	if session.ExpiresAt.Before(wantExpiry.Add(-time.Minute)) || session.ExpiresAt.After(wantExpiry.Add(time.Minute)) {
		t.Fatalf("expiry not near now+TTL: %v", session.ExpiresAt)
	}

	validated, err := uc.Validate(ctx, session.Token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if validated.User != session.User {
		t.Fatalf("validate returned different user: %+v vs %+v", validated.User, session.User)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	uc, _, done := newAuthTest(t, time.Minute)
	defer done()
	ctx := context.Background()

	if _, err := uc.Login(ctx, "admin", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := uc.Login(ctx, "", "admin"); !errors.Is(err, domain.ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload for missing username, got %v", err)
	}
}

func TestLogoutThenValidate(t *testing.T) {
	uc, _, done := newAuthTest(t, time.Minute)
	defer done()
	ctx := context.Background()

	session, err := uc.Login(ctx, "user", "user")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	uc.Logout(ctx, session.Token)
	if _, err := uc.Validate(ctx, session.Token); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected invalid after logout, got %v", err)
	}

	// Idempotent: repeated and unknown-token logouts never panic or fail.
	uc.Logout(ctx, session.Token)
	uc.Logout(ctx, "never-existed")
	uc.Logout(ctx, "")
}

func TestValidateEmptyTokenSkipsStore(t *testing.T) {
	uc, mr, done := newAuthTest(t, time.Minute)
	defer done()

	// Store gone: an empty token must still short-circuit cleanly.
	mr.Close()
	if _, err := uc.Validate(context.Background(), ""); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSessionExpiresWithoutRefresh(t *testing.T) {
	uc, mr, done := newAuthTest(t, 2*time.Second)
	defer done()
	ctx := context.Background()

	session, err := uc.Login(ctx, "admin", "admin")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	mr.FastForward(time.Second)
	if _, err := uc.Validate(ctx, session.Token); err != nil {
		t.Fatalf("expected valid at t=1s, got %v", err)
	}

	// The validate above slid the window; expire it fully now.
	mr.FastForward(3 * time.Second)
	if _, err := uc.Validate(ctx, session.Token); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected expired at t=4s, got %v", err)
	}
}

func TestValidateSlidesWindow(t *testing.T) {
	uc, mr, done := newAuthTest(t, 2*time.Second)
	defer done()
	ctx := context.Background()

	session, err := uc.Login(ctx, "admin", "admin")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	// Touch just before the original window closes, then confirm the
	// session survives past it.
	mr.FastForward(1900 * time.Millisecond)
	if _, err := uc.Validate(ctx, session.Token); err != nil {
		t.Fatalf("validate at t=T-0.1s: %v", err)
	}
	mr.FastForward(1900 * time.Millisecond)
	if _, err := uc.Validate(ctx, session.Token); err != nil {
		t.Fatalf("expected slid window to keep session alive, got %v", err)
	}
}

func TestRefreshExtendsExpiry(t *testing.T) {
	uc, _, done := newAuthTest(t, time.Minute)
	defer done()
	ctx := context.Background()

	session, err := uc.Login(ctx, "admin", "admin")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	refreshed, err := uc.Refresh(ctx, session.Token)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.ExpiresAt.Before(session.ExpiresAt) {
		t.Fatalf("refresh moved expiry backwards: %v -> %v", session.ExpiresAt, refreshed.ExpiresAt)
	}

	if _, err := uc.Refresh(ctx, "unknown-token"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound for unknown token, got %v", err)
	}
}
