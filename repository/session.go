package repository

import (
	"context"
	"time"

	"github.com/hybridui/suite/domain"
)

// SessionRepository is the only access path to session records. Touch
// implements the sliding expiry window: it re-persists the record with
// expiresAt = now + ttl and returns the updated record.
type SessionRepository interface {
	Get(ctx context.Context, token string) (*domain.Session, error)
	Save(ctx context.Context, session *domain.Session) error
	Delete(ctx context.Context, token string) error
	Touch(ctx context.Context, token string, ttl time.Duration) (*domain.Session, error)
}

// ProviderTokenRepository stores federated provider tokens keyed by session
// token, expiring together with the session.
type ProviderTokenRepository interface {
	Get(ctx context.Context, sessionToken string) (*domain.ProviderTokens, error)
	Save(ctx context.Context, sessionToken string, tokens *domain.ProviderTokens, ttl time.Duration) error
	Delete(ctx context.Context, sessionToken string) error
}
