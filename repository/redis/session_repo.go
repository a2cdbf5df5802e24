package redis

import (
	"context"
	"encoding/json"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/hybridui/suite/domain"
	"github.com/hybridui/suite/repository"
)

const sessionPrefix = "session:"

type sessionRepository struct {
	client *redislib.Client
	ttl    time.Duration
}

// NewSessionRepository creates a Redis-backed session repository. The ttl is
// the fallback lifetime used when a record carries no usable expiry.
func NewSessionRepository(client *redislib.Client, ttl time.Duration) repository.SessionRepository {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &sessionRepository{
		client: client,
		ttl:    ttl,
	}
}

func (r *sessionRepository) Get(ctx context.Context, token string) (*domain.Session, error) {
	result, err := r.client.Get(ctx, sessionPrefix+token).Result()
	if err != nil {
		if err == redislib.Nil {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}

	var session domain.Session
	if err := json.Unmarshal([]byte(result), &session); err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "corrupt session record", err)
	}
	return &session, nil
}

func (r *sessionRepository) Save(ctx context.Context, session *domain.Session) error {
	if session == nil || session.Token == "" {
		return domain.ErrInvalidPayload
	}

	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	if !session.ExpiresAt.After(session.CreatedAt) {
		session.ExpiresAt = session.CreatedAt.Add(r.ttl)
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		ttl = r.ttl
	}

	return r.client.Set(ctx, sessionPrefix+session.Token, payload, ttl).Err()
}

// Delete is idempotent: removing an absent token is not an error.
func (r *sessionRepository) Delete(ctx context.Context, token string) error {
	return r.client.Del(ctx, sessionPrefix+token).Err()
}

// Touch slides the expiry window: the record is re-persisted with
// expiresAt = now + ttl. Last-writer-wins is fine here since concurrent
// touches all agree on the same relative extension.
func (r *sessionRepository) Touch(ctx context.Context, token string, ttl time.Duration) (*domain.Session, error) {
	if ttl <= 0 {
		ttl = r.ttl
	}

	session, err := r.Get(ctx, token)
	if err != nil {
		return nil, err
	}

	session.ExpiresAt = time.Now().Add(ttl)

	payload, err := json.Marshal(session)
	if err != nil {
		return nil, err
	}
	if err := r.client.Set(ctx, sessionPrefix+token, payload, ttl).Err(); err != nil {
		return nil, err
	}
	return session, nil
}
