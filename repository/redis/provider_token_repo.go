package redis

import (
	"context"
	"encoding/json"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/hybridui/suite/domain"
	"github.com/hybridui/suite/repository"
)

const providerTokenPrefix = "providertoken:"

type providerTokenRepository struct {
	client *redislib.Client
}

// NewProviderTokenRepository stores federated provider tokens keyed by the
// session token they belong to.
func NewProviderTokenRepository(client *redislib.Client) repository.ProviderTokenRepository {
	return &providerTokenRepository{client: client}
}

func (r *providerTokenRepository) Get(ctx context.Context, sessionToken string) (*domain.ProviderTokens, error) {
	result, err := r.client.Get(ctx, providerTokenPrefix+sessionToken).Result()
	if err != nil {
		if err == redislib.Nil {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}

	var tokens domain.ProviderTokens
	if err := json.Unmarshal([]byte(result), &tokens); err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "corrupt provider token record", err)
	}
	return &tokens, nil
}

func (r *providerTokenRepository) Save(ctx context.Context, sessionToken string, tokens *domain.ProviderTokens, ttl time.Duration) error {
	if sessionToken == "" || tokens == nil {
		return domain.ErrInvalidPayload
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}

	payload, err := json.Marshal(tokens)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, providerTokenPrefix+sessionToken, payload, ttl).Err()
}

func (r *providerTokenRepository) Delete(ctx context.Context, sessionToken string) error {
	return r.client.Del(ctx, providerTokenPrefix+sessionToken).Err()
}
