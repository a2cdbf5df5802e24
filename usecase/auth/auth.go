package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hybridui/suite/domain"
	"github.com/hybridui/suite/repository"
)

// UseCase implements the session lifecycle: create on login, sliding-window
// validate, explicit refresh and idempotent logout.
//
// Failure semantics are deliberately asymmetric: Login and Create fail closed
// (no confirmed session record, no session), while Logout swallows store
// errors so a user can always reach the logged-out state. Validate surfaces
// store errors to the transport layer, where clients treat them as fail-open.
type UseCase struct {
	credentials    repository.CredentialRepository
	sessions       repository.SessionRepository
	providerTokens repository.ProviderTokenRepository
	ttl            time.Duration
	logger         *zap.Logger
}

func New(
	credentials repository.CredentialRepository,
	sessions repository.SessionRepository,
	providerTokens repository.ProviderTokenRepository,
	ttl time.Duration,
	logger *zap.Logger,
) *UseCase {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		credentials:    credentials,
		sessions:       sessions,
		providerTokens: providerTokens,
		ttl:            ttl,
		logger:         logger,
	}
}

// TTL exposes the configured session lifetime for collaborators that store
// companion records (provider tokens) with the same expiry.
func (uc *UseCase) TTL() time.Duration {
	return uc.ttl
}

// Login authenticates a local user and mints a session.
func (uc *UseCase) Login(ctx context.Context, username, password string) (*domain.Session, error) {
	if username == "" || password == "" {
		return nil, domain.ErrInvalidPayload
	}

	profile, err := uc.credentials.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}

	return uc.Create(ctx, *profile)
}

// Create mints a session for an already-authenticated profile. Used directly
// by the federated callback, where the identity provider did the verifying.
func (uc *UseCase) Create(ctx context.Context, profile domain.UserProfile) (*domain.Session, error) {
	now := time.Now()
	session := &domain.Session{
		Token:     uuid.NewString(),
		User:      profile,
		CreatedAt: now,
		ExpiresAt: now.Add(uc.ttl),
	}

	if err := uc.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	uc.logger.Info("session created",
		zap.String("username", profile.Username),
		zap.String("token_prefix", tokenPrefix(session.Token)))
	return session, nil
}

// Validate checks a token and, when valid, slides the expiry window to
// now + TTL. Checking and renewing are conflated on purpose here; callers
// that must not extend the session have no way to express that.
func (uc *UseCase) Validate(ctx context.Context, token string) (*domain.Session, error) {
	if token == "" {
		// Short-circuit: never contact the store for an empty token.
		return nil, domain.ErrSessionNotFound
	}
	return uc.sessions.Touch(ctx, token, uc.ttl)
}

// Refresh explicitly extends a session's TTL.
func (uc *UseCase) Refresh(ctx context.Context, token string) (*domain.Session, error) {
	if token == "" {
		return nil, domain.ErrSessionNotFound
	}
	session, err := uc.sessions.Touch(ctx, token, uc.ttl)
	if err != nil {
		return nil, err
	}
	uc.logger.Info("session refreshed", zap.String("token_prefix", tokenPrefix(token)))
	return session, nil
}

// AttachProviderTokens stores the identity provider's tokens alongside a
// session, with the same lifetime, so logout can revoke them together.
func (uc *UseCase) AttachProviderTokens(ctx context.Context, sessionToken string, tokens domain.ProviderTokens) error {
	if uc.providerTokens == nil || sessionToken == "" {
		return nil
	}
	return uc.providerTokens.Save(ctx, sessionToken, &tokens, uc.ttl)
}

// Logout invalidates a session. It is idempotent and never fails from the
// caller's perspective: unknown tokens and store errors alike end in the
// logged-out state, with failures only logged.
func (uc *UseCase) Logout(ctx context.Context, token string) {
	if token == "" {
		return
	}

	if err := uc.sessions.Delete(ctx, token); err != nil {
		uc.logger.Warn("session delete failed during logout",
			zap.String("token_prefix", tokenPrefix(token)), zap.Error(err))
	} else {
		uc.logger.Info("session invalidated", zap.String("token_prefix", tokenPrefix(token)))
	}

	if uc.providerTokens != nil {
		if err := uc.providerTokens.Delete(ctx, token); err != nil {
			uc.logger.Warn("provider token cleanup failed", zap.Error(err))
		}
	}
}

func tokenPrefix(token string) string {
	if len(token) <= 8 {
		return token
	}
	return token[:8]
}
