package memory

import (
	"context"
	"sync"

	"github.com/hybridui/suite/domain"
	"github.com/hybridui/suite/repository"
)

type credentialRepository struct {
	mu    sync.RWMutex
	users map[string]domain.Credential
}

// NewCredentialRepository builds an in-memory credential set. This backs the
// demo logins when no database is configured.
func NewCredentialRepository(users []domain.Credential) repository.CredentialRepository {
	byName := make(map[string]domain.Credential, len(users))
	for _, u := range users {
		byName[u.Username] = u
	}
	return &credentialRepository{users: byName}
}

func (r *credentialRepository) Authenticate(ctx context.Context, username, password string) (*domain.UserProfile, error) {
	r.mu.RLock()
	cred, ok := r.users[username]
	r.mu.RUnlock()

	if !ok || cred.Password != password {
		return nil, domain.ErrInvalidCredentials
	}

	return &domain.UserProfile{
		Username:     username,
		Email:        cred.Email,
		Role:         cred.Role,
		AuthProvider: domain.ProviderLocal,
	}, nil
}
