package repository

import (
	"context"

	"github.com/hybridui/suite/domain"
)

// CredentialRepository authenticates local username/password logins and
// returns the profile to embed in the session. Implementations must return
// domain.ErrInvalidCredentials for unknown users and wrong passwords alike.
type CredentialRepository interface {
	Authenticate(ctx context.Context, username, password string) (*domain.UserProfile, error)
}
