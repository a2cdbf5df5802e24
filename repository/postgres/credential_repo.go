package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/hybridui/suite/domain"
	"github.com/hybridui/suite/repository"
)

type credentialRepository struct {
	pool *pgxpool.Pool
}

// NewCredentialRepository instantiates a Postgres-backed credential
// repository. Passwords are stored as bcrypt hashes; the seed migration
// provisions the demo users.
func NewCredentialRepository(pool *pgxpool.Pool) repository.CredentialRepository {
	return &credentialRepository{pool: pool}
}

func (r *credentialRepository) Authenticate(ctx context.Context, username, password string) (*domain.UserProfile, error) {
	const query = `
		SELECT username, password_hash, email, role, display_name
		FROM users
		WHERE username = $1
	`
	row := r.pool.QueryRow(ctx, query, username)

	var cred domain.Credential
	var displayName string
	if err := row.Scan(&cred.Username, &cred.PasswordHash, &cred.Email, &cred.Role, &displayName); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	return &domain.UserProfile{
		Username:     cred.Username,
		Email:        cred.Email,
		Role:         cred.Role,
		DisplayName:  displayName,
		AuthProvider: domain.ProviderLocal,
	}, nil
}
