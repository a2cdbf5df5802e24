package transport

import (
	"time"

	"github.com/hybridui/suite/domain"
)

// Response shapes mirror what the browser apps consume; field names are part
// of the cross-origin contract and must not drift.

type LoginResponse struct {
	SessionToken string             `json:"sessionToken"`
	User         domain.UserProfile `json:"user"`
	ExpiresAt    time.Time          `json:"expiresAt"`
}

type ValidateResponse struct {
	Valid     bool                `json:"valid"`
	User      *domain.UserProfile `json:"user,omitempty"`
	ExpiresAt *time.Time          `json:"expiresAt,omitempty"`
	Error     string              `json:"error,omitempty"`
}

type LogoutResponse struct {
	Success bool `json:"success"`
}

type RefreshResponse struct {
	SessionToken string    `json:"sessionToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

func NewValidateSuccess(user domain.UserProfile, expiresAt time.Time) ValidateResponse {
	return ValidateResponse{Valid: true, User: &user, ExpiresAt: &expiresAt}
}

func NewValidateFailure() ValidateResponse {
	return ValidateResponse{Valid: false}
}
