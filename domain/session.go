package domain

import "time"

// Session is a server-side session record. The session store is the sole
// source of truth for validity; origin-local copies are caches that must be
// reconciled against it.
type Session struct {
	Token     string      `json:"token"`
	User      UserProfile `json:"user"`
	CreatedAt time.Time   `json:"createdAt"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

func (s *Session) IsExpired(reference time.Time) bool {
	if s == nil {
		return true
	}
	if reference.IsZero() {
		reference = time.Now()
	}
	return !s.ExpiresAt.After(reference)
}

// ProviderTokens holds tokens issued by a federated identity provider. They
// are stored keyed by session token with the same lifetime as the session.
type ProviderTokens struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	ExpiresOn    time.Time `json:"expiresOn"`
}
