package domain

// Auth provider variants. Local is the username/password mock credential set;
// federated logins carry the provider name that produced the profile.
const (
	ProviderLocal   = "local"
	ProviderAzureAD = "azuread"
)

// UserProfile is the identity tuple carried inside a session. DisplayName and
// AuthProvider are optional; an empty AuthProvider means ProviderLocal.
type UserProfile struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	DisplayName  string `json:"displayName,omitempty"`
	AuthProvider string `json:"authProvider,omitempty"`
}

func (u UserProfile) Provider() string {
	if u.AuthProvider == "" {
		return ProviderLocal
	}
	return u.AuthProvider
}

// Credential is a stored login secret for a local user. PasswordHash is a
// bcrypt hash when the credential comes from Postgres; the in-memory
// repository keeps plain demo passwords instead.
type Credential struct {
	Username     string
	Password     string
	PasswordHash string
	Email        string
	Role         string
}
