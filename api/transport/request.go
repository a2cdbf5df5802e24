package transport

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenRequest carries the session token for validate, logout and refresh.
type TokenRequest struct {
	SessionToken string `json:"sessionToken"`
}
