// Package transfer implements the cross-origin session handoff. Browser
// storage is origin-scoped, so the only channel every participating origin
// can read is the URL: outbound navigation appends the session token and the
// serialized user profile as query parameters, and the destination adopts
// them on arrival.
//
// Anyone able to observe the URL obtains the full session. Short TTLs, HTTPS
// and referrer policy bound that exposure; they are deployment concerns, not
// handled here.
package transfer

import (
	"encoding/json"
	"net/url"
	"strings"

	"github.com/hybridui/suite/domain"
)

// Query parameter names shared by every origin.
const (
	ParamToken = "sessionToken"
	ParamUser  = "user"
)

// Encode produces the query fragment carrying a session:
// sessionToken=<token>&user=<percent-encoded JSON>.
func Encode(token string, user domain.UserProfile) string {
	payload, err := json.Marshal(user)
	if err != nil {
		return ""
	}
	values := url.Values{}
	values.Set(ParamToken, token)
	values.Set(ParamUser, string(payload))
	return values.Encode()
}

// BuildURL appends the session parameters to target, respecting any query
// string already present.
func BuildURL(target, token string, user domain.UserProfile) string {
	encoded := Encode(token, user)
	if encoded == "" {
		return target
	}
	separator := "?"
	if strings.Contains(target, "?") {
		separator = "&"
	}
	return target + separator + encoded
}

// Decode extracts a session handoff from parsed query values. It returns
// ok=false when either parameter is absent or the user payload does not
// parse; callers log and fall back to the unauthenticated path.
func Decode(values url.Values) (token string, user domain.UserProfile, ok bool) {
	token = values.Get(ParamToken)
	rawUser := values.Get(ParamUser)
	if token == "" || rawUser == "" {
		return "", domain.UserProfile{}, false
	}
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		return "", domain.UserProfile{}, false
	}
	if user.Username == "" {
		return "", domain.UserProfile{}, false
	}
	return token, user, true
}

// Strip removes the session parameters from rawURL so they do not survive
// into browser history. The stripped URL is what the destination redirects
// to immediately after adopting the session.
func Strip(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	values := parsed.Query()
	values.Del(ParamToken)
	values.Del(ParamUser)
	parsed.RawQuery = values.Encode()
	return parsed.String()
}
