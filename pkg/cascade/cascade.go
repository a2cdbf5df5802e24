// Package cascade models the multi-origin logout sequence. There is no
// coordinator process: progress is threaded through redirect URLs as a
// pipe-delimited list of origins that have already cleared their local
// session state. Each hop appends itself and redirects to the next member
// that has not been visited, until every participant is covered.
package cascade

import "strings"

// Query parameter names shared by every origin.
const (
	ParamLogout = "logout"
	ParamFrom   = "from"

	// FromSeparator joins visited origin names inside the from parameter.
	FromSeparator = "|"
)

// State is the cascade progress carried in a redirect URL: the ordered list
// of origins that have already processed the logout.
type State struct {
	Visited []string
}

// ParseFrom decodes a from parameter ("crm|frontdoor") into cascade state.
// An empty value is a fresh cascade.
func ParseFrom(raw string) State {
	if raw == "" {
		return State{}
	}
	var visited []string
	for _, name := range strings.Split(raw, FromSeparator) {
		if name != "" {
			visited = append(visited, name)
		}
	}
	return State{Visited: visited}
}

// Format encodes the state back into the from parameter value.
func (s State) Format() string {
	return strings.Join(s.Visited, FromSeparator)
}

// Has reports whether origin already processed this cascade.
func (s State) Has(origin string) bool {
	for _, v := range s.Visited {
		if v == origin {
			return true
		}
	}
	return false
}

// Append marks origin as processed. Appending an already-visited origin is
// a no-op, which keeps hops idempotent under concurrent tabs replaying the
// same URL.
func (s State) Append(origin string) State {
	if origin == "" || s.Has(origin) {
		return s
	}
	visited := make([]string, 0, len(s.Visited)+1)
	visited = append(visited, s.Visited...)
	visited = append(visited, origin)
	return State{Visited: visited}
}

// NextHop returns the first member, in configured order, that has not been
// visited. ok=false means the cascade is complete. Members already in the
// visited list are never returned.
func NextHop(members []string, s State) (string, bool) {
	for _, m := range members {
		if !s.Has(m) {
			return m, true
		}
	}
	return "", false
}

// IsComplete reports whether every member has been visited.
func IsComplete(members []string, s State) bool {
	_, more := NextHop(members, s)
	return !more
}
