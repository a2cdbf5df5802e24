package cascade

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormatRoundTrip(t *testing.T) {
	state := ParseFrom("crm|frontdoor")
	assert.Equal(t, []string{"crm", "frontdoor"}, state.Visited)
	assert.Equal(t, "crm|frontdoor", state.Format())

	assert.Empty(t, ParseFrom("").Visited)
	assert.Equal(t, []string{"crm"}, ParseFrom("|crm|").Visited)
}

func TestAppendIsIdempotent(t *testing.T) {
	state := State{}.Append("crm")
	assert.Equal(t, []string{"crm"}, state.Visited)

	same := state.Append("crm")
	assert.Equal(t, []string{"crm"}, same.Visited)

	grown := state.Append("revenue")
	assert.Equal(t, []string{"crm", "revenue"}, grown.Visited)
	// The original state is unchanged; hops never share mutable state.
	assert.Equal(t, []string{"crm"}, state.Visited)
}

func TestNextHopSkipsVisited(t *testing.T) {
	members := []string{"frontdoor", "crm", "revenue"}

	hop, ok := NextHop(members, State{})
	require.True(t, ok)
	assert.Equal(t, "frontdoor", hop)

	hop, ok = NextHop(members, ParseFrom("frontdoor|crm"))
	require.True(t, ok)
	assert.Equal(t, "revenue", hop)

	_, ok = NextHop(members, ParseFrom("frontdoor|crm|revenue"))
	assert.False(t, ok)
}

func TestCascadeTerminatesInExactlyNHops(t *testing.T) {
	members := []string{"frontdoor", "crm", "revenue", "billing"}

	state := State{}
	hops := 0
	for {
		hop, ok := NextHop(members, state)
		if !ok {
			break
		}
		assert.False(t, state.Has(hop), "NextHop returned an already-visited origin")
		state = state.Append(hop)
		hops++
		require.LessOrEqual(t, hops, len(members), "cascade did not terminate")
	}

	assert.Equal(t, len(members), hops)
	assert.True(t, IsComplete(members, state))
}

func TestIsCompleteIgnoresStrayEntries(t *testing.T) {
	members := []string{"frontdoor", "crm"}

	// A stale origin name in the from list must not stall completion.
	state := ParseFrom("legacy|frontdoor|crm")
	assert.True(t, IsComplete(members, state))
}
