package identity

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStore_FlowTakenOnce(t *testing.T) {
	t.Parallel()

	store := NewSessionStore()
	flow := &AuthCodeFlow{State: "state-1"}
	store.PutFlow(flow)

	got, ok := store.TakeFlow("state-1")
	require.True(t, ok)
	assert.Same(t, flow, got)

	// A replayed redirect finds nothing.
	_, ok = store.TakeFlow("state-1")
	assert.False(t, ok)
}

func TestSessionStore_UnknownState(t *testing.T) {
	t.Parallel()

	store := NewSessionStore()
	_, ok := store.TakeFlow("never-issued")
	assert.False(t, ok)
}

func TestSessionStore_Users(t *testing.T) {
	t.Parallel()

	store := NewSessionStore()
	claims := jwt.MapClaims{"sub": "user-123", "name": "Jane Doe"}

	store.PutUser("session-a", claims)

	got, ok := store.User("session-a")
	require.True(t, ok)
	assert.Equal(t, "user-123", got["sub"])

	_, ok = store.User("session-b")
	assert.False(t, ok)

	store.RemoveUser("session-a")
	_, ok = store.User("session-a")
	assert.False(t, ok)
}

func TestSessionStore_Isolation(t *testing.T) {
	t.Parallel()

	first := NewSessionStore()
	second := NewSessionStore()

	first.PutFlow(&AuthCodeFlow{State: "shared-state"})

	_, ok := second.TakeFlow("shared-state")
	assert.False(t, ok)
}
