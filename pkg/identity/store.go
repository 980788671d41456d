package identity

import (
	"sync"

	"github.com/golang-jwt/jwt/v5"
)

// SessionStore tracks pending sign-in flows and the users that
// completed them. State is scoped to the store instance, so separate
// applications sharing a process never observe each other's sessions.
// Safe for concurrent use.
type SessionStore struct {
	mu    sync.Mutex
	flows map[string]*AuthCodeFlow
	users map[string]jwt.MapClaims
}

// NewSessionStore creates an empty session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		flows: make(map[string]*AuthCodeFlow),
		users: make(map[string]jwt.MapClaims),
	}
}

// PutFlow stashes a pending flow, keyed by its state value.
func (s *SessionStore) PutFlow(flow *AuthCodeFlow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flows[flow.State] = flow
}

// TakeFlow removes and returns the pending flow for a state. A flow can
// be taken exactly once, so a replayed redirect finds nothing.
func (s *SessionStore) TakeFlow(state string) (*AuthCodeFlow, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	flow, ok := s.flows[state]
	if ok {
		delete(s.flows, state)
	}
	return flow, ok
}

// PutUser records a signed-in user's verified claims under a session
// identifier of the application's choosing.
func (s *SessionStore) PutUser(id string, claims jwt.MapClaims) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id] = claims
}

// User returns the verified claims recorded for a session.
func (s *SessionStore) User(id string) (jwt.MapClaims, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	claims, ok := s.users[id]
	return claims, ok
}

// RemoveUser forgets a session.
func (s *SessionStore) RemoveUser(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
}
