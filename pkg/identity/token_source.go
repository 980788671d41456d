package identity

import (
	"context"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/veracity/veracity-sdk-go/pkg/logger"
)

// TokenSource adapts a Credential into an oauth2.TokenSource so it can
// drive standard HTTP transports. Tokens are reused until they expire.
func TokenSource(ctx context.Context, cred Credential, scopes ...string) oauth2.TokenSource {
	return oauth2.ReuseTokenSource(nil, &credentialSource{ctx: ctx, cred: cred, scopes: scopes})
}

type credentialSource struct {
	ctx    context.Context
	cred   Credential
	scopes []string
}

func (s *credentialSource) Token() (*oauth2.Token, error) {
	tok, err := s.cred.GetToken(s.ctx, s.scopes...)
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{
		AccessToken:  tok.AccessToken,
		TokenType:    tok.TokenType,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
	}, nil
}

// TokenPersister is called when a token source obtains a new refresh
// token, so it can be stored for future sessions.
type TokenPersister func(refreshToken string, expiry time.Time) error

// PersistingTokenSource wraps a token source and hands refresh-token
// rotations to a persister. Persistence failures are logged, not fatal:
// the token still works for the current session.
type PersistingTokenSource struct {
	source  oauth2.TokenSource
	persist TokenPersister

	mu        sync.Mutex
	lastSaved string
}

// NewPersistingTokenSource wraps source so new refresh tokens are
// handed to persist.
func NewPersistingTokenSource(source oauth2.TokenSource, persist TokenPersister) *PersistingTokenSource {
	return &PersistingTokenSource{source: source, persist: persist}
}

// Token implements oauth2.TokenSource.
func (s *PersistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.source.Token()
	if err != nil {
		return nil, err
	}

	if tok.RefreshToken == "" || s.persist == nil {
		return tok, nil
	}

	s.mu.Lock()
	changed := tok.RefreshToken != s.lastSaved
	if changed {
		s.lastSaved = tok.RefreshToken
	}
	s.mu.Unlock()

	if changed {
		if err := s.persist(tok.RefreshToken, tok.Expiry); err != nil {
			logger.Warnf("Failed to persist refresh token: %v", err)
		}
	}
	return tok, nil
}
