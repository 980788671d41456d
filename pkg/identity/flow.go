package identity

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"

	"golang.org/x/oauth2"
)

// AuthCodeFlow is a pending browser sign-in. It carries what the
// completion leg needs: the state tying the redirect back to this flow
// and the PKCE verifier for the code exchange.
type AuthCodeFlow struct {
	// AuthURI is the authorization URL to send the user to.
	AuthURI string

	// State is the anti-forgery value the redirect must echo back.
	State string

	// Nonce binds the ID token to this flow.
	Nonce string

	// RedirectURI is where the authority sends the user back.
	RedirectURI string

	config   *oauth2.Config
	verifier string
	policy   []oauth2.AuthCodeOption
}

// randomToken generates an unguessable URL-safe value.
func randomToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// pkceParams generates a PKCE code verifier and its S256 challenge
// (RFC 7636).
func pkceParams() (verifier, challenge string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	verifier = base64.RawURLEncoding.EncodeToString(buf)

	hash := sha256.Sum256([]byte(verifier))
	challenge = base64.RawURLEncoding.EncodeToString(hash[:])
	return verifier, challenge, nil
}
