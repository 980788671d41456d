package identity

import (
	"errors"
	"fmt"
)

// Errors returned by the interactive sign-in flow.
var (
	// ErrListenerStart means the local listener for the sign-in
	// redirect could not be started, usually because the port named by
	// the redirect URI is taken.
	ErrListenerStart = errors.New("could not start the local listener for the sign-in redirect")

	// ErrBrowserLaunch means the system browser could not be opened.
	ErrBrowserLaunch = errors.New("failed to open the system web browser")

	// ErrRedirectTimeout means the user did not finish signing in
	// before the configured timeout.
	ErrRedirectTimeout = errors.New("timed out waiting for the user to authenticate")

	// ErrStateMismatch means the redirect carried a state value that
	// does not match the pending sign-in. The redirect is discarded.
	ErrStateMismatch = errors.New("state parameter does not match the pending sign-in")

	// ErrMissingCode means the redirect carried neither an
	// authorization code nor an error from the provider.
	ErrMissingCode = errors.New("sign-in response is missing the authorization code")
)

// Errors returned by token verification.
var (
	ErrTokenExpired    = errors.New("token expired")
	ErrInvalidIssuer   = errors.New("invalid issuer")
	ErrInvalidAudience = errors.New("invalid audience")
)

// AuthorizationError is the error the identity provider sent on the
// sign-in redirect instead of an authorization code.
type AuthorizationError struct {
	// Code is the RFC 6749 error identifier, e.g. "access_denied".
	Code string

	// Description is the provider's human-readable detail, if any.
	Description string
}

func (e *AuthorizationError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("authentication failed: %s: %s", e.Code, e.Description)
	}
	return fmt.Sprintf("authentication failed: %s", e.Code)
}
