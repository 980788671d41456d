package identity

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"github.com/veracity/veracity-sdk-go/pkg/logger"
)

// Token is a set of credentials issued by the Veracity authority.
type Token struct {
	// TokenType is normally "Bearer".
	TokenType string

	// AccessToken authorizes API calls.
	AccessToken string

	// RefreshToken, when present, can mint new access tokens without
	// user interaction.
	RefreshToken string

	// IDToken is the OIDC identity token, if one was issued.
	IDToken string

	// Expiry is when the access token stops being accepted.
	Expiry time.Time

	// Claims are the unverified claims read from the ID token, or from
	// the access token when no ID token is present. Use a TokenVerifier
	// before trusting them.
	Claims jwt.MapClaims
}

// Credential mints tokens for the Veracity APIs. Scope aliases
// (veracity, veracity_service, veracity_datafabric) are expanded by the
// credential.
type Credential interface {
	GetToken(ctx context.Context, scopes ...string) (*Token, error)
}

// newToken converts an oauth2 token, pulling out the ID token and any
// claims readable without verification.
func newToken(tok *oauth2.Token) *Token {
	result := &Token{
		TokenType:    tok.TokenType,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
	}

	if idToken, ok := tok.Extra("id_token").(string); ok && idToken != "" {
		result.IDToken = idToken
		claims, err := extractClaims(idToken)
		if err != nil {
			logger.Debugf("Could not extract claims from ID token: %v", err)
			return result
		}
		result.Claims = claims
		return result
	}

	if claims, err := extractClaims(tok.AccessToken); err == nil {
		result.Claims = claims
	}
	return result
}

// extractClaims parses a JWT without verifying it.
func extractClaims(tokenString string) (jwt.MapClaims, error) {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	token, _, err := parser.ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("failed to extract claims from token")
	}
	return claims, nil
}

// TokenSourceCredential adapts an oauth2.TokenSource into a
// Credential, for callers that already hold a source, such as one
// rebuilt from a persisted refresh token.
type TokenSourceCredential struct {
	source oauth2.TokenSource
}

// NewTokenSourceCredential wraps an oauth2.TokenSource in a Credential.
func NewTokenSourceCredential(source oauth2.TokenSource) *TokenSourceCredential {
	return &TokenSourceCredential{source: source}
}

// GetToken draws a token from the source. The scopes are ignored; the
// source was built with its scopes fixed.
func (c *TokenSourceCredential) GetToken(_ context.Context, _ ...string) (*Token, error) {
	tok, err := c.source.Token()
	if err != nil {
		return nil, err
	}
	return newToken(tok), nil
}

// StaticTokenCredential serves a bearer token acquired elsewhere, for
// callers that already hold one (a web session, a CI secret).
type StaticTokenCredential struct {
	token string
}

// NewStaticTokenCredential wraps an existing bearer token in a
// Credential.
func NewStaticTokenCredential(token string) *StaticTokenCredential {
	return &StaticTokenCredential{token: token}
}

// GetToken returns the wrapped token. The scopes are ignored; whoever
// issued the token fixed its audience already.
func (c *StaticTokenCredential) GetToken(_ context.Context, _ ...string) (*Token, error) {
	tok := &Token{TokenType: "Bearer", AccessToken: c.token}
	if claims, err := extractClaims(c.token); err == nil {
		tok.Claims = claims
	}
	return tok, nil
}
