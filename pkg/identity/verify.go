package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/httprc/v3"
	"github.com/lestrrat-go/jwx/v3/jwk"

	"github.com/veracity/veracity-sdk-go/pkg/networking"
)

// providerMetadata is the slice of the OpenID configuration document
// verification needs.
type providerMetadata struct {
	Issuer  string `json:"issuer"`
	JWKSURI string `json:"jwks_uri"`
}

// VerifierConfig configures a TokenVerifier.
type VerifierConfig struct {
	// Audience, when set, must appear in the token's aud claim.
	Audience string

	// Tenant and Policy override the directory and sign-in policy the
	// metadata is fetched for.
	Tenant string
	Policy string

	// UserMetadataURL and AppMetadataURL override metadata discovery.
	UserMetadataURL string
	AppMetadataURL  string

	// HTTPClient overrides the client used to fetch metadata and keys.
	HTTPClient *http.Client
}

// TokenVerifier validates Veracity-issued JWTs against the platform's
// published signing keys. User tokens are checked against the sign-in
// policy's metadata; application tokens, recognized by their appid
// claim, against the Microsoft-hosted metadata.
type TokenVerifier struct {
	audience    string
	userMetaURL string
	appMetaURL  string
	client      *http.Client
	cache       *jwk.Cache

	mu       sync.Mutex
	metadata map[string]*providerMetadata
}

// NewTokenVerifier creates a token verifier. The context governs the
// lifetime of the background key cache.
func NewTokenVerifier(ctx context.Context, config *VerifierConfig) (*TokenVerifier, error) {
	if config == nil {
		config = &VerifierConfig{}
	}
	client := config.HTTPClient
	if client == nil {
		client = networking.DefaultClient()
	}

	cache, err := jwk.NewCache(ctx, httprc.NewClient(httprc.WithHTTPClient(client)))
	if err != nil {
		return nil, fmt.Errorf("failed to create JWKS cache: %w", err)
	}

	authority := NewAuthority(config.Tenant, config.Policy)
	userMetaURL := config.UserMetadataURL
	if userMetaURL == "" {
		userMetaURL = authority.UserMetadataURL()
	}
	appMetaURL := config.AppMetadataURL
	if appMetaURL == "" {
		appMetaURL = authority.AppMetadataURL()
	}

	return &TokenVerifier{
		audience:    config.Audience,
		userMetaURL: userMetaURL,
		appMetaURL:  appMetaURL,
		client:      client,
		cache:       cache,
		metadata:    make(map[string]*providerMetadata),
	}, nil
}

// VerifyToken checks the token's signature against the issuer's
// published keys and validates its issuer, audience and expiry,
// returning the verified claims.
func (v *TokenVerifier) VerifyToken(ctx context.Context, tokenString string) (jwt.MapClaims, error) {
	unverified, err := extractClaims(tokenString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	// Application tokens carry an appid claim and are issued by the
	// Microsoft-hosted endpoints; user tokens by the policy authority.
	metaURL := v.userMetaURL
	if _, ok := unverified["appid"]; ok {
		metaURL = v.appMetaURL
	}

	meta, err := v.lookupMetadata(ctx, metaURL)
	if err != nil {
		return nil, err
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		return v.keyFromJWKS(ctx, meta.JWKSURI, token)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("failed to get claims from token")
	}
	if err := v.validateClaims(claims, meta.Issuer); err != nil {
		return nil, err
	}
	return claims, nil
}

// lookupMetadata fetches and caches a provider metadata document,
// registering its JWKS URL with the key cache on first use.
func (v *TokenVerifier) lookupMetadata(ctx context.Context, metaURL string) (*providerMetadata, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if meta, ok := v.metadata[metaURL]; ok {
		return meta, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, metaURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build metadata request: %w", err)
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch provider metadata: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &networking.HTTPError{
			StatusCode: resp.StatusCode,
			URL:        metaURL,
			Message:    "failed to fetch provider metadata",
			Body:       body,
			Header:     resp.Header,
		}
	}

	var meta providerMetadata
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return nil, fmt.Errorf("failed to decode provider metadata: %w", err)
	}
	if meta.JWKSURI == "" {
		return nil, fmt.Errorf("provider metadata at %s has no jwks_uri", metaURL)
	}

	registerCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := v.cache.Register(registerCtx, meta.JWKSURI); err != nil {
		return nil, fmt.Errorf("failed to register JWKS URL: %w", err)
	}

	v.metadata[metaURL] = &meta
	return &meta, nil
}

// keyFromJWKS resolves the signing key named by the token header.
func (v *TokenVerifier) keyFromJWKS(ctx context.Context, jwksURL string, token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}

	kid, ok := token.Header["kid"].(string)
	if !ok {
		return nil, errors.New("token header missing kid")
	}

	keySet, err := v.cache.Lookup(ctx, jwksURL)
	if err != nil {
		return nil, fmt.Errorf("failed to lookup JWKS: %w", err)
	}

	key, found := keySet.LookupKeyID(kid)
	if !found {
		return nil, fmt.Errorf("key ID %s not found in JWKS", kid)
	}

	var rawKey any
	if err := jwk.Export(key, &rawKey); err != nil {
		return nil, fmt.Errorf("failed to export signing key: %w", err)
	}
	return rawKey, nil
}

// validateClaims checks issuer, audience and expiry.
func (v *TokenVerifier) validateClaims(claims jwt.MapClaims, issuer string) error {
	issuerClaim, err := claims.GetIssuer()
	if err != nil {
		return fmt.Errorf("failed to get issuer from claims: %w", err)
	}
	if strings.TrimSpace(issuerClaim) != strings.TrimSpace(issuer) {
		return ErrInvalidIssuer
	}

	if v.audience != "" {
		audiences, err := claims.GetAudience()
		if err != nil {
			return ErrInvalidAudience
		}
		found := false
		for _, aud := range audiences {
			if aud == v.audience {
				found = true
				break
			}
		}
		if !found {
			return ErrInvalidAudience
		}
	}

	expiry, err := claims.GetExpirationTime()
	if err != nil || expiry == nil || expiry.Before(time.Now()) {
		return ErrTokenExpired
	}
	return nil
}
