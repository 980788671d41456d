package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// ClientSecretConfig configures a ClientSecretCredential.
type ClientSecretConfig struct {
	// ClientID is the application (client) ID.
	ClientID string

	// ClientSecret authenticates the application.
	ClientSecret string

	// Resource requests a legacy v1 access token for the given resource
	// URI instead of v2 .default scopes. Service APIs predating the v2
	// endpoints still need this.
	Resource string

	// Tenant overrides the directory tokens are requested from.
	Tenant string

	// TokenURL overrides the token endpoint.
	TokenURL string

	// HTTPClient overrides the client used for token requests.
	HTTPClient *http.Client
}

// ClientSecretCredential authenticates as a service application using
// the OAuth2 client-credential grant. Unlike interactive sign-in the
// grant never moved to login.veracity.com; it always goes through the
// Microsoft-hosted endpoints. It implements Credential.
type ClientSecretCredential struct {
	clientID     string
	clientSecret string
	resource     string
	authority    *Authority
	tokenURL     string
	httpClient   *http.Client
}

// NewClientSecretCredential creates a credential for a service
// application.
func NewClientSecretCredential(config *ClientSecretConfig) (*ClientSecretCredential, error) {
	if config == nil {
		return nil, errors.New("config cannot be nil")
	}
	if config.ClientID == "" {
		return nil, errors.New("client ID is required")
	}
	if config.ClientSecret == "" {
		return nil, errors.New("client secret is required")
	}

	return &ClientSecretCredential{
		clientID:     config.ClientID,
		clientSecret: config.ClientSecret,
		resource:     config.Resource,
		authority:    NewAuthority(config.Tenant, ""),
		tokenURL:     config.TokenURL,
		httpClient:   config.HTTPClient,
	}, nil
}

// GetToken acquires an application token for the given scopes. When a
// legacy resource is configured the request goes to the v1 endpoint
// with a resource parameter and no scopes.
func (c *ClientSecretCredential) GetToken(ctx context.Context, scopes ...string) (*Token, error) {
	conf := &clientcredentials.Config{
		ClientID:     c.clientID,
		ClientSecret: c.clientSecret,
	}

	if c.resource != "" {
		conf.TokenURL = c.authority.legacyTokenURL()
		conf.EndpointParams = url.Values{"resource": {c.resource}}
	} else {
		conf.TokenURL = c.authority.clientTokenURL()
		conf.Scopes = ExpandScopes(scopes, false)
	}
	if c.tokenURL != "" {
		conf.TokenURL = c.tokenURL
	}

	if c.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	}
	tok, err := conf.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("client credential grant failed: %w", err)
	}
	return newToken(tok), nil
}

// TokenSource returns an auto-refreshing token source backed by this
// credential.
func (c *ClientSecretCredential) TokenSource(ctx context.Context, scopes ...string) oauth2.TokenSource {
	return TokenSource(ctx, c, scopes...)
}
