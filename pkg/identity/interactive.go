package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/browser"
	"golang.org/x/oauth2"

	"github.com/veracity/veracity-sdk-go/pkg/logger"
)

// DefaultSignInTimeout bounds the wait for the user to finish signing
// in through the browser.
const DefaultSignInTimeout = 30 * time.Second

// InteractiveConfig configures an InteractiveBrowserCredential.
type InteractiveConfig struct {
	// ClientID is the application (client) ID registered with Veracity.
	ClientID string

	// ClientSecret is the secret of a confidential web application.
	// Native applications leave it empty and rely on PKCE.
	ClientSecret string

	// RedirectURI must match a reply URL registered for the
	// application. Defaults to DefaultRedirectURI.
	RedirectURI string

	// Timeout bounds the wait for the user to finish signing in.
	// Defaults to DefaultSignInTimeout.
	Timeout time.Duration

	// Tenant overrides the B2C directory. Rarely needed.
	Tenant string

	// Policy overrides the sign-in policy. Rarely needed.
	Policy string

	// AuthURL and TokenURL override the authority endpoints; both must
	// be set together. When set, no policy routing parameters are
	// added.
	AuthURL  string
	TokenURL string

	// HTTPClient overrides the client used for the token exchange.
	HTTPClient *http.Client

	// OpenBrowser overrides how the sign-in URL is presented to the
	// user. Defaults to launching the system browser.
	OpenBrowser func(url string) error
}

// InteractiveBrowserCredential signs a user in through the system
// browser and mints delegated tokens. It implements Credential.
type InteractiveBrowserCredential struct {
	clientID     string
	clientSecret string
	redirectURI  string
	timeout      time.Duration
	authority    *Authority
	authURL      string
	tokenURL     string
	httpClient   *http.Client
	openBrowser  func(url string) error
}

// NewInteractiveBrowserCredential creates a credential that signs the
// user in through the system browser.
func NewInteractiveBrowserCredential(config *InteractiveConfig) (*InteractiveBrowserCredential, error) {
	if config == nil {
		return nil, errors.New("config cannot be nil")
	}
	if config.ClientID == "" {
		return nil, errors.New("client ID is required")
	}
	if (config.AuthURL == "") != (config.TokenURL == "") {
		return nil, errors.New("AuthURL and TokenURL must be set together")
	}

	cred := &InteractiveBrowserCredential{
		clientID:     config.ClientID,
		clientSecret: config.ClientSecret,
		redirectURI:  config.RedirectURI,
		timeout:      config.Timeout,
		authority:    NewAuthority(config.Tenant, config.Policy),
		authURL:      config.AuthURL,
		tokenURL:     config.TokenURL,
		httpClient:   config.HTTPClient,
		openBrowser:  config.OpenBrowser,
	}
	if cred.redirectURI == "" {
		cred.redirectURI = DefaultRedirectURI
	}
	if cred.timeout <= 0 {
		cred.timeout = DefaultSignInTimeout
	}
	if cred.openBrowser == nil {
		cred.openBrowser = browser.OpenURL
	}
	return cred, nil
}

// GetToken signs the user in through the system browser and returns the
// resulting token. It starts a local listener on the redirect URI,
// opens the browser at the authorization URL, and waits up to the
// configured timeout for the redirect to come back.
func (c *InteractiveBrowserCredential) GetToken(ctx context.Context, scopes ...string) (*Token, error) {
	listener, err := NewRedirectListener(c.redirectURI)
	if err != nil {
		return nil, err
	}
	defer listener.Close()

	flow, err := c.InitiateAuthCodeFlow(scopes...)
	if err != nil {
		return nil, err
	}

	logger.Debugf("Opening browser for sign-in: %s", flow.AuthURI)
	if err := c.openBrowser(flow.AuthURI); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrowserLaunch, err)
	}

	logger.Info("Waiting for sign-in to complete in the browser...")
	params, err := listener.Wait(ctx, c.timeout)
	if err != nil {
		return nil, err
	}

	return c.CompleteAuthCodeFlow(ctx, flow, params)
}

// InitiateAuthCodeFlow builds the authorization request for a sign-in
// without starting a listener or opening a browser. Web applications
// use it to redirect the user themselves, then feed the callback's
// query parameters to CompleteAuthCodeFlow.
func (c *InteractiveBrowserCredential) InitiateAuthCodeFlow(scopes ...string) (*AuthCodeFlow, error) {
	state, err := randomToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state: %w", err)
	}
	verifier, challenge, err := pkceParams()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PKCE parameters: %w", err)
	}

	requested := ExpandScopes(scopes, true)
	// openid and offline_access yield an ID token and a refresh token.
	requested = append(requested, "openid", "offline_access")

	oauthConfig := &oauth2.Config{
		ClientID:     c.clientID,
		ClientSecret: c.clientSecret,
		RedirectURL:  c.redirectURI,
		Scopes:       requested,
		Endpoint:     c.endpoint(),
	}

	policy := c.policyParams()
	nonce := uuid.NewString()

	opts := []oauth2.AuthCodeOption{
		oauth2.SetAuthURLParam("nonce", nonce),
		oauth2.SetAuthURLParam("client-request-id", uuid.NewString()),
		oauth2.SetAuthURLParam("code_challenge", challenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	}
	opts = append(opts, policy...)

	flow := &AuthCodeFlow{
		State:       state,
		Nonce:       nonce,
		RedirectURI: c.redirectURI,
		config:      oauthConfig,
		verifier:    verifier,
		policy:      policy,
	}
	flow.AuthURI = oauthConfig.AuthCodeURL(state, opts...)
	return flow, nil
}

// CompleteAuthCodeFlow exchanges the authorization code carried by the
// redirect parameters for a token. The parameters' state must match the
// flow's; a mismatch always fails, whatever else the redirect carries.
func (c *InteractiveBrowserCredential) CompleteAuthCodeFlow(ctx context.Context, flow *AuthCodeFlow, params map[string]string) (*Token, error) {
	if errCode := params["error"]; errCode != "" {
		return nil, &AuthorizationError{Code: errCode, Description: params["error_description"]}
	}
	if params["state"] != flow.State {
		return nil, ErrStateMismatch
	}
	code := params["code"]
	if code == "" {
		return nil, ErrMissingCode
	}

	opts := []oauth2.AuthCodeOption{
		oauth2.SetAuthURLParam("code_verifier", flow.verifier),
	}
	opts = append(opts, flow.policy...)

	if c.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	}
	tok, err := flow.config.Exchange(ctx, code, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code for token: %w", err)
	}
	return newToken(tok), nil
}

// TokenSource returns an auto-refreshing token source backed by this
// credential.
func (c *InteractiveBrowserCredential) TokenSource(ctx context.Context, scopes ...string) oauth2.TokenSource {
	return TokenSource(ctx, c, scopes...)
}

// TokenSourceFromRefreshToken rebuilds a token source from a persisted
// refresh token, so an earlier sign-in can be resumed without a
// browser. The source refreshes on first use.
func (c *InteractiveBrowserCredential) TokenSourceFromRefreshToken(ctx context.Context, refreshToken string, scopes ...string) oauth2.TokenSource {
	requested := ExpandScopes(scopes, true)
	requested = append(requested, "openid", "offline_access")

	conf := &oauth2.Config{
		ClientID:     c.clientID,
		ClientSecret: c.clientSecret,
		RedirectURL:  c.redirectURI,
		Scopes:       requested,
		Endpoint:     c.endpoint(),
	}
	if c.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	}

	cached := &oauth2.Token{RefreshToken: refreshToken}
	return oauth2.ReuseTokenSource(nil, conf.TokenSource(ctx, cached))
}

func (c *InteractiveBrowserCredential) endpoint() oauth2.Endpoint {
	if c.authURL != "" {
		return oauth2.Endpoint{AuthURL: c.authURL, TokenURL: c.tokenURL}
	}
	return c.authority.Endpoint()
}

func (c *InteractiveBrowserCredential) policyParams() []oauth2.AuthCodeOption {
	if c.authURL != "" {
		// Explicit endpoints carry whatever routing they need already.
		return nil
	}
	return c.authority.PolicyParams()
}
