package identity

import (
	"fmt"
	"net/url"
	"time"

	"golang.org/x/oauth2"
)

const (
	microsoftHost = "https://login.microsoftonline.com"
	veracityHost  = "https://login.veracity.com"

	// DefaultTenant is the B2C directory all Veracity applications are
	// registered in.
	DefaultTenant = "dnvglb2cprod.onmicrosoft.com"

	// DefaultPolicy is the sign-in policy of the Veracity authority.
	DefaultPolicy = "b2c_1a_signinwithadfsidp"

	// DefaultRedirectURI is the reply URL used when none is configured.
	DefaultRedirectURI = "http://localhost"
)

// veracityCutover is when interactive sign-in moved from the shared
// Microsoft B2C endpoints to login.veracity.com. Before this date the
// policy travels as a query parameter; after, it is part of the
// authority path.
var veracityCutover = time.Date(2021, time.January, 11, 0, 0, 0, 0, time.UTC)

// Authority describes the identity-provider endpoints tokens are
// requested from and validated against.
type Authority struct {
	// Tenant is the B2C directory.
	Tenant string

	// Policy is the B2C sign-in policy.
	Policy string

	now func() time.Time
}

// NewAuthority returns the authority for a tenant and policy. Empty
// values fall back to the Veracity production defaults.
func NewAuthority(tenant, policy string) *Authority {
	return newAuthority(tenant, policy, time.Now)
}

func newAuthority(tenant, policy string, now func() time.Time) *Authority {
	if tenant == "" {
		tenant = DefaultTenant
	}
	if policy == "" {
		policy = DefaultPolicy
	}
	if now == nil {
		now = time.Now
	}
	return &Authority{Tenant: tenant, Policy: policy, now: now}
}

// veracityHosted reports whether the Veracity-hosted endpoints are in
// effect.
func (a *Authority) veracityHosted() bool {
	return !a.now().Before(veracityCutover)
}

// Endpoint returns the OAuth2 authorization and token endpoints for
// interactive sign-in.
func (a *Authority) Endpoint() oauth2.Endpoint {
	if a.veracityHosted() {
		base := fmt.Sprintf("%s/%s/%s", veracityHost, a.Tenant, a.Policy)
		return oauth2.Endpoint{
			AuthURL:  base + "/oauth2/v2.0/authorize",
			TokenURL: base + "/oauth2/v2.0/token",
		}
	}
	base := fmt.Sprintf("%s/%s", microsoftHost, a.Tenant)
	return oauth2.Endpoint{
		AuthURL:  base + "/oauth2/v2.0/authorize",
		TokenURL: base + "/oauth2/v2.0/token",
	}
}

// PolicyParams returns the extra request parameters the shared Microsoft
// endpoints need to route to the right B2C policy. Nil once the
// Veracity-hosted endpoints carry the policy in their path.
func (a *Authority) PolicyParams() []oauth2.AuthCodeOption {
	if a.veracityHosted() {
		return nil
	}
	return []oauth2.AuthCodeOption{oauth2.SetAuthURLParam("p", a.Policy)}
}

// UserMetadataURL returns the OpenID configuration document describing
// tokens issued to users under the sign-in policy.
func (a *Authority) UserMetadataURL() string {
	return fmt.Sprintf("%s/%s/v2.0/.well-known/openid-configuration?p=%s",
		veracityHost, a.Tenant, url.QueryEscape(a.Policy))
}

// AppMetadataURL returns the OpenID configuration document describing
// tokens issued to applications, which always come from the
// Microsoft-hosted endpoints.
func (a *Authority) AppMetadataURL() string {
	return fmt.Sprintf("%s/%s/.well-known/openid-configuration", microsoftHost, a.Tenant)
}

// clientTokenURL is the v2 token endpoint for client-credential grants.
// The grant never moved off the Microsoft-hosted endpoints.
func (a *Authority) clientTokenURL() string {
	return fmt.Sprintf("%s/%s/oauth2/v2.0/token", microsoftHost, a.Tenant)
}

// legacyTokenURL is the v1 token endpoint, used for client-credential
// grants that request a "resource" audience instead of v2 scopes.
func (a *Authority) legacyTokenURL() string {
	return fmt.Sprintf("%s/%s/oauth2/token", microsoftHost, a.Tenant)
}
