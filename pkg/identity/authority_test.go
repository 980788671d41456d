package identity

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

var (
	beforeCutover = time.Date(2020, time.June, 1, 0, 0, 0, 0, time.UTC)
	afterCutover  = time.Date(2022, time.June, 1, 0, 0, 0, 0, time.UTC)
)

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestAuthority_Defaults(t *testing.T) {
	t.Parallel()

	a := NewAuthority("", "")
	assert.Equal(t, DefaultTenant, a.Tenant)
	assert.Equal(t, DefaultPolicy, a.Policy)
}

func TestAuthority_Endpoint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		at           time.Time
		wantAuthURL  string
		wantTokenURL string
	}{
		{
			name: "microsoft hosted before cutover",
			at:   beforeCutover,
			wantAuthURL: "https://login.microsoftonline.com/dnvglb2cprod.onmicrosoft.com" +
				"/oauth2/v2.0/authorize",
			wantTokenURL: "https://login.microsoftonline.com/dnvglb2cprod.onmicrosoft.com" +
				"/oauth2/v2.0/token",
		},
		{
			name: "veracity hosted after cutover",
			at:   afterCutover,
			wantAuthURL: "https://login.veracity.com/dnvglb2cprod.onmicrosoft.com" +
				"/b2c_1a_signinwithadfsidp/oauth2/v2.0/authorize",
			wantTokenURL: "https://login.veracity.com/dnvglb2cprod.onmicrosoft.com" +
				"/b2c_1a_signinwithadfsidp/oauth2/v2.0/token",
		},
		{
			name: "veracity hosted exactly at cutover",
			at:   veracityCutover,
			wantAuthURL: "https://login.veracity.com/dnvglb2cprod.onmicrosoft.com" +
				"/b2c_1a_signinwithadfsidp/oauth2/v2.0/authorize",
			wantTokenURL: "https://login.veracity.com/dnvglb2cprod.onmicrosoft.com" +
				"/b2c_1a_signinwithadfsidp/oauth2/v2.0/token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			a := newAuthority("", "", fixedClock(tt.at))
			endpoint := a.Endpoint()
			assert.Equal(t, tt.wantAuthURL, endpoint.AuthURL)
			assert.Equal(t, tt.wantTokenURL, endpoint.TokenURL)
		})
	}
}

func TestAuthority_PolicyParams(t *testing.T) {
	t.Parallel()

	t.Run("policy as query parameter before cutover", func(t *testing.T) {
		t.Parallel()

		a := newAuthority("", "", fixedClock(beforeCutover))
		params := a.PolicyParams()
		require.NotEmpty(t, params)

		conf := &oauth2.Config{ClientID: "client", Endpoint: a.Endpoint()}
		authURL, err := url.Parse(conf.AuthCodeURL("state", params...))
		require.NoError(t, err)
		assert.Equal(t, DefaultPolicy, authURL.Query().Get("p"))
	})

	t.Run("no parameter after cutover", func(t *testing.T) {
		t.Parallel()

		a := newAuthority("", "", fixedClock(afterCutover))
		assert.Nil(t, a.PolicyParams())
	})
}

func TestAuthority_MetadataURLs(t *testing.T) {
	t.Parallel()

	a := NewAuthority("", "")
	assert.Equal(t,
		"https://login.veracity.com/dnvglb2cprod.onmicrosoft.com"+
			"/v2.0/.well-known/openid-configuration?p=b2c_1a_signinwithadfsidp",
		a.UserMetadataURL())
	assert.Equal(t,
		"https://login.microsoftonline.com/dnvglb2cprod.onmicrosoft.com"+
			"/.well-known/openid-configuration",
		a.AppMetadataURL())
}

func TestAuthority_ClientTokenURLs(t *testing.T) {
	t.Parallel()

	a := NewAuthority("", "")
	assert.Equal(t,
		"https://login.microsoftonline.com/dnvglb2cprod.onmicrosoft.com/oauth2/v2.0/token",
		a.clientTokenURL())
	assert.Equal(t,
		"https://login.microsoftonline.com/dnvglb2cprod.onmicrosoft.com/oauth2/token",
		a.legacyTokenURL())
}
