// Package identity implements sign-in against the Veracity identity
// provider: interactive browser sign-in with PKCE, the client-credential
// grant for service applications, and verification of the resulting
// tokens against the platform's published signing keys.
//
// The provider is Azure AD B2C behind a custom sign-in policy. Before
// January 2021 requests went through the shared Microsoft endpoints with
// the policy as a query parameter; they now go through login.veracity.com
// with the policy embedded in the path. Authority models both forms.
package identity
