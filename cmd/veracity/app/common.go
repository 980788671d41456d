package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/zalando/go-keyring"

	"github.com/veracity/veracity-sdk-go/pkg/datafabric"
	"github.com/veracity/veracity-sdk-go/pkg/identity"
)

// keyringService names the OS keyring entry group holding cached
// sessions.
const keyringService = "veracity-cli"

// Viper keys for the persistent configuration flags.
const (
	keyClientID        = "client-id"
	keyClientSecret    = "client-secret"
	keySubscriptionKey = "subscription-key"
	keyRedirectURI     = "redirect-uri"
)

func requireClientID() (string, error) {
	clientID := viper.GetString(keyClientID)
	if clientID == "" {
		return "", errors.New("a client ID is required (--client-id or VERACITY_CLIENT_ID)")
	}
	return clientID, nil
}

func refreshTokenKey(clientID string) string {
	return "refresh-token/" + clientID
}

func saveRefreshToken(clientID string) identity.TokenPersister {
	return func(refreshToken string, _ time.Time) error {
		return keyring.Set(keyringService, refreshTokenKey(clientID), refreshToken)
	}
}

// serviceCredential builds a client-credential identity from the
// configured secret.
func serviceCredential() (identity.Credential, error) {
	clientID, err := requireClientID()
	if err != nil {
		return nil, err
	}
	return identity.NewClientSecretCredential(&identity.ClientSecretConfig{
		ClientID:     clientID,
		ClientSecret: viper.GetString(keyClientSecret),
	})
}

// sessionCredential resumes a browser sign-in cached in the OS keyring.
// Refresh token rotations are written back so the session stays alive
// across invocations.
func sessionCredential(ctx context.Context) (identity.Credential, error) {
	clientID, err := requireClientID()
	if err != nil {
		return nil, err
	}
	refreshToken, err := keyring.Get(keyringService, refreshTokenKey(clientID))
	if err != nil {
		return nil, err
	}

	browserCred, err := identity.NewInteractiveBrowserCredential(&identity.InteractiveConfig{
		ClientID:    clientID,
		RedirectURI: viper.GetString(keyRedirectURI),
	})
	if err != nil {
		return nil, err
	}

	source := browserCred.TokenSourceFromRefreshToken(ctx, refreshToken, identity.ScopeVeracity)
	persisting := identity.NewPersistingTokenSource(source, saveRefreshToken(clientID))
	return identity.NewTokenSourceCredential(persisting), nil
}

// resolveCredential picks the identity for API commands: a client
// secret means a service application, otherwise the cached sign-in.
func resolveCredential(ctx context.Context) (identity.Credential, error) {
	if viper.GetString(keyClientSecret) != "" {
		return serviceCredential()
	}
	cred, err := sessionCredential(ctx)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, errors.New("no cached sign-in for this client ID; run 'veracity login' or set VERACITY_CLIENT_SECRET")
	}
	if err != nil {
		return nil, err
	}
	return cred, nil
}

func requireSubscriptionKey() (string, error) {
	key := viper.GetString(keySubscriptionKey)
	if key == "" {
		return "", errors.New("a subscription key is required (--subscription-key or VERACITY_SUBSCRIPTION_KEY)")
	}
	return key, nil
}

func dataClient(ctx context.Context) (*datafabric.Client, error) {
	cred, err := resolveCredential(ctx)
	if err != nil {
		return nil, err
	}
	key, err := requireSubscriptionKey()
	if err != nil {
		return nil, err
	}
	return datafabric.New(cred, key), nil
}

func provisionClient(ctx context.Context) (*datafabric.ProvisionClient, error) {
	cred, err := resolveCredential(ctx)
	if err != nil {
		return nil, err
	}
	key, err := requireSubscriptionKey()
	if err != nil {
		return nil, err
	}
	return datafabric.NewProvisionClient(cred, key), nil
}

func addPrivilegeFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("read", false, "Read privilege")
	cmd.Flags().Bool("write", false, "Write privilege")
	cmd.Flags().Bool("delete", false, "Delete privilege")
	cmd.Flags().Bool("list", false, "List privilege")
}

func privilegesFromFlags(cmd *cobra.Command) (datafabric.Privileges, error) {
	var priv datafabric.Privileges
	var err error
	if priv.Read, err = cmd.Flags().GetBool("read"); err != nil {
		return priv, err
	}
	if priv.Write, err = cmd.Flags().GetBool("write"); err != nil {
		return priv, err
	}
	if priv.Delete, err = cmd.Flags().GetBool("delete"); err != nil {
		return priv, err
	}
	if priv.List, err = cmd.Flags().GetBool("list"); err != nil {
		return priv, err
	}
	return priv, nil
}

func formatExpiry(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return fmt.Sprintf("%s (in %s)", t.Local().Format(time.RFC1123), time.Until(t).Round(time.Minute))
}
