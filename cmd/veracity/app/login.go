package app

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/zalando/go-keyring"

	"github.com/veracity/veracity-sdk-go/pkg/identity"
	"github.com/veracity/veracity-sdk-go/pkg/logger"
)

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Sign in to Veracity through the browser",
		Long: `Sign in to Veracity through the system browser and cache the session in
the OS keyring, so later commands run without another sign-in.`,
		RunE: loginCmdFunc,
	}
}

func loginCmdFunc(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	clientID, err := requireClientID()
	if err != nil {
		return err
	}

	cred, err := identity.NewInteractiveBrowserCredential(&identity.InteractiveConfig{
		ClientID:     clientID,
		ClientSecret: viper.GetString(keyClientSecret),
		RedirectURI:  viper.GetString(keyRedirectURI),
	})
	if err != nil {
		return err
	}

	tok, err := cred.GetToken(ctx, identity.ScopeVeracity)
	if err != nil {
		return fmt.Errorf("sign-in failed: %w", err)
	}

	if tok.RefreshToken == "" {
		logger.Warn("No refresh token was issued; the session will not be cached")
	} else if err := keyring.Set(keyringService, refreshTokenKey(clientID), tok.RefreshToken); err != nil {
		logger.Warnf("Could not cache the session in the OS keyring: %v", err)
	}

	if name, ok := tok.Claims["name"].(string); ok && name != "" {
		fmt.Printf("Signed in as %s.\n", name)
	} else {
		fmt.Println("Signed in.")
	}
	fmt.Printf("Access token valid until %s.\n", formatExpiry(tok.Expiry))
	return nil
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the cached session from the OS keyring",
		RunE:  logoutCmdFunc,
	}
}

func logoutCmdFunc(_ *cobra.Command, _ []string) error {
	clientID, err := requireClientID()
	if err != nil {
		return err
	}

	err = keyring.Delete(keyringService, refreshTokenKey(clientID))
	if errors.Is(err, keyring.ErrNotFound) {
		fmt.Println("No cached session to remove.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to remove the cached session: %w", err)
	}
	fmt.Println("Signed out.")
	return nil
}
