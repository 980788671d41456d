package app

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/veracity/veracity-sdk-go/pkg/identity"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a service access token with the client-credential grant",
		Long: `Mint an access token for a service application using the client-credential
grant and print it, so the output can be piped into scripts or curl.`,
		RunE: tokenCmdFunc,
	}
	cmd.Flags().String("scope", identity.ScopeVeracity, "Scope alias or full scope to request")
	cmd.Flags().String("resource", "", "Audience override using the legacy v1 resource parameter")
	return cmd
}

func tokenCmdFunc(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	clientID, err := requireClientID()
	if err != nil {
		return err
	}
	scope, err := cmd.Flags().GetString("scope")
	if err != nil {
		return err
	}
	resource, err := cmd.Flags().GetString("resource")
	if err != nil {
		return err
	}

	cred, err := identity.NewClientSecretCredential(&identity.ClientSecretConfig{
		ClientID:     clientID,
		ClientSecret: viper.GetString(keyClientSecret),
		Resource:     resource,
	})
	if err != nil {
		return err
	}

	tok, err := cred.GetToken(ctx, scope)
	if err != nil {
		return fmt.Errorf("token request failed: %w", err)
	}

	fmt.Println(tok.AccessToken)
	return nil
}
