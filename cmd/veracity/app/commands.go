// Package app provides the entry point for the veracity command-line
// application.
package app

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/veracity/veracity-sdk-go/pkg/identity"
	"github.com/veracity/veracity-sdk-go/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:               "veracity",
	DisableAutoGenTag: true,
	Short:             "Sign in to Veracity and work with Data Fabric storage",
	Long: `The veracity CLI signs users and service applications in to the Veracity
platform and operates on Data Fabric storage containers: listing them,
delegating access, minting shared access signature keys and provisioning
new containers.

Credentials come from a browser sign-in cached in the OS keyring
('veracity login') or from a client secret for service applications
(VERACITY_CLIENT_SECRET).`,
	Run: func(cmd *cobra.Command, _ []string) {
		// If no subcommand is provided, print help
		if err := cmd.Help(); err != nil {
			logger.Errorf("Error displaying help: %v", err)
		}
	},
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.Initialize()
	},
}

// NewRootCmd creates a new root command for the Veracity CLI.
func NewRootCmd() *cobra.Command {
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().String(keyClientID, "", "Veracity application (client) ID")
	rootCmd.PersistentFlags().String(keyClientSecret, "", "Client secret, for service applications")
	rootCmd.PersistentFlags().String(keySubscriptionKey, "", "API management subscription key")
	rootCmd.PersistentFlags().String(keyRedirectURI, identity.DefaultRedirectURI, "Reply URL registered for the application")

	bindings := []struct{ key, env string }{
		{"debug", "VERACITY_DEBUG"},
		{keyClientID, "VERACITY_CLIENT_ID"},
		{keyClientSecret, "VERACITY_CLIENT_SECRET"},
		{keySubscriptionKey, "VERACITY_SUBSCRIPTION_KEY"},
		{keyRedirectURI, "VERACITY_REDIRECT_URI"},
	}
	for _, b := range bindings {
		if err := viper.BindPFlag(b.key, rootCmd.PersistentFlags().Lookup(b.key)); err != nil {
			logger.Errorf("Error binding %s flag: %v", b.key, err)
		}
		if err := viper.BindEnv(b.key, b.env); err != nil {
			logger.Errorf("Error binding %s: %v", b.env, err)
		}
	}

	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newLogoutCmd())
	rootCmd.AddCommand(newTokenCmd())
	rootCmd.AddCommand(newVerifyCmd())
	rootCmd.AddCommand(newWhoAmICmd())
	rootCmd.AddCommand(newSASCmd())
	rootCmd.AddCommand(newShareCmd())
	rootCmd.AddCommand(newKeyTemplatesCmd())
	rootCmd.AddCommand(newContainersCmd())

	// Silence printing the usage on error
	rootCmd.SilenceUsage = true

	return rootCmd
}
