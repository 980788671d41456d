package app

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/veracity/veracity-sdk-go/pkg/identity"
)

func newVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <token>",
		Short: "Verify a Veracity JWT and print its claims",
		Long: `Verify a JWT against the Veracity signing keys: signature, issuer and
expiry, plus the audience when one is given. Prints the verified claims
as JSON.`,
		Args: cobra.ExactArgs(1),
		RunE: verifyCmdFunc,
	}
	cmd.Flags().String("audience", "", "Require this audience claim")
	return cmd
}

func verifyCmdFunc(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	audience, err := cmd.Flags().GetString("audience")
	if err != nil {
		return err
	}

	verifier, err := identity.NewTokenVerifier(ctx, &identity.VerifierConfig{Audience: audience})
	if err != nil {
		return err
	}

	claims, err := verifier.VerifyToken(ctx, args[0])
	if err != nil {
		return fmt.Errorf("token is not valid: %w", err)
	}

	out, err := json.MarshalIndent(claims, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
