package app

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newWhoAmICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show which user or application the Data Fabric sees",
		RunE:  whoAmICmdFunc,
	}
}

func whoAmICmdFunc(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	client, err := dataClient(ctx)
	if err != nil {
		return err
	}

	principal, err := client.WhoAmI(ctx)
	if err != nil {
		return fmt.Errorf("could not resolve the caller: %w", err)
	}

	fmt.Printf("%s %s\n", principal.Type, principal.ID)
	if principal.CompanyID != "" {
		fmt.Printf("company: %s\n", principal.CompanyID)
	}
	if principal.Role != "" {
		fmt.Printf("role: %s\n", principal.Role)
	}
	return nil
}
