package app

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newSASCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sas <container-id>",
		Short: "Mint a shared access signature key for a container",
		Long: `Mint a shared access signature (SAS) key for a container by exchanging
the best access grant you hold on it. Pass --access-id to exchange a
specific grant instead.`,
		Args: cobra.ExactArgs(1),
		RunE: sasCmdFunc,
	}
	cmd.Flags().String("access-id", "", "Exchange this access grant instead of the best one")
	return cmd
}

func sasCmdFunc(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	client, err := dataClient(ctx)
	if err != nil {
		return err
	}
	accessID, err := cmd.Flags().GetString("access-id")
	if err != nil {
		return err
	}

	key, err := client.GetSAS(ctx, args[0], accessID)
	if err != nil {
		return fmt.Errorf("could not mint a SAS key: %w", err)
	}

	fmt.Println(key.SASURI)
	fmt.Printf("grant: %s\n", key.AccessID)
	fmt.Printf("expires: %s\n", key.SASKeyExpiryTimeUTC.UTC().Format(time.RFC3339))
	if key.AutoRefreshed {
		fmt.Println("auto-refreshed: yes")
	}
	return nil
}
