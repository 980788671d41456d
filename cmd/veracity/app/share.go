package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/veracity/veracity-sdk-go/pkg/datafabric"
)

func newShareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "share <container-id> <principal-id>",
		Short: "Delegate access on a container",
		Long: `Delegate access on a container to another user or application. Privileges
select a key template; an equivalent existing share is reused instead of
creating a duplicate. Pass --template to name a key template directly.`,
		Args: cobra.ExactArgs(2),
		RunE: shareCmdFunc,
	}
	addPrivilegeFlags(cmd)
	cmd.Flags().Bool("exact", false, "Require a key template with exactly these privileges")
	cmd.Flags().Int("hours", 1, "Preferred key lifetime in hours")
	cmd.Flags().Bool("auto-refresh", false, "Keep issued keys renewed server-side")
	cmd.Flags().String("comment", "", "Comment attached to the share")
	cmd.Flags().String("template", "", "Key template ID to use directly")
	return cmd
}

func shareCmdFunc(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	client, err := dataClient(ctx)
	if err != nil {
		return err
	}

	priv, err := privilegesFromFlags(cmd)
	if err != nil {
		return err
	}
	exact, err := cmd.Flags().GetBool("exact")
	if err != nil {
		return err
	}
	hours, err := cmd.Flags().GetInt("hours")
	if err != nil {
		return err
	}
	autoRefresh, err := cmd.Flags().GetBool("auto-refresh")
	if err != nil {
		return err
	}
	comment, err := cmd.Flags().GetString("comment")
	if err != nil {
		return err
	}
	template, err := cmd.Flags().GetString("template")
	if err != nil {
		return err
	}

	if template == "" && (priv == datafabric.Privileges{}) {
		return fmt.Errorf("name at least one privilege (--read/--write/--delete/--list) or a --template")
	}

	sharingID, err := client.ShareAccess(ctx, datafabric.ShareRequest{
		ResourceID:    args[0],
		UserID:        args[1],
		KeyTemplateID: template,
		Privileges:    priv,
		Exact:         exact,
		DurationHours: hours,
		AutoRefreshed: autoRefresh,
		Comment:       comment,
	})
	if err != nil {
		return fmt.Errorf("could not share access: %w", err)
	}

	fmt.Printf("Access shared with %s on %s.\n", args[1], args[0])
	fmt.Printf("sharing ID: %s\n", sharingID)
	return nil
}
