package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/veracity/veracity-sdk-go/pkg/datafabric"
)

func newKeyTemplatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keytemplates",
		Short: "List or match key templates",
		Long: `List the key templates the Data Fabric offers. With privilege flags set,
print the template that best matches those privileges instead.`,
		Args: cobra.NoArgs,
		RunE: keyTemplatesCmdFunc,
	}
	addPrivilegeFlags(cmd)
	cmd.Flags().Bool("exact", false, "Require a template with exactly these privileges")
	cmd.Flags().Int("hours", 1, "Preferred key lifetime in hours")
	return cmd
}

func keyTemplatesCmdFunc(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	client, err := dataClient(ctx)
	if err != nil {
		return err
	}

	priv, err := privilegesFromFlags(cmd)
	if err != nil {
		return err
	}

	if (priv == datafabric.Privileges{}) {
		templates, err := client.GetKeyTemplates(ctx)
		if err != nil {
			return fmt.Errorf("could not list key templates: %w", err)
		}
		for _, tmpl := range templates {
			printKeyTemplate(tmpl)
		}
		return nil
	}

	exact, err := cmd.Flags().GetBool("exact")
	if err != nil {
		return err
	}
	hours, err := cmd.Flags().GetInt("hours")
	if err != nil {
		return err
	}

	tmpl, err := client.FindKeyTemplate(ctx, priv, hours, exact)
	if err != nil {
		return fmt.Errorf("could not match a key template: %w", err)
	}
	printKeyTemplate(*tmpl)
	return nil
}

func printKeyTemplate(tmpl datafabric.KeyTemplate) {
	fmt.Printf("%s  %-22s  %5dh  %s\n", tmpl.ID, tmpl.Privileges.String(), tmpl.TotalHours, tmpl.Name)
}
