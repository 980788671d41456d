package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/veracity/veracity-sdk-go/pkg/datafabric"
	"github.com/veracity/veracity-sdk-go/pkg/logger"
)

func newContainersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "containers",
		Short: "Work with storage containers",
		Long:  `List, inspect, create, and remove Data Fabric storage containers.`,
	}
	cmd.AddCommand(newContainersListCmd())
	cmd.AddCommand(newContainersGetCmd())
	cmd.AddCommand(newContainersCreateCmd())
	cmd.AddCommand(newContainersRmCmd())
	return cmd
}

func newContainersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List containers visible to the signed-in principal",
		Args:  cobra.NoArgs,
		RunE:  containersListCmdFunc,
	}
}

func containersListCmdFunc(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	client, err := dataClient(ctx)
	if err != nil {
		return err
	}

	resources, err := client.GetResources(ctx)
	if err != nil {
		return fmt.Errorf("could not list containers: %w", err)
	}
	for _, res := range resources {
		fmt.Printf("%s  %-10s  %s\n", res.ID, res.Region, res.Reference)
	}
	return nil
}

func newContainersGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <container-id>",
		Short: "Show one container",
		Args:  cobra.ExactArgs(1),
		RunE:  containersGetCmdFunc,
	}
}

func containersGetCmdFunc(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	client, err := dataClient(ctx)
	if err != nil {
		return err
	}

	res, err := client.GetResource(ctx, args[0])
	if err != nil {
		return fmt.Errorf("could not fetch container: %w", err)
	}

	fmt.Printf("ID:            %s\n", res.ID)
	fmt.Printf("reference:     %s\n", res.Reference)
	fmt.Printf("region:        %s\n", res.Region)
	fmt.Printf("owner:         %s\n", res.OwnerID)
	fmt.Printf("access level:  %s\n", res.AccessLevel)
	fmt.Printf("key status:    %s\n", res.KeyStatus)
	fmt.Printf("personal data: %s\n", res.MayContainPersonalData)
	if res.URL != "" {
		fmt.Printf("URL:           %s\n", res.URL)
	}
	return nil
}

func newContainersCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Provision a new container",
		Long: `Provision a new storage container. Provisioning is asynchronous; pass
--wait to block until the container shows up in the catalogue.`,
		Args: cobra.NoArgs,
		RunE: containersCreateCmdFunc,
	}
	cmd.Flags().String("name", "", "Short name for the container (letters and numbers only)")
	cmd.Flags().String("title", "", "Display title")
	cmd.Flags().String("description", "", "Description shown on the portal")
	cmd.Flags().String("region", "", "Azure region (defaults to "+datafabric.DefaultStorageLocation+")")
	cmd.Flags().StringSlice("tag", nil, "Tag to attach, may be repeated")
	cmd.Flags().Bool("personal-data", false, "Mark the container as possibly holding personal data")
	cmd.Flags().Bool("wait", false, "Wait until the container is provisioned")
	if err := cmd.MarkFlagRequired("name"); err != nil {
		logger.Errorf("failed to mark flag as required: %v", err)
	}
	return cmd
}

func containersCreateCmdFunc(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	client, err := provisionClient(ctx)
	if err != nil {
		return err
	}

	name, err := cmd.Flags().GetString("name")
	if err != nil {
		return err
	}
	title, err := cmd.Flags().GetString("title")
	if err != nil {
		return err
	}
	description, err := cmd.Flags().GetString("description")
	if err != nil {
		return err
	}
	region, err := cmd.Flags().GetString("region")
	if err != nil {
		return err
	}
	tags, err := cmd.Flags().GetStringSlice("tag")
	if err != nil {
		return err
	}
	personalData, err := cmd.Flags().GetBool("personal-data")
	if err != nil {
		return err
	}
	wait, err := cmd.Flags().GetBool("wait")
	if err != nil {
		return err
	}

	containerID, err := client.CreateContainer(ctx, datafabric.ContainerSpec{
		ShortName:              name,
		Title:                  title,
		Description:            description,
		StorageLocation:        region,
		Tags:                   tags,
		MayContainPersonalData: personalData,
	})
	if err != nil {
		return fmt.Errorf("could not provision container: %w", err)
	}
	fmt.Printf("Container %s accepted for provisioning.\n", containerID)

	if !wait {
		return nil
	}

	data, err := dataClient(ctx)
	if err != nil {
		return err
	}
	res, err := datafabric.WaitForContainer(ctx, data, containerID)
	if err != nil {
		return fmt.Errorf("container did not become available: %w", err)
	}
	fmt.Printf("Container %s is ready in %s.\n", res.ID, res.Region)
	return nil
}

func newContainersRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <container-id>",
		Short: "Delete a container and its data",
		Args:  cobra.ExactArgs(1),
		RunE:  containersRmCmdFunc,
	}
}

func containersRmCmdFunc(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	client, err := provisionClient(ctx)
	if err != nil {
		return err
	}

	if err := client.DeleteContainer(ctx, args[0]); err != nil {
		return fmt.Errorf("could not delete container: %w", err)
	}
	fmt.Printf("Container %s deleted.\n", args[0])
	return nil
}
