package cli

import (
	"context"
	"fmt"

	"github.com/flowbaker/crmbridge/pkg/domain"

	"github.com/spf13/cobra"
)

func NewConfigCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change the Salesforce connection",
	}

	cmd.AddCommand(newConfigShowCommand(opts))
	cmd.AddCommand(newConfigSetCommand(opts))

	return cmd
}

func newConfigShowCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the stored connection without the client secret",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			container, err := opts.loadContainer(ctx)
			if err != nil {
				return err
			}
			defer container.Close()

			config, err := container.GetConfigurationManager().Get(ctx)
			if err != nil {
				return err
			}

			public := config.Public()

			out := cmd.OutOrStdout()
			if public.Configured {
				fmt.Fprintln(out, "✅ Bridge is configured")
			} else {
				fmt.Fprintln(out, "❌ Bridge is not configured")
			}

			fmt.Fprintf(out, "   Instance URL: %s\n", public.InstanceURL)
			fmt.Fprintf(out, "   Client ID: %s\n", public.ClientID)
			fmt.Fprintf(out, "   Jira project: %s\n", public.IssueTrackerProjectKey)
			fmt.Fprintf(out, "   Jira URL: %s\n", public.IssueTrackerBaseURL)

			return nil
		},
	}
}

func newConfigSetCommand(opts *rootOptions) *cobra.Command {
	var input domain.Configuration

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store a new connection",
		Long: `Store a new Salesforce connection. Flags left out keep their current value, so a secret can be
rotated with --client-secret alone.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			container, err := opts.loadContainer(ctx)
			if err != nil {
				return err
			}
			defer container.Close()

			manager := container.GetConfigurationManager()

			current, err := manager.Get(ctx)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("instance-url") {
				current.InstanceURL = input.InstanceURL
			}
			if flags.Changed("client-id") {
				current.ClientID = input.ClientID
			}
			if flags.Changed("client-secret") {
				current.ClientSecret = input.ClientSecret
			}
			if flags.Changed("project-key") {
				current.IssueTrackerProjectKey = input.IssueTrackerProjectKey
			}
			if flags.Changed("jira-url") {
				current.IssueTrackerBaseURL = input.IssueTrackerBaseURL
			}

			if err := manager.Update(ctx, current); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "✅ Configuration saved")
			return nil
		},
	}

	cmd.Flags().StringVar(&input.InstanceURL, "instance-url", "", "Salesforce instance URL")
	cmd.Flags().StringVar(&input.ClientID, "client-id", "", "Connected app client id")
	cmd.Flags().StringVar(&input.ClientSecret, "client-secret", "", "Connected app client secret")
	cmd.Flags().StringVar(&input.IssueTrackerProjectKey, "project-key", "", "Jira project key for new issues")
	cmd.Flags().StringVar(&input.IssueTrackerBaseURL, "jira-url", "", "Jira site URL")

	return cmd
}
