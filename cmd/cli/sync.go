package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func NewSyncCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run sync flows by hand",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "issue KEY",
		Short: "Mirror the current state of a Jira issue into Salesforce",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), opts.config.HTTP.RequestTimeout)
			defer cancel()

			container, err := opts.loadContainer(ctx)
			if err != nil {
				return err
			}
			defer container.Close()

			if err := container.GetEngine().ResyncIssue(ctx, args[0]); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✅ %s synchronized\n", args[0])
			return nil
		},
	})

	return cmd
}
