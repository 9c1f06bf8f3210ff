package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func NewTokenCommand(opts *rootOptions) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Show when the cached Salesforce token expires",
		Long:  `Fetch a valid Salesforce access token, refreshing it if it is close to expiry, and print its expiry. The token itself is never printed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToken(cmd, opts, refresh)
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Drop the cached token and request a new one")

	return cmd
}

func runToken(cmd *cobra.Command, opts *rootOptions, refresh bool) error {
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

	tokens := container.GetTokenManager()

	if refresh {
		if err := tokens.Invalidate(ctx); err != nil {
			return err
		}
	}

	if _, err := tokens.GetValidToken(ctx, config); err != nil {
		return err
	}

	cached, err := container.GetRepository().GetToken(ctx)
	if err != nil {
		return err
	}

	if cached == nil {
		return fmt.Errorf("no token cached after refresh")
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✅ Token valid until %s (%s left)\n",
		cached.ExpiresAt.Local().Format("2006-01-02 15:04:05"),
		time.Until(cached.ExpiresAt).Round(time.Second))

	return nil
}
