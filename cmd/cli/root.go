package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/flowbaker/crmbridge/internal/config"
	"github.com/flowbaker/crmbridge/internal/initialization"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configFile string
	debug      bool

	config    *config.Config
	logCloser io.Closer
}

// loadContainer builds the bridge from the loaded settings. The caller closes it.
func (o *rootOptions) loadContainer(ctx context.Context) (*initialization.Container, error) {
	return initialization.NewContainer(ctx, o.config)
}

// withoutSettings replaces the settings loader for commands that work offline.
func withoutSettings(cmd *cobra.Command, args []string) error {
	return nil
}

func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "crmbridge",
		Short: "Jira and Salesforce bridge",
		Long: `crmbridge creates Jira issues for Salesforce requests, links them back to the originating
record and mirrors issue status changes into Salesforce.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configFile)
			if err != nil {
				return err
			}

			closer, err := initialization.ConfigureLogging(cfg.Log, opts.debug)
			if err != nil {
				return err
			}

			opts.config = cfg
			opts.logCloser = closer

			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if opts.logCloser != nil {
				return opts.logCloser.Close()
			}

			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "Config file (default: crmbridge.yaml in ., ./config or $HOME/.crmbridge)")
	rootCmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(NewServeCommand(opts))
	rootCmd.AddCommand(NewConfigCommand(opts))
	rootCmd.AddCommand(NewTokenCommand(opts))
	rootCmd.AddCommand(NewSyncCommand(opts))
	rootCmd.AddCommand(NewKeysCommand())
	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
