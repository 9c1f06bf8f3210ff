package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/flowbaker/crmbridge/internal/version"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func NewServeCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"start"},
		Short:   "Start the bridge HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts)
		},
	}

	return cmd
}

func runServe(opts *rootOptions) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	container, err := opts.loadContainer(ctx)
	if err != nil {
		return err
	}
	defer container.Close()

	app, err := container.BuildHTTPServer(ctx)
	if err != nil {
		return err
	}

	address := opts.config.HTTP.Address

	log.Info().
		Str("version", version.GetVersion()).
		Str("address", address).
		Str("store_backend", opts.config.Store.Backend).
		Msg("Starting bridge")

	if err := app.Listen(address, fiber.ListenConfig{
		GracefulContext:       ctx,
		DisableStartupMessage: true,
	}); err != nil {
		log.Error().Err(err).Msg("HTTP server failed")
		return err
	}

	log.Info().Msg("Bridge stopped")
	return nil
}
