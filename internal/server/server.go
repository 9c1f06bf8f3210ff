package server

import (
	"context"
	"time"

	"github.com/flowbaker/crmbridge/internal/auth"
	"github.com/flowbaker/crmbridge/internal/controllers"
	"github.com/flowbaker/crmbridge/internal/middlewares"
	"github.com/flowbaker/crmbridge/internal/telemetry"
	"github.com/flowbaker/crmbridge/internal/version"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/rs/zerolog/log"
)

const ServiceName = "crmbridge"

type HTTPServerDependencies struct {
	BridgeController *controllers.BridgeController
	ConfigController *controllers.ConfigController
	Metrics          *telemetry.Metrics

	// AdminVerifier guards the /config routes when set.
	AdminVerifier *auth.SignatureVerifier
	// WebhookVerifier guards the issue tracker webhook when set.
	WebhookVerifier *auth.WebhookVerifier

	DisableAccessLog bool
}

func NewHTTPServer(ctx context.Context, deps HTTPServerDependencies) *fiber.App {
	router := fiber.New(fiber.Config{
		AppName: ServiceName,
	})

	router.Use(cors.New())

	if !deps.DisableAccessLog {
		router.Use(logger.New())
	}

	router.Get("/health", func(c fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":    "healthy",
			"service":   ServiceName,
			"version":   version.GetVersion(),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	if deps.Metrics != nil {
		router.Get("/metrics", adaptor.HTTPHandler(deps.Metrics.Handler()))
	}

	router.Post("/salesforce/requests", deps.BridgeController.HandleCRMRequest)

	webhooks := router.Group("/webhooks")

	if deps.WebhookVerifier != nil {
		webhooks.Use(middlewares.WebhookSignatureMiddleware(deps.WebhookVerifier))
	} else {
		log.Warn().Msg("Issue tracker webhook secret is not set, webhooks are accepted unsigned")
	}

	webhooks.Post("/jira", deps.BridgeController.HandleIssueWebhook)

	admin := router.Group("/config")

	if deps.AdminVerifier != nil {
		admin.Use(middlewares.APISignatureMiddleware(deps.AdminVerifier))
	} else {
		log.Warn().Msg("Admin public key is not set, configuration routes are unauthenticated")
	}

	admin.Get("/", deps.ConfigController.GetConfig)
	admin.Post("/", deps.ConfigController.UpdateConfig)

	return router
}
