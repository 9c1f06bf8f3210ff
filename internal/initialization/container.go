package initialization

import (
	"context"
	"fmt"
	"net/http"

	"github.com/flowbaker/crmbridge/internal/auth"
	"github.com/flowbaker/crmbridge/internal/config"
	"github.com/flowbaker/crmbridge/internal/controllers"
	"github.com/flowbaker/crmbridge/internal/managers"
	"github.com/flowbaker/crmbridge/internal/server"
	"github.com/flowbaker/crmbridge/internal/telemetry"
	"github.com/flowbaker/crmbridge/pkg/clients/jira"
	"github.com/flowbaker/crmbridge/pkg/clients/salesforce"
	"github.com/flowbaker/crmbridge/pkg/configstore"
	"github.com/flowbaker/crmbridge/pkg/sync"
	"github.com/flowbaker/crmbridge/pkg/token"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
)

// Container owns the long lived components of the bridge. The CLI builds one per command.
type Container struct {
	config *config.Config

	store                configstore.Store
	repository           *configstore.Repository
	metrics              *telemetry.Metrics
	tokenManager         *token.Manager
	engine               *sync.Engine
	configurationManager *managers.ConfigurationManager
}

func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	log.Debug().Str("store_backend", cfg.Store.Backend).Msg("Building bridge dependencies")

	store, err := configstore.Open(ctx, cfg.StoreOptions())
	if err != nil {
		return nil, err
	}

	metrics, err := telemetry.NewMetrics()
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	repository := configstore.NewRepository(store)

	tokenManager := token.NewManager(token.ManagerDependencies{
		Repository:     repository,
		HTTPClient:     &http.Client{Timeout: cfg.HTTP.ClientTimeout},
		Metrics:        metrics,
		RefreshTimeout: cfg.HTTP.ClientTimeout,
	})

	issueClient := jira.NewClient(
		cfg.Jira.Email,
		cfg.Jira.APIToken,
		jira.WithTimeout(cfg.HTTP.ClientTimeout),
	)

	recordClient := salesforce.NewClient(
		tokenManager,
		salesforce.WithTimeout(cfg.HTTP.ClientTimeout),
	)

	engine := sync.NewEngine(sync.EngineDependencies{
		Settings:    repository,
		Issues:      issueClient,
		Records:     recordClient,
		Metrics:     metrics,
		Defaults:    cfg.ConfigurationDefaults(),
		RetryPolicy: cfg.RetryPolicy(),
	})

	configurationManager := managers.NewConfigurationManager(managers.ConfigurationManagerDependencies{
		Repository: repository,
		Defaults:   cfg.ConfigurationDefaults(),
	})

	return &Container{
		config:               cfg,
		store:                store,
		repository:           repository,
		metrics:              metrics,
		tokenManager:         tokenManager,
		engine:               engine,
		configurationManager: configurationManager,
	}, nil
}

func (c *Container) GetConfig() *config.Config {
	return c.config
}

func (c *Container) GetEngine() *sync.Engine {
	return c.engine
}

func (c *Container) GetTokenManager() *token.Manager {
	return c.tokenManager
}

func (c *Container) GetConfigurationManager() *managers.ConfigurationManager {
	return c.configurationManager
}

func (c *Container) GetRepository() *configstore.Repository {
	return c.repository
}

// BuildHTTPServer wires the controllers and the optional request verifiers into the router.
func (c *Container) BuildHTTPServer(ctx context.Context) (*fiber.App, error) {
	deps := server.HTTPServerDependencies{
		BridgeController: controllers.NewBridgeController(controllers.BridgeControllerDependencies{
			SyncService:    c.engine,
			RequestTimeout: c.config.HTTP.RequestTimeout,
		}),
		ConfigController: controllers.NewConfigController(controllers.ConfigControllerDependencies{
			ConfigurationService: c.configurationManager,
		}),
		Metrics: c.metrics,
	}

	if c.config.Admin.PublicKey != "" {
		verifier, err := auth.NewSignatureVerifier(c.config.Admin.PublicKey)
		if err != nil {
			return nil, fmt.Errorf("invalid admin.public_key: %w", err)
		}

		deps.AdminVerifier = verifier
	}

	if c.config.Jira.WebhookSecret != "" {
		deps.WebhookVerifier = auth.NewWebhookVerifier(c.config.Jira.WebhookSecret)
	}

	return server.NewHTTPServer(ctx, deps), nil
}

func (c *Container) Close() error {
	return c.store.Close()
}
