package controllers

import (
	"errors"

	"github.com/flowbaker/crmbridge/pkg/domain"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
)

type ConfigControllerDependencies struct {
	ConfigurationService domain.ConfigurationService
}

type ConfigController struct {
	configurationService domain.ConfigurationService
}

func NewConfigController(deps ConfigControllerDependencies) *ConfigController {
	return &ConfigController{
		configurationService: deps.ConfigurationService,
	}
}

// GetConfig returns the non-secret configuration fields.
func (c *ConfigController) GetConfig(ctx fiber.Ctx) error {
	current, err := c.configurationService.Get(ctx.RequestCtx())
	if err != nil {
		log.Error().Err(err).Msg("Failed to read configuration")
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to read configuration")
	}

	return ctx.JSON(current.Public())
}

func (c *ConfigController) UpdateConfig(ctx fiber.Ctx) error {
	var config domain.Configuration
	if err := ctx.Bind().Body(&config); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(StatusResponse{Error: "Invalid request body"})
	}

	err := c.configurationService.Update(ctx.RequestCtx(), config)

	var configErr *domain.ConfigurationError
	if errors.As(err, &configErr) {
		return ctx.Status(fiber.StatusBadRequest).JSON(StatusResponse{Error: configErr.Message})
	}

	if err != nil {
		log.Error().Err(err).Msg("Failed to update configuration")
		return ctx.Status(fiber.StatusInternalServerError).JSON(StatusResponse{Error: "Failed to save configuration"})
	}

	return ctx.JSON(StatusResponse{Success: true})
}
