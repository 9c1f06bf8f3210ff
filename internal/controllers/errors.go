package controllers

import (
	"errors"

	"github.com/flowbaker/crmbridge/pkg/domain"

	"github.com/gofiber/fiber/v3"
)

// statusForError maps the domain error taxonomy onto HTTP status codes.
func statusForError(err error) int {
	var (
		validationErr *domain.ValidationError
		configErr     *domain.ConfigurationError
		authErr       *domain.AuthError
		upstreamErr   *domain.UpstreamError
		decodeErr     *domain.DecodeError
		linkageErr    *domain.LinkageError
	)

	switch {
	case errors.As(err, &validationErr):
		return fiber.StatusBadRequest
	case errors.As(err, &configErr):
		return fiber.StatusInternalServerError
	case errors.As(err, &linkageErr),
		errors.As(err, &authErr),
		errors.As(err, &upstreamErr),
		errors.As(err, &decodeErr):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}
