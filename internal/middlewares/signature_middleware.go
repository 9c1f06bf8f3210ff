package middlewares

import (
	"github.com/flowbaker/crmbridge/internal/auth"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
)

// APISignatureMiddleware rejects requests that are not signed with the admin key.
func APISignatureMiddleware(verifier *auth.SignatureVerifier) fiber.Handler {
	return func(c fiber.Ctx) error {
		signatureHeader := c.Get(auth.SignatureHeader)
		timestampHeader := c.Get(auth.TimestampHeader)

		err := verifier.VerifyRequest(
			c.Method(),
			c.Path(),
			signatureHeader,
			timestampHeader,
			c.Body(),
		)
		if err != nil {
			log.Error().
				Err(err).
				Str("path", c.Path()).
				Str("method", c.Method()).
				Str("timestamp", timestampHeader).
				Msg("API signature verification failed")

			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"error":   "Invalid API signature",
			})
		}

		log.Debug().
			Str("path", c.Path()).
			Str("method", c.Method()).
			Msg("API signature verified successfully")

		return c.Next()
	}
}

// WebhookSignatureMiddleware rejects webhooks whose HMAC does not match the shared secret.
func WebhookSignatureMiddleware(verifier *auth.WebhookVerifier) fiber.Handler {
	return func(c fiber.Ctx) error {
		if err := verifier.Verify(c.Get(auth.WebhookSignatureHeader), c.Body()); err != nil {
			log.Warn().
				Err(err).
				Str("path", c.Path()).
				Msg("Webhook signature verification failed")

			return c.SendStatus(fiber.StatusUnauthorized)
		}

		return c.Next()
	}
}
