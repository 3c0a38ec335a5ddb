package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/deadline-assistant/deadline-assistant/internal/pkg/apperror"
	"github.com/deadline-assistant/deadline-assistant/internal/pkg/usercontext"
)

// RequireAuth rejects requests that no authentication middleware accepted.
func RequireAuth(c *fiber.Ctx) error {
	if !usercontext.IsLoggedIn(c) {
		return apperror.Auth("Authentication required")
	}
	return c.Next()
}

// RequireFeature hides a route behind a feature flag.
func RequireFeature(enabled bool, message string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !enabled {
			return apperror.NotFound(message)
		}
		return c.Next()
	}
}
