package middleware

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/deadline-assistant/deadline-assistant/app/models"
	"github.com/deadline-assistant/deadline-assistant/app/repository"
	"github.com/deadline-assistant/deadline-assistant/internal/pkg/apperror"
	"github.com/deadline-assistant/deadline-assistant/internal/pkg/usercontext"
)

// APIKeyAuth authenticates requests carrying a user API key header.
func APIKeyAuth(users repository.UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		apiKey := extractAPIKeyFromHeader(c)
		if apiKey == "" {
			return apperror.Auth("Missing API key")
		}

		user, err := users.GetByAPIKeyHash(c.UserContext(), models.HashAPIKey(apiKey))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.Auth("Invalid API key")
			}
			return apperror.Internal("API key verification failed", err)
		}
		if !user.IsActive() {
			return apperror.Auth("User inactive")
		}

		// Refresh last-used timestamp best-effort.
		if err := users.TouchAPIKeyUsage(c.UserContext(), user.ID, time.Now().UTC()); err != nil {
			log.Warnf("[Auth] Failed to update api key usage timestamp for user %s: %v", user.ID, err)
		}

		usercontext.Set(c, usercontext.UserContext{
			UserID:     user.ID,
			Email:      user.Email,
			IsLoggedIn: true,
		})
		return c.Next()
	}
}

func extractAPIKeyFromHeader(c *fiber.Ctx) string {
	apiKey := strings.TrimSpace(c.Get("X-API-Key"))
	if apiKey != "" {
		return apiKey
	}
	auth := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
