package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

type HealthController struct {
	version string
	now     func() time.Time
}

func NewHealthController(version string) *HealthController {
	return &HealthController{version: version, now: time.Now}
}

func (h *HealthController) Health(c *fiber.Ctx) error {
	now := h.now()
	return c.JSON(fiber.Map{
		"ok":        true,
		"timestamp": formatTimePtr(&now),
		"version":   h.version,
	})
}
