package handlers

import (
	"time"

	"portal/config"

	"github.com/gofiber/fiber/v2"
)

func HealthHandler(router fiber.Router, config config.Config) {
	started := time.Now().UTC()
	router.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"success":     true,
			"status":      "ok",
			"environment": config.Environment,
			"startedAt":   started,
		})
	})
}
