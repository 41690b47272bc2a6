package handlers

import (
	"errors"

	"portal/internal/app"
	"portal/internal/handlers/middleware"
	"portal/internal/logger"
	. "portal/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/websocket/v2"
)

type Handler struct {
	middleware middleware.Middleware
	log        logger.Logger
	router     fiber.Router
}

func Router(router fiber.Router, app *app.App) (err error) {
	setupWebSocketRoute(router, app)
	router.Get("/metrics", adaptor.HTTPHandler(app.Metrics.Handler()))

	api := router.Group("/api")
	HealthHandler(api, app.Config)
	NewCustomerHandler(*app, api).Register()
	NewPublicHandler(*app, api).Register()

	return nil
}

func setupWebSocketRoute(router fiber.Router, app *app.App) {
	router.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	router.Get("/ws", websocket.New(func(c *websocket.Conn) {
		app.Websocket.HandleWebSocket(c)
	}))
}

func success(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(fiber.Map{"success": true, "data": data})
}

func failure(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"success": false, "message": message})
}

// respondError maps domain errors to status codes. Unknown errors are logged
// and answered with fallback, never with the internal error text.
func (h Handler) respondError(c *fiber.Ctx, log logger.Logger, err error, fallback string) error {
	var validationErr *ValidationError
	switch {
	case errors.As(err, &validationErr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "validation failed",
			"errors":  validationErr.Fields,
		})
	case errors.Is(err, ErrNotFound):
		return failure(c, fiber.StatusNotFound, "customer not found")
	case errors.Is(err, ErrInvalidAccessToken):
		return failure(c, fiber.StatusForbidden, "invalid access link")
	case errors.Is(err, ErrAlreadyEdited):
		return failure(c, fiber.StatusConflict, "form already submitted")
	}

	log.Er(fallback, err)
	return failure(c, fiber.StatusInternalServerError, fallback)
}
