package middleware

import (
	"time"

	"portal/config"
	"portal/internal/logger"
	"portal/internal/metrics"
	"portal/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

type Middleware struct {
	Config  config.Config
	metrics *metrics.Metrics
	log     logger.Logger
}

func New(config config.Config, metrics *metrics.Metrics) Middleware {
	return Middleware{
		Config:  config,
		metrics: metrics,
		log:     logger.New("middleware"),
	}
}

// RequestLogger logs one line per request with the request id set by the
// requestid middleware.
func (m Middleware) RequestLogger() fiber.Handler {
	log := m.log.Function("RequestLogger")
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}

		args := []any{
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"duration", time.Since(start).String(),
			"requestID", c.Locals(requestid.ConfigDefault.ContextKey),
		}
		switch {
		case err != nil && status >= fiber.StatusInternalServerError:
			log.Er("request failed", err, args...)
		case status >= fiber.StatusInternalServerError:
			log.ErMsg("request failed", args...)
		default:
			log.Debug("request", args...)
		}

		return err
	}
}

func (m Middleware) Metrics() fiber.Handler {
	return m.metrics.Middleware()
}

// ValidAccessToken rejects public requests whose token cannot possibly be
// valid before any lookup happens.
func (m Middleware) ValidAccessToken() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !services.IsValidAccessTokenShape(c.Params("token")) {
			m.log.Function("ValidAccessToken").Debug("rejected malformed access token", "path", c.Path())
			return c.Status(fiber.StatusBadRequest).
				JSON(fiber.Map{"success": false, "message": "invalid access link"})
		}
		return c.Next()
	}
}
