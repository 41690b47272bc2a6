package handlers

import (
	"portal/internal/app"
	customerController "portal/internal/controllers/customers"
	"portal/internal/logger"
	. "portal/internal/models"

	"github.com/gofiber/fiber/v2"
)

// PublicHandler serves the token-gated self-service form. Responses never
// reveal whether a customer id exists.
type PublicHandler struct {
	Handler
	controller *customerController.CustomerController
}

func NewPublicHandler(app app.App, router fiber.Router) *PublicHandler {
	log := logger.New("handlers").File("public_handler")
	return &PublicHandler{
		controller: app.CustomerController,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *PublicHandler) Register() {
	public := h.router.Group("/public/customers")
	public.Get("/:id/:token", h.middleware.ValidAccessToken(), h.getCustomer)
	public.Put("/:id/:token", h.middleware.ValidAccessToken(), h.submitCustomer)
}

func (h *PublicHandler) getCustomer(c *fiber.Ctx) error {
	log := h.log.Function("getCustomer")

	record, err := h.controller.GetPublic(c.Context(), c.Params("id"), c.Params("token"))
	if err != nil {
		return h.respondError(c, log, err, "failed to get customer")
	}

	return success(c, fiber.StatusOK, record)
}

func (h *PublicHandler) submitCustomer(c *fiber.Ctx) error {
	log := h.log.Function("submitCustomer")

	var formData FormData
	if err := c.BodyParser(&formData); err != nil {
		log.Er("failed to parse public submission", err)
		return failure(c, fiber.StatusBadRequest, "failed to parse form")
	}

	record, err := h.controller.SubmitPublic(c.Context(), c.Params("id"), c.Params("token"), formData)
	if err != nil {
		return h.respondError(c, log, err, "failed to submit form")
	}

	return success(c, fiber.StatusOK, record)
}
