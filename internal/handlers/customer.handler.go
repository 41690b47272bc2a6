package handlers

import (
	"bytes"

	"portal/internal/app"
	customerController "portal/internal/controllers/customers"
	"portal/internal/logger"
	. "portal/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CustomerHandler struct {
	Handler
	controller *customerController.CustomerController
}

func NewCustomerHandler(app app.App, router fiber.Router) *CustomerHandler {
	log := logger.New("handlers").File("customer_handler")
	return &CustomerHandler{
		controller: app.CustomerController,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *CustomerHandler) Register() {
	customers := h.router.Group("/customers")
	customers.Get("/", h.getCustomers)
	customers.Post("/", h.createCustomer)
	customers.Get("/export.csv", h.exportCustomers)
	customers.Post("/mock", h.createMockCustomer)

	customers.Get("/:id", h.getCustomer)
	customers.Put("/:id", h.updateCustomer)
	customers.Delete("/:id", h.deleteCustomer)
	customers.Post("/:id/reset-edited", h.resetEditedStatus)
	customers.Post("/:id/public-link", h.issuePublicLink)
}

func (h *CustomerHandler) getCustomers(c *fiber.Ctx) error {
	log := h.log.Function("getCustomers")

	records, err := h.controller.List(c.Context())
	if err != nil {
		return h.respondError(c, log, err, "failed to get customers")
	}

	return success(c, fiber.StatusOK, records)
}

func (h *CustomerHandler) getCustomer(c *fiber.Ctx) error {
	log := h.log.Function("getCustomer")

	record, err := h.controller.Get(c.Context(), c.Params("id"))
	if err != nil {
		return h.respondError(c, log, err, "failed to get customer")
	}

	return success(c, fiber.StatusOK, record)
}

func (h *CustomerHandler) createCustomer(c *fiber.Ctx) error {
	log := h.log.Function("createCustomer")

	var formData FormData
	if err := c.BodyParser(&formData); err != nil {
		log.Er("failed to parse customer request", err)
		return failure(c, fiber.StatusBadRequest, "failed to parse customer request")
	}

	record, err := h.controller.Create(c.Context(), formData)
	if err != nil {
		return h.respondError(c, log, err, "failed to create customer")
	}

	return success(c, fiber.StatusCreated, record)
}

func (h *CustomerHandler) createMockCustomer(c *fiber.Ctx) error {
	log := h.log.Function("createMockCustomer")

	record, err := h.controller.CreateMock(c.Context())
	if err != nil {
		return h.respondError(c, log, err, "failed to create mock customer")
	}

	return success(c, fiber.StatusCreated, record)
}

func (h *CustomerHandler) updateCustomer(c *fiber.Ctx) error {
	log := h.log.Function("updateCustomer")

	var formData FormData
	if err := c.BodyParser(&formData); err != nil {
		log.Er("failed to parse customer request", err)
		return failure(c, fiber.StatusBadRequest, "failed to parse customer request")
	}

	record, err := h.controller.Update(c.Context(), c.Params("id"), formData)
	if err != nil {
		return h.respondError(c, log, err, "failed to update customer")
	}

	return success(c, fiber.StatusOK, record)
}

func (h *CustomerHandler) deleteCustomer(c *fiber.Ctx) error {
	log := h.log.Function("deleteCustomer")

	if err := h.controller.Delete(c.Context(), c.Params("id")); err != nil {
		return h.respondError(c, log, err, "failed to delete customer")
	}

	return c.JSON(fiber.Map{"success": true})
}

func (h *CustomerHandler) resetEditedStatus(c *fiber.Ctx) error {
	log := h.log.Function("resetEditedStatus")

	record, err := h.controller.ResetEditedStatus(c.Context(), c.Params("id"))
	if err != nil {
		return h.respondError(c, log, err, "failed to reset edited status")
	}

	return success(c, fiber.StatusOK, record)
}

func (h *CustomerHandler) issuePublicLink(c *fiber.Ctx) error {
	log := h.log.Function("issuePublicLink")

	link, err := h.controller.IssuePublicLink(c.Context(), c.Params("id"))
	if err != nil {
		return h.respondError(c, log, err, "failed to create public link")
	}

	return success(c, fiber.StatusCreated, link)
}

func (h *CustomerHandler) exportCustomers(c *fiber.Ctx) error {
	log := h.log.Function("exportCustomers")

	var buf bytes.Buffer
	rows, err := h.controller.ExportCSV(c.Context(), &buf)
	if err != nil {
		return h.respondError(c, log, err, "failed to export customers")
	}

	log.Info("Exported customers", "rows", rows)
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Attachment("customers.csv")
	return c.Send(buf.Bytes())
}
