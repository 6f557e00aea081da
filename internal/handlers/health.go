package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/soltixdb/cosinor/internal/models"
)

// Health handles GET /health
func (h *Handler) Health(c *fiber.Ctx) error {
	list := h.service.List()
	names := make([]string, len(list))
	for i, a := range list {
		names[i] = a.Name()
	}
	return c.JSON(models.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   Version,
		Analyses:  names,
		Events:    h.service.EventsEnabled(),
	})
}

// NotFound is the catch-all for unknown routes
func (h *Handler) NotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    "NOT_FOUND",
			Message: "No route for " + c.Method() + " " + c.Path(),
			Path:    c.Path(),
		},
	})
}
