package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/soltixdb/cosinor/internal/logging"
	"github.com/soltixdb/cosinor/internal/models"
	"github.com/soltixdb/cosinor/internal/services"
)

// StatusForCode maps a service error code to an HTTP status
func StatusForCode(code string) int {
	switch code {
	case services.CodeInvalidInput, services.CodeInvalidSpreadsheet:
		return fiber.StatusBadRequest
	case services.CodeFitFailed, services.CodeInsufficientData:
		return fiber.StatusUnprocessableEntity
	case services.CodeUnknownAnalysis:
		return fiber.StatusNotFound
	case services.CodeTimeout:
		return fiber.StatusGatewayTimeout
	default:
		return fiber.StatusInternalServerError
	}
}

// WriteServiceError renders a service error as an ErrorResponse
func WriteServiceError(c *fiber.Ctx, serr *services.ServiceError) error {
	return c.Status(StatusForCode(serr.Code)).JSON(models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    serr.Code,
			Message: serr.Message,
			Path:    c.Path(),
			Details: serr.Details,
		},
	})
}

// ErrorHandler returns a custom error handler middleware. Errors are logged
// with the request-scoped logger when the request carries one, else logger.
func ErrorHandler(logger *logging.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var serr *services.ServiceError
		if errors.As(err, &serr) {
			return WriteServiceError(c, serr)
		}

		code := fiber.StatusInternalServerError
		message := "Internal Server Error"

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
		}

		ctx := c.UserContext()
		if logging.FromContext(ctx) == logging.Global() {
			ctx = logging.WithLogger(ctx, logger)
		}
		logging.Ctx(ctx).Error("Request error",
			"path", c.Path(),
			"method", c.Method(),
			"status", code,
			"error", err)

		return c.Status(code).JSON(models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "ERROR",
				Message: message,
				Path:    c.Path(),
			},
		})
	}
}
