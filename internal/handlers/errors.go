package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/example/ruangtamu/internal/gateway"
	"github.com/example/ruangtamu/internal/services"
)

// ErrorHandler maps backend and service errors onto JSON responses.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := "internal server error"

	var fiberErr *fiber.Error
	var httpErr *gateway.HTTPError
	var schemaErr *gateway.SchemaError
	var validationErr *services.ValidationError

	switch {
	case errors.As(err, &fiberErr):
		status = fiberErr.Code
		message = fiberErr.Message
	case errors.As(err, &validationErr):
		status = fiber.StatusBadRequest
		message = validationErr.Reason
	case errors.Is(err, services.ErrActionInFlight):
		status = fiber.StatusConflict
		message = err.Error()
	case errors.Is(err, gateway.ErrGuestNotFound):
		status = fiber.StatusNotFound
		message = err.Error()
	case errors.As(err, &httpErr):
		status = httpErr.Status
		if status < fiber.StatusBadRequest {
			status = fiber.StatusBadRequest
		}
		message = httpErr.Message
	case errors.Is(err, gateway.ErrNetwork):
		status = fiber.StatusBadGateway
		message = gateway.ErrNetwork.Error()
	case errors.As(err, &schemaErr):
		status = fiber.StatusBadGateway
		message = schemaErr.Reason
	}

	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}
