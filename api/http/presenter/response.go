package presenter

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/artem13815/accounts/pkg/apperr"
)

type ErrorResponse struct {
	Message string `json:"message"`
}

func JSON(c *fiber.Ctx, status int, v any) error {
	return c.Status(status).JSON(v)
}

func Error(c *fiber.Ctx, status int, message string) error {
	return JSON(c, status, ErrorResponse{Message: message})
}

// FromError writes a use case error with the status of its kind and only
// its public message.
func FromError(c *fiber.Ctx, err error) error {
	return Error(c, Status(err), apperr.Message(err))
}

// Status maps an error kind to an HTTP status.
func Status(err error) int {
	switch apperr.Kind(err) {
	case apperr.ErrInvalidInput:
		return http.StatusBadRequest
	case apperr.ErrConflict:
		return http.StatusConflict
	case apperr.ErrAuthentication:
		return http.StatusUnauthorized
	case apperr.ErrCapacity:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
