package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	fiberutils "github.com/gofiber/fiber/v2/utils"

	"github.com/packscale/packscale/internal/logging"
	"github.com/packscale/packscale/internal/models"
)

// ErrorHandler renders errors that escape the handlers, mostly fiber routing
// and body-limit errors, in the JSON error envelope
func ErrorHandler(logger *logging.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal Server Error"

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
		}

		fields := []interface{}{"path", c.Path(), "method", c.Method(), "status", code, "error", err}
		if code >= fiber.StatusInternalServerError {
			logging.FromContext(c.UserContext()).Error("Request error", fields...)
		} else {
			logger.Debug("Request rejected", fields...)
		}

		return c.Status(code).JSON(models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    errorCode(code),
				Message: message,
				Path:    c.Path(),
			},
		})
	}
}

// errorCode turns a status into an upper snake case code, e.g.
// 413 -> REQUEST_ENTITY_TOO_LARGE
func errorCode(status int) string {
	msg := fiberutils.StatusMessage(status)
	if msg == "" {
		return "ERROR"
	}
	return strings.ToUpper(strings.NewReplacer(" ", "_", "-", "_", "'", "").Replace(msg))
}
