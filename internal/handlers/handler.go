// Package handlers implements the HTTP endpoints of the report service.
package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/packscale/packscale/internal/logging"
	"github.com/packscale/packscale/internal/models"
	"github.com/packscale/packscale/internal/services"
	"github.com/packscale/packscale/internal/storage"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// Handler contains all HTTP handlers
type Handler struct {
	logger         *logging.Logger
	store          storage.Store
	reportService  *services.ReportService
	profileService *services.ProfileService
}

// New creates a new handler instance
func New(logger *logging.Logger, store storage.Store,
	reportService *services.ReportService, profileService *services.ProfileService,
) *Handler {
	return &Handler{
		logger:         logger,
		store:          store,
		reportService:  reportService,
		profileService: profileService,
	}
}

// statusFor maps a service error code to an HTTP status
func statusFor(code string) int {
	switch code {
	case services.CodeInvalidRequest, services.CodeInvalidBackpack, services.CodeInvalidProfile:
		return fiber.StatusBadRequest
	case services.CodeNotFound:
		return fiber.StatusNotFound
	case services.CodeUnavailable:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// writeError renders err with the error envelope
func (h *Handler) writeError(c *fiber.Ctx, err error) error {
	var svcErr *services.ServiceError
	if errors.As(err, &svcErr) {
		return c.Status(statusFor(svcErr.Code)).JSON(models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    svcErr.Code,
				Message: svcErr.Message,
				Details: svcErr.Details,
			},
		})
	}

	h.logger.Error("Unclassified handler error", "path", c.Path(), "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    services.CodeInternal,
			Message: err.Error(),
		},
	})
}

func invalidJSON(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    "INVALID_JSON",
			Message: "Failed to parse JSON body",
			Details: map[string]interface{}{"error": err.Error()},
		},
	})
}
