package handlers

import (
	"bytes"
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"github.com/packscale/packscale/internal/logging"
	"github.com/packscale/packscale/internal/measurement"
	"github.com/packscale/packscale/internal/models"
	"github.com/packscale/packscale/internal/services"
)

// IngestMeasurements stores a measurement batch.
// POST /v1/backpacks/:code/measurements
//
// The body is {"measurements": [...]} or a bare array.
func (h *Handler) IngestMeasurements(c *fiber.Ctx) error {
	body := bytes.TrimSpace(c.Body())

	var ms []measurement.Measurement
	if len(body) > 0 && body[0] == '[' {
		if err := json.Unmarshal(body, &ms); err != nil {
			return invalidJSON(c, err)
		}
	} else {
		var req models.IngestRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return invalidJSON(c, err)
		}
		ms = req.Measurements
	}

	res, err := h.reportService.Ingest(c.UserContext(), c.Params("code"), ms)
	if err != nil {
		return h.writeError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(models.IngestResponse{
		Backpack:  res.Backpack,
		Accepted:  len(ms),
		Stored:    res.Stored,
		RequestID: logging.RequestID(c.UserContext()),
		Current:   res.Current,
		Events:    res.Events,
	})
}

// Current handles GET /v1/backpacks/:code/current
func (h *Handler) Current(c *fiber.Ctx) error {
	cur, err := h.reportService.Current(c.UserContext(), c.Params("code"))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(cur)
}

// GetProfile handles GET /v1/backpacks/:code/profile
func (h *Handler) GetProfile(c *fiber.Ctx) error {
	p, err := h.profileService.Get(c.UserContext(), c.Params("code"))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(p)
}

// PutProfile handles PUT /v1/backpacks/:code/profile
func (h *Handler) PutProfile(c *fiber.Ctx) error {
	var in services.ProfileInput
	if err := c.BodyParser(&in); err != nil {
		return invalidJSON(c, err)
	}

	p, err := h.profileService.Put(c.UserContext(), c.Params("code"), in)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(p)
}

// DeleteProfile handles DELETE /v1/backpacks/:code/profile
func (h *Handler) DeleteProfile(c *fiber.Ctx) error {
	if err := h.profileService.Delete(c.UserContext(), c.Params("code")); err != nil {
		return h.writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListProfiles handles GET /v1/profiles
func (h *Handler) ListProfiles(c *fiber.Ctx) error {
	ps, err := h.profileService.List(c.UserContext())
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(models.ProfileListResponse{Profiles: ps})
}
