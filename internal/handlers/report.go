package handlers

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/packscale/packscale/internal/models"
	"github.com/packscale/packscale/internal/report"
	"github.com/packscale/packscale/internal/services"
)

// CreateReport runs the engine over the measurements in the body
// POST /v1/reports
func (h *Handler) CreateReport(c *fiber.Ctx) error {
	var req report.Request
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c, err)
	}

	rep, err := h.reportService.Run(c.UserContext(), req)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(rep)
}

// ListPresets returns the preset names
// GET /v1/reports/presets
func (h *Handler) ListPresets(c *fiber.Ctx) error {
	return c.JSON(models.PresetListResponse{Presets: report.Presets()})
}

// DailyReport handles GET /v1/backpacks/:code/reports/daily/:date
func (h *Handler) DailyReport(c *fiber.Ctx) error {
	return h.presetReport(c, report.PresetDaily, c.Params("date"))
}

// WeeklyReport handles GET /v1/backpacks/:code/reports/weekly/:date where
// date is any day inside the week
func (h *Handler) WeeklyReport(c *fiber.Ctx) error {
	return h.presetReport(c, report.PresetWeekly, c.Params("date"))
}

// WeekdayReport handles GET /v1/backpacks/:code/reports/weekday
func (h *Handler) WeekdayReport(c *fiber.Ctx) error {
	return h.presetReport(c, report.PresetWeekday, "")
}

// MonthlyReport handles GET /v1/backpacks/:code/reports/monthly/:year/:month
func (h *Handler) MonthlyReport(c *fiber.Ctx) error {
	month, err := strconv.Atoi(c.Params("month"))
	if err != nil || month < 1 || month > 12 {
		return h.writeError(c, services.NewServiceError(services.CodeInvalidRequest,
			fmt.Sprintf("month %q must be 1-12", c.Params("month"))))
	}
	return h.presetReport(c, report.PresetMonthly, fmt.Sprintf("%s-%02d", c.Params("year"), month))
}

// AnnualReport handles GET /v1/backpacks/:code/reports/annual/:year
func (h *Handler) AnnualReport(c *fiber.Ctx) error {
	return h.presetReport(c, report.PresetAnnual, c.Params("year"))
}

// Prediction handles GET /v1/backpacks/:code/prediction/:date
func (h *Handler) Prediction(c *fiber.Ctx) error {
	return h.presetReport(c, report.PresetPrediction, c.Params("date"))
}

func (h *Handler) presetReport(c *fiber.Ctx, preset report.Preset, value string) error {
	rep, err := h.reportService.BackpackReport(c.UserContext(), c.Params("code"), preset, value)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(rep)
}
