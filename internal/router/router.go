package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/packscale/packscale/internal/config"
	"github.com/packscale/packscale/internal/handlers"
	"github.com/packscale/packscale/internal/logging"
	"github.com/packscale/packscale/internal/middleware"
	"github.com/packscale/packscale/internal/services"
	"github.com/packscale/packscale/internal/storage"
)

// Dependencies are the components the routes are served from
type Dependencies struct {
	Store    storage.Store
	Reports  *services.ReportService
	Profiles *services.ProfileService
}

// Setup configures all routes and middlewares
func Setup(app *fiber.App, logger *logging.Logger, deps Dependencies, cfg config.Config) *handlers.Handler {
	h := handlers.New(logger, deps.Store, deps.Reports, deps.Profiles)

	// Global middlewares
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-API-Key,X-Request-ID",
	}))
	app.Use(logging.FiberMiddleware(logger))

	// Health check (no auth required)
	app.Get("/health", h.Health)

	authMiddleware := middleware.APIKeyAuth(logger, cfg.Auth.APIKeys, cfg.Auth.Enabled)
	v1 := app.Group("/v1", authMiddleware)

	// Stateless engine
	v1.Post("/reports", h.CreateReport)
	v1.Get("/reports/presets", h.ListPresets)

	// Profiles
	v1.Get("/profiles", h.ListProfiles)

	// Stored backpack history
	bp := v1.Group("/backpacks/:code")
	bp.Post("/measurements", h.IngestMeasurements)
	bp.Get("/current", h.Current)
	bp.Get("/profile", h.GetProfile)
	bp.Put("/profile", h.PutProfile)
	bp.Delete("/profile", h.DeleteProfile)

	bp.Get("/reports/daily/:date", h.DailyReport)
	bp.Get("/reports/weekly/:date", h.WeeklyReport)
	bp.Get("/reports/weekday", h.WeekdayReport)
	bp.Get("/reports/monthly/:year/:month", h.MonthlyReport)
	bp.Get("/reports/annual/:year", h.AnnualReport)
	bp.Get("/prediction/:date", h.Prediction)

	// 404 handler
	app.Use(h.NotFound)

	return h
}

// New creates a new Fiber app with configuration
func New(logger *logging.Logger, deps Dependencies, cfg config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "PackScale Reporter",
		DisableStartupMessage: true,
		ErrorHandler:          middleware.ErrorHandler(logger),
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		BodyLimit:             cfg.Server.BodyLimit,
	})

	Setup(app, logger, deps, cfg)

	return app
}
