package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/packscale/packscale/internal/alerting"
	"github.com/packscale/packscale/internal/ingest"
	"github.com/packscale/packscale/internal/logging"
	"github.com/packscale/packscale/internal/profiles"
	"github.com/packscale/packscale/internal/report"
	"github.com/packscale/packscale/internal/services"
	"github.com/packscale/packscale/internal/storage"
)

func newTestHandler(t *testing.T) (*Handler, *storage.MemoryStore) {
	t.Helper()
	logger := logging.NewNop()
	store := storage.NewMemoryStore(storage.MemoryStoreConfig{}, logger)
	t.Cleanup(func() { _ = store.Close() })

	registry := profiles.NewMemoryRegistry()
	defaults := profiles.Defaults{UserMassKg: 70, OverloadPercent: 10}
	engine := report.NewEngine(report.Options{
		Location:      time.UTC,
		WeekStart:     time.Sunday,
		DefaultLimits: alerting.Limits{UserMassKg: 70, OverloadPercent: 10},
	})
	pipeline := ingest.NewPipeline(store, registry, defaults, alerting.NewMonitor(nil, "", logger), logger)

	h := New(logger, store,
		services.NewReportService(logger, engine, store, registry, pipeline),
		services.NewProfileService(logger, registry, defaults))
	return h, store
}

func newTestApp(h *Handler) *fiber.App {
	app := fiber.New()
	app.Use(logging.FiberMiddleware(logging.NewNop()))
	app.Get("/health", h.Health)
	app.Post("/v1/reports", h.CreateReport)
	app.Get("/v1/reports/presets", h.ListPresets)
	app.Get("/v1/profiles", h.ListProfiles)
	bp := app.Group("/v1/backpacks/:code")
	bp.Post("/measurements", h.IngestMeasurements)
	bp.Get("/reports/daily/:date", h.DailyReport)
	bp.Get("/reports/weekly/:date", h.WeeklyReport)
	bp.Get("/reports/weekday", h.WeekdayReport)
	bp.Get("/reports/monthly/:year/:month", h.MonthlyReport)
	bp.Get("/reports/annual/:year", h.AnnualReport)
	bp.Get("/prediction/:date", h.Prediction)
	bp.Get("/current", h.Current)
	bp.Get("/profile", h.GetProfile)
	bp.Put("/profile", h.PutProfile)
	bp.Delete("/profile", h.DeleteProfile)
	app.Use(h.NotFound)
	return app
}

func doRequest(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to perform request: %v", err)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read response body: %v", err)
	}
	return resp, data
}

func decode(t *testing.T, data []byte, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("Failed to unmarshal response: %v (%s)", err, data)
	}
}

const seedBody = `{"measurements":[
	{"timestamp":"2024-03-04T08:00:00Z","sensorLabel":"Sensor Esquerda 1","weightKg":4},
	{"timestamp":"2024-03-04T08:00:00Z","sensorLabel":"Direita","weightKg":4},
	{"timestamp":"2024-03-11T09:30:00Z","sensorLabel":"esquerda","weightKg":5},
	{"timestamp":"2024-03-11T09:30:00Z","sensorLabel":"Direita","weightKg":5},
	{"timestamp":"2024-03-12T18:00:00Z","sensorLabel":"Esquerda","weightKg":1}
]}`
