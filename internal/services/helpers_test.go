package services

import (
	"testing"
	"time"

	"github.com/packscale/packscale/internal/alerting"
	"github.com/packscale/packscale/internal/ingest"
	"github.com/packscale/packscale/internal/logging"
	"github.com/packscale/packscale/internal/measurement"
	"github.com/packscale/packscale/internal/profiles"
	"github.com/packscale/packscale/internal/report"
	"github.com/packscale/packscale/internal/storage"
)

func at(value string) time.Time {
	t, err := time.Parse("2006-01-02 15:04:05", value)
	if err != nil {
		panic(err)
	}
	return t
}

func m(ts, label string, kg float64) measurement.Measurement {
	return measurement.Measurement{Timestamp: at(ts), SensorLabel: label, WeightKg: kg}
}

type testEnv struct {
	store    *storage.MemoryStore
	registry *profiles.MemoryRegistry
	reports  *ReportService
	profiles *ProfileService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := logging.NewNop()
	store := storage.NewMemoryStore(storage.MemoryStoreConfig{}, logger)
	t.Cleanup(func() { _ = store.Close() })

	registry := profiles.NewMemoryRegistry()
	engine := report.NewEngine(report.Options{
		Location:             time.UTC,
		WeekStart:            time.Sunday,
		MinPredictionSamples: 2,
		DefaultLimits:        alerting.Limits{UserMassKg: 70, OverloadPercent: 10},
	})
	defaults := profiles.Defaults{UserMassKg: 70, OverloadPercent: 10}
	pipeline := ingest.NewPipeline(store, registry, defaults, nil, logger)

	return &testEnv{
		store:    store,
		registry: registry,
		reports:  NewReportService(logger, engine, store, registry, pipeline),
		profiles: NewProfileService(logger, registry, defaults),
	}
}
