package storage

import (
	"time"

	"github.com/packscale/packscale/internal/logging"
	"github.com/packscale/packscale/internal/measurement"
)

var base = time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

func sample(offset time.Duration, label string, kg float64) measurement.Measurement {
	return measurement.Measurement{Timestamp: base.Add(offset), SensorLabel: label, WeightKg: kg}
}

func newTestStore(cfg MemoryStoreConfig) *MemoryStore {
	ms := NewMemoryStore(cfg, logging.NewNop())
	ms.now = func() time.Time { return base.Add(24 * time.Hour) }
	return ms
}
