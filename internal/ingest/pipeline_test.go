package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packscale/packscale/internal/alerting"
	"github.com/packscale/packscale/internal/logging"
	"github.com/packscale/packscale/internal/measurement"
	"github.com/packscale/packscale/internal/profiles"
	"github.com/packscale/packscale/internal/storage"
)

var base = time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

func sample(offset time.Duration, label string, kg float64) measurement.Measurement {
	return measurement.Measurement{Timestamp: base.Add(offset), SensorLabel: label, WeightKg: kg}
}

type fixture struct {
	store    *storage.MemoryStore
	registry *profiles.MemoryRegistry
	monitor  *alerting.Monitor
	pipeline *Pipeline
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:    storage.NewMemoryStore(storage.MemoryStoreConfig{}, logging.NewNop()),
		registry: profiles.NewMemoryRegistry(),
		monitor:  alerting.NewMonitor(nil, "", logging.NewNop()),
	}
	t.Cleanup(func() { _ = f.store.Close() })
	f.pipeline = NewPipeline(f.store, f.registry, profiles.Defaults{UserMassKg: 70, OverloadPercent: 10}, f.monitor, logging.NewNop())
	return f
}

func TestPipeline_IngestWithDefaults(t *testing.T) {
	f := newFixture(t)

	res, err := f.pipeline.Ingest(context.Background(), Batch{
		Backpack: " moc-1 ",
		Measurements: []measurement.Measurement{
			sample(0, "esquerda", 3.25),
			sample(time.Minute, "direita", 3.25),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "MOC-1", res.Backpack)
	assert.Equal(t, 2, res.Stored)
	assert.Equal(t, 6.5, res.Current.TotalKg)
	assert.Equal(t, 7.0, res.Current.MaxAllowedKg)
	assert.False(t, res.Current.Exceeded)
	assert.True(t, res.Current.Warning)
	assert.Empty(t, res.Events)
	assert.Equal(t, int64(2), f.store.Count())
}

func TestPipeline_OverloadUsesStoredProfile(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.registry.Put(context.Background(), &profiles.Profile{
		Backpack: "MOC-2", UserMassKg: 50, OverloadPercent: 10,
	}))

	res, err := f.pipeline.Ingest(context.Background(), Batch{
		Backpack: "MOC-2",
		Measurements: []measurement.Measurement{
			sample(0, "left", 3),
			sample(0, "right", 2.5),
		},
	})
	require.NoError(t, err)
	assert.True(t, res.Current.Exceeded)
	require.NotEmpty(t, res.Events)
	assert.Equal(t, alerting.EventOverload, res.Events[0].Kind)
	assert.True(t, f.monitor.Overloaded("MOC-2"))

	// a second overloaded batch is not a new excursion
	res, err = f.pipeline.Ingest(context.Background(), Batch{
		Backpack:     "MOC-2",
		Measurements: []measurement.Measurement{sample(time.Minute, "left", 3.1)},
	})
	require.NoError(t, err)
	for _, ev := range res.Events {
		assert.NotEqual(t, alerting.EventOverload, ev.Kind)
	}
}

func TestPipeline_LatestSampleWins(t *testing.T) {
	f := newFixture(t)

	_, err := f.pipeline.Ingest(context.Background(), Batch{
		Backpack:     "MOC-3",
		Measurements: []measurement.Measurement{sample(time.Hour, "left", 2)},
	})
	require.NoError(t, err)

	// an older sample arriving late must not replace the current reading
	res, err := f.pipeline.Ingest(context.Background(), Batch{
		Backpack:     "MOC-3",
		Measurements: []measurement.Measurement{sample(0, "left", 9)},
	})
	require.NoError(t, err)
	assert.Equal(t, 2.0, res.Current.LeftKg)
}

func TestPipeline_WithoutMonitor(t *testing.T) {
	store := storage.NewMemoryStore(storage.MemoryStoreConfig{}, logging.NewNop())
	defer func() { _ = store.Close() }()
	p := NewPipeline(store, profiles.NewMemoryRegistry(), profiles.Defaults{}, nil, nil)

	res, err := p.Ingest(context.Background(), Batch{
		Backpack:     "MOC-4",
		Measurements: []measurement.Measurement{sample(0, "left", 20)},
	})
	require.NoError(t, err)
	assert.True(t, res.Current.Exceeded)
	assert.Nil(t, res.Events)
}

func TestPipeline_Errors(t *testing.T) {
	f := newFixture(t)

	_, err := f.pipeline.Ingest(context.Background(), Batch{Backpack: "bad code!"})
	assert.True(t, errors.Is(err, storage.ErrInvalidBackpack))
	assert.True(t, Permanent(err))

	require.NoError(t, f.store.Close())
	_, err = f.pipeline.Ingest(context.Background(), Batch{
		Backpack:     "MOC-5",
		Measurements: []measurement.Measurement{sample(0, "left", 1)},
	})
	assert.True(t, errors.Is(err, storage.ErrStoreClosed))
	assert.False(t, Permanent(err))
}
