package forecast

import (
	"testing"
	"time"

	"github.com/packscale/packscale/internal/aggregation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int, v float64) aggregation.BucketTotal {
	start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return aggregation.BucketTotal{
		Key:     start.Format("2006-01-02"),
		Label:   start.Format("2006-01-02"),
		Start:   start,
		Value:   v,
		Samples: 1,
	}
}

func TestPredictWeekday(t *testing.T) {
	// Mondays: Mar 3, Mar 10, Mar 17 2025
	daily := []aggregation.BucketTotal{
		day(2025, 3, 3, 10),
		day(2025, 3, 4, 99),
		day(2025, 3, 10, 14),
		day(2025, 3, 17, 50),
	}
	target := time.Date(2025, 3, 17, 9, 30, 0, 0, time.UTC)

	p := PredictWeekday(daily, target, 2)
	require.True(t, p.Predicted())
	assert.Equal(t, 12.0, *p.PredictedMean)
	assert.Equal(t, 2, p.SampleSize)
	assert.Equal(t, "monday", p.Weekday)
	assert.Equal(t, "2025-03-17", p.TargetDate)
	require.NotNil(t, p.BasisStats)
	assert.Equal(t, 2, p.BasisStats.Count)
	assert.Empty(t, p.Reason)
	assert.Nil(t, p.PartialStats)
}

func TestPredictWeekday_NoHistory(t *testing.T) {
	daily := []aggregation.BucketTotal{day(2025, 3, 4, 8)}
	p := PredictWeekday(daily, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), 2)

	assert.False(t, p.Predicted())
	assert.Nil(t, p.PredictedMean)
	assert.Equal(t, ReasonNoHistory, p.Reason)
	assert.Nil(t, p.PartialStats)
	assert.Equal(t, 0, p.SampleSize)

	p = PredictWeekday(nil, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), 2)
	assert.Equal(t, ReasonNoHistory, p.Reason)
}

func TestPredictWeekday_BelowMinimum(t *testing.T) {
	daily := []aggregation.BucketTotal{day(2025, 3, 3, 10)}
	p := PredictWeekday(daily, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), 2)

	assert.False(t, p.Predicted())
	assert.Equal(t, ReasonFewSamples, p.Reason)
	require.NotNil(t, p.PartialStats)
	assert.Equal(t, 10.0, p.PartialStats.Mean)
	assert.Equal(t, 1, p.SampleSize)
}

func TestPredictWeekday_MinimumOfOne(t *testing.T) {
	daily := []aggregation.BucketTotal{day(2025, 3, 3, 10)}
	p := PredictWeekday(daily, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), 0)
	require.True(t, p.Predicted())
	assert.Equal(t, 10.0, *p.PredictedMean)
}

func TestPredictWeekday_SkipsEmptyDays(t *testing.T) {
	empty := day(2025, 3, 3, 0)
	empty.Samples = 0
	daily := []aggregation.BucketTotal{empty, day(2025, 2, 24, 6), day(2025, 2, 17, 8)}

	p := PredictWeekday(daily, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), 2)
	require.True(t, p.Predicted())
	assert.Equal(t, 7.0, *p.PredictedMean)
	assert.Equal(t, 2, p.SampleSize)
}
