package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packscale/packscale/internal/aggregation"
)

func TestNewPresetRequest(t *testing.T) {
	req, err := NewPresetRequest(PresetMonthly, "2024-03")
	require.NoError(t, err)
	assert.Equal(t, "day", req.Granularity)
	assert.Equal(t, "month", req.Period)
	assert.Equal(t, "2024-03", req.ReferencePeriod)
	assert.Equal(t, "day", req.ChartGranularity)
	assert.True(t, req.Extremes)

	req, err = NewPresetRequest(PresetPrediction, "2024-03-18")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-18", req.TargetDate)
	assert.Empty(t, req.ChartGranularity)
	assert.Empty(t, req.ReferencePeriod)

	req, err = NewPresetRequest(PresetWeekday, "ignored")
	require.NoError(t, err)
	assert.Empty(t, req.ReferencePeriod)
}

func TestNewPresetRequest_Errors(t *testing.T) {
	_, err := NewPresetRequest("hourly", "")
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = NewPresetRequest(PresetDaily, "")
	assert.ErrorIs(t, err, aggregation.ErrInvalidPeriod)

	_, err = NewPresetRequest(PresetPrediction, "")
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestPresets(t *testing.T) {
	assert.Equal(t, []string{"annual", "daily", "monthly", "prediction", "weekday", "weekly"}, Presets())
}
