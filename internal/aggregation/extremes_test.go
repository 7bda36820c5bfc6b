package aggregation

import (
	"testing"
	"time"

	"github.com/packscale/packscale/internal/measurement"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucketer_Extremes(t *testing.T) {
	b := NewBucketer(time.UTC, time.Sunday)
	day := func(d int) time.Time { return time.Date(2025, 3, d, 12, 0, 0, 0, time.UTC) }
	ms := []measurement.Measurement{
		sample(day(1), "Esquerda", 3),
		sample(day(2), "Esquerda", 7),
		sample(day(3), "Esquerda", 7),
		sample(day(4), "Direita", 2),
		sample(day(5), "Ambos", 1),
		sample(day(6), "Direita", -4),
		sample(time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC), "Direita", 99),
	}

	ex := b.Extremes(ms, mustPeriod("month", "2025-03", time.UTC))
	require.NotNil(t, ex.Left.Max)
	assert.Equal(t, 7.0, ex.Left.Max.WeightKg)
	assert.True(t, day(2).Equal(ex.Left.Max.Timestamp), "ties keep the first sample")
	assert.Equal(t, 1.0, ex.Left.Min.WeightKg)
	assert.Equal(t, 2.0, ex.Right.Max.WeightKg)
	assert.Equal(t, 1.0, ex.Right.Min.WeightKg)
}

func TestBucketer_ExtremesEmpty(t *testing.T) {
	ex := NewBucketer(time.UTC, time.Sunday).Extremes(nil, AllTime)
	assert.Nil(t, ex.Left.Max)
	assert.Nil(t, ex.Right.Min)
}
