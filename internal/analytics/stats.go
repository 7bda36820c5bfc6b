// Package analytics provides descriptive statistics over bucket totals,
// with trend and prediction models in the forecast subpackage.
package analytics

import (
	"math"
	"sort"
	"strings"

	"github.com/montanaflynn/stats"

	"github.com/packscale/packscale/internal/utils"
)

// DescriptiveStats summarizes a value sequence with population statistics.
// Every field except Count is rounded to two decimals.
type DescriptiveStats struct {
	Mean     float64   `json:"mean"`
	Median   float64   `json:"median"`
	Mode     string    `json:"mode"`
	Modes    []float64 `json:"modes"`
	StdDev   float64   `json:"stdDev"`
	Skewness float64   `json:"skewness"`
	Kurtosis float64   `json:"kurtosis"`
	Count    int       `json:"count"`
	Sum      float64   `json:"sum"`
}

// finite drops NaN and infinite values
func finite(values []float64) stats.Float64Data {
	out := make(stats.Float64Data, 0, len(values))
	for _, v := range values {
		if utils.IsFinite(v) {
			out = append(out, v)
		}
	}
	return out
}

// Describe computes DescriptiveStats for values. It returns nil when no
// finite value remains.
func Describe(values []float64) *DescriptiveStats {
	data := finite(values)
	n := data.Len()
	if n == 0 {
		return nil
	}

	// stats only errors on empty input, which is excluded above
	mean, _ := stats.Mean(data)
	median, _ := stats.Median(data)
	stdDev, _ := stats.StandardDeviationPopulation(data)
	sum, _ := stats.Sum(data)

	skewness, kurtosis := 0.0, 0.0
	if stdDev > 0 {
		var m3, m4 float64
		for _, v := range data {
			d := v - mean
			m3 += d * d * d
			m4 += d * d * d * d
		}
		m3 /= float64(n)
		m4 /= float64(n)
		skewness = m3 / math.Pow(stdDev, 3)
		kurtosis = m4/math.Pow(stdDev, 4) - 3
	}

	modes := Modes(data)
	return &DescriptiveStats{
		Mean:     utils.Round2(mean),
		Median:   utils.Round2(median),
		Mode:     FormatModes(modes),
		Modes:    modes,
		StdDev:   utils.Round2(stdDev),
		Skewness: utils.Round2(skewness),
		Kurtosis: utils.Round2(kurtosis),
		Count:    n,
		Sum:      utils.Round2(sum),
	}
}

// Modes groups values by their 2-decimal rounding and returns every group
// sharing the highest frequency, ascending.
func Modes(values []float64) []float64 {
	freq := make(map[float64]int, len(values))
	best := 0
	for _, v := range values {
		k := utils.Round2(v)
		freq[k]++
		if freq[k] > best {
			best = freq[k]
		}
	}

	modes := make([]float64, 0, 1)
	for k, c := range freq {
		if c == best {
			modes = append(modes, k)
		}
	}
	sort.Float64s(modes)
	return modes
}

// FormatModes joins modes as a display list, e.g. "19, 20.5"
func FormatModes(modes []float64) string {
	if len(modes) == 0 {
		return ""
	}
	parts := make([]string, len(modes))
	for i, m := range modes {
		parts[i] = utils.FormatNumber(m)
	}
	return strings.Join(parts, ", ")
}
