package forecast

import "github.com/packscale/packscale/internal/utils"

// Trend fits an OLS line to values indexed 1..n. It returns nil for fewer
// than two points or a zero denominator.
func Trend(values []float64) *Regression {
	if len(values) < 2 {
		return nil
	}

	n := float64(len(values))

	// Calculate sums for linear regression
	sumX := 0.0
	sumY := 0.0
	sumXY := 0.0
	sumX2 := 0.0

	for i, v := range values {
		x := float64(i + 1)
		sumX += x
		sumY += v
		sumXY += x * v
		sumX2 += x * x
	}

	denominator := n*sumX2 - sumX*sumX
	if denominator == 0 {
		return nil
	}

	slope := (n*sumXY - sumX*sumY) / denominator
	intercept := (sumY - slope*sumX) / n
	if !utils.IsFinite(slope) || !utils.IsFinite(intercept) {
		return nil
	}

	return &Regression{
		Slope:     utils.Round2(slope),
		Intercept: utils.Round2(intercept),
	}
}
