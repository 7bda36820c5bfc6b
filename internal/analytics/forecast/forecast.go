// Package forecast estimates trends and predicts same-weekday loads from
// daily bucket totals.
package forecast

import "github.com/packscale/packscale/internal/analytics"

// Regression is an ordinary-least-squares line y = Slope*x + Intercept over
// x = 1..n.
type Regression struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
}

// At evaluates the line at index x
func (r Regression) At(x float64) float64 {
	return r.Slope*x + r.Intercept
}

// PredictionResult is either a prediction or the reason none was made.
// PartialStats is set when some history exists but not enough to trust.
type PredictionResult struct {
	TargetDate    string                      `json:"targetDate"`
	Weekday       string                      `json:"weekday"`
	PredictedMean *float64                    `json:"predictedMean,omitempty"`
	SampleSize    int                         `json:"sampleSize"`
	BasisStats    *analytics.DescriptiveStats `json:"basisStats,omitempty"`
	Reason        string                      `json:"reason,omitempty"`
	PartialStats  *analytics.DescriptiveStats `json:"partialStats,omitempty"`
}

// Predicted reports whether the result carries a trusted prediction
func (p *PredictionResult) Predicted() bool {
	return p != nil && p.PredictedMean != nil
}
