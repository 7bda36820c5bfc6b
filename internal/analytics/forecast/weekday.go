package forecast

import (
	"strings"
	"time"

	"github.com/packscale/packscale/internal/aggregation"
	"github.com/packscale/packscale/internal/analytics"
)

const (
	// ReasonNoHistory is reported when no earlier day shares the weekday
	ReasonNoHistory = "not enough history for this weekday"
	// ReasonFewSamples is reported when history exists below the minimum
	ReasonFewSamples = "too few matching days to trust a prediction"
)

// PredictWeekday predicts the load of target from the daily totals of
// earlier days falling on the same weekday. Days on or after the target
// day are ignored. A prediction needs at least minSamples matching days;
// fewer yields a reason with the partial statistics.
func PredictWeekday(daily []aggregation.BucketTotal, target time.Time, minSamples int) *PredictionResult {
	if minSamples < 1 {
		minSamples = 1
	}

	targetDay := aggregation.TruncateToDay(target)
	weekday := targetDay.Weekday()

	values := make([]float64, 0, len(daily))
	for _, d := range daily {
		if !d.HasData() || d.Start.IsZero() {
			continue
		}
		start := d.Start.In(target.Location())
		if start.Weekday() != weekday || !start.Before(targetDay) {
			continue
		}
		values = append(values, d.Value)
	}

	result := &PredictionResult{
		TargetDate: targetDay.Format("2006-01-02"),
		Weekday:    strings.ToLower(weekday.String()),
	}

	s := analytics.Describe(values)
	if s == nil {
		result.Reason = ReasonNoHistory
		return result
	}

	result.SampleSize = s.Count
	if s.Count < minSamples {
		result.Reason = ReasonFewSamples
		result.PartialStats = s
		return result
	}

	mean := s.Mean
	result.PredictedMean = &mean
	result.BasisStats = s
	return result
}
