package report

import (
	"fmt"
	"sort"

	"github.com/packscale/packscale/internal/aggregation"
)

// Preset names a report screen
type Preset string

const (
	PresetDaily      Preset = "daily"
	PresetWeekly     Preset = "weekly"
	PresetWeekday    Preset = "weekday"
	PresetMonthly    Preset = "monthly"
	PresetAnnual     Preset = "annual"
	PresetPrediction Preset = "prediction"
)

type presetSpec struct {
	granularity aggregation.Granularity
	period      aggregation.PeriodKind
	chart       aggregation.Granularity
	extremes    bool
	prediction  bool
}

var presets = map[Preset]presetSpec{
	PresetDaily:      {granularity: aggregation.GranularityMinute, period: aggregation.PeriodDay, chart: aggregation.GranularityThreeHour},
	PresetWeekly:     {granularity: aggregation.GranularityDay, period: aggregation.PeriodWeek, chart: aggregation.GranularityDay},
	PresetWeekday:    {granularity: aggregation.GranularityWeekday, period: aggregation.PeriodAll, chart: aggregation.GranularityWeekday},
	PresetMonthly:    {granularity: aggregation.GranularityDay, period: aggregation.PeriodMonth, chart: aggregation.GranularityDay, extremes: true},
	PresetAnnual:     {granularity: aggregation.GranularityMonth, period: aggregation.PeriodYear, chart: aggregation.GranularityMonth},
	PresetPrediction: {granularity: aggregation.GranularityDay, period: aggregation.PeriodAll, prediction: true},
}

// Presets lists the known preset names
func Presets() []string {
	names := make([]string, 0, len(presets))
	for p := range presets {
		names = append(names, string(p))
	}
	sort.Strings(names)
	return names
}

// NewPresetRequest returns the request template of a report screen. value
// is the reference period for calendar presets and the target date for
// the prediction preset.
func NewPresetRequest(p Preset, value string) (Request, error) {
	spec, ok := presets[p]
	if !ok {
		return Request{}, fmt.Errorf("%w: unknown preset %q", ErrInvalidRequest, string(p))
	}

	req := Request{
		Granularity:      string(spec.granularity),
		Period:           string(spec.period),
		ChartGranularity: string(spec.chart),
		Extremes:         spec.extremes,
	}
	switch {
	case spec.prediction:
		if value == "" {
			return Request{}, fmt.Errorf("%w: prediction needs a target date", ErrInvalidRequest)
		}
		req.TargetDate = value
	case spec.period != aggregation.PeriodAll:
		if value == "" {
			return Request{}, fmt.Errorf("%w: %s report needs a %s", aggregation.ErrInvalidPeriod, p, spec.period)
		}
		req.ReferencePeriod = value
	}
	return req, nil
}
