package report

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/packscale/packscale/internal/aggregation"
	"github.com/packscale/packscale/internal/alerting"
	"github.com/packscale/packscale/internal/analytics"
	"github.com/packscale/packscale/internal/analytics/forecast"
	"github.com/packscale/packscale/internal/measurement"
	"github.com/packscale/packscale/internal/utils"
)

// ErrInvalidRequest is returned for malformed request fields other than
// granularity and period
var ErrInvalidRequest = errors.New("invalid report request")

// Request is one engine invocation over a finite sample batch
type Request struct {
	Measurements []measurement.Measurement `json:"measurements"`
	Granularity  string                    `json:"granularity"`
	// Period is the reference period kind. When empty it is inferred from
	// ReferencePeriod, or "all" when that is empty too.
	Period          string   `json:"period,omitempty"`
	ReferencePeriod string   `json:"referencePeriod,omitempty"`
	TargetDate      string   `json:"targetDate,omitempty"`
	UserMassKg      *float64 `json:"userMassKg,omitempty"`
	OverloadPercent *float64 `json:"overloadPercent,omitempty"`
	// ChartGranularity adds a zero-filled chart series when set
	ChartGranularity string `json:"chartGranularity,omitempty"`
	// Extremes adds the heaviest and lightest sample per side
	Extremes bool `json:"extremes,omitempty"`
}

// Chart is a dense series for plotting
type Chart struct {
	Granularity aggregation.Granularity   `json:"granularity"`
	Series      []aggregation.BucketTotal `json:"series"`
}

// Report is the engine response. Numbers are rounded to two decimals.
type Report struct {
	Granularity  aggregation.Granularity     `json:"granularity"`
	Period       aggregation.Period          `json:"period"`
	BucketTotals []aggregation.BucketTotal   `json:"bucketTotals"`
	Stats        *analytics.DescriptiveStats `json:"stats"`
	Regression   *forecast.Regression        `json:"regression"`
	Chart        *Chart                      `json:"chart,omitempty"`
	Extremes     *aggregation.Extremes       `json:"extremes,omitempty"`
	Prediction   *forecast.PredictionResult  `json:"prediction,omitempty"`
	Limits       *alerting.Limits            `json:"limits,omitempty"`
	Alerts       []alerting.Alert            `json:"alerts,omitempty"`
	NoData       bool                        `json:"noData"`
	Discarded    int                         `json:"discarded"`
}

var (
	dayPattern   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	monthPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)
	yearPattern  = regexp.MustCompile(`^\d{4}$`)
)

// inferPeriodKind picks the period kind from the shape of the reference
// value. A date is a day period unless the granularity is too coarse for
// one, in which case it names the week containing it.
func inferPeriodKind(value string, g aggregation.Granularity) (string, error) {
	value = strings.TrimSpace(value)
	switch {
	case value == "":
		return string(aggregation.PeriodAll), nil
	case dayPattern.MatchString(value):
		if aggregation.CheckCompatible(g, aggregation.Period{Kind: aggregation.PeriodDay}) == nil {
			return string(aggregation.PeriodDay), nil
		}
		return string(aggregation.PeriodWeek), nil
	case monthPattern.MatchString(value):
		return string(aggregation.PeriodMonth), nil
	case yearPattern.MatchString(value):
		return string(aggregation.PeriodYear), nil
	default:
		return "", fmt.Errorf("%w: cannot infer period from %q", aggregation.ErrInvalidPeriod, value)
	}
}

// limits resolves the threshold limits of the request. It returns nil when
// the request carries neither value.
func (r *Request) limits(defaults alerting.Limits) (*alerting.Limits, error) {
	if r.UserMassKg == nil && r.OverloadPercent == nil {
		return nil, nil
	}
	l := defaults
	if r.UserMassKg != nil {
		l.UserMassKg = *r.UserMassKg
	}
	if r.OverloadPercent != nil {
		l.OverloadPercent = *r.OverloadPercent
	}
	if !utils.IsFinite(l.UserMassKg) || l.UserMassKg <= 0 {
		return nil, fmt.Errorf("%w: userMassKg must be positive", ErrInvalidRequest)
	}
	if !utils.IsFinite(l.OverloadPercent) || l.OverloadPercent <= 0 || l.OverloadPercent > 100 {
		return nil, fmt.Errorf("%w: overloadPercent must be in (0, 100]", ErrInvalidRequest)
	}
	return &l, nil
}
