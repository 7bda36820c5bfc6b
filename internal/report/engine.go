// Package report runs the one aggregation pipeline shared by every report
// type: bucket, reduce, describe, fit a trend, and optionally chart,
// predict and check thresholds.
package report

import (
	"fmt"
	"time"

	"github.com/packscale/packscale/internal/aggregation"
	"github.com/packscale/packscale/internal/alerting"
	"github.com/packscale/packscale/internal/analytics"
	"github.com/packscale/packscale/internal/analytics/forecast"
	"github.com/packscale/packscale/internal/measurement"
	"github.com/packscale/packscale/internal/utils"
)

// Options configures an Engine
type Options struct {
	Location             *time.Location
	WeekStart            time.Weekday
	MinPredictionSamples int
	DefaultLimits        alerting.Limits
}

// Engine is stateless and safe for concurrent use
type Engine struct {
	bucketer             *aggregation.Bucketer
	minPredictionSamples int
	defaults             alerting.Limits
}

// NewEngine creates an engine. Zero options fall back to UTC, Sunday
// weeks and the package defaults.
func NewEngine(opts Options) *Engine {
	if opts.MinPredictionSamples < 1 {
		opts.MinPredictionSamples = utils.DefaultMinPredictionSamples
	}
	if opts.DefaultLimits.UserMassKg <= 0 {
		opts.DefaultLimits.UserMassKg = utils.DefaultUserMassKg
	}
	if opts.DefaultLimits.OverloadPercent <= 0 {
		opts.DefaultLimits.OverloadPercent = utils.DefaultOverloadPercent
	}
	return &Engine{
		bucketer:             aggregation.NewBucketer(opts.Location, opts.WeekStart),
		minPredictionSamples: opts.MinPredictionSamples,
		defaults:             opts.DefaultLimits,
	}
}

// Location returns the engine time zone
func (e *Engine) Location() *time.Location {
	return e.bucketer.Location
}

// WeekStart returns the first day of engine weeks
func (e *Engine) WeekStart() time.Weekday {
	return e.bucketer.WeekStart
}

// DefaultLimits returns the limits used when a request names only one value
func (e *Engine) DefaultLimits() alerting.Limits {
	return e.defaults
}

// Run executes req. Only malformed requests return an error; empty or
// degenerate data yields a well-formed report.
func (e *Engine) Run(req Request) (*Report, error) {
	g, err := aggregation.ParseGranularity(req.Granularity)
	if err != nil {
		return nil, err
	}

	kind := req.Period
	if kind == "" {
		if kind, err = inferPeriodKind(req.ReferencePeriod, g); err != nil {
			return nil, err
		}
	}
	period, err := aggregation.ParsePeriod(kind, req.ReferencePeriod, e.bucketer.Location, e.bucketer.WeekStart)
	if err != nil {
		return nil, err
	}
	if err := aggregation.CheckCompatible(g, period); err != nil {
		return nil, err
	}

	limits, err := req.limits(e.defaults)
	if err != nil {
		return nil, err
	}

	var target time.Time
	if req.TargetDate != "" {
		if target, err = time.ParseInLocation("2006-01-02", req.TargetDate, e.bucketer.Location); err != nil {
			return nil, fmt.Errorf("%w: targetDate %q must be YYYY-MM-DD", ErrInvalidRequest, req.TargetDate)
		}
	}

	var chartGranularity aggregation.Granularity
	if req.ChartGranularity != "" {
		if chartGranularity, err = aggregation.ParseGranularity(req.ChartGranularity); err != nil {
			return nil, err
		}
		if err := aggregation.CheckCompatible(chartGranularity, period); err != nil {
			return nil, err
		}
	}

	// zone-less device timestamps are wall clock in the engine location
	ms := measurement.AnchorAll(req.Measurements, e.bucketer.Location)

	buckets, err := e.bucketer.Bucket(ms, g, period)
	if err != nil {
		return nil, err
	}
	totals, discarded := aggregation.Sparse(buckets)
	values := aggregation.Values(totals)

	rep := &Report{
		Granularity:  g,
		Period:       period,
		BucketTotals: totals,
		Stats:        analytics.Describe(values),
		Regression:   forecast.Trend(values),
		NoData:       len(totals) == 0,
		Discarded:    discarded,
	}

	if chartGranularity != "" {
		chart, err := e.chart(ms, chartGranularity, period)
		if err != nil {
			return nil, err
		}
		rep.Chart = chart
	}

	if req.Extremes {
		ex := e.bucketer.Extremes(ms, period)
		rep.Extremes = &ex
	}

	if !target.IsZero() {
		if rep.Prediction, err = e.predict(ms, target); err != nil {
			return nil, err
		}
	}

	if limits != nil {
		rep.Limits = limits
		rep.Alerts = alerting.Evaluate(totals, *limits)
	}
	return rep, nil
}

func (e *Engine) chart(ms []measurement.Measurement, g aggregation.Granularity, p aggregation.Period) (*Chart, error) {
	buckets, err := e.bucketer.Bucket(ms, g, p)
	if err != nil {
		return nil, err
	}
	series, err := e.bucketer.Dense(buckets)
	if err != nil {
		return nil, err
	}
	return &Chart{Granularity: g, Series: series}, nil
}

// predict builds the full daily history, regardless of the report period,
// and predicts target from the same weekday
func (e *Engine) predict(ms []measurement.Measurement, target time.Time) (*forecast.PredictionResult, error) {
	buckets, err := e.bucketer.Bucket(ms, aggregation.GranularityDay, aggregation.AllTime)
	if err != nil {
		return nil, err
	}
	daily, _ := aggregation.Sparse(buckets)
	return forecast.PredictWeekday(daily, target, e.minPredictionSamples), nil
}
