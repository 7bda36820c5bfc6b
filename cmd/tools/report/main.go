package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/packscale/packscale/internal/aggregation"
	"github.com/packscale/packscale/internal/config"
	"github.com/packscale/packscale/internal/report"
)

// granularityNames lists the accepted -granularity and -chart values
const granularityNames = "minute, three_hour, day, week, month, weekday"

// overrides holds the flag values that replace request fields when set
type overrides struct {
	preset      string
	granularity string
	period      string
	periodValue string
	target      string
	chart       string
	mass        float64
	overload    float64
	extremes    bool
}

func main() {
	input := flag.String("input", "-", "Request JSON file, or - for stdin. A bare measurement array is accepted")
	timezone := flag.String("timezone", "UTC", "Timezone for bucket boundaries (IANA name or +HH:MM)")
	weekStart := flag.String("week-start", "sunday", "First day of the week (sunday or monday)")
	minSamples := flag.Int("min-samples", 2, "Minimum weekday samples for a trusted prediction")
	compact := flag.Bool("compact", false, "Print compact JSON")

	var o overrides
	flag.StringVar(&o.preset, "preset", "", "Report preset (daily, weekly, weekday, monthly, annual, prediction)")
	flag.StringVar(&o.granularity, "granularity", "", "Bucket granularity ("+granularityNames+")")
	flag.StringVar(&o.period, "period", "", "Reference period kind (day, week, month, year, all)")
	flag.StringVar(&o.periodValue, "period-value", "", "Reference period value, e.g. 2025-03-10, 2025-03, 2025")
	flag.StringVar(&o.target, "target", "", "Prediction target date (YYYY-MM-DD)")
	flag.StringVar(&o.chart, "chart", "", "Chart granularity ("+granularityNames+")")
	flag.Float64Var(&o.mass, "mass", 0, "User body mass in kg")
	flag.Float64Var(&o.overload, "overload", 0, "Allowed load as a percentage of body mass")
	flag.BoolVar(&o.extremes, "extremes", false, "Include per-side extremes")
	flag.Parse()

	loc, err := config.ParseTimezone(*timezone)
	if err != nil {
		log.Fatalf("Error: Invalid timezone '%s': %v\n", *timezone, err)
	}
	ws, err := aggregation.ParseWeekStart(*weekStart)
	if err != nil {
		log.Fatalf("Error: %v\n", err)
	}

	data, err := readInput(*input)
	if err != nil {
		log.Fatalf("Error reading input: %v\n", err)
	}

	req, err := buildRequest(data, o)
	if err != nil {
		log.Fatalf("Error: %v\n", err)
	}

	engine := report.NewEngine(report.Options{Location: loc, WeekStart: ws, MinPredictionSamples: *minSamples})
	rep, err := engine.Run(req)
	if err != nil {
		log.Fatalf("Error: %v\n", err)
	}

	enc := json.NewEncoder(os.Stdout)
	if !*compact {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(rep); err != nil {
		log.Fatalf("Error writing report: %v\n", err)
	}
}

func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

// buildRequest decodes a request document or a bare measurement array and
// applies the flag overrides. A preset replaces the calendar fields of the
// document.
func buildRequest(data []byte, o overrides) (report.Request, error) {
	var req report.Request
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	switch {
	case len(trimmed) == 0:
	case trimmed[0] == '[':
		if err := json.Unmarshal(trimmed, &req.Measurements); err != nil {
			return req, fmt.Errorf("failed to decode measurements: %w", err)
		}
	default:
		if err := json.Unmarshal(trimmed, &req); err != nil {
			return req, fmt.Errorf("failed to decode request: %w", err)
		}
	}

	if o.preset != "" {
		value := o.periodValue
		if report.Preset(o.preset) == report.PresetPrediction {
			value = o.target
		}
		preset, err := report.NewPresetRequest(report.Preset(o.preset), value)
		if err != nil {
			return req, err
		}
		preset.Measurements = req.Measurements
		preset.UserMassKg, preset.OverloadPercent = req.UserMassKg, req.OverloadPercent
		req = preset
	}

	if o.granularity != "" {
		req.Granularity = o.granularity
	}
	if o.period != "" {
		req.Period = o.period
	}
	if o.periodValue != "" && o.preset == "" {
		req.ReferencePeriod = o.periodValue
	}
	if o.target != "" {
		req.TargetDate = o.target
	}
	if o.chart != "" {
		req.ChartGranularity = o.chart
	}
	if o.mass > 0 {
		mass := o.mass
		req.UserMassKg = &mass
	}
	if o.overload > 0 {
		pct := o.overload
		req.OverloadPercent = &pct
	}
	if o.extremes {
		req.Extremes = true
	}
	if req.Granularity == "" {
		req.Granularity = string(aggregation.GranularityDay)
	}
	return req, nil
}
