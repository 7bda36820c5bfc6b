package aggregation

import (
	"time"

	"github.com/packscale/packscale/internal/measurement"
)

func sample(ts time.Time, label string, kg float64) measurement.Measurement {
	return measurement.Measurement{Timestamp: ts, SensorLabel: label, WeightKg: kg}
}

func mustPeriod(kind, value string, loc *time.Location) Period {
	p, err := ParsePeriod(kind, value, loc, time.Sunday)
	if err != nil {
		panic(err)
	}
	return p
}
