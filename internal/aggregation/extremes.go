package aggregation

import (
	"time"

	"github.com/packscale/packscale/internal/measurement"
)

// Extreme is a single notable sample
type Extreme struct {
	WeightKg  float64   `json:"weightKg"`
	Timestamp time.Time `json:"timestamp"`
	Label     string    `json:"sensorLabel"`
}

// SideExtremes holds the heaviest and lightest sample of one strap
type SideExtremes struct {
	Max *Extreme `json:"max"`
	Min *Extreme `json:"min"`
}

func (s *SideExtremes) observe(m measurement.Measurement, loc *time.Location) {
	e := &Extreme{WeightKg: m.WeightKg, Timestamp: m.Timestamp.In(loc), Label: m.SensorLabel}
	if s.Max == nil || m.WeightKg > s.Max.WeightKg {
		s.Max = e
	}
	if s.Min == nil || m.WeightKg < s.Min.WeightKg {
		s.Min = e
	}
}

// Extremes holds per-side extreme samples of a period
type Extremes struct {
	Left  SideExtremes `json:"left"`
	Right SideExtremes `json:"right"`
}

// Extremes scans the samples inside p for the heaviest and lightest sample
// on each side. Ties keep the earliest sample in input order.
func (b *Bucketer) Extremes(ms []measurement.Measurement, p Period) Extremes {
	var ex Extremes
	loc := b.location()
	for _, m := range ms {
		if !p.Contains(m.Timestamp.In(loc)) || !usableWeight(m.WeightKg) {
			continue
		}
		side := m.Side()
		if side.CountsLeft() {
			ex.Left.observe(m, loc)
		}
		if side.CountsRight() {
			ex.Right.observe(m, loc)
		}
	}
	return ex
}
