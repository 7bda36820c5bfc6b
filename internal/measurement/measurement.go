// Package measurement defines the raw weight sample reported by a backpack
// sensor and the classification of its strap side.
package measurement

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/packscale/packscale/internal/utils"
)

// ErrInvalidMeasurement is returned when a sample cannot be decoded
var ErrInvalidMeasurement = errors.New("invalid measurement")

// timestampLayouts are tried in order when decoding a sample timestamp.
// Devices that write straight from the relational store emit the
// space-separated form without a zone.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// Measurement is one weight sample. It is immutable once decoded.
type Measurement struct {
	Timestamp   time.Time `json:"timestamp"`
	SensorLabel string    `json:"sensorLabel"`
	WeightKg    float64   `json:"weightKg"`

	// floating marks a timestamp decoded without a zone. Its clock fields
	// hold the device wall time until Anchor places it in a location.
	floating bool
}

// Side returns the classified strap side of the sample
func (m Measurement) Side() Side {
	return Classify(m.SensorLabel)
}

// wireMeasurement accepts both the current field names and the legacy
// device names, with the weight as a number or a numeric string.
type wireMeasurement struct {
	Timestamp   string      `json:"timestamp"`
	SensorLabel *string     `json:"sensorLabel"`
	WeightKg    interface{} `json:"weightKg"`

	LegacyTimestamp string      `json:"MedicaoData"`
	LegacyLabel     *string     `json:"MedicaoLocal"`
	LegacyWeight    interface{} `json:"MedicaoPeso"`
}

// UnmarshalJSON decodes a sample from either field naming scheme
func (m *Measurement) UnmarshalJSON(data []byte) error {
	var w wireMeasurement
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMeasurement, err)
	}

	ts := w.Timestamp
	if ts == "" {
		ts = w.LegacyTimestamp
	}
	if ts == "" {
		return fmt.Errorf("%w: timestamp is required", ErrInvalidMeasurement)
	}
	parsed, zoned, err := parseTimestamp(ts, time.UTC)
	if err != nil {
		return err
	}

	label := w.SensorLabel
	if label == nil {
		label = w.LegacyLabel
	}

	raw := w.WeightKg
	if raw == nil {
		raw = w.LegacyWeight
	}
	weight := 0.0
	if raw != nil {
		f, ok := utils.ToFloat64(raw)
		if !ok {
			return fmt.Errorf("%w: weight %v is not numeric", ErrInvalidMeasurement, raw)
		}
		weight = f
	}

	m.Timestamp = parsed
	m.floating = !zoned
	m.WeightKg = weight
	if label != nil {
		m.SensorLabel = *label
	} else {
		m.SensorLabel = ""
	}
	return nil
}

// ParseTimestamp parses a sample timestamp. Values without a zone are
// interpreted in loc.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	t, _, err := parseTimestamp(s, loc)
	return t, err
}

// parseTimestamp also reports whether s carried its own zone
func parseTimestamp(s string, loc *time.Location) (time.Time, bool, error) {
	s = strings.TrimSpace(s)
	if loc == nil {
		loc = time.UTC
	}
	for i, layout := range timestampLayouts {
		var (
			t   time.Time
			err error
		)
		if i == 0 {
			t, err = time.Parse(layout, s)
		} else {
			t, err = time.ParseInLocation(layout, s, loc)
		}
		if err == nil {
			return t, i == 0, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("%w: unrecognized timestamp %q", ErrInvalidMeasurement, s)
}

// Floating reports whether the timestamp was decoded without a zone and
// has not been anchored yet
func (m Measurement) Floating() bool {
	return m.floating
}

// Anchor places a floating timestamp in loc, keeping its wall clock.
// Zoned samples are returned unchanged.
func (m Measurement) Anchor(loc *time.Location) Measurement {
	if !m.floating {
		return m
	}
	if loc == nil {
		loc = time.UTC
	}
	t := m.Timestamp
	m.Timestamp = time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
	m.floating = false
	return m
}

// AnchorAll anchors every floating sample of ms in loc. ms itself is
// returned when nothing floats.
func AnchorAll(ms []Measurement, loc *time.Location) []Measurement {
	first := -1
	for i := range ms {
		if ms[i].floating {
			first = i
			break
		}
	}
	if first < 0 {
		return ms
	}
	out := make([]Measurement, len(ms))
	copy(out, ms)
	for i := first; i < len(out); i++ {
		out[i] = out[i].Anchor(loc)
	}
	return out
}

// SortByTime returns a copy of ms ordered by timestamp. Samples sharing a
// timestamp keep their input order.
func SortByTime(ms []Measurement) []Measurement {
	out := make([]Measurement, len(ms))
	copy(out, ms)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}
