package aggregation

import (
	"fmt"
	"strings"
	"time"
)

// PeriodKind is the calendar span a report covers
type PeriodKind string

const (
	PeriodDay   PeriodKind = "day"
	PeriodWeek  PeriodKind = "week"
	PeriodMonth PeriodKind = "month"
	PeriodYear  PeriodKind = "year"
	PeriodAll   PeriodKind = "all"
)

func (k PeriodKind) rank() int {
	switch k {
	case PeriodDay:
		return 2
	case PeriodWeek:
		return 3
	case PeriodMonth:
		return 4
	case PeriodYear:
		return 5
	case PeriodAll:
		return 6
	default:
		return -1
	}
}

// Period is a half-open reference interval [Start, End). The "all" period
// has zero bounds and contains every instant.
type Period struct {
	Kind  PeriodKind `json:"kind"`
	Value string     `json:"value,omitempty"`
	Start time.Time  `json:"start,omitzero"`
	End   time.Time  `json:"end,omitzero"`
}

// AllTime is the unbounded period
var AllTime = Period{Kind: PeriodAll}

// Bounded reports whether the period has calendar bounds
func (p Period) Bounded() bool {
	return p.Kind != PeriodAll
}

// Contains reports whether t falls inside the period
func (p Period) Contains(t time.Time) bool {
	if !p.Bounded() {
		return true
	}
	return !t.Before(p.Start) && t.Before(p.End)
}

// ParsePeriod resolves a reference period in loc.
//
//	day   2025-03-10
//	week  any date inside the week, snapped to weekStart
//	month 2025-03
//	year  2025
//	all   value ignored
func ParsePeriod(kind, value string, loc *time.Location, weekStart time.Weekday) (Period, error) {
	if loc == nil {
		loc = time.UTC
	}
	k := PeriodKind(strings.ToLower(strings.TrimSpace(kind)))
	if k == "" {
		k = PeriodAll
	}
	value = strings.TrimSpace(value)

	switch k {
	case PeriodAll:
		return AllTime, nil
	case PeriodDay:
		d, err := time.ParseInLocation("2006-01-02", value, loc)
		if err != nil {
			return Period{}, fmt.Errorf("%w: day %q must be YYYY-MM-DD", ErrInvalidPeriod, value)
		}
		return Period{Kind: k, Value: d.Format("2006-01-02"), Start: d, End: d.AddDate(0, 0, 1)}, nil
	case PeriodWeek:
		d, err := time.ParseInLocation("2006-01-02", value, loc)
		if err != nil {
			return Period{}, fmt.Errorf("%w: week %q must be a YYYY-MM-DD date inside the week", ErrInvalidPeriod, value)
		}
		start := TruncateToWeek(d, weekStart)
		return Period{Kind: k, Value: start.Format("2006-01-02"), Start: start, End: start.AddDate(0, 0, 7)}, nil
	case PeriodMonth:
		d, err := time.ParseInLocation("2006-01", value, loc)
		if err != nil {
			return Period{}, fmt.Errorf("%w: month %q must be YYYY-MM", ErrInvalidPeriod, value)
		}
		return Period{Kind: k, Value: d.Format("2006-01"), Start: d, End: d.AddDate(0, 1, 0)}, nil
	case PeriodYear:
		d, err := time.ParseInLocation("2006", value, loc)
		if err != nil {
			return Period{}, fmt.Errorf("%w: year %q must be YYYY", ErrInvalidPeriod, value)
		}
		return Period{Kind: k, Value: d.Format("2006"), Start: d, End: d.AddDate(1, 0, 0)}, nil
	default:
		return Period{}, fmt.Errorf("%w: unknown period kind %q", ErrInvalidPeriod, kind)
	}
}

// CheckCompatible verifies that g subdivides p. Weekday buckets pool all
// history and accept any period.
func CheckCompatible(g Granularity, p Period) error {
	if !g.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidGranularity, string(g))
	}
	if g == GranularityWeekday {
		return nil
	}
	if g.rank() >= p.Kind.rank() {
		return fmt.Errorf("%w: %s buckets do not subdivide a %s period", ErrInvalidPeriod, g, p.Kind)
	}
	return nil
}
