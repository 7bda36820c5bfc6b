package aggregation

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrInvalidGranularity is returned for an unknown bucket size
	ErrInvalidGranularity = errors.New("invalid granularity")
	// ErrInvalidPeriod is returned for a malformed or incompatible reference period
	ErrInvalidPeriod = errors.New("invalid period")
	// ErrTooManyBuckets is returned when a dense series would exceed MaxDenseBuckets
	ErrTooManyBuckets = errors.New("too many buckets")
)

// MaxDenseBuckets bounds the length of a zero-filled series
const MaxDenseBuckets = 10000

// Granularity represents the time bucket size
type Granularity string

const (
	GranularityMinute    Granularity = "minute"
	GranularityThreeHour Granularity = "three_hour"
	GranularityDay       Granularity = "day"
	GranularityWeek      Granularity = "week"
	GranularityMonth     Granularity = "month"
	GranularityWeekday   Granularity = "weekday"
)

// ParseGranularity parses a granularity name. Aliases used by older
// clients ("3h", "daily", ...) are accepted.
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "minute", "1m":
		return GranularityMinute, nil
	case "three_hour", "3h", "threehour":
		return GranularityThreeHour, nil
	case "day", "daily", "1d":
		return GranularityDay, nil
	case "week", "weekly", "1w":
		return GranularityWeek, nil
	case "month", "monthly", "1mo":
		return GranularityMonth, nil
	case "weekday":
		return GranularityWeekday, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidGranularity, s)
	}
}

// rank orders granularities and periods on one scale so that a bucket size
// can be checked against the period it subdivides.
func (g Granularity) rank() int {
	switch g {
	case GranularityMinute:
		return 0
	case GranularityThreeHour:
		return 1
	case GranularityDay:
		return 2
	case GranularityWeek:
		return 3
	case GranularityMonth:
		return 4
	default:
		return -1
	}
}

// Valid reports whether g is a known granularity
func (g Granularity) Valid() bool {
	return g == GranularityWeekday || g.rank() >= 0
}

// TruncateToMinute truncates t to the start of its minute in t's location
func TruncateToMinute(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, t.Location())
}

// TruncateToThreeHours truncates t to the start of its 3-hour block
func TruncateToThreeHours(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour()-t.Hour()%3, 0, 0, 0, t.Location())
}

// TruncateToDay truncates t to local midnight
func TruncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// TruncateToWeek truncates t to the most recent weekStart midnight
func TruncateToWeek(t time.Time, weekStart time.Weekday) time.Time {
	day := TruncateToDay(t)
	offset := (int(day.Weekday()) - int(weekStart) + 7) % 7
	return day.AddDate(0, 0, -offset)
}

// TruncateToMonth truncates time to the start of the month
func TruncateToMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// TruncateToYear truncates time to the start of the year
func TruncateToYear(t time.Time) time.Time {
	return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, t.Location())
}

// ParseWeekStart parses "sunday" or "monday" (any weekday name is accepted)
func ParseWeekStart(s string) (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return time.Sunday, nil
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if name == full || name == full[:3] {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("unknown week start %q", s)
}

// mondayFirst is the canonical weekday bucket order
var mondayFirst = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

func weekdayKey(d time.Weekday) string {
	return strings.ToLower(d.String())
}
