package aggregation

import (
	"fmt"
	"sort"
	"time"

	"github.com/packscale/packscale/internal/measurement"
)

// Bucket is a half-open interval [Start, End) and the samples inside it.
// Weekday buckets carry no interval.
type Bucket struct {
	Key          string
	Label        string
	Start        time.Time
	End          time.Time
	Measurements []measurement.Measurement
}

// Buckets is the result of bucketing a sample batch. Iteration order is
// ascending by start, or Monday-first for weekday buckets.
type Buckets struct {
	Granularity Granularity
	Period      Period

	ordered []*Bucket
	index   map[string]*Bucket
}

// Len returns the number of non-empty buckets
func (bs *Buckets) Len() int { return len(bs.ordered) }

// All returns the buckets in canonical order
func (bs *Buckets) All() []*Bucket { return bs.ordered }

// Get returns the bucket for key, or nil
func (bs *Buckets) Get(key string) *Bucket { return bs.index[key] }

// Keys returns the bucket keys in canonical order
func (bs *Buckets) Keys() []string {
	keys := make([]string, len(bs.ordered))
	for i, b := range bs.ordered {
		keys[i] = b.Key
	}
	return keys
}

// Bucketer groups samples into calendar buckets in a fixed location
type Bucketer struct {
	Location  *time.Location
	WeekStart time.Weekday
}

// NewBucketer creates a bucketer. A nil location means UTC.
func NewBucketer(loc *time.Location, weekStart time.Weekday) *Bucketer {
	if loc == nil {
		loc = time.UTC
	}
	return &Bucketer{Location: loc, WeekStart: weekStart}
}

func (b *Bucketer) location() *time.Location {
	if b.Location == nil {
		return time.UTC
	}
	return b.Location
}

// Bucket groups ms by g. Samples outside p are excluded unless g is
// GranularityWeekday, which pools all history.
func (b *Bucketer) Bucket(ms []measurement.Measurement, g Granularity, p Period) (*Buckets, error) {
	if err := CheckCompatible(g, p); err != nil {
		return nil, err
	}

	bs := &Buckets{
		Granularity: g,
		Period:      p,
		index:       make(map[string]*Bucket),
	}

	for _, m := range ms {
		t := m.Timestamp.In(b.location())
		if g != GranularityWeekday && !p.Contains(t) {
			continue
		}
		key, start := b.keyFor(t, g)
		bucket, ok := bs.index[key]
		if !ok {
			bucket = b.newBucket(key, start, t, g, p)
			bs.index[key] = bucket
			bs.ordered = append(bs.ordered, bucket)
		}
		bucket.Measurements = append(bucket.Measurements, m)
	}

	if g == GranularityWeekday {
		sort.SliceStable(bs.ordered, func(i, j int) bool {
			return mondayIndex(bs.ordered[i].Key) < mondayIndex(bs.ordered[j].Key)
		})
	} else {
		sort.SliceStable(bs.ordered, func(i, j int) bool {
			return bs.ordered[i].Start.Before(bs.ordered[j].Start)
		})
	}
	return bs, nil
}

// Floor returns the start of the bucket containing t
func (b *Bucketer) Floor(t time.Time, g Granularity) time.Time {
	t = t.In(b.location())
	switch g {
	case GranularityMinute:
		return TruncateToMinute(t)
	case GranularityThreeHour:
		return TruncateToThreeHours(t)
	case GranularityDay:
		return TruncateToDay(t)
	case GranularityWeek:
		return TruncateToWeek(t, b.WeekStart)
	case GranularityMonth:
		return TruncateToMonth(t)
	default:
		return t
	}
}

// next returns the start of the bucket following start
func next(start time.Time, g Granularity) time.Time {
	switch g {
	case GranularityMinute:
		return start.Add(time.Minute)
	case GranularityThreeHour:
		return time.Date(start.Year(), start.Month(), start.Day(), start.Hour()+3, 0, 0, 0, start.Location())
	case GranularityDay:
		return start.AddDate(0, 0, 1)
	case GranularityWeek:
		return start.AddDate(0, 0, 7)
	case GranularityMonth:
		return start.AddDate(0, 1, 0)
	default:
		return start
	}
}

func (b *Bucketer) keyFor(t time.Time, g Granularity) (string, time.Time) {
	if g == GranularityWeekday {
		return weekdayKey(t.Weekday()), time.Time{}
	}
	start := b.Floor(t, g)
	return bucketKey(start, g), start
}

func (b *Bucketer) newBucket(key string, start, t time.Time, g Granularity, p Period) *Bucket {
	if g == GranularityWeekday {
		return &Bucket{Key: key, Label: key}
	}
	return &Bucket{
		Key:   key,
		Label: bucketLabel(start, g, p),
		Start: start,
		End:   next(start, g),
	}
}

func bucketKey(start time.Time, g Granularity) string {
	switch g {
	case GranularityMinute:
		return start.Format("2006-01-02T15:04")
	case GranularityThreeHour:
		return start.Format("2006-01-02T15")
	case GranularityMonth:
		return start.Format("2006-01")
	default:
		return start.Format("2006-01-02")
	}
}

// bucketLabel renders the display label. Intra-day labels drop the date
// when the whole report covers a single day.
func bucketLabel(start time.Time, g Granularity, p Period) string {
	sameDay := p.Kind == PeriodDay
	switch g {
	case GranularityMinute:
		if sameDay {
			return start.Format("15:04")
		}
		return start.Format("2006-01-02 15:04")
	case GranularityThreeHour:
		end := start.Hour() + 3
		block := fmt.Sprintf("%02d:00 - %02d:00", start.Hour(), end)
		if sameDay {
			return block
		}
		return start.Format("2006-01-02") + " " + block
	case GranularityMonth:
		return start.Format("2006-01")
	default:
		return start.Format("2006-01-02")
	}
}

func mondayIndex(key string) int {
	for i, d := range mondayFirst {
		if weekdayKey(d) == key {
			return i
		}
	}
	return len(mondayFirst)
}
