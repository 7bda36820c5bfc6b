package aggregation

import (
	"fmt"
	"time"

	"github.com/packscale/packscale/internal/measurement"
	"github.com/packscale/packscale/internal/utils"
)

// BucketTotal is the single aggregated value of a bucket: the left-side
// average plus the right-side average.
type BucketTotal struct {
	Key     string    `json:"key"`
	Label   string    `json:"label"`
	Start   time.Time `json:"start,omitzero"`
	Value   float64   `json:"value"`
	Left    float64   `json:"left"`
	Right   float64   `json:"right"`
	Samples int       `json:"samples"`
}

// HasData reports whether any left or right sample contributed
func (t BucketTotal) HasData() bool {
	return t.Samples > 0
}

// sideAccumulator averages one strap's samples
type sideAccumulator struct {
	sum   float64
	count int
}

func (a *sideAccumulator) add(v float64) {
	a.sum += v
	a.count++
}

func (a *sideAccumulator) avg() float64 {
	if a.count == 0 {
		return 0
	}
	return a.sum / float64(a.count)
}

// usableWeight reports whether a sample weight may enter a total
func usableWeight(w float64) bool {
	return utils.IsFinite(w) && w >= 0
}

// Reduce collapses a bucket into its total. Center samples feed both
// accumulators, unclassified samples are ignored. The second return value
// counts samples dropped for a negative or non-finite weight.
func Reduce(b *Bucket) (BucketTotal, int) {
	var left, right sideAccumulator
	samples, discarded := 0, 0

	for _, m := range b.Measurements {
		side := m.Side()
		if side == measurement.SideOther {
			continue
		}
		if !usableWeight(m.WeightKg) {
			discarded++
			continue
		}
		if side.CountsLeft() {
			left.add(m.WeightKg)
		}
		if side.CountsRight() {
			right.add(m.WeightKg)
		}
		samples++
	}

	return BucketTotal{
		Key:     b.Key,
		Label:   b.Label,
		Start:   b.Start,
		Value:   utils.Round2(left.avg() + right.avg()),
		Left:    utils.Round2(left.avg()),
		Right:   utils.Round2(right.avg()),
		Samples: samples,
	}, discarded
}

// Sparse reduces every bucket and keeps only those with data, in canonical
// order. It also returns the number of discarded samples.
func Sparse(bs *Buckets) ([]BucketTotal, int) {
	totals := make([]BucketTotal, 0, bs.Len())
	discarded := 0
	for _, b := range bs.All() {
		t, d := Reduce(b)
		discarded += d
		if t.HasData() {
			totals = append(totals, t)
		}
	}
	return totals, discarded
}

// Values extracts the value column of totals
func Values(totals []BucketTotal) []float64 {
	out := make([]float64, len(totals))
	for i, t := range totals {
		out[i] = t.Value
	}
	return out
}

// Dense returns a zero-filled series covering every bucket of the period.
// Unbounded periods span the first to the last non-empty bucket; weekday
// buckets always yield seven entries.
func (b *Bucketer) Dense(bs *Buckets) ([]BucketTotal, error) {
	if bs.Granularity == GranularityWeekday {
		out := make([]BucketTotal, 0, len(mondayFirst))
		for _, d := range mondayFirst {
			key := weekdayKey(d)
			out = append(out, b.totalOrZero(bs, key, time.Time{}, key))
		}
		return out, nil
	}

	var from, to time.Time
	if bs.Period.Bounded() {
		from = b.Floor(bs.Period.Start, bs.Granularity)
		to = bs.Period.End
	} else {
		if bs.Len() == 0 {
			return []BucketTotal{}, nil
		}
		all := bs.All()
		from = all[0].Start
		to = all[len(all)-1].End
	}

	out := make([]BucketTotal, 0)
	for start := from; start.Before(to); start = next(start, bs.Granularity) {
		if len(out) >= MaxDenseBuckets {
			return nil, fmt.Errorf("%w: %s series exceeds %d entries", ErrTooManyBuckets, bs.Granularity, MaxDenseBuckets)
		}
		key := bucketKey(start, bs.Granularity)
		out = append(out, b.totalOrZero(bs, key, start, bucketLabel(start, bs.Granularity, bs.Period)))
	}
	return out, nil
}

func (b *Bucketer) totalOrZero(bs *Buckets, key string, start time.Time, label string) BucketTotal {
	if bucket := bs.Get(key); bucket != nil {
		t, _ := Reduce(bucket)
		return t
	}
	return BucketTotal{Key: key, Label: label, Start: start}
}
