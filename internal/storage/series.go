package storage

import (
	"sort"
	"time"

	"github.com/packscale/packscale/internal/measurement"
)

// series keeps one backpack's samples sorted by timestamp.
//
// NOT THREAD-SAFE: synchronization is handled by the owning shard.
type series struct {
	points []measurement.Measurement
}

func newSeries(capacity int) *series {
	return &series{points: make([]measurement.Measurement, 0, capacity)}
}

// add inserts m in timestamp order. A sample with the same timestamp and
// sensor label replaces the stored one (last write wins). Reports whether
// the series grew.
func (s *series) add(m measurement.Measurement) bool {
	n := len(s.points)
	if n == 0 || m.Timestamp.After(s.points[n-1].Timestamp) {
		s.points = append(s.points, m)
		return true
	}

	idx := sort.Search(n, func(i int) bool {
		return !s.points[i].Timestamp.Before(m.Timestamp)
	})
	for j := idx; j < n && s.points[j].Timestamp.Equal(m.Timestamp); j++ {
		if s.points[j].SensorLabel == m.SensorLabel {
			s.points[j] = m
			return false
		}
	}

	// Insert after existing samples sharing the timestamp to keep arrival order
	for idx < n && s.points[idx].Timestamp.Equal(m.Timestamp) {
		idx++
	}
	s.points = append(s.points, measurement.Measurement{})
	copy(s.points[idx+1:], s.points[idx:])
	s.points[idx] = m
	return true
}

// query returns a copy of the samples in [start, end). Zero bounds are open.
func (s *series) query(start, end time.Time) []measurement.Measurement {
	lo := 0
	if !start.IsZero() {
		lo = sort.Search(len(s.points), func(i int) bool {
			return !s.points[i].Timestamp.Before(start)
		})
	}
	hi := len(s.points)
	if !end.IsZero() {
		hi = sort.Search(len(s.points), func(i int) bool {
			return !s.points[i].Timestamp.Before(end)
		})
	}
	if lo >= hi {
		return []measurement.Measurement{}
	}
	out := make([]measurement.Measurement, hi-lo)
	copy(out, s.points[lo:hi])
	return out
}

// latest scans backwards for the newest sample on each strap
func (s *series) latest() Latest {
	var l Latest
	for i := len(s.points) - 1; i >= 0 && (l.Left == nil || l.Right == nil); i-- {
		side := s.points[i].Side()
		if l.Left == nil && side.CountsLeft() {
			m := s.points[i]
			l.Left = &m
		}
		if l.Right == nil && side.CountsRight() {
			m := s.points[i]
			l.Right = &m
		}
	}
	return l
}

// removeBefore drops samples older than cutoff and returns how many
func (s *series) removeBefore(cutoff time.Time) int {
	idx := sort.Search(len(s.points), func(i int) bool {
		return !s.points[i].Timestamp.Before(cutoff)
	})
	return s.removeFirst(idx)
}

// trim drops the oldest samples beyond limit and returns how many
func (s *series) trim(limit int) int {
	if limit <= 0 || len(s.points) <= limit {
		return 0
	}
	return s.removeFirst(len(s.points) - limit)
}

func (s *series) removeFirst(n int) int {
	if n <= 0 {
		return 0
	}
	remaining := copy(s.points, s.points[n:])
	clear(s.points[remaining:])
	s.points = s.points[:remaining]
	return n
}

func (s *series) len() int {
	return len(s.points)
}
