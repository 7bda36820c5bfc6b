package storage

import (
	"fmt"
	"hash/fnv"
	"sort"
	"sync"
	"time"

	"github.com/packscale/packscale/internal/logging"
	"github.com/packscale/packscale/internal/measurement"
	"github.com/packscale/packscale/internal/utils"
)

// numShards is the number of lock shards. Backpacks hash to a shard by
// FNV-1a of their code.
const numShards = 32

type shard struct {
	mu   sync.RWMutex
	data map[string]*series
}

// MemoryStoreConfig configures a MemoryStore
type MemoryStoreConfig struct {
	// Retention drops samples older than now-Retention. Zero keeps everything.
	Retention time.Duration
	// CleanupInterval is how often the retention sweep runs
	CleanupInterval time.Duration
	// MaxPerBackpack caps each backpack's history, oldest first. Zero is unlimited.
	MaxPerBackpack int
	// Location anchors samples whose timestamps carried no zone. Nil is UTC.
	Location *time.Location
}

// MemoryStore is an in-memory Store with sharded locking
type MemoryStore struct {
	shards [numShards]shard

	cfg    MemoryStoreConfig
	logger *logging.Logger
	now    func() time.Time

	countMu sync.Mutex
	count   int64

	closeOnce   sync.Once
	closed      bool
	stopCh      chan struct{}
	cleanupDone chan struct{}
}

var _ Store = (*MemoryStore)(nil)

func getShard(backpack string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(backpack))
	return h.Sum32() % numShards
}

// NewMemoryStore creates a store and starts its retention sweep when
// retention is configured
func NewMemoryStore(cfg MemoryStoreConfig, logger *logging.Logger) *MemoryStore {
	if logger == nil {
		logger = logging.Global()
	}
	ms := &MemoryStore{
		cfg:         cfg,
		logger:      logger.With("component", "memory_store"),
		now:         time.Now,
		stopCh:      make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
	for i := range ms.shards {
		ms.shards[i].data = make(map[string]*series)
	}

	if cfg.Retention > 0 && cfg.CleanupInterval > 0 {
		go ms.cleanupLoop()
	} else {
		close(ms.cleanupDone)
	}

	ms.logger.Info("Memory store initialized",
		"retention", cfg.Retention.String(),
		"max_per_backpack", cfg.MaxPerBackpack,
		"num_shards", numShards)
	return ms
}

// Write stores a batch for backpack. Samples older than the retention
// window are skipped.
func (ms *MemoryStore) Write(backpack string, batch []measurement.Measurement) (int, error) {
	code, err := NormalizeBackpack(backpack)
	if err != nil {
		return 0, err
	}
	if len(batch) > utils.MaxBatchSize {
		return 0, fmt.Errorf("%w: %d samples, limit %d", ErrBatchTooLarge, len(batch), utils.MaxBatchSize)
	}
	if len(batch) == 0 {
		return 0, nil
	}

	var cutoff time.Time
	if ms.cfg.Retention > 0 {
		cutoff = ms.now().Add(-ms.cfg.Retention)
	}

	s := &ms.shards[getShard(code)]
	s.mu.Lock()
	if ms.isClosed() {
		s.mu.Unlock()
		return 0, ErrStoreClosed
	}

	sr, ok := s.data[code]
	if !ok {
		sr = newSeries(len(batch))
		s.data[code] = sr
	}

	stored, added := 0, 0
	for _, m := range batch {
		m = m.Anchor(ms.cfg.Location)
		if !cutoff.IsZero() && m.Timestamp.Before(cutoff) {
			continue
		}
		if sr.add(m) {
			added++
		}
		stored++
	}
	evicted := sr.trim(ms.cfg.MaxPerBackpack)
	if sr.len() == 0 {
		delete(s.data, code)
	}
	s.mu.Unlock()

	ms.addCount(int64(added - evicted))
	if evicted > 0 {
		ms.logger.Debug("Evicted oldest measurements", "backpack", code, "evicted", evicted)
	}
	return stored, nil
}

// Query returns the samples of backpack in [start, end)
func (ms *MemoryStore) Query(backpack string, start, end time.Time) ([]measurement.Measurement, error) {
	code, err := NormalizeBackpack(backpack)
	if err != nil {
		return nil, err
	}

	s := &ms.shards[getShard(code)]
	s.mu.RLock()
	defer s.mu.RUnlock()

	sr, ok := s.data[code]
	if !ok {
		return []measurement.Measurement{}, nil
	}
	return sr.query(start, end), nil
}

// Latest returns the newest sample on each strap of backpack
func (ms *MemoryStore) Latest(backpack string) (Latest, error) {
	code, err := NormalizeBackpack(backpack)
	if err != nil {
		return Latest{}, err
	}

	s := &ms.shards[getShard(code)]
	s.mu.RLock()
	defer s.mu.RUnlock()

	sr, ok := s.data[code]
	if !ok {
		return Latest{}, nil
	}
	return sr.latest(), nil
}

// Backpacks returns the stored backpack codes in ascending order
func (ms *MemoryStore) Backpacks() []string {
	codes := make([]string, 0)
	for i := range ms.shards {
		s := &ms.shards[i]
		s.mu.RLock()
		for code := range s.data {
			codes = append(codes, code)
		}
		s.mu.RUnlock()
	}
	sort.Strings(codes)
	return codes
}

// Count returns the number of stored samples
func (ms *MemoryStore) Count() int64 {
	ms.countMu.Lock()
	defer ms.countMu.Unlock()
	return ms.count
}

func (ms *MemoryStore) addCount(delta int64) {
	if delta == 0 {
		return
	}
	ms.countMu.Lock()
	ms.count += delta
	ms.countMu.Unlock()
}

// GetStats returns store statistics
func (ms *MemoryStore) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"total_count":      ms.Count(),
		"backpack_count":   len(ms.Backpacks()),
		"retention":        ms.cfg.Retention.String(),
		"max_per_backpack": ms.cfg.MaxPerBackpack,
	}
}

// Prune removes samples older than cutoff and returns how many were removed
func (ms *MemoryStore) Prune(cutoff time.Time) int64 {
	var removed int64
	for i := range ms.shards {
		s := &ms.shards[i]
		s.mu.Lock()
		for code, sr := range s.data {
			removed += int64(sr.removeBefore(cutoff))
			if sr.len() == 0 {
				delete(s.data, code)
			}
		}
		s.mu.Unlock()
	}
	ms.addCount(-removed)
	return removed
}

// cleanupLoop periodically removes expired data
func (ms *MemoryStore) cleanupLoop() {
	defer close(ms.cleanupDone)

	ticker := time.NewTicker(ms.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ms.stopCh:
			ms.logger.Debug("Cleanup goroutine stopping")
			return
		case <-ticker.C:
			if removed := ms.Prune(ms.now().Add(-ms.cfg.Retention)); removed > 0 {
				ms.logger.Debug("Cleaned up expired measurements", "removed_count", removed)
			}
		}
	}
}

func (ms *MemoryStore) isClosed() bool {
	ms.countMu.Lock()
	defer ms.countMu.Unlock()
	return ms.closed
}

// Close stops the background sweep. Reads keep working, writes fail.
func (ms *MemoryStore) Close() error {
	ms.closeOnce.Do(func() {
		ms.countMu.Lock()
		ms.closed = true
		ms.countMu.Unlock()
		close(ms.stopCh)
		<-ms.cleanupDone
		ms.logger.Info("Memory store closed", "total_count", ms.Count())
	})
	return nil
}

// restore replaces the stored samples of backpack without applying
// retention or caps. Used when loading a snapshot.
func (ms *MemoryStore) restore(code string, points []measurement.Measurement) {
	sr := newSeries(len(points))
	for _, m := range points {
		sr.add(m)
	}

	s := &ms.shards[getShard(code)]
	s.mu.Lock()
	old, existed := s.data[code]
	delta := int64(sr.len())
	if existed {
		delta -= int64(old.len())
	}
	if sr.len() == 0 {
		delete(s.data, code)
	} else {
		s.data[code] = sr
	}
	s.mu.Unlock()
	ms.addCount(delta)
}

// dump copies every series for snapshotting
func (ms *MemoryStore) dump() map[string][]measurement.Measurement {
	out := make(map[string][]measurement.Measurement)
	for i := range ms.shards {
		s := &ms.shards[i]
		s.mu.RLock()
		for code, sr := range s.data {
			out[code] = sr.query(time.Time{}, time.Time{})
		}
		s.mu.RUnlock()
	}
	return out
}
