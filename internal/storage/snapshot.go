package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/packscale/packscale/internal/compression"
	"github.com/packscale/packscale/internal/logging"
	"github.com/packscale/packscale/internal/measurement"
)

// Snapshot file layout:
//
//	magic   [6]byte "PKSNAP"
//	version uint8
//	algo    uint8   compression.Algorithm
//	payload         compressed JSON snapshotDoc
var snapshotMagic = []byte("PKSNAP")

const snapshotVersion = 1

// ErrInvalidSnapshot is returned when a snapshot file cannot be decoded
var ErrInvalidSnapshot = errors.New("invalid snapshot")

type snapshotDoc struct {
	SavedAt   time.Time                            `json:"savedAt"`
	Backpacks map[string][]measurement.Measurement `json:"backpacks"`
}

// SaveSnapshot writes every stored sample to path. The file is replaced
// atomically.
func (ms *MemoryStore) SaveSnapshot(path string, algo compression.Algorithm) (int64, error) {
	compressor, err := compression.GetCompressor(algo)
	if err != nil {
		return 0, err
	}

	doc := snapshotDoc{SavedAt: ms.now().UTC(), Backpacks: ms.dump()}
	var total int64
	for _, pts := range doc.Backpacks {
		total += int64(len(pts))
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return 0, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	compressed, err := compressor.Compress(payload)
	if err != nil {
		return 0, fmt.Errorf("failed to compress snapshot: %w", err)
	}

	var buf bytes.Buffer
	buf.Grow(len(snapshotMagic) + 2 + len(compressed))
	buf.Write(snapshotMagic)
	buf.WriteByte(snapshotVersion)
	buf.WriteByte(byte(algo))
	buf.Write(compressed)

	if err := writeFileAtomic(path, buf.Bytes()); err != nil {
		return 0, err
	}

	ms.logger.Info("Snapshot saved",
		"path", path,
		"measurements", total,
		"backpacks", len(doc.Backpacks),
		"bytes", buf.Len(),
		"compression", algo.String())
	return total, nil
}

// LoadSnapshot restores the samples in path, replacing any stored series of
// the same backpacks. A missing file is not an error.
func (ms *MemoryStore) LoadSnapshot(path string) (int64, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		ms.logger.Info("No snapshot to load", "path", path)
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read snapshot: %w", err)
	}

	doc, err := decodeSnapshot(data)
	if err != nil {
		return 0, err
	}

	var total int64
	for code, pts := range doc.Backpacks {
		normalized, err := NormalizeBackpack(code)
		if err != nil {
			ms.logger.Warn("Skipping snapshot backpack", "backpack", code, "error", err)
			continue
		}
		ms.restore(normalized, pts)
		total += int64(len(pts))
	}

	ms.logger.Info("Snapshot loaded",
		"path", path,
		"measurements", total,
		"saved_at", doc.SavedAt.Format(time.RFC3339))
	return total, nil
}

func decodeSnapshot(data []byte) (*snapshotDoc, error) {
	header := len(snapshotMagic) + 2
	if len(data) < header || !bytes.Equal(data[:len(snapshotMagic)], snapshotMagic) {
		return nil, fmt.Errorf("%w: bad header", ErrInvalidSnapshot)
	}
	if v := data[len(snapshotMagic)]; v != snapshotVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidSnapshot, v)
	}

	compressor, err := compression.GetCompressor(compression.Algorithm(data[len(snapshotMagic)+1]))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	payload, err := compressor.Decompress(data[header:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}

	var doc snapshotDoc
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	return &doc, nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("failed to create snapshot file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close snapshot: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}

// Snapshotter saves the store periodically and once more when stopped
type Snapshotter struct {
	store    *MemoryStore
	path     string
	algo     compression.Algorithm
	interval time.Duration
	logger   *logging.Logger
}

// NewSnapshotter creates a snapshotter. A zero interval saves only on stop.
func NewSnapshotter(store *MemoryStore, path string, algo compression.Algorithm, interval time.Duration, logger *logging.Logger) *Snapshotter {
	if logger == nil {
		logger = logging.Global()
	}
	return &Snapshotter{
		store:    store,
		path:     path,
		algo:     algo,
		interval: interval,
		logger:   logger.With("component", "snapshotter"),
	}
}

// Run blocks until ctx is done, then writes a final snapshot
func (s *Snapshotter) Run(ctx context.Context) error {
	var tick <-chan time.Time
	if s.interval > 0 {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			_, err := s.store.SaveSnapshot(s.path, s.algo)
			return err
		case <-tick:
			if _, err := s.store.SaveSnapshot(s.path, s.algo); err != nil {
				s.logger.Error("Periodic snapshot failed", "path", s.path, "error", err)
			}
		}
	}
}
