package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/packscale/packscale/internal/compression"
	"github.com/packscale/packscale/internal/measurement"
)

func TestSnapshot_RoundTrip(t *testing.T) {
	for _, algo := range []compression.Algorithm{compression.Snappy, compression.None} {
		t.Run(algo.String(), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", "store.snap")

			src := newTestStore(MemoryStoreConfig{})
			defer func() { _ = src.Close() }()
			_, _ = src.Write("MOC-1", []measurement.Measurement{
				sample(0, "Esquerda", 1.25),
				sample(time.Minute, "Direita", 2.5),
			})
			_, _ = src.Write("MOC-2", []measurement.Measurement{sample(0, "Ambos", 3)})

			saved, err := src.SaveSnapshot(path, algo)
			if err != nil {
				t.Fatalf("SaveSnapshot failed: %v", err)
			}
			if saved != 3 {
				t.Errorf("Expected 3 saved, got %d", saved)
			}

			dst := newTestStore(MemoryStoreConfig{})
			defer func() { _ = dst.Close() }()
			loaded, err := dst.LoadSnapshot(path)
			if err != nil {
				t.Fatalf("LoadSnapshot failed: %v", err)
			}
			if loaded != 3 || dst.Count() != 3 {
				t.Errorf("Expected 3 loaded, got %d (count %d)", loaded, dst.Count())
			}

			got, _ := dst.Query("MOC-1", time.Time{}, time.Time{})
			if len(got) != 2 || got[1].WeightKg != 2.5 || !got[0].Timestamp.Equal(base) {
				t.Errorf("Unexpected restored series: %+v", got)
			}
		})
	}
}

func TestSnapshot_LoadMissingFile(t *testing.T) {
	ms := newTestStore(MemoryStoreConfig{})
	defer func() { _ = ms.Close() }()

	n, err := ms.LoadSnapshot(filepath.Join(t.TempDir(), "absent.snap"))
	if err != nil || n != 0 {
		t.Errorf("Missing snapshot should load nothing, got %d, %v", n, err)
	}
}

func TestSnapshot_LoadCorrupt(t *testing.T) {
	dir := t.TempDir()
	ms := newTestStore(MemoryStoreConfig{})
	defer func() { _ = ms.Close() }()

	cases := map[string][]byte{
		"short":       []byte("PK"),
		"bad magic":   []byte("NOTSNAP\x01\x01"),
		"bad version": append([]byte("PKSNAP"), 9, 1),
		"bad algo":    append([]byte("PKSNAP"), 1, 7),
		"bad payload": append([]byte("PKSNAP"), 1, 0, '{'),
	}
	for name, data := range cases {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := ms.LoadSnapshot(path); !errors.Is(err, ErrInvalidSnapshot) {
			t.Errorf("%s: expected ErrInvalidSnapshot, got %v", name, err)
		}
	}
}

func TestSnapshotter_SavesOnStop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.snap")
	ms := newTestStore(MemoryStoreConfig{})
	defer func() { _ = ms.Close() }()
	_, _ = ms.Write("MOC-1", []measurement.Measurement{sample(0, "Esquerda", 1)})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewSnapshotter(ms, path, compression.Snappy, 0, nil).Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("snapshotter did not stop")
	}

	if _, err := os.Stat(path); err != nil {
		t.Errorf("Expected snapshot file, got %v", err)
	}
}
