// Package storage keeps raw backpack measurements in memory, partitioned
// by backpack code, with optional compressed snapshots on disk.
package storage

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/packscale/packscale/internal/measurement"
)

var (
	// ErrInvalidBackpack is returned for an empty or malformed backpack code
	ErrInvalidBackpack = errors.New("invalid backpack code")

	// ErrBatchTooLarge is returned when a write exceeds the batch limit
	ErrBatchTooLarge = errors.New("measurement batch too large")

	// ErrStoreClosed is returned by writes after Close
	ErrStoreClosed = errors.New("store is closed")
)

const maxBackpackCodeLen = 64

// Latest holds the most recent sample counted on each strap
type Latest struct {
	Left  *measurement.Measurement
	Right *measurement.Measurement
}

// Store is the measurement storage used by report and ingest services
type Store interface {
	// Write appends samples for a backpack and returns how many were stored
	Write(backpack string, ms []measurement.Measurement) (int, error)

	// Query returns samples in [start, end). Zero bounds are open.
	Query(backpack string, start, end time.Time) ([]measurement.Measurement, error)

	// Latest returns the newest left and right samples of a backpack
	Latest(backpack string) (Latest, error)

	// Backpacks lists every backpack with stored samples, sorted
	Backpacks() []string

	// Count returns the total number of stored samples
	Count() int64

	Close() error
}

// NormalizeBackpack validates a backpack code and returns its canonical
// upper-case form. The result never shares memory with code.
func NormalizeBackpack(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidBackpack)
	}
	if len(code) > maxBackpackCodeLen {
		return "", fmt.Errorf("%w: longer than %d characters", ErrInvalidBackpack, maxBackpackCodeLen)
	}
	for _, r := range code {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
		default:
			return "", fmt.Errorf("%w: unexpected character %q", ErrInvalidBackpack, r)
		}
	}
	// the caller's string may alias a reused request buffer and the code
	// ends up as a map key
	return strings.Clone(code), nil
}
