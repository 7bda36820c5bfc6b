// Package ingest writes measurement batches to the store and feeds the
// resulting instantaneous load to the alert monitor. Batches arrive over
// HTTP or from a queue subscription.
package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/packscale/packscale/internal/alerting"
	"github.com/packscale/packscale/internal/logging"
	"github.com/packscale/packscale/internal/measurement"
	"github.com/packscale/packscale/internal/profiles"
	"github.com/packscale/packscale/internal/storage"
	"github.com/packscale/packscale/internal/utils"
)

// Batch is the queue payload and HTTP body of a measurement upload
type Batch struct {
	Backpack     string                    `json:"backpack"`
	Measurements []measurement.Measurement `json:"measurements"`
}

// Result describes one ingested batch
type Result struct {
	Backpack string            `json:"backpack"`
	Stored   int               `json:"stored"`
	Current  alerting.Snapshot `json:"current"`
	Events   []alerting.Event  `json:"events,omitempty"`
}

// Pipeline is safe for concurrent use
type Pipeline struct {
	store    storage.Store
	profiles profiles.Registry
	defaults profiles.Defaults
	monitor  *alerting.Monitor
	logger   *logging.Logger
}

// NewPipeline creates a pipeline. A nil monitor disables alerting.
func NewPipeline(store storage.Store, reg profiles.Registry, defaults profiles.Defaults, monitor *alerting.Monitor, logger *logging.Logger) *Pipeline {
	if logger == nil {
		logger = logging.Global()
	}
	return &Pipeline{
		store:    store,
		profiles: reg,
		defaults: defaults,
		monitor:  monitor,
		logger:   logger.With("component", "ingest"),
	}
}

// Ingest stores the batch and evaluates the backpack's latest load
func (p *Pipeline) Ingest(ctx context.Context, b Batch) (*Result, error) {
	code, err := storage.NormalizeBackpack(b.Backpack)
	if err != nil {
		return nil, err
	}

	stored, err := p.store.Write(code, b.Measurements)
	if err != nil {
		return nil, fmt.Errorf("failed to store measurements: %w", err)
	}

	latest, err := p.store.Latest(code)
	if err != nil {
		return nil, fmt.Errorf("failed to read latest measurements: %w", err)
	}

	lookupCtx, cancel := context.WithTimeout(ctx, utils.ProfileLookupTimeout)
	profile, err := profiles.Resolve(lookupCtx, p.profiles, code, p.defaults)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve profile: %w", err)
	}

	result := &Result{
		Backpack: code,
		Stored:   stored,
		Current:  alerting.EvaluateLatest(latest.Left, latest.Right, profile.Limits()),
	}

	if p.monitor != nil {
		events, err := p.monitor.Observe(ctx, code, result.Current)
		result.Events = events
		if err != nil {
			// the batch is stored; a lost alert must not cause a duplicate write
			p.logger.Error("Failed to publish alert events", "backpack", code, "error", err)
		}
	}

	p.logger.Debug("Batch ingested",
		"backpack", code,
		"stored", stored,
		"total_kg", result.Current.TotalKg,
		"exceeded", result.Current.Exceeded)
	return result, nil
}

// Permanent reports whether err stems from the batch itself, so that
// retrying the same payload cannot succeed
func Permanent(err error) bool {
	return errors.Is(err, storage.ErrInvalidBackpack) ||
		errors.Is(err, storage.ErrBatchTooLarge) ||
		errors.Is(err, measurement.ErrInvalidMeasurement)
}
