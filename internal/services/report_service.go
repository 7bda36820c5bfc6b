package services

import (
	"context"
	"time"

	"github.com/packscale/packscale/internal/aggregation"
	"github.com/packscale/packscale/internal/alerting"
	"github.com/packscale/packscale/internal/ingest"
	"github.com/packscale/packscale/internal/logging"
	"github.com/packscale/packscale/internal/measurement"
	"github.com/packscale/packscale/internal/profiles"
	"github.com/packscale/packscale/internal/report"
	"github.com/packscale/packscale/internal/storage"
	"github.com/packscale/packscale/internal/utils"
)

// ReportService runs reports over request bodies and over stored backpack
// history
type ReportService struct {
	logger   *logging.Logger
	engine   *report.Engine
	store    storage.Store
	registry profiles.Registry
	defaults profiles.Defaults
	pipeline *ingest.Pipeline
}

// NewReportService creates a new ReportService
func NewReportService(
	logger *logging.Logger,
	engine *report.Engine,
	store storage.Store,
	registry profiles.Registry,
	pipeline *ingest.Pipeline,
) *ReportService {
	d := engine.DefaultLimits()
	return &ReportService{
		logger:   logger,
		engine:   engine,
		store:    store,
		registry: registry,
		defaults: profiles.Defaults{UserMassKg: d.UserMassKg, OverloadPercent: d.OverloadPercent},
		pipeline: pipeline,
	}
}

// CurrentResponse is the instantaneous state of one backpack
type CurrentResponse struct {
	Backpack string            `json:"backpack"`
	Profile  *profiles.Profile `json:"profile"`
	alerting.Snapshot
}

// Run executes a stateless report over the measurements in req
func (s *ReportService) Run(ctx context.Context, req report.Request) (*report.Report, error) {
	startExec := time.Now()

	rep, err := s.engine.Run(req)
	if err != nil {
		logging.WarnCtx(ctx, "Rejected report request", "error", err)
		return nil, wrapError(err, "Failed to run report")
	}

	s.logger.Debug("Report executed",
		"granularity", string(rep.Granularity),
		"period", string(rep.Period.Kind),
		"measurements", len(req.Measurements),
		"buckets", len(rep.BucketTotals),
		"duration", time.Since(startExec))
	return rep, nil
}

// BackpackReport runs a preset report over the stored history of code.
// Alerts use the backpack profile.
func (s *ReportService) BackpackReport(ctx context.Context, code string, preset report.Preset, value string) (*report.Report, error) {
	code, err := storage.NormalizeBackpack(code)
	if err != nil {
		return nil, wrapError(err, "")
	}

	req, err := report.NewPresetRequest(preset, value)
	if err != nil {
		return nil, wrapError(err, "")
	}

	// bound the store scan by the calendar period; the engine re-checks
	// membership so the bounds only need to be a superset
	var start, end time.Time
	if req.Period != string(aggregation.PeriodAll) {
		p, err := aggregation.ParsePeriod(req.Period, req.ReferencePeriod, s.engine.Location(), s.engine.WeekStart())
		if err != nil {
			return nil, wrapError(err, "")
		}
		start, end = p.Start, p.End
	}

	ms, err := s.store.Query(code, start, end)
	if err != nil {
		logging.ErrorCtx(ctx, "Failed to query measurements", "backpack", code, "error", err)
		return nil, wrapError(err, "Failed to query measurements")
	}

	profile, err := s.resolveProfile(ctx, code)
	if err != nil {
		return nil, err
	}
	mass, pct := profile.UserMassKg, profile.OverloadPercent
	req.Measurements = ms
	req.UserMassKg = &mass
	req.OverloadPercent = &pct

	return s.Run(logging.WithBackpack(ctx, code), req)
}

// Current returns the threshold and balance state built from the latest
// sample on each strap
func (s *ReportService) Current(ctx context.Context, code string) (*CurrentResponse, error) {
	code, err := storage.NormalizeBackpack(code)
	if err != nil {
		return nil, wrapError(err, "")
	}

	latest, err := s.store.Latest(code)
	if err != nil {
		return nil, wrapError(err, "Failed to read latest measurements")
	}

	profile, err := s.resolveProfile(ctx, code)
	if err != nil {
		return nil, err
	}

	return &CurrentResponse{
		Backpack: code,
		Profile:  profile,
		Snapshot: alerting.EvaluateLatest(latest.Left, latest.Right, profile.Limits()),
	}, nil
}

// Ingest stores a measurement batch for code
func (s *ReportService) Ingest(ctx context.Context, code string, ms []measurement.Measurement) (*ingest.Result, error) {
	if len(ms) == 0 {
		return nil, NewServiceError(CodeInvalidRequest, "measurements must not be empty")
	}

	res, err := s.pipeline.Ingest(ctx, ingest.Batch{Backpack: code, Measurements: ms})
	if err != nil {
		if !ingest.Permanent(err) {
			logging.ErrorCtx(ctx, "Failed to ingest measurements", "backpack", code, "error", err)
		}
		return nil, wrapError(err, "Failed to ingest measurements")
	}
	return res, nil
}

func (s *ReportService) resolveProfile(ctx context.Context, code string) (*profiles.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, utils.ProfileLookupTimeout)
	defer cancel()

	p, err := profiles.Resolve(ctx, s.registry, code, s.defaults)
	if err != nil {
		logging.ErrorCtx(ctx, "Failed to resolve profile", "backpack", code, "error", err)
		return nil, wrapError(err, "Failed to load backpack profile")
	}
	return p, nil
}
