package services

import (
	"context"

	"github.com/packscale/packscale/internal/logging"
	"github.com/packscale/packscale/internal/profiles"
	"github.com/packscale/packscale/internal/storage"
	"github.com/packscale/packscale/internal/utils"
)

// ProfileService manages backpack wearer profiles
type ProfileService struct {
	logger   *logging.Logger
	registry profiles.Registry
	defaults profiles.Defaults
}

// NewProfileService creates a new ProfileService
func NewProfileService(logger *logging.Logger, registry profiles.Registry, defaults profiles.Defaults) *ProfileService {
	return &ProfileService{logger: logger, registry: registry, defaults: defaults}
}

// ProfileInput is the writable part of a profile
type ProfileInput struct {
	UserMassKg      float64 `json:"userMassKg"`
	OverloadPercent float64 `json:"overloadPercent"`
}

// Get returns the profile of code, or the default profile when none is
// stored
func (s *ProfileService) Get(ctx context.Context, code string) (*profiles.Profile, error) {
	code, err := storage.NormalizeBackpack(code)
	if err != nil {
		return nil, wrapError(err, "")
	}

	ctx, cancel := context.WithTimeout(ctx, utils.ProfileLookupTimeout)
	defer cancel()
	p, err := profiles.Resolve(ctx, s.registry, code, s.defaults)
	if err != nil {
		return nil, wrapError(err, "Failed to load backpack profile")
	}
	return p, nil
}

// Put stores the profile of code
func (s *ProfileService) Put(ctx context.Context, code string, in ProfileInput) (*profiles.Profile, error) {
	code, err := storage.NormalizeBackpack(code)
	if err != nil {
		return nil, wrapError(err, "")
	}

	p := &profiles.Profile{
		Backpack:        code,
		UserMassKg:      in.UserMassKg,
		OverloadPercent: in.OverloadPercent,
	}
	if err := p.Validate(); err != nil {
		return nil, wrapError(err, "")
	}

	ctx, cancel := context.WithTimeout(ctx, utils.ProfileLookupTimeout)
	defer cancel()
	if err := s.registry.Put(ctx, p); err != nil {
		return nil, wrapError(err, "Failed to store backpack profile")
	}

	s.logger.Info("Profile updated",
		"backpack", code,
		"user_mass_kg", p.UserMassKg,
		"overload_percent", p.OverloadPercent)
	return p, nil
}

// Delete removes the stored profile of code. The backpack falls back to
// the defaults afterwards.
func (s *ProfileService) Delete(ctx context.Context, code string) error {
	code, err := storage.NormalizeBackpack(code)
	if err != nil {
		return wrapError(err, "")
	}

	ctx, cancel := context.WithTimeout(ctx, utils.ProfileLookupTimeout)
	defer cancel()
	if err := s.registry.Delete(ctx, code); err != nil {
		return wrapError(err, "Failed to delete backpack profile")
	}
	s.logger.Info("Profile deleted", "backpack", code)
	return nil
}

// List returns every stored profile
func (s *ProfileService) List(ctx context.Context) ([]*profiles.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, utils.ProfileLookupTimeout)
	defer cancel()
	ps, err := s.registry.List(ctx)
	if err != nil {
		return nil, wrapError(err, "Failed to list backpack profiles")
	}
	return ps, nil
}
