// Package profiles stores the wearer parameters of each backpack: body
// mass and the share of it the backpack may carry.
package profiles

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/packscale/packscale/internal/alerting"
	"github.com/packscale/packscale/internal/utils"
)

var (
	// ErrNotFound is returned when a backpack has no stored profile
	ErrNotFound = errors.New("profile not found")

	// ErrInvalidProfile is returned when profile values are out of range
	ErrInvalidProfile = errors.New("invalid profile")
)

// Profile holds the limits of one backpack
type Profile struct {
	Backpack        string    `json:"backpack"`
	UserMassKg      float64   `json:"userMassKg"`
	OverloadPercent float64   `json:"overloadPercent"`
	UpdatedAt       time.Time `json:"updatedAt,omitzero"`
	// Default marks a profile synthesized from the configured defaults
	Default bool `json:"default,omitempty"`
}

// Validate checks the profile values
func (p *Profile) Validate() error {
	if !utils.IsFinite(p.UserMassKg) || p.UserMassKg <= 0 {
		return fmt.Errorf("%w: userMassKg must be positive", ErrInvalidProfile)
	}
	if !utils.IsFinite(p.OverloadPercent) || p.OverloadPercent <= 0 || p.OverloadPercent > 100 {
		return fmt.Errorf("%w: overloadPercent must be in (0, 100]", ErrInvalidProfile)
	}
	return nil
}

// Limits converts the profile into threshold limits
func (p *Profile) Limits() alerting.Limits {
	return alerting.Limits{UserMassKg: p.UserMassKg, OverloadPercent: p.OverloadPercent}
}

// Registry persists backpack profiles. Backpack codes are passed already
// normalized.
type Registry interface {
	Get(ctx context.Context, backpack string) (*Profile, error)
	Put(ctx context.Context, p *Profile) error
	Delete(ctx context.Context, backpack string) error
	List(ctx context.Context) ([]*Profile, error)
	Close() error
}

// Defaults supplies the profile of backpacks that have none
type Defaults struct {
	UserMassKg      float64
	OverloadPercent float64
}

// Resolve returns the stored profile of backpack, or a default profile when
// none is stored
func Resolve(ctx context.Context, reg Registry, backpack string, d Defaults) (*Profile, error) {
	p, err := reg.Get(ctx, backpack)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	mass, pct := d.UserMassKg, d.OverloadPercent
	if mass <= 0 {
		mass = utils.DefaultUserMassKg
	}
	if pct <= 0 {
		pct = utils.DefaultOverloadPercent
	}
	return &Profile{Backpack: backpack, UserMassKg: mass, OverloadPercent: pct, Default: true}, nil
}
