// Package alerting checks bucket and instantaneous loads against the
// wearer's allowed maximum and flags left/right imbalance.
package alerting

import (
	"math"
	"time"

	"github.com/packscale/packscale/internal/aggregation"
	"github.com/packscale/packscale/internal/measurement"
	"github.com/packscale/packscale/internal/utils"
)

// WarningLoadPercent is the share of the allowed maximum above which the
// load is shown as a warning
const WarningLoadPercent = 50.0

// Direction names the heavier strap, or balanced
type Direction string

const (
	DirectionBalanced Direction = "balanced"
	DirectionLeft     Direction = "left"
	DirectionRight    Direction = "right"
)

// Limits are the wearer parameters a load is judged against
type Limits struct {
	UserMassKg      float64 `json:"userMassKg"`
	OverloadPercent float64 `json:"overloadPercent"`
}

// MaxAllowed returns the heaviest load the limits permit
func (l Limits) MaxAllowed() float64 {
	return MaxAllowed(l.UserMassKg, l.OverloadPercent)
}

// MaxAllowed is userMass × percent/100
func MaxAllowed(userMassKg, overloadPercent float64) float64 {
	return userMassKg * (overloadPercent / 100)
}

// Exceeded reports whether total is strictly above maxAllowed
func Exceeded(total, maxAllowed float64) bool {
	return total > maxAllowed
}

// LoadPercent is total as a percentage of maxAllowed, 0 when no maximum
func LoadPercent(total, maxAllowed float64) float64 {
	if maxAllowed <= 0 {
		return 0
	}
	return utils.Round2(total / maxAllowed * 100)
}

// BalanceResult describes the left/right split
type BalanceResult struct {
	Percent   float64   `json:"percent"`
	Direction Direction `json:"direction"`
}

// Imbalanced reports whether one side is flagged heavier
func (b BalanceResult) Imbalanced() bool {
	return b.Direction != DirectionBalanced
}

// Balance compares the two straps. The difference relative to the heavier
// side must exceed utils.ImbalanceThresholdPercent to be flagged.
func Balance(left, right float64) BalanceResult {
	heavier := math.Max(left, right)
	if heavier <= 0 {
		return BalanceResult{Percent: 0, Direction: DirectionBalanced}
	}

	pct := math.Abs(left-right) / heavier * 100
	result := BalanceResult{Percent: utils.Round2(pct), Direction: DirectionBalanced}
	if pct > utils.ImbalanceThresholdPercent {
		if left > right {
			result.Direction = DirectionLeft
		} else {
			result.Direction = DirectionRight
		}
	}
	return result
}

// Alert is the per-bucket threshold and balance verdict
type Alert struct {
	BucketKey   string        `json:"bucketKey"`
	BucketLabel string        `json:"bucketLabel"`
	TotalKg     float64       `json:"totalKg"`
	Exceeded    bool          `json:"exceeded"`
	Imbalance   BalanceResult `json:"imbalance"`
}

// Evaluate judges every bucket total against limits
func Evaluate(totals []aggregation.BucketTotal, limits Limits) []Alert {
	maxAllowed := limits.MaxAllowed()
	alerts := make([]Alert, 0, len(totals))
	for _, t := range totals {
		alerts = append(alerts, Alert{
			BucketKey:   t.Key,
			BucketLabel: t.Label,
			TotalKg:     t.Value,
			Exceeded:    Exceeded(t.Value, maxAllowed),
			Imbalance:   Balance(t.Left, t.Right),
		})
	}
	return alerts
}

// Snapshot is the instantaneous state built from the latest sample of
// each strap
type Snapshot struct {
	LeftKg       float64       `json:"leftKg"`
	RightKg      float64       `json:"rightKg"`
	TotalKg      float64       `json:"totalKg"`
	MaxAllowedKg float64       `json:"maxAllowedKg"`
	LoadPercent  float64       `json:"loadPercent"`
	Exceeded     bool          `json:"exceeded"`
	Warning      bool          `json:"warning"`
	Imbalance    BalanceResult `json:"imbalance"`
	LeftAt       *time.Time    `json:"leftAt,omitempty"`
	RightAt      *time.Time    `json:"rightAt,omitempty"`
	NoData       bool          `json:"noData"`
}

// EvaluateLatest builds a snapshot from the latest left and right samples. A
// missing side weighs 0. Center samples may be passed for either side.
func EvaluateLatest(left, right *measurement.Measurement, limits Limits) Snapshot {
	var s Snapshot
	if left != nil {
		s.LeftKg = sanitize(left.WeightKg)
		at := left.Timestamp
		s.LeftAt = &at
	}
	if right != nil {
		s.RightKg = sanitize(right.WeightKg)
		at := right.Timestamp
		s.RightAt = &at
	}
	s.NoData = left == nil && right == nil

	maxAllowed := limits.MaxAllowed()
	s.TotalKg = utils.Round2(s.LeftKg + s.RightKg)
	s.MaxAllowedKg = utils.Round2(maxAllowed)
	s.LoadPercent = LoadPercent(s.TotalKg, maxAllowed)
	s.Exceeded = Exceeded(s.TotalKg, maxAllowed)
	s.Warning = s.TotalKg > 0 && s.LoadPercent > WarningLoadPercent
	s.Imbalance = Balance(s.LeftKg, s.RightKg)
	s.LeftKg = utils.Round2(s.LeftKg)
	s.RightKg = utils.Round2(s.RightKg)
	return s
}

func sanitize(w float64) float64 {
	if !utils.IsFinite(w) || w < 0 {
		return 0
	}
	return w
}
