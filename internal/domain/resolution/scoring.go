package resolution

import (
	"fmt"
	"math"

	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/catalog"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/metrics"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/shared"
)

// LevelMultipliers weights the score per tier.
type LevelMultipliers struct {
	Beginner     float64 `json:"beginner" yaml:"beginner"`
	Intermediate float64 `json:"intermediate" yaml:"intermediate"`
	Advanced     float64 `json:"advanced" yaml:"advanced"`
}

// For returns the multiplier of l.
func (lm LevelMultipliers) For(l catalog.Level) float64 {
	switch l {
	case catalog.Intermediate:
		return lm.Intermediate
	case catalog.Advanced:
		return lm.Advanced
	default:
		return lm.Beginner
	}
}

// ScoringPolicy is the tunable score formula:
//
//	raw = Base
//	    + Σ min(v, GainCap)           for axes with v > 0
//	    - Σ PenaltyRate * |v|         for axes with v < PenaltyBelow
//	    + BreadthBonus                if at least BreadthAxes axes moved
//	score = clamp(trunc(raw * multiplier(level)), Min, Max)
//
// With OrientStress set, the stress axis is negated first so that lowering
// stress counts as a gain.
type ScoringPolicy struct {
	Base         float64          `json:"base" yaml:"base"`
	GainCap      int              `json:"gain_cap" yaml:"gain_cap"`
	PenaltyBelow int              `json:"penalty_below" yaml:"penalty_below"`
	PenaltyRate  float64          `json:"penalty_rate" yaml:"penalty_rate"`
	BreadthAxes  int              `json:"breadth_axes" yaml:"breadth_axes"`
	BreadthBonus float64          `json:"breadth_bonus" yaml:"breadth_bonus"`
	Multipliers  LevelMultipliers `json:"multipliers" yaml:"multipliers"`
	Min          int              `json:"min" yaml:"min"`
	Max          int              `json:"max" yaml:"max"`
	OrientStress bool             `json:"orient_stress" yaml:"orient_stress"`
}

// DefaultScoringPolicy returns the built-in formula.
func DefaultScoringPolicy() ScoringPolicy {
	return ScoringPolicy{
		Base:         10,
		GainCap:      10,
		PenaltyBelow: -15,
		PenaltyRate:  0.3,
		BreadthAxes:  3,
		BreadthBonus: 3,
		Multipliers:  LevelMultipliers{Beginner: 1.0, Intermediate: 1.2, Advanced: 1.5},
		Min:          1,
		Max:          25,
		OrientStress: true,
	}
}

// Validate checks that scores stay non-negative and bounded.
func (p ScoringPolicy) Validate() error {
	switch {
	case p.Min < 0:
		return invalidPolicy("min must be >= 0")
	case p.Max < p.Min:
		return invalidPolicy(fmt.Sprintf("max %d below min %d", p.Max, p.Min))
	case p.GainCap < 0:
		return invalidPolicy("gain_cap must be >= 0")
	case p.PenaltyRate < 0:
		return invalidPolicy("penalty_rate must be >= 0")
	case p.Multipliers.Beginner <= 0 || p.Multipliers.Intermediate <= 0 || p.Multipliers.Advanced <= 0:
		return invalidPolicy("level multipliers must be > 0")
	}
	return nil
}

// Score computes the points earned for impact at level.
func (p ScoringPolicy) Score(level catalog.Level, impact metrics.Vector) int {
	raw := p.Base
	for _, m := range metrics.All {
		v := impact.Get(m)
		if p.OrientStress {
			v = m.Favourable(v)
		}
		if v > 0 {
			raw += float64(min(v, p.GainCap))
		}
		if v < p.PenaltyBelow {
			raw -= p.PenaltyRate * math.Abs(float64(v))
		}
	}
	if impact.NonZero() >= p.BreadthAxes {
		raw += p.BreadthBonus
	}

	score := int(raw * p.Multipliers.For(level))
	return max(p.Min, min(p.Max, score))
}

func invalidPolicy(msg string) error {
	return shared.WrapError("resolution", "ValidateScoringPolicy", shared.ErrInvalidInput, msg, nil)
}
