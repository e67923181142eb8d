package types

import (
	"fmt"

	"github.com/rxtech-lab/argo-options/pkg/errors"
)

// MaxLegs is the largest number of legs a strategy may have.
const MaxLegs = 4

const (
	RatioLong  = 1
	RatioShort = -1
)

// Leg is one option position of a strategy: the option type and its direction.
type Leg struct {
	Type  OptionType `yaml:"type" json:"type" validate:"required"`
	Ratio int        `yaml:"ratio" json:"ratio" validate:"oneof=-1 1"`
}

// LegSignature identifies the (call_put, ratio) pair a leg contributes to a spread.
type LegSignature struct {
	Type  OptionType
	Ratio int
}

// Signature returns the leg's (call_put, ratio) pair.
func (l Leg) Signature() LegSignature {
	return LegSignature{Type: l.Type, Ratio: l.Ratio}
}

// IsLong reports whether the leg opens a long position.
func (l Leg) IsLong() bool {
	return l.Ratio > 0
}

func (l Leg) String() string {
	direction := "long"
	if !l.IsLong() {
		direction = "short"
	}

	return fmt.Sprintf("%s %s", direction, l.Type)
}

// ValidateLegs checks the leg count and that every leg has a known type and a ratio of +1 or -1.
func ValidateLegs(legs []Leg) error {
	if len(legs) == 0 || len(legs) > MaxLegs {
		return errors.Newf(errors.ErrCodeInvalidLeg, "a strategy needs between 1 and %d legs, got %d", MaxLegs, len(legs))
	}

	for i, leg := range legs {
		if !leg.Type.IsValid() {
			return errors.Newf(errors.ErrCodeInvalidLeg, "leg%d: invalid option type", i+1)
		}

		if leg.Ratio != RatioLong && leg.Ratio != RatioShort {
			return errors.Newf(errors.ErrCodeInvalidLeg, "leg%d: ratio must be 1 or -1, got %d", i+1, leg.Ratio)
		}
	}

	return nil
}
