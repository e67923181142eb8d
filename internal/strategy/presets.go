package strategy

import (
	"slices"

	"github.com/rxtech-lab/argo-options/internal/types"
	"github.com/rxtech-lab/argo-options/pkg/errors"
)

var (
	longCall  = types.Leg{Type: types.OptionTypeCall, Ratio: types.RatioLong}
	shortCall = types.Leg{Type: types.OptionTypeCall, Ratio: types.RatioShort}
	longPut   = types.Leg{Type: types.OptionTypePut, Ratio: types.RatioLong}
	shortPut  = types.Leg{Type: types.OptionTypePut, Ratio: types.RatioShort}
)

// presets maps a strategy name to its fixed legs.
var presets = map[string][]types.Leg{
	"long_call":            {longCall},
	"short_call":           {shortCall},
	"long_put":             {longPut},
	"short_put":            {shortPut},
	"long_call_long_put":   {longCall, longPut},
	"long_call_short_put":  {longCall, shortPut},
	"short_call_short_put": {shortCall, shortPut},
	// aliases
	"long_straddle":  {longCall, longPut},
	"short_straddle": {shortCall, shortPut},
}

// Preset returns a copy of the legs of a named strategy.
func Preset(name string) ([]types.Leg, error) {
	legs, ok := presets[name]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeUnsupportedStrategy, "unknown strategy %q", name)
	}

	return slices.Clone(legs), nil
}

// PresetNames returns the preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}
