// Package filter implements the strategy filters of the backtester: value specifications,
// the condition evaluator, the dedup resolver and the table of named filters with the
// pipeline stage each one runs in.
package filter

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-options/internal/types"
	"github.com/rxtech-lab/argo-options/pkg/errors"
)

// Stage is the point of the pipeline a filter runs at.
type Stage string

const (
	StageInit        Stage = "init"
	StageEntry       Stage = "entry"
	StageEntrySpread Stage = "entry_spread"
	StageExit        Stage = "exit"
	StageExitSpread  Stage = "exit_spread"
)

// Stages lists the stages in application order.
var Stages = []Stage{StageInit, StageEntry, StageEntrySpread, StageExit, StageExitSpread}

// Kind identifies a filter independently of the name it was declared with.
type Kind int

const (
	KindStartDate Kind = iota + 1
	KindEndDate
	KindDayToEvent
	KindContractSize
	KindEntryDTM
	KindEntryDayToEvent
	KindLegDelta
	KindLegStrikePct
	KindEntrySpreadPrice
	KindEntrySpreadDelta
	KindExitDTM
	KindExitDayToEvent
	KindExitHoldDays
	KindExitSpreadPrice
	KindExitSpreadCashFlow
)

// valueRule restricts the value shapes a filter accepts.
type valueRule int

const (
	numericValue valueRule = iota
	dateValue
	integerValue
)

type definition struct {
	name      string
	stage     Stage
	predicate Predicate
	values    valueRule
	// conds lists the accepted conditions; nil accepts all.
	conds []Condition
	// legIndexed filters only fire on one leg.
	legIndexed bool
}

// Leg-scoped grouping used by nearest selection on joined exit candidates.
var exitGroupBy = []types.Column{types.ColumnTradeNum, types.ColumnLegIndex}

// Every spread total is judged on its own sum: one group per trade at entry, one per trade and
// exit date at exit.
var (
	entrySpreadGroupBy = []types.Column{types.ColumnTradeNum}
	exitSpreadGroupBy  = []types.Column{types.ColumnTradeNum, types.ColumnExitDate}
)

// Contract-series grouping used by day-count filters at entry.
var seriesGroupBy = []types.Column{types.ColumnCallPut, types.ColumnMaturityDate, types.ColumnUnderlyingSymbol}

var definitions = map[Kind]definition{
	KindStartDate: {
		name:      "start_date",
		stage:     StageInit,
		predicate: Predicate{Column: types.ColumnMaturityDate, DefaultCond: CondGreater},
		values:    dateValue,
		conds:     []Condition{CondGreater},
	},
	KindEndDate: {
		name:      "end_date",
		stage:     StageInit,
		predicate: Predicate{Column: types.ColumnMaturityDate, DefaultCond: CondLessOrEqual},
		values:    dateValue,
		conds:     ComparisonConditions,
	},
	KindDayToEvent: {
		name:      "day_to_event",
		stage:     StageInit,
		predicate: Predicate{Column: types.ColumnDayToEvent, GroupBy: DefaultGroupBy, DefaultCond: CondEqual},
	},
	KindContractSize: {
		name:   "contract_size",
		stage:  StageEntry,
		values: integerValue,
		conds:  []Condition{CondEqual},
	},
	KindEntryDTM: {
		name:      "entry_dtm",
		stage:     StageEntry,
		predicate: Predicate{Column: types.ColumnDTM, GroupBy: seriesGroupBy, DefaultCond: CondNearest},
	},
	KindEntryDayToEvent: {
		name:      "entry_day_to_event",
		stage:     StageEntry,
		predicate: Predicate{Column: types.ColumnDayToEvent, GroupBy: seriesGroupBy, DefaultCond: CondNearest},
	},
	KindLegDelta: {
		name:       "delta",
		stage:      StageEntry,
		predicate:  Predicate{Column: types.ColumnDelta, GroupBy: DefaultGroupBy, Absolute: true, DefaultCond: CondNearest},
		legIndexed: true,
	},
	KindLegStrikePct: {
		name:       "strike_pct",
		stage:      StageEntry,
		predicate:  Predicate{Column: types.ColumnStrikePct, GroupBy: DefaultGroupBy, DefaultCond: CondNearest},
		legIndexed: true,
	},
	KindEntrySpreadPrice: {
		name:      "entry_spread_price",
		stage:     StageEntrySpread,
		predicate: Predicate{Column: types.ColumnEntryOptPrice, GroupBy: entrySpreadGroupBy, DefaultCond: CondNearest},
	},
	KindEntrySpreadDelta: {
		name:      "entry_spread_delta",
		stage:     StageEntrySpread,
		predicate: Predicate{Column: types.ColumnNetDelta, GroupBy: entrySpreadGroupBy, DefaultCond: CondNearest},
	},
	KindExitDTM: {
		name:      "exit_dtm",
		stage:     StageExit,
		predicate: Predicate{Column: types.ColumnExitDTM, GroupBy: exitGroupBy, DefaultCond: CondNearest},
	},
	KindExitDayToEvent: {
		name:      "exit_day_to_event",
		stage:     StageExit,
		predicate: Predicate{Column: types.ColumnExitDayToEvent, GroupBy: exitGroupBy, DefaultCond: CondEqual},
	},
	KindExitHoldDays: {
		name:      "exit_hold_days",
		stage:     StageExit,
		predicate: Predicate{Column: types.ColumnHoldDays, GroupBy: exitGroupBy, DefaultCond: CondNearest},
	},
	KindExitSpreadPrice: {
		name:      "exit_spread_price",
		stage:     StageExitSpread,
		predicate: Predicate{Column: types.ColumnExitOptPrice, GroupBy: exitSpreadGroupBy, DefaultCond: CondNearest},
	},
	KindExitSpreadCashFlow: {
		name:      "exit_spread_cash_flow",
		stage:     StageExitSpread,
		predicate: Predicate{Column: types.ColumnCashFlow, GroupBy: exitSpreadGroupBy, DefaultCond: CondNearest},
	},
}

// MaxLegFilterIndex is the highest N accepted in legN_ filter names.
const MaxLegFilterIndex = types.MaxLegs

// Names returns every accepted filter name, leg-indexed names expanded, in a stable order.
func Names() []string {
	names := make([]string, 0, len(definitions)+MaxLegFilterIndex*2)

	for kind := KindStartDate; kind <= KindExitSpreadCashFlow; kind++ {
		def := definitions[kind]
		if !def.legIndexed {
			names = append(names, def.name)

			continue
		}

		for leg := 1; leg <= MaxLegFilterIndex; leg++ {
			names = append(names, fmt.Sprintf("leg%d_%s", leg, def.name))
		}
	}

	return names
}

// Filter is one configured filter.
type Filter struct {
	// Name is the name the filter was declared with.
	Name string
	Kind Kind
	// Leg is the 0-based leg a leg-indexed filter fires on.
	Leg  optional.Option[int]
	Spec Spec
}

// New resolves a declared filter name. Leg-indexed filters are written legN_<name> with N
// counted from 1.
func New(name string, spec Spec) (Filter, error) {
	for kind, def := range definitions {
		if def.legIndexed {
			continue
		}

		if def.name == name {
			return newFilter(name, kind, optional.None[int](), spec)
		}
	}

	rest, ok := strings.CutPrefix(name, "leg")
	if ok {
		number, legName, found := strings.Cut(rest, "_")
		if found {
			index, err := strconv.Atoi(number)
			if err == nil {
				if index < 1 || index > MaxLegFilterIndex {
					return Filter{}, errors.Newf(errors.ErrCodeUnknownFilter,
						"filter %q: leg index must be between 1 and %d", name, MaxLegFilterIndex)
				}

				if kind, ok := legKind(legName); ok {
					return newFilter(name, kind, optional.Some(index-1), spec)
				}
			}
		}
	}

	return Filter{}, errors.Newf(errors.ErrCodeUnknownFilter, "unknown filter %q", name)
}

// NewLegFilter resolves a filter declared inside a leg. leg is 0-based.
func NewLegFilter(leg int, name string, spec Spec) (Filter, error) {
	kind, ok := legKind(name)
	if !ok {
		return Filter{}, errors.Newf(errors.ErrCodeUnknownFilter, "unknown leg filter %q", name)
	}

	return newFilter(fmt.Sprintf("leg%d_%s", leg+1, name), kind, optional.Some(leg), spec)
}

func legKind(name string) (Kind, bool) {
	for kind, def := range definitions {
		if def.legIndexed && def.name == name {
			return kind, true
		}
	}

	return 0, false
}

func newFilter(name string, kind Kind, leg optional.Option[int], spec Spec) (Filter, error) {
	f := Filter{Name: name, Kind: kind, Leg: leg, Spec: spec}

	if err := f.validate(); err != nil {
		return Filter{}, err
	}

	return f, nil
}

func (f Filter) definition() definition {
	return definitions[f.Kind]
}

// Stage returns the stage the filter runs at.
func (f Filter) Stage() Stage {
	return f.definition().stage
}

// Predicate returns how the filter value is applied.
func (f Filter) Predicate() Predicate {
	return f.definition().predicate
}

// AppliesToLeg reports whether an entry filter fires for the 0-based leg.
func (f Filter) AppliesToLeg(leg int) bool {
	if f.Leg.IsNone() {
		return true
	}

	return f.Leg.Unwrap() == leg
}

func (f Filter) validate() error {
	def := f.definition()
	value := f.Spec.Value

	if f.Spec.Cond != "" && def.conds != nil && !slices.Contains(def.conds, f.Spec.Cond) {
		return errors.Newf(errors.ErrCodeInvalidConditionForColumn,
			"filter %q does not support condition %s", f.Name, f.Spec.Cond)
	}

	if !value.IsSet() {
		if def.values == integerValue {
			return errors.Newf(errors.ErrCodeInvalidFilterValue, "filter %q needs an integer value", f.Name)
		}

		return nil
	}

	switch def.values {
	case dateValue:
		if value.Kind != ValueDate {
			return errors.Newf(errors.ErrCodeInvalidConditionForColumn,
				"filter %q needs a date value, got %s", f.Name, value)
		}
	case integerValue:
		if value.Kind != ValueScalar || !value.Integer {
			return errors.Newf(errors.ErrCodeInvalidFilterValue,
				"filter %q needs an integer value, got %s", f.Name, value)
		}

		if value.Scalar <= 0 {
			return errors.Newf(errors.ErrCodeInvalidFilterValue,
				"filter %q must be positive, got %s", f.Name, value)
		}
	case numericValue:
		if value.Kind == ValueDate {
			return errors.Newf(errors.ErrCodeInvalidConditionForColumn,
				"filter %q does not accept a date value", f.Name)
		}

		if value.Kind == ValueRange && f.Spec.Cond != "" && f.Spec.Cond != CondNearest {
			return errors.Newf(errors.ErrCodeInvalidFilterValue,
				"filter %q: range value only supports the nearest condition", f.Name)
		}
	}

	return nil
}
