package filter

import (
	"github.com/rxtech-lab/argo-options/internal/types"
	"github.com/rxtech-lab/argo-options/pkg/errors"
)

// Plan is a filter configuration partitioned by stage. Within a stage filters run in the
// order they were given.
type Plan struct {
	stages map[Stage][]Filter
}

// NewPlan partitions filters by stage.
func NewPlan(filters []Filter) *Plan {
	plan := &Plan{stages: make(map[Stage][]Filter, len(Stages))}

	for _, f := range filters {
		plan.stages[f.Stage()] = append(plan.stages[f.Stage()], f)
	}

	return plan
}

// Compile resolves a filter set and the per-leg filter sets into a plan. Flat filters keep
// their declaration order and per-leg filters follow in leg order.
func Compile(flat Set, legs []Set) (*Plan, error) {
	filters := make([]Filter, 0, flat.Len())

	for _, e := range flat.entries {
		f, err := New(e.Name, e.Spec)
		if err != nil {
			return nil, err
		}

		filters = append(filters, f)
	}

	for leg, set := range legs {
		for _, e := range set.entries {
			f, err := NewLegFilter(leg, e.Name, e.Spec)
			if err != nil {
				return nil, err
			}

			filters = append(filters, f)
		}
	}

	return NewPlan(filters), nil
}

// Filters returns the filters of a stage in application order.
func (p *Plan) Filters(stage Stage) []Filter {
	return p.stages[stage]
}

// Len returns the total number of filters.
func (p *Plan) Len() int {
	n := 0
	for _, filters := range p.stages {
		n += len(filters)
	}

	return n
}

// ApplyInit runs the init filters over the raw quote table.
func (p *Plan) ApplyInit(rows []types.Quote) ([]types.Quote, error) {
	return run(p.stages[StageInit], rows, Filter.ApplyQuotes)
}

// ApplyEntry runs the entry filters that fire for the 0-based leg.
func (p *Plan) ApplyEntry(leg int, rows []types.SpreadLeg) ([]types.SpreadLeg, error) {
	return run(p.stages[StageEntry], rows, func(f Filter, rows []types.SpreadLeg) ([]types.SpreadLeg, error) {
		return f.ApplyLeg(leg, rows)
	})
}

// ApplyEntrySpread runs the entry_spread filters over priced spread legs.
func (p *Plan) ApplyEntrySpread(rows []types.SpreadLeg) ([]types.SpreadLeg, error) {
	return run(p.stages[StageEntrySpread], rows, Filter.ApplyEntrySpread)
}

// ApplyExit runs the exit filters over joined entry/exit candidates.
func (p *Plan) ApplyExit(rows []types.TradeCandidate) ([]types.TradeCandidate, error) {
	return run(p.stages[StageExit], rows, Filter.ApplyExit)
}

// ApplyExitSpread runs the exit_spread filters over priced candidates.
func (p *Plan) ApplyExitSpread(rows []types.TradeCandidate) ([]types.TradeCandidate, error) {
	return run(p.stages[StageExitSpread], rows, Filter.ApplyExitSpread)
}

func run[T any](filters []Filter, rows []T, apply func(Filter, []T) ([]T, error)) ([]T, error) {
	for _, f := range filters {
		out, err := apply(f, rows)
		if err != nil {
			return nil, errors.NewFilterError(f.Name, string(f.Stage()), err)
		}

		rows = out
	}

	return rows, nil
}
