package engine

import (
	"context"

	"github.com/rxtech-lab/argo-options/internal/dataset"
	"github.com/rxtech-lab/argo-options/internal/filter"
	"github.com/rxtech-lab/argo-options/internal/types"
	"golang.org/x/sync/errgroup"
)

// DedupGroupBy is the grouping under which a leg keeps a single contract per entry date.
var DedupGroupBy = []types.Column{
	types.ColumnDate,
	types.ColumnMaturityDate,
	types.ColumnUnderlyingSymbol,
	types.ColumnRatio,
	types.ColumnCallPut,
}

// DedupOrder resolves ties by the highest delta and then the highest strike.
var DedupOrder = []filter.TieBreak{
	{Column: types.ColumnDelta, Mode: filter.AggregateMax},
	{Column: types.ColumnStrike, Mode: filter.AggregateMax},
}

// EntryTradeGroupBy identifies the legs opened together.
var EntryTradeGroupBy = []types.Column{
	types.ColumnDate,
	types.ColumnMaturityDate,
	types.ColumnUnderlyingSymbol,
}

// Construct builds the entry legs of every trade from the init-filtered quotes.
func (p *Pipeline) Construct(ctx context.Context, quotes []types.Quote) ([]types.SpreadLeg, error) {
	perLeg := make([][]types.SpreadLeg, len(p.legs))

	if p.parallel {
		g, gctx := errgroup.WithContext(ctx)

		for i, leg := range p.legs {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}

				rows, err := p.extractLeg(i, leg, quotes)
				if err != nil {
					return err
				}

				perLeg[i] = rows

				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i, leg := range p.legs {
			rows, err := p.extractLeg(i, leg, quotes)
			if err != nil {
				return nil, err
			}

			perLeg[i] = rows
		}
	}

	legs := dataset.Concat(perLeg...)
	if err := p.report(ctx, filter.StageEntry, len(legs)); err != nil {
		return nil, err
	}

	legs, err := filter.Dedup(legs, DedupGroupBy, DedupOrder)
	if err != nil {
		return nil, err
	}

	legs, err = p.completeSpreads(legs)
	if err != nil {
		return nil, err
	}

	legs, err = NumberEntryTrades(legs)
	if err != nil {
		return nil, err
	}

	legs = p.pricer.PriceEntry(legs)

	legs, err = p.plan.ApplyEntrySpread(legs)
	if err != nil {
		return nil, err
	}

	if err := p.report(ctx, filter.StageEntrySpread, len(legs)); err != nil {
		return nil, err
	}

	return legs, nil
}

// extractLeg selects the quotes of the leg's option type and runs the entry filters for it.
func (p *Pipeline) extractLeg(index int, leg types.Leg, quotes []types.Quote) ([]types.SpreadLeg, error) {
	rows := make([]types.SpreadLeg, 0)

	for _, quote := range quotes {
		if quote.CallPut != leg.Type {
			continue
		}

		rows = append(rows, types.SpreadLeg{
			Quote:    quote,
			LegIndex: index,
			Ratio:    leg.Ratio,
		})
	}

	return p.plan.ApplyEntry(index, rows)
}

// completeSpreads keeps the trades for which every leg of the strategy found a contract.
func (p *Pipeline) completeSpreads(legs []types.SpreadLeg) ([]types.SpreadLeg, error) {
	required := make(map[types.LegSignature]bool, len(p.legs))
	for _, leg := range p.legs {
		required[leg.Signature()] = true
	}

	groups, err := dataset.GroupBy(legs, EntryTradeGroupBy)
	if err != nil {
		return nil, err
	}

	keep := make([]int, 0, len(legs))

	for _, key := range groups.Keys {
		positions := groups.Rows[key]

		found := make(map[types.LegSignature]bool, len(required))
		for _, i := range positions {
			found[legs[i].Signature()] = true
		}

		complete := true

		for signature := range required {
			if !found[signature] {
				complete = false

				break
			}
		}

		if complete {
			keep = append(keep, positions...)
		}
	}

	return dataset.Pick(legs, keep), nil
}

// NumberEntryTrades numbers the trades 0..k-1 in ascending order of their date, maturity and
// underlying.
func NumberEntryTrades(legs []types.SpreadLeg) ([]types.SpreadLeg, error) {
	groups, err := dataset.GroupBy(legs, EntryTradeGroupBy)
	if err != nil {
		return nil, err
	}

	ranks := groups.Rank()
	out := make([]types.SpreadLeg, len(legs))

	for i, leg := range legs {
		leg.TradeNum = ranks[groups.Of[i]]
		out[i] = leg
	}

	return out, nil
}
