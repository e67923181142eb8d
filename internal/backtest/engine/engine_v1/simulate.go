package engine

import (
	"context"

	"github.com/rxtech-lab/argo-options/internal/dataset"
	"github.com/rxtech-lab/argo-options/internal/filter"
	"github.com/rxtech-lab/argo-options/internal/types"
)

// TradeSortOrder is the row order of the trade-leg table.
var TradeSortOrder = []types.Column{
	types.ColumnEntryDate,
	types.ColumnMaturityDate,
	types.ColumnUnderlyingSymbol,
	types.ColumnStrike,
}

// ExitTradeGroupBy identifies the legs of one trade in the trade-leg table.
var ExitTradeGroupBy = []types.Column{
	types.ColumnEntryDate,
	types.ColumnMaturityDate,
	types.ColumnUnderlyingSymbol,
}

// Simulate pairs every entry leg with the observations of its contract in history, picks the
// exits and prices the trades.
func (p *Pipeline) Simulate(ctx context.Context, legs []types.SpreadLeg, history []types.Quote) ([]types.TradeLeg, error) {
	candidates := JoinHistory(legs, history)

	candidates, err := p.plan.ApplyExit(candidates)
	if err != nil {
		return nil, err
	}

	if err := p.report(ctx, filter.StageExit, len(candidates)); err != nil {
		return nil, err
	}

	candidates = p.pricer.PriceExit(candidates)

	candidates, err = p.plan.ApplyExitSpread(candidates)
	if err != nil {
		return nil, err
	}

	if err := p.report(ctx, filter.StageExitSpread, len(candidates)); err != nil {
		return nil, err
	}

	candidates, err = dataset.SortBy(candidates, TradeSortOrder)
	if err != nil {
		return nil, err
	}

	candidates, err = NumberTrades(candidates)
	if err != nil {
		return nil, err
	}

	trades := make([]types.TradeLeg, 0, len(candidates))
	for _, c := range candidates {
		trades = append(trades, types.NewTradeLeg(c))
	}

	return trades, nil
}

// JoinHistory pairs each entry leg with every quote of the same contract, earlier and later
// observations included. Candidates follow the order of legs, then of history.
func JoinHistory(legs []types.SpreadLeg, history []types.Quote) []types.TradeCandidate {
	observations := make(map[types.ContractKey][]int)
	for i, quote := range history {
		key := quote.Contract()
		observations[key] = append(observations[key], i)
	}

	candidates := make([]types.TradeCandidate, 0, len(legs))

	for _, leg := range legs {
		for _, i := range observations[leg.Contract()] {
			candidates = append(candidates, types.TradeCandidate{
				Entry: leg,
				Exit:  history[i],
			})
		}
	}

	return candidates
}

// NumberTrades renumbers the trades 0..k-1 in ascending order of their entry date, maturity and
// underlying. The numbering replaces the one given at entry.
func NumberTrades(candidates []types.TradeCandidate) ([]types.TradeCandidate, error) {
	groups, err := dataset.GroupBy(candidates, ExitTradeGroupBy)
	if err != nil {
		return nil, err
	}

	ranks := groups.Rank()
	out := make([]types.TradeCandidate, len(candidates))

	for i, c := range candidates {
		c.Entry.TradeNum = ranks[groups.Of[i]]
		out[i] = c
	}

	return out, nil
}
