package engine

import (
	"github.com/rxtech-lab/argo-options/internal/types"
	"github.com/rxtech-lab/argo-options/pkg/errors"
	"github.com/shopspring/decimal"
)

// Pricer turns quotes into signed option prices and trade cash flows. Money leaving the
// account is negative: opening a long pays, closing it receives.
type Pricer struct {
	mode      types.PricingMode
	precision int32
}

// NewPricer creates a pricer for the pricing mode, rounding to precision decimal places.
func NewPricer(mode types.PricingMode, precision int) (Pricer, error) {
	if !mode.IsValid() {
		return Pricer{}, errors.Newf(errors.ErrCodeInvalidPricingMode, "unknown pricing mode %q", mode)
	}

	if precision < 0 {
		return Pricer{}, errors.Newf(errors.ErrCodeInvalidParameter, "decimal precision must not be negative, got %d", precision)
	}

	return Pricer{mode: mode, precision: int32(precision)}, nil
}

// Mode returns the pricing mode.
func (p Pricer) Mode() types.PricingMode {
	return p.mode
}

// EntryOptPrice returns the unrounded per-contract price of opening a leg with the given ratio.
// In market mode a long leg pays the ask and a short leg receives the bid.
func (p Pricer) EntryOptPrice(ratio int, bid, ask, last float64) decimal.Decimal {
	r := decimal.NewFromInt(int64(ratio))

	if p.mode == types.PricingModeMidPrice {
		return decimal.NewFromFloat(last).Mul(r).Neg()
	}

	a := decimal.NewFromFloat(ask).Mul(r)
	b := decimal.NewFromFloat(bid).Mul(r)

	if ratio > 0 {
		return a.Neg()
	}

	return b.Neg()
}

// ExitOptPrice returns the unrounded per-contract price of closing a leg with the given ratio.
// In market mode a long leg receives the bid and a short leg pays the ask.
func (p Pricer) ExitOptPrice(ratio int, bid, ask, last float64) decimal.Decimal {
	r := decimal.NewFromInt(int64(ratio))

	if p.mode == types.PricingModeMidPrice {
		return decimal.NewFromFloat(last).Mul(r)
	}

	a := decimal.NewFromFloat(ask).Mul(r)
	b := decimal.NewFromFloat(bid).Mul(r)

	if ratio > 0 {
		return b
	}

	return a
}

// PriceEntry sets the entry option price of every leg. Prices stay unrounded until PriceExit
// sizes them.
func (p Pricer) PriceEntry(legs []types.SpreadLeg) []types.SpreadLeg {
	out := make([]types.SpreadLeg, len(legs))

	for i, leg := range legs {
		leg.EntryOptPrice = p.EntryOptPrice(leg.Ratio, leg.Bid, leg.Ask, leg.Last).InexactFloat64()
		out[i] = leg
	}

	return out
}

// PriceExit sets the exit option price and the sized entry, exit and net cash flows of every
// candidate. Sizing uses the unrounded option prices; every output is then rounded to the
// precision.
func (p Pricer) PriceExit(candidates []types.TradeCandidate) []types.TradeCandidate {
	out := make([]types.TradeCandidate, len(candidates))

	for i, c := range candidates {
		contracts := decimal.NewFromInt(int64(c.Entry.Contracts))
		entryOpt := decimal.NewFromFloat(c.Entry.EntryOptPrice)
		exitOpt := p.ExitOptPrice(c.Entry.Ratio, c.Exit.Bid, c.Exit.Ask, c.Exit.Last)

		entryPrice := entryOpt.Mul(contracts)
		exitPrice := exitOpt.Mul(contracts)

		c.Entry.EntryOptPrice = entryOpt.Round(p.precision).InexactFloat64()
		c.ExitOptPrice = exitOpt.Round(p.precision).InexactFloat64()
		c.EntryPrice = entryPrice.Round(p.precision).InexactFloat64()
		c.ExitPrice = exitPrice.Round(p.precision).InexactFloat64()
		c.CashFlow = entryPrice.Add(exitPrice).Round(p.precision).InexactFloat64()
		out[i] = c
	}

	return out
}
