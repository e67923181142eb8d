package types

import (
	"time"

	"github.com/moznion/go-optional"
)

// PricingMode selects how option prices are read from quotes.
type PricingMode string

const (
	// PricingModeMarket opens and closes at the touch: pay the ask, receive the bid.
	PricingModeMarket PricingMode = "market"
	// PricingModeMidPrice opens and closes at the last traded price.
	PricingModeMidPrice PricingMode = "mid_price"
)

// AllPricingModes lists the accepted pricing modes.
var AllPricingModes = []any{string(PricingModeMarket), string(PricingModeMidPrice)}

// IsValid reports whether m is a known pricing mode.
func (m PricingMode) IsValid() bool {
	return m == PricingModeMarket || m == PricingModeMidPrice
}

// TradeLeg is one leg of one simulated trade: the entry observation paired with an exit
// observation, priced and sized.
type TradeLeg struct {
	TradeNum             int
	EntryDate            time.Time
	ExitDate             time.Time
	MaturityDate         time.Time
	UnderlyingSymbol     string
	DTM                  int
	Ratio                int
	Contracts            int
	CallPut              OptionType
	Strike               float64
	EntryDelta           float64
	EntryGamma           float64
	EntryVega            float64
	EntryTheta           float64
	EntryRho             optional.Option[float64]
	EntryUnderlyingPrice float64
	ExitUnderlyingPrice  float64
	EntryOptPrice        float64
	ExitOptPrice         float64
	EntryPrice           float64
	ExitPrice            float64
	CashFlow             float64
}

// TradeLegColumns is the fixed output column order of the trade-leg table.
var TradeLegColumns = []Column{
	ColumnEntryDate,
	ColumnExitDate,
	ColumnMaturityDate,
	ColumnUnderlyingSymbol,
	ColumnDTM,
	ColumnRatio,
	ColumnContracts,
	ColumnCallPut,
	ColumnStrike,
	ColumnEntryDelta,
	ColumnEntryGamma,
	ColumnEntryVega,
	ColumnEntryTheta,
	ColumnEntryRho,
	ColumnEntryUnderlyingPrice,
	ColumnExitUnderlyingPrice,
	ColumnEntryOptPrice,
	ColumnExitOptPrice,
	ColumnEntryPrice,
	ColumnExitPrice,
	ColumnCashFlow,
}

// NewTradeLeg projects a priced candidate onto the output columns.
func NewTradeLeg(c TradeCandidate) TradeLeg {
	return TradeLeg{
		TradeNum:             c.Entry.TradeNum,
		EntryDate:            c.Entry.Date,
		ExitDate:             c.Exit.Date,
		MaturityDate:         c.Entry.MaturityDate,
		UnderlyingSymbol:     c.Entry.UnderlyingSymbol,
		DTM:                  c.Entry.DTM(),
		Ratio:                c.Entry.Ratio,
		Contracts:            c.Entry.Contracts,
		CallPut:              c.Entry.CallPut,
		Strike:               c.Entry.Strike,
		EntryDelta:           c.Entry.Delta,
		EntryGamma:           c.Entry.Gamma,
		EntryVega:            c.Entry.Vega,
		EntryTheta:           c.Entry.Theta,
		EntryRho:             c.Entry.Rho,
		EntryUnderlyingPrice: c.Entry.UnderlyingPrice,
		ExitUnderlyingPrice:  c.Exit.UnderlyingPrice,
		EntryOptPrice:        c.Entry.EntryOptPrice,
		ExitOptPrice:         c.ExitOptPrice,
		EntryPrice:           c.EntryPrice,
		ExitPrice:            c.ExitPrice,
		CashFlow:             c.CashFlow,
	}
}

// Cell implements Row over the output columns plus trade_num.
func (t TradeLeg) Cell(col Column) (Cell, error) {
	switch col {
	case ColumnTradeNum:
		return NumberCell(float64(t.TradeNum)), nil
	case ColumnEntryDate:
		return TimeCell(t.EntryDate), nil
	case ColumnExitDate:
		return TimeCell(t.ExitDate), nil
	case ColumnMaturityDate:
		return TimeCell(t.MaturityDate), nil
	case ColumnUnderlyingSymbol:
		return TextCell(t.UnderlyingSymbol), nil
	case ColumnDTM:
		return NumberCell(float64(t.DTM)), nil
	case ColumnRatio:
		return NumberCell(float64(t.Ratio)), nil
	case ColumnContracts:
		return NumberCell(float64(t.Contracts)), nil
	case ColumnCallPut:
		return TextCell(t.CallPut.Code()), nil
	case ColumnStrike:
		return NumberCell(t.Strike), nil
	case ColumnEntryDelta:
		return NumberCell(t.EntryDelta), nil
	case ColumnEntryGamma:
		return NumberCell(t.EntryGamma), nil
	case ColumnEntryVega:
		return NumberCell(t.EntryVega), nil
	case ColumnEntryTheta:
		return NumberCell(t.EntryTheta), nil
	case ColumnEntryRho:
		return optionalNumber(t.EntryRho), nil
	case ColumnEntryUnderlyingPrice:
		return NumberCell(t.EntryUnderlyingPrice), nil
	case ColumnExitUnderlyingPrice:
		return NumberCell(t.ExitUnderlyingPrice), nil
	case ColumnEntryOptPrice:
		return NumberCell(t.EntryOptPrice), nil
	case ColumnExitOptPrice:
		return NumberCell(t.ExitOptPrice), nil
	case ColumnEntryPrice:
		return NumberCell(t.EntryPrice), nil
	case ColumnExitPrice:
		return NumberCell(t.ExitPrice), nil
	case ColumnCashFlow:
		return NumberCell(t.CashFlow), nil
	default:
		return Cell{}, unknownColumn("trade leg", col)
	}
}
