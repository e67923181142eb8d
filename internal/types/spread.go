package types

import (
	"math"
)

// SpreadLeg is a quote picked for one leg of a strategy at entry. Bid, ask and last of the
// embedded quote are the entry-side prices.
type SpreadLeg struct {
	Quote

	// LegIndex is the 0-based position of the leg in the strategy.
	LegIndex int
	// Ratio is +1 for a long leg and -1 for a short leg.
	Ratio int
	// Contracts is the position size assigned by the contract_size filter.
	Contracts int
	// TradeNum groups the legs opened together on one date for one maturity and underlying.
	TradeNum int
	// EntryOptPrice is the signed per-contract price paid (negative) or received (positive) to open.
	EntryOptPrice float64
}

// StrikePct returns strike / underlying_price rounded to two decimals.
func (s SpreadLeg) StrikePct() float64 {
	if s.UnderlyingPrice == 0 {
		return math.NaN()
	}

	return math.Round(s.Strike/s.UnderlyingPrice*100) / 100
}

// Signature returns the (call_put, ratio) pair of the leg.
func (s SpreadLeg) Signature() LegSignature {
	return LegSignature{Type: s.CallPut, Ratio: s.Ratio}
}

// Cell implements Row.
func (s SpreadLeg) Cell(col Column) (Cell, error) {
	switch col {
	case ColumnLegIndex:
		return NumberCell(float64(s.LegIndex)), nil
	case ColumnRatio:
		return NumberCell(float64(s.Ratio)), nil
	case ColumnContracts:
		return NumberCell(float64(s.Contracts)), nil
	case ColumnStrikePct:
		return NumberCell(s.StrikePct()), nil
	case ColumnTradeNum:
		return NumberCell(float64(s.TradeNum)), nil
	case ColumnBidEntry:
		return NumberCell(s.Bid), nil
	case ColumnAskEntry:
		return NumberCell(s.Ask), nil
	case ColumnLastEntry:
		return NumberCell(s.Last), nil
	case ColumnEntryOptPrice:
		return NumberCell(s.EntryOptPrice), nil
	case ColumnNetDelta:
		return NumberCell(float64(s.Ratio) * s.Delta), nil
	default:
		return s.Quote.Cell(col)
	}
}

// TradeCandidate pairs an entry leg with one observation of the same contract. Before the exit
// filters run there is one candidate per observation of the contract in the quote history.
type TradeCandidate struct {
	Entry SpreadLeg
	Exit  Quote

	ExitOptPrice float64
	EntryPrice   float64
	ExitPrice    float64
	CashFlow     float64
}

// HoldDays returns the calendar days between entry and exit.
func (t TradeCandidate) HoldDays() int {
	return DaysBetween(t.Entry.Date, t.Exit.Date)
}

// Cell implements Row. Columns shared by the join key resolve to the entry side; the remaining
// quote columns are available with entry_ and exit_ prefixes.
func (t TradeCandidate) Cell(col Column) (Cell, error) {
	switch col {
	case ColumnEntryDate, ColumnDate:
		return TimeCell(t.Entry.Date), nil
	case ColumnExitDate:
		return TimeCell(t.Exit.Date), nil
	case ColumnMaturityDate, ColumnUnderlyingSymbol, ColumnCallPut, ColumnStrike,
		ColumnRatio, ColumnContracts, ColumnTradeNum, ColumnLegIndex,
		ColumnBidEntry, ColumnAskEntry, ColumnLastEntry, ColumnEntryOptPrice:
		return t.Entry.Cell(col)
	case ColumnDTM:
		return NumberCell(float64(t.Entry.DTM())), nil
	case ColumnExitDTM:
		return NumberCell(float64(t.Exit.DTM())), nil
	case ColumnHoldDays:
		return NumberCell(float64(t.HoldDays())), nil
	case ColumnEntryDelta:
		return NumberCell(t.Entry.Delta), nil
	case ColumnEntryGamma:
		return NumberCell(t.Entry.Gamma), nil
	case ColumnEntryVega:
		return NumberCell(t.Entry.Vega), nil
	case ColumnEntryTheta:
		return NumberCell(t.Entry.Theta), nil
	case ColumnEntryRho:
		return optionalNumber(t.Entry.Rho), nil
	case ColumnExitDelta:
		return NumberCell(t.Exit.Delta), nil
	case ColumnEntryUnderlyingPrice:
		return NumberCell(t.Entry.UnderlyingPrice), nil
	case ColumnExitUnderlyingPrice:
		return NumberCell(t.Exit.UnderlyingPrice), nil
	case ColumnEntryDayToEvent:
		return optionalNumber(t.Entry.DayToEvent), nil
	case ColumnExitDayToEvent:
		return optionalNumber(t.Exit.DayToEvent), nil
	case ColumnBidExit:
		return NumberCell(t.Exit.Bid), nil
	case ColumnAskExit:
		return NumberCell(t.Exit.Ask), nil
	case ColumnLastExit:
		return NumberCell(t.Exit.Last), nil
	case ColumnExitOptPrice:
		return NumberCell(t.ExitOptPrice), nil
	case ColumnEntryPrice:
		return NumberCell(t.EntryPrice), nil
	case ColumnExitPrice:
		return NumberCell(t.ExitPrice), nil
	case ColumnCashFlow:
		return NumberCell(t.CashFlow), nil
	default:
		return Cell{}, unknownColumn("trade", col)
	}
}
