package types

import (
	"time"

	"github.com/moznion/go-optional"
)

// Quote is one observation of one option contract. It is unique per
// (date, call_put, maturity_date, strike, underlying_symbol) within a dataset.
type Quote struct {
	Date             time.Time
	MaturityDate     time.Time
	CallPut          OptionType
	Strike           float64
	UnderlyingSymbol string
	OptionSymbol     string
	Bid              float64
	Ask              float64
	Last             float64
	UnderlyingPrice  float64
	Delta            float64
	Gamma            float64
	Theta            float64
	Vega             float64

	Rho        optional.Option[float64]
	ImpliedVol optional.Option[float64]
	EventDay   optional.Option[time.Time]
	DayToEvent optional.Option[float64]
}

const day = 24 * time.Hour

// DaysBetween returns the whole number of calendar days from start to end.
func DaysBetween(start, end time.Time) int {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)

	return int(e.Sub(s) / day)
}

// DTM returns the days to maturity as of the quote date.
func (q Quote) DTM() int {
	return DaysBetween(q.Date, q.MaturityDate)
}

// ContractKey identifies the contract a quote belongs to, independent of the observation date.
type ContractKey struct {
	UnderlyingSymbol string
	CallPut          OptionType
	MaturityUnix     int64
	Strike           float64
}

// Contract returns the join key used to match entry quotes with later observations of the
// same contract.
func (q Quote) Contract() ContractKey {
	return ContractKey{
		UnderlyingSymbol: q.UnderlyingSymbol,
		CallPut:          q.CallPut,
		MaturityUnix:     q.MaturityDate.Unix(),
		Strike:           q.Strike,
	}
}

// Cell implements Row.
func (q Quote) Cell(col Column) (Cell, error) {
	switch col {
	case ColumnDate:
		return TimeCell(q.Date), nil
	case ColumnMaturityDate:
		return TimeCell(q.MaturityDate), nil
	case ColumnCallPut:
		return TextCell(q.CallPut.Code()), nil
	case ColumnStrike:
		return NumberCell(q.Strike), nil
	case ColumnUnderlyingSymbol:
		return TextCell(q.UnderlyingSymbol), nil
	case ColumnOptionSymbol:
		return TextCell(q.OptionSymbol), nil
	case ColumnBid:
		return NumberCell(q.Bid), nil
	case ColumnAsk:
		return NumberCell(q.Ask), nil
	case ColumnLast:
		return NumberCell(q.Last), nil
	case ColumnUnderlyingPrice:
		return NumberCell(q.UnderlyingPrice), nil
	case ColumnDelta:
		return NumberCell(q.Delta), nil
	case ColumnGamma:
		return NumberCell(q.Gamma), nil
	case ColumnTheta:
		return NumberCell(q.Theta), nil
	case ColumnVega:
		return NumberCell(q.Vega), nil
	case ColumnRho:
		return optionalNumber(q.Rho), nil
	case ColumnImpliedVol:
		return optionalNumber(q.ImpliedVol), nil
	case ColumnEventDay:
		if q.EventDay.IsNone() {
			return NullCell(), nil
		}

		return TimeCell(q.EventDay.Unwrap()), nil
	case ColumnDayToEvent:
		return optionalNumber(q.DayToEvent), nil
	case ColumnDTM:
		return NumberCell(float64(q.DTM())), nil
	default:
		return Cell{}, unknownColumn("quote", col)
	}
}
