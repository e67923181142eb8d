package types

import (
	"cmp"
	"math"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-options/pkg/errors"
)

// Column names a field of a quote, spread or trade record.
type Column string

// Quote columns.
const (
	ColumnDate             Column = "date"
	ColumnMaturityDate     Column = "maturity_date"
	ColumnCallPut          Column = "call_put"
	ColumnStrike           Column = "strike"
	ColumnUnderlyingSymbol Column = "underlying_symbol"
	ColumnOptionSymbol     Column = "option_symbol"
	ColumnBid              Column = "bid"
	ColumnAsk              Column = "ask"
	ColumnLast             Column = "last"
	ColumnUnderlyingPrice  Column = "underlying_price"
	ColumnDelta            Column = "delta"
	ColumnGamma            Column = "gamma"
	ColumnTheta            Column = "theta"
	ColumnVega             Column = "vega"
	ColumnRho              Column = "rho"
	ColumnImpliedVol       Column = "implied_vol"
	ColumnEventDay         Column = "event_day"
	ColumnDayToEvent       Column = "day_to_event"
	ColumnDTM              Column = "dtm"
)

// Spread (entry stage) columns.
const (
	ColumnLegIndex      Column = "leg_index"
	ColumnRatio         Column = "ratio"
	ColumnContracts     Column = "contracts"
	ColumnStrikePct     Column = "strike_pct"
	ColumnTradeNum      Column = "trade_num"
	ColumnBidEntry      Column = "bid_entry"
	ColumnAskEntry      Column = "ask_entry"
	ColumnLastEntry     Column = "last_entry"
	ColumnEntryOptPrice Column = "entry_opt_price"
	ColumnNetDelta      Column = "net_delta"
)

// Trade (exit stage) columns.
const (
	ColumnEntryDate            Column = "entry_date"
	ColumnExitDate             Column = "exit_date"
	ColumnEntryDelta           Column = "entry_delta"
	ColumnEntryGamma           Column = "entry_gamma"
	ColumnEntryVega            Column = "entry_vega"
	ColumnEntryTheta           Column = "entry_theta"
	ColumnEntryRho             Column = "entry_rho"
	ColumnEntryUnderlyingPrice Column = "entry_underlying_price"
	ColumnExitUnderlyingPrice  Column = "exit_underlying_price"
	ColumnExitDelta            Column = "exit_delta"
	ColumnExitDTM              Column = "exit_dtm"
	ColumnEntryDayToEvent      Column = "entry_day_to_event"
	ColumnExitDayToEvent       Column = "exit_day_to_event"
	ColumnHoldDays             Column = "hold_days"
	ColumnBidExit              Column = "bid_exit"
	ColumnAskExit              Column = "ask_exit"
	ColumnLastExit             Column = "last_exit"
	ColumnExitOptPrice         Column = "exit_opt_price"
	ColumnEntryPrice           Column = "entry_price"
	ColumnExitPrice            Column = "exit_price"
	ColumnCashFlow             Column = "cash_flow"
)

// CellKind is the type of value held by a Cell.
type CellKind int

const (
	CellNull CellKind = iota
	CellNumber
	CellText
	CellTime
)

// Cell is a single typed value read from a record.
type Cell struct {
	Kind   CellKind
	Number float64
	Text   string
	Time   time.Time
}

// Row is a record whose fields can be read by column name.
type Row interface {
	// Cell returns the value stored under col, or an ErrCodeUnknownColumn error when the
	// record has no such column. Missing optional values are returned as null cells.
	Cell(col Column) (Cell, error)
}

func NumberCell(v float64) Cell {
	if math.IsNaN(v) {
		return NullCell()
	}

	return Cell{Kind: CellNumber, Number: v}
}

func TextCell(v string) Cell {
	return Cell{Kind: CellText, Text: v}
}

func TimeCell(v time.Time) Cell {
	return Cell{Kind: CellTime, Time: v}
}

func NullCell() Cell {
	return Cell{Kind: CellNull}
}

// IsNull reports whether the cell holds no value.
func (c Cell) IsNull() bool {
	return c.Kind == CellNull
}

// Float returns the numeric value of a number cell.
func (c Cell) Float() (float64, bool) {
	if c.Kind != CellNumber {
		return 0, false
	}

	return c.Number, true
}

// Compare orders two cells. Null cells sort before every value; cells of different kinds are
// ordered by kind.
func (c Cell) Compare(other Cell) int {
	if c.Kind != other.Kind {
		return cmp.Compare(c.Kind, other.Kind)
	}

	switch c.Kind {
	case CellNumber:
		return cmp.Compare(c.Number, other.Number)
	case CellText:
		return cmp.Compare(c.Text, other.Text)
	case CellTime:
		return c.Time.Compare(other.Time)
	default:
		return 0
	}
}

// Equal reports whether two cells hold the same value.
func (c Cell) Equal(other Cell) bool {
	return c.Compare(other) == 0
}

func unknownColumn(record string, col Column) error {
	return errors.Newf(errors.ErrCodeUnknownColumn, "%s has no column %q", record, col)
}

func optionalNumber(v optional.Option[float64]) Cell {
	if !v.IsSome() {
		return NullCell()
	}

	return NumberCell(v.Unwrap())
}
