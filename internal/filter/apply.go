package filter

import (
	"time"

	"github.com/rxtech-lab/argo-options/internal/types"
	"github.com/rxtech-lab/argo-options/pkg/errors"
	"github.com/shopspring/decimal"
)

// ApplyQuotes runs an init filter over raw quotes.
func (f Filter) ApplyQuotes(rows []types.Quote) ([]types.Quote, error) {
	switch f.Kind {
	case KindStartDate, KindEndDate, KindDayToEvent:
		return Evaluate(f.Predicate(), rows, f.Spec)
	default:
		return nil, f.wrongStage(StageInit)
	}
}

// ApplyLeg runs an entry filter over the records extracted for the 0-based leg. Leg-indexed
// filters declared for another leg return rows unchanged.
func (f Filter) ApplyLeg(leg int, rows []types.SpreadLeg) ([]types.SpreadLeg, error) {
	if !f.AppliesToLeg(leg) {
		return rows, nil
	}

	switch f.Kind {
	case KindContractSize:
		size := int(f.Spec.Value.Scalar)
		out := make([]types.SpreadLeg, len(rows))

		for i, row := range rows {
			row.Contracts = size
			out[i] = row
		}

		return out, nil
	case KindEntryDTM, KindEntryDayToEvent, KindLegDelta, KindLegStrikePct:
		return Evaluate(f.Predicate(), rows, f.Spec)
	default:
		return nil, f.wrongStage(StageEntry)
	}
}

// ApplyEntrySpread runs an entry_spread filter. The filtered column is summed over the legs of
// each trade and whole trades are kept or dropped.
func (f Filter) ApplyEntrySpread(rows []types.SpreadLeg) ([]types.SpreadLeg, error) {
	switch f.Kind {
	case KindEntrySpreadPrice, KindEntrySpreadDelta:
		return applySpread(f, rows, func(row types.SpreadLeg) spreadTotal {
			return spreadTotal{tradeNum: row.TradeNum, date: row.Date}
		})
	default:
		return nil, f.wrongStage(StageEntrySpread)
	}
}

// ApplyExit runs an exit filter over joined entry/exit candidates.
func (f Filter) ApplyExit(rows []types.TradeCandidate) ([]types.TradeCandidate, error) {
	switch f.Kind {
	case KindExitDTM, KindExitDayToEvent, KindExitHoldDays:
		return Evaluate(f.Predicate(), rows, f.Spec)
	default:
		return nil, f.wrongStage(StageExit)
	}
}

// ApplyExitSpread runs an exit_spread filter. The filtered column is summed over the legs of
// each trade closing on the same exit date.
func (f Filter) ApplyExitSpread(rows []types.TradeCandidate) ([]types.TradeCandidate, error) {
	switch f.Kind {
	case KindExitSpreadPrice, KindExitSpreadCashFlow:
		return applySpread(f, rows, func(row types.TradeCandidate) spreadTotal {
			return spreadTotal{tradeNum: row.Entry.TradeNum, date: row.Entry.Date, exitDate: row.Exit.Date}
		})
	default:
		return nil, f.wrongStage(StageExitSpread)
	}
}

func (f Filter) wrongStage(stage Stage) error {
	return errors.Newf(errors.ErrCodeInvalidParameter, "filter %q runs at the %s stage, not %s", f.Name, f.Stage(), stage)
}

// spreadTotal is the sum of one column over the legs of a trade.
type spreadTotal struct {
	tradeNum int
	date     time.Time
	exitDate time.Time
	column   types.Column
	value    decimal.Decimal
}

func (s spreadTotal) Cell(col types.Column) (types.Cell, error) {
	switch col {
	case types.ColumnTradeNum:
		return types.NumberCell(float64(s.tradeNum)), nil
	case types.ColumnDate, types.ColumnEntryDate:
		return types.TimeCell(s.date), nil
	case types.ColumnExitDate:
		return types.TimeCell(s.exitDate), nil
	case s.column:
		return types.NumberCell(s.value.InexactFloat64()), nil
	default:
		return types.Cell{}, errors.Newf(errors.ErrCodeUnknownColumn, "spread total has no column %q", col)
	}
}

type spreadID struct {
	tradeNum int
	exitUnix int64
}

func (s spreadTotal) id() spreadID {
	return spreadID{tradeNum: s.tradeNum, exitUnix: s.exitDate.Unix()}
}

func applySpread[T types.Row](f Filter, rows []T, identify func(T) spreadTotal) ([]T, error) {
	if !f.Spec.Value.IsSet() {
		return rows, nil
	}

	predicate := f.Predicate()
	totals := make([]spreadTotal, 0)
	position := make(map[spreadID]int)
	ids := make([]spreadID, len(rows))

	for i, row := range rows {
		cell, err := row.Cell(predicate.Column)
		if err != nil {
			return nil, err
		}

		total := identify(row)
		id := total.id()
		ids[i] = id

		pos, ok := position[id]
		if !ok {
			total.column = predicate.Column
			total.value = decimal.Zero
			pos = len(totals)
			position[id] = pos
			totals = append(totals, total)
		}

		if v, ok := cell.Float(); ok {
			totals[pos].value = totals[pos].value.Add(decimal.NewFromFloat(v))
		}
	}

	kept, err := Evaluate(predicate, totals, f.Spec)
	if err != nil {
		return nil, err
	}

	keep := make(map[spreadID]bool, len(kept))
	for _, total := range kept {
		keep[total.id()] = true
	}

	out := make([]T, 0, len(rows))

	for i, row := range rows {
		if keep[ids[i]] {
			out = append(out, row)
		}
	}

	return out, nil
}
