package filter

import (
	"math"

	"github.com/rxtech-lab/argo-options/internal/dataset"
	"github.com/rxtech-lab/argo-options/internal/types"
	"github.com/rxtech-lab/argo-options/pkg/errors"
)

// DefaultGroupBy is the grouping used by nearest-value selection unless a filter names its own.
var DefaultGroupBy = []types.Column{
	types.ColumnDate,
	types.ColumnCallPut,
	types.ColumnMaturityDate,
	types.ColumnUnderlyingSymbol,
}

// Predicate describes how a filter value is applied to one column.
type Predicate struct {
	Column types.Column
	// GroupBy scopes nearest-value selection. A nil slice puts every row in one group.
	GroupBy []types.Column
	// Absolute measures nearest distance and range bounds on |column|. Scalar comparisons always
	// see the raw value.
	Absolute bool
	// DefaultCond is used when the spec carries no condition.
	DefaultCond Condition
}

// Evaluate applies spec to rows and returns the surviving rows in input order.
//
// A scalar is compared row by row with the resolved condition, or, with the nearest condition,
// keeps the rows of each group closest to it. A range (low, target, high) keeps the rows of each
// group closest to target and then drops those outside [low, high]; a range whose three values
// are equal is an equality test on target. Dates may only be compared with date columns.
func Evaluate[T types.Row](p Predicate, rows []T, spec Spec) ([]T, error) {
	cond := spec.Cond
	if cond == "" {
		cond = p.DefaultCond
	}

	if cond == "" {
		cond = CondEqual
	}

	switch spec.Value.Kind {
	case ValueUnset:
		return rows, nil
	case ValueDate:
		if cond == CondNearest {
			return nil, errors.Newf(errors.ErrCodeInvalidConditionForColumn,
				"nearest is not supported for date value on %s", p.Column)
		}

		return compare(p, rows, types.TimeCell(spec.Value.Date), cond)
	case ValueScalar:
		if cond == CondNearest {
			return nearest(p, rows, spec.Value.Scalar)
		}

		return compare(p, rows, types.NumberCell(spec.Value.Scalar), cond)
	case ValueRange:
		if cond != CondNearest && spec.Cond != "" {
			return nil, errors.Newf(errors.ErrCodeInvalidFilterValue,
				"range value %s only supports the nearest condition, got %s", spec.Value, cond)
		}

		if spec.Value.IsPoint() {
			return compare(p, rows, types.NumberCell(spec.Value.Target), CondEqual)
		}

		closest, err := nearest(p, rows, spec.Value.Target)
		if err != nil {
			return nil, err
		}

		return between(p, closest, spec.Value.Low, spec.Value.High)
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidFilterValue, "invalid value for %s", p.Column)
	}
}

// number reads the column of row as a float. ok is false for null cells.
func (p Predicate) number(row types.Row) (float64, bool, error) {
	cell, err := row.Cell(p.Column)
	if err != nil {
		return 0, false, err
	}

	switch cell.Kind {
	case types.CellNull:
		return 0, false, nil
	case types.CellNumber:
		if p.Absolute {
			return math.Abs(cell.Number), true, nil
		}

		return cell.Number, true, nil
	default:
		return 0, false, errors.Newf(errors.ErrCodeInvalidConditionForColumn,
			"numeric value given for non-numeric column %s", p.Column)
	}
}

func compare[T types.Row](p Predicate, rows []T, value types.Cell, cond Condition) ([]T, error) {
	return dataset.FilterErr(rows, func(row T) (bool, error) {
		cell, err := row.Cell(p.Column)
		if err != nil {
			return false, err
		}

		if cell.IsNull() {
			return false, nil
		}

		if cell.Kind != value.Kind {
			if value.Kind == types.CellTime {
				return false, errors.Newf(errors.ErrCodeInvalidConditionForColumn,
					"date value given for non-date column %s", p.Column)
			}

			return false, errors.Newf(errors.ErrCodeInvalidConditionForColumn,
				"%s is a date column and needs a date value", p.Column)
		}

		c := cell.Compare(value)

		switch cond {
		case CondLessOrEqual:
			return c <= 0, nil
		case CondLess:
			return c < 0, nil
		case CondGreaterOrEqual:
			return c >= 0, nil
		case CondGreater:
			return c > 0, nil
		case CondEqual:
			return c == 0, nil
		case CondNotEqual:
			return c != 0, nil
		default:
			return false, errors.Newf(errors.ErrCodeInvalidFilterValue, "unknown condition %q", cond)
		}
	})
}

// nearest keeps, per group, every row whose distance to target equals the group minimum.
// Rows with a null column never survive.
func nearest[T types.Row](p Predicate, rows []T, target float64) ([]T, error) {
	groups, err := dataset.GroupBy(rows, p.GroupBy)
	if err != nil {
		return nil, err
	}

	distance := make([]float64, len(rows))
	best := make(map[dataset.Key]float64, len(groups.Keys))

	for i, row := range rows {
		v, ok, err := p.number(row)
		if err != nil {
			return nil, err
		}

		if !ok {
			distance[i] = math.NaN()

			continue
		}

		d := math.Abs(v - target)
		distance[i] = d

		if current, seen := best[groups.Of[i]]; !seen || d < current {
			best[groups.Of[i]] = d
		}
	}

	out := make([]T, 0, len(groups.Keys))

	for i, row := range rows {
		if math.IsNaN(distance[i]) {
			continue
		}

		if distance[i] == best[groups.Of[i]] {
			out = append(out, row)
		}
	}

	return out, nil
}

func between[T types.Row](p Predicate, rows []T, low, high float64) ([]T, error) {
	return dataset.FilterErr(rows, func(row T) (bool, error) {
		v, ok, err := p.number(row)
		if err != nil || !ok {
			return false, err
		}

		return v >= low && v <= high, nil
	})
}
