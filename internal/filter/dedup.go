package filter

import (
	"github.com/rxtech-lab/argo-options/internal/dataset"
	"github.com/rxtech-lab/argo-options/internal/types"
)

// Aggregation picks the extremum kept by a tie-break step.
type Aggregation int

const (
	AggregateMax Aggregation = iota
	AggregateMin
)

func (a Aggregation) String() string {
	if a == AggregateMin {
		return "min"
	}

	return "max"
}

// TieBreak is one narrowing step of Dedup.
type TieBreak struct {
	Column types.Column
	Mode   Aggregation
}

// Dedup narrows each group to the rows holding the group extremum of every tie-break column
// in turn. Each step only looks at the survivors of the previous step, so a later column
// disambiguates among rows that tied on the earlier ones and can never bring back a row that
// an earlier step dropped. Rows with a null tie-break value are dropped.
func Dedup[T types.Row](rows []T, groupBy []types.Column, order []TieBreak) ([]T, error) {
	survivors := rows

	for _, step := range order {
		narrowed, err := narrow(survivors, groupBy, step)
		if err != nil {
			return nil, err
		}

		survivors = narrowed
	}

	return survivors, nil
}

func narrow[T types.Row](rows []T, groupBy []types.Column, step TieBreak) ([]T, error) {
	groups, err := dataset.GroupBy(rows, groupBy)
	if err != nil {
		return nil, err
	}

	cells := make([]types.Cell, len(rows))
	best := make(map[dataset.Key]types.Cell, len(groups.Keys))

	for i, row := range rows {
		cell, err := row.Cell(step.Column)
		if err != nil {
			return nil, err
		}

		cells[i] = cell

		if cell.IsNull() {
			continue
		}

		current, seen := best[groups.Of[i]]
		if !seen || better(cell, current, step.Mode) {
			best[groups.Of[i]] = cell
		}
	}

	out := make([]T, 0, len(groups.Keys))

	for i, row := range rows {
		if cells[i].IsNull() {
			continue
		}

		if cells[i].Equal(best[groups.Of[i]]) {
			out = append(out, row)
		}
	}

	return out, nil
}

func better(candidate, current types.Cell, mode Aggregation) bool {
	if mode == AggregateMin {
		return candidate.Compare(current) < 0
	}

	return candidate.Compare(current) > 0
}
