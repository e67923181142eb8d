// Package dataset holds the small set of table operations the backtester needs over typed
// records: filtering, grouping by columns, group ranking and stable multi-column sorting.
// Every operation returns a new slice and leaves its input untouched.
package dataset

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/rxtech-lab/argo-options/internal/types"
)

// MaxKeyColumns is the largest number of columns a group key can span.
const MaxKeyColumns = 6

type keyCell struct {
	kind types.CellKind
	num  float64
	text string
	unix int64
}

// Key is the comparable value of a record's grouping columns.
type Key struct {
	cells [MaxKeyColumns]keyCell
	n     int
}

// KeyOf reads the grouping columns of row.
func KeyOf[T types.Row](row T, by []types.Column) (Key, error) {
	if len(by) > MaxKeyColumns {
		return Key{}, fmt.Errorf("group key spans %d columns, at most %d supported", len(by), MaxKeyColumns)
	}

	var key Key

	for i, col := range by {
		cell, err := row.Cell(col)
		if err != nil {
			return Key{}, err
		}

		kc := keyCell{kind: cell.Kind}

		switch cell.Kind {
		case types.CellNumber:
			kc.num = cell.Number
		case types.CellText:
			kc.text = cell.Text
		case types.CellTime:
			kc.unix = cell.Time.UnixNano()
		case types.CellNull:
		}

		key.cells[i] = kc
	}

	key.n = len(by)

	return key, nil
}

// Compare orders keys column by column.
func (k Key) Compare(other Key) int {
	for i := 0; i < min(k.n, other.n); i++ {
		a, b := k.cells[i], other.cells[i]
		if c := cmp.Compare(a.kind, b.kind); c != 0 {
			return c
		}

		var c int

		switch a.kind {
		case types.CellNumber:
			c = cmp.Compare(a.num, b.num)
		case types.CellText:
			c = cmp.Compare(a.text, b.text)
		case types.CellTime:
			c = cmp.Compare(a.unix, b.unix)
		case types.CellNull:
		}

		if c != 0 {
			return c
		}
	}

	return cmp.Compare(k.n, other.n)
}

// Groups partitions record positions by key.
type Groups struct {
	// Keys lists the distinct keys in order of first appearance.
	Keys []Key
	// Rows maps a key to the positions of its records in input order.
	Rows map[Key][]int
	// Of holds the key of each record by position.
	Of []Key
}

// GroupBy partitions rows by the given columns.
func GroupBy[T types.Row](rows []T, by []types.Column) (*Groups, error) {
	groups := &Groups{
		Keys: make([]Key, 0),
		Rows: make(map[Key][]int),
		Of:   make([]Key, len(rows)),
	}

	for i, row := range rows {
		key, err := KeyOf(row, by)
		if err != nil {
			return nil, err
		}

		if _, ok := groups.Rows[key]; !ok {
			groups.Keys = append(groups.Keys, key)
		}

		groups.Rows[key] = append(groups.Rows[key], i)
		groups.Of[i] = key
	}

	return groups, nil
}

// Rank numbers the distinct keys 0..k-1 in ascending key order.
func (g *Groups) Rank() map[Key]int {
	sorted := slices.Clone(g.Keys)
	slices.SortFunc(sorted, Key.Compare)

	ranks := make(map[Key]int, len(sorted))
	for i, key := range sorted {
		ranks[key] = i
	}

	return ranks
}

// Filter returns the rows for which keep returns true.
func Filter[T any](rows []T, keep func(T) bool) []T {
	out := make([]T, 0, len(rows))

	for _, row := range rows {
		if keep(row) {
			out = append(out, row)
		}
	}

	return out
}

// FilterErr is Filter with a predicate that can fail; the first error aborts.
func FilterErr[T any](rows []T, keep func(T) (bool, error)) ([]T, error) {
	out := make([]T, 0, len(rows))

	for _, row := range rows {
		ok, err := keep(row)
		if err != nil {
			return nil, err
		}

		if ok {
			out = append(out, row)
		}
	}

	return out, nil
}

// Pick returns the rows at the given positions, in position order.
func Pick[T any](rows []T, positions []int) []T {
	sorted := slices.Clone(positions)
	slices.Sort(sorted)

	out := make([]T, 0, len(sorted))
	for _, i := range sorted {
		out = append(out, rows[i])
	}

	return out
}

// SortBy returns a copy of rows stably sorted ascending by the given columns.
func SortBy[T types.Row](rows []T, by []types.Column) ([]T, error) {
	keys := make([]Key, len(rows))

	for i, row := range rows {
		key, err := KeyOf(row, by)
		if err != nil {
			return nil, err
		}

		keys[i] = key
	}

	order := make([]int, len(rows))
	for i := range order {
		order[i] = i
	}

	slices.SortStableFunc(order, func(a, b int) int {
		return keys[a].Compare(keys[b])
	})

	out := make([]T, len(rows))
	for i, pos := range order {
		out[i] = rows[pos]
	}

	return out, nil
}

// Concat joins record sets in order into a new slice.
func Concat[T any](sets ...[]T) []T {
	total := 0
	for _, set := range sets {
		total += len(set)
	}

	out := make([]T, 0, total)
	for _, set := range sets {
		out = append(out, set...)
	}

	return out
}
