package datasource

import (
	"github.com/rxtech-lab/argo-options/internal/types"
)

// RequiredFields must be present in every quote file.
var RequiredFields = []types.Column{
	types.ColumnCallPut,
	types.ColumnDate,
	types.ColumnMaturityDate,
	types.ColumnStrike,
	types.ColumnUnderlyingPrice,
	types.ColumnDelta,
	types.ColumnGamma,
	types.ColumnTheta,
	types.ColumnVega,
}

// OptionalFields are read when present and left empty otherwise.
var OptionalFields = []types.Column{
	types.ColumnOptionSymbol,
	types.ColumnUnderlyingSymbol,
	types.ColumnBid,
	types.ColumnAsk,
	types.ColumnLast,
	types.ColumnImpliedVol,
	types.ColumnRho,
	types.ColumnEventDay,
	types.ColumnDayToEvent,
}

// FieldMapping maps a quote field to the name of the source column holding it. Fields missing
// from the mapping are read from the column of the same name.
type FieldMapping map[types.Column]string

// Source returns the source column of field.
func (m FieldMapping) Source(field types.Column) string {
	if source, ok := m[field]; ok && source != "" {
		return source
	}

	return string(field)
}

type DataSource interface {
	// Initialize points the data source at a quote file (parquet or CSV) and checks its schema.
	Initialize(path string) error
	// ReadAll yields every quote ordered by date, underlying, maturity, type and strike.
	ReadAll() func(yield func(types.Quote, error) bool)
	// Count returns the number of quotes in the data source
	Count() (int, error)
	// Close closes the data source and releases any resources
	Close() error
}

// Collect reads every quote of ds into a slice.
func Collect(ds DataSource) ([]types.Quote, error) {
	quotes := make([]types.Quote, 0)

	for quote, err := range ds.ReadAll() {
		if err != nil {
			return nil, err
		}

		quotes = append(quotes, quote)
	}

	return quotes, nil
}
