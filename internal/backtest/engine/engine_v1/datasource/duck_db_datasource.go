package datasource

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/kelseyhightower/envconfig"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-options/internal/logger"
	"github.com/rxtech-lab/argo-options/internal/types"
	"github.com/rxtech-lab/argo-options/pkg/errors"
	"go.uber.org/zap"
)

const quotesView = "raw_quotes"

// Settings are the DuckDB runtime settings, read from ARGO_DUCKDB_* environment variables.
type Settings struct {
	MemoryLimit   string `envconfig:"DUCKDB_MEMORY_LIMIT" default:"8GB"`
	Threads       int    `envconfig:"DUCKDB_THREADS" default:"4"`
	TempDirectory string `envconfig:"DUCKDB_TEMP_DIRECTORY" default:"./temp"`
}

// LoadSettings reads Settings from the environment.
func LoadSettings() (Settings, error) {
	var settings Settings
	if err := envconfig.Process("ARGO", &settings); err != nil {
		return Settings{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to process duckdb settings", err)
	}

	return settings, nil
}

// Option customises a DuckDBDataSource.
type Option func(*DuckDBDataSource)

// WithFieldMapping sets the source column of quote fields.
func WithFieldMapping(mapping FieldMapping) Option {
	return func(d *DuckDBDataSource) {
		d.mapping = mapping
	}
}

// WithDecimalPrecision rounds every numeric field to precision decimals on import.
func WithDecimalPrecision(precision int) Option {
	return func(d *DuckDBDataSource) {
		d.precision = optional.Some(precision)
	}
}

// WithSettings overrides the settings read from the environment.
func WithSettings(settings Settings) Option {
	return func(d *DuckDBDataSource) {
		d.settings = settings
	}
}

type DuckDBDataSource struct {
	db        *sql.DB
	logger    *logger.Logger
	sq        squirrel.StatementBuilderType
	settings  Settings
	mapping   FieldMapping
	precision optional.Option[int]
	// present holds the quote fields found in the current file.
	present map[types.Column]bool
}

// NewDataSource creates a new DuckDB data source instance with the specified database path.
// The path parameter specifies the DuckDB database file location; an empty path keeps the
// database in memory. This is distinct from Initialize() which attaches a quote file.
func NewDataSource(path string, logger *logger.Logger, opts ...Option) (DataSource, error) {
	settings, err := LoadSettings()
	if err != nil {
		return nil, err
	}

	d := &DuckDBDataSource{
		db:        nil,
		logger:    logger,
		sq:        squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		settings:  settings,
		mapping:   FieldMapping{},
		precision: optional.None[int](),
		present:   nil,
	}

	for _, opt := range opts {
		opt(d)
	}

	d.db, err = sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open duckdb", err)
	}

	_, err = d.db.Exec(fmt.Sprintf(`
		SET memory_limit='%s';
		SET threads=%d;
		SET temp_directory='%s';
	`, escapeLiteral(d.settings.MemoryLimit), d.settings.Threads, escapeLiteral(d.settings.TempDirectory)))
	if err != nil {
		_ = d.db.Close()

		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to set DuckDB optimizations", err)
	}

	return d, nil
}

// Initialize implements DataSource.
func (d *DuckDBDataSource) Initialize(path string) error {
	d.logger.Debug("Initializing DuckDB data source", zap.String("path", path))

	_, err := d.db.Exec(fmt.Sprintf(`DROP VIEW IF EXISTS %s;`, quotesView))
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to drop existing view", err)
	}

	var reader string

	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		reader = "read_parquet"
	case ".csv", ".txt":
		reader = "read_csv_auto"
	default:
		return errors.Newf(errors.ErrCodeImportFailed, "unsupported quote file %s", path)
	}

	// Squirrel doesn't support CREATE VIEW
	_, err = d.db.Exec(fmt.Sprintf(`CREATE VIEW %s AS SELECT * FROM %s('%s');`, quotesView, reader, escapeLiteral(path)))
	if err != nil {
		return errors.Wrapf(errors.ErrCodeImportFailed, err, "failed to read %s", path)
	}

	columns, err := d.sourceColumns()
	if err != nil {
		return err
	}

	d.present = make(map[types.Column]bool)

	for _, field := range RequiredFields {
		source := d.mapping.Source(field)
		if !columns[source] {
			return errors.Newf(errors.ErrCodeMissingRequiredField, "%s: required field %s (column %q) not found", path, field, source)
		}

		d.present[field] = true
	}

	for _, field := range OptionalFields {
		d.present[field] = columns[d.mapping.Source(field)]
	}

	d.logger.Debug("Quote file attached",
		zap.String("path", path),
		zap.Int("columns", len(columns)),
	)

	return nil
}

func (d *DuckDBDataSource) sourceColumns() (map[string]bool, error) {
	rows, err := d.db.Query(fmt.Sprintf(`DESCRIBE %s;`, quotesView))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to describe quote file", err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to describe quote file", err)
	}

	columns := make(map[string]bool)

	for rows.Next() {
		values := make([]any, len(names))
		pointers := make([]any, len(names))

		for i := range values {
			pointers[i] = &values[i]
		}

		if err := rows.Scan(pointers...); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan column description", err)
		}

		// column_name is the first column of DESCRIBE
		if name, ok := values[0].(string); ok {
			columns[name] = true
		}
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating column description", err)
	}

	return columns, nil
}

// Count implements DataSource.
func (d *DuckDBDataSource) Count() (int, error) {
	if d.present == nil {
		return 0, errors.New(errors.ErrCodeDataSourceUnavailable, "data source is not initialized")
	}

	query, args, err := d.sq.Select("COUNT(*)").From(quotesView).Where(d.completeRows()).ToSql()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build count query", err)
	}

	var count int
	if err := d.db.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count quotes", err)
	}

	return count, nil
}

// ReadAll implements DataSource with batch processing.
func (d *DuckDBDataSource) ReadAll() func(yield func(types.Quote, error) bool) {
	const batchSize = 1000

	return func(yield func(types.Quote, error) bool) {
		if d.present == nil {
			yield(types.Quote{}, errors.New(errors.ErrCodeDataSourceUnavailable, "data source is not initialized"))

			return
		}

		query, args, err := d.selectQuery().ToSql()
		if err != nil {
			yield(types.Quote{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build quote query", err))

			return
		}

		d.logger.Debug("Reading quotes from DuckDB", zap.String("query", query))

		stmt, err := d.db.Prepare(query)
		if err != nil {
			yield(types.Quote{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to prepare quote query", err))

			return
		}
		defer stmt.Close()

		rows, err := stmt.Query(args...)
		if err != nil {
			yield(types.Quote{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query quotes", err))

			return
		}
		defer rows.Close()

		batch := make([]types.Quote, 0, batchSize)

		for rows.Next() {
			quote, err := scanQuote(rows)
			if err != nil {
				yield(types.Quote{}, err)

				return
			}

			batch = append(batch, quote)

			if len(batch) >= batchSize {
				for _, q := range batch {
					if !yield(q, nil) {
						return
					}
				}

				batch = batch[:0]
			}
		}

		if err := rows.Err(); err != nil {
			yield(types.Quote{}, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating quotes", err))

			return
		}

		for _, q := range batch {
			if !yield(q, nil) {
				return
			}
		}
	}
}

// Close implements DataSource.
func (d *DuckDBDataSource) Close() error {
	if d.db == nil {
		return nil
	}

	return d.db.Close()
}

// completeRows skips rows with an empty required field.
func (d *DuckDBDataSource) completeRows() squirrel.And {
	conditions := squirrel.And{}
	for _, field := range RequiredFields {
		conditions = append(conditions, squirrel.NotEq{quoteIdentifier(d.mapping.Source(field)): nil})
	}

	return conditions
}

func (d *DuckDBDataSource) selectQuery() squirrel.SelectBuilder {
	return d.sq.Select(
		d.dateField(types.ColumnDate),
		d.dateField(types.ColumnMaturityDate),
		fmt.Sprintf("lower(substr(CAST(%s AS VARCHAR), 1, 1)) AS call_put", d.source(types.ColumnCallPut)),
		d.numberField(types.ColumnStrike, "NULL"),
		d.textField(types.ColumnUnderlyingSymbol, "''"),
		d.textField(types.ColumnOptionSymbol, "NULL"),
		d.numberField(types.ColumnBid, "0"),
		d.numberField(types.ColumnAsk, "0"),
		d.numberField(types.ColumnLast, "0"),
		d.numberField(types.ColumnUnderlyingPrice, "NULL"),
		d.numberField(types.ColumnDelta, "NULL"),
		d.numberField(types.ColumnGamma, "NULL"),
		d.numberField(types.ColumnTheta, "NULL"),
		d.numberField(types.ColumnVega, "NULL"),
		d.numberField(types.ColumnRho, "NULL"),
		d.numberField(types.ColumnImpliedVol, "NULL"),
		d.dateField(types.ColumnEventDay),
		d.numberField(types.ColumnDayToEvent, "NULL"),
	).
		From(quotesView).
		Where(d.completeRows()).
		OrderBy("date", "underlying_symbol", "maturity_date", "call_put", "strike")
}

func (d *DuckDBDataSource) source(field types.Column) string {
	return quoteIdentifier(d.mapping.Source(field))
}

func (d *DuckDBDataSource) dateField(field types.Column) string {
	if !d.present[field] {
		return fmt.Sprintf("CAST(NULL AS DATE) AS %s", field)
	}

	return fmt.Sprintf("CAST(%s AS DATE) AS %s", d.source(field), field)
}

func (d *DuckDBDataSource) textField(field types.Column, fallback string) string {
	if !d.present[field] {
		return fmt.Sprintf("CAST(%s AS VARCHAR) AS %s", fallback, field)
	}

	return fmt.Sprintf("COALESCE(CAST(%s AS VARCHAR), %s) AS %s", d.source(field), fallback, field)
}

func (d *DuckDBDataSource) numberField(field types.Column, fallback string) string {
	if !d.present[field] {
		return fmt.Sprintf("CAST(%s AS DOUBLE) AS %s", fallback, field)
	}

	value := fmt.Sprintf("CAST(%s AS DOUBLE)", d.source(field))
	if d.precision.IsSome() {
		value = fmt.Sprintf("ROUND(%s, %d)", value, d.precision.Unwrap())
	}

	return fmt.Sprintf("COALESCE(%s, %s) AS %s", value, fallback, field)
}

func scanQuote(rows *sql.Rows) (types.Quote, error) {
	var (
		date, maturity                          time.Time
		callPut, underlying                     string
		optionSymbol                            sql.NullString
		strike, bid, ask, last, underlyingPrice float64
		delta, gamma, theta, vega               float64
		rho, impliedVol, dayToEvent             sql.NullFloat64
		eventDay                                sql.NullTime
	)

	err := rows.Scan(
		&date, &maturity, &callPut, &strike, &underlying, &optionSymbol,
		&bid, &ask, &last, &underlyingPrice,
		&delta, &gamma, &theta, &vega,
		&rho, &impliedVol, &eventDay, &dayToEvent,
	)
	if err != nil {
		return types.Quote{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan quote", err)
	}

	optionType, err := types.ParseOptionType(callPut)
	if err != nil {
		return types.Quote{}, errors.Wrap(errors.ErrCodeImportFailed, "invalid call_put value", err)
	}

	return types.Quote{
		Date:             date.UTC(),
		MaturityDate:     maturity.UTC(),
		CallPut:          optionType,
		Strike:           strike,
		UnderlyingSymbol: underlying,
		OptionSymbol:     optionSymbol.String,
		Bid:              bid,
		Ask:              ask,
		Last:             last,
		UnderlyingPrice:  underlyingPrice,
		Delta:            delta,
		Gamma:            gamma,
		Theta:            theta,
		Vega:             vega,
		Rho:              nullFloat(rho),
		ImpliedVol:       nullFloat(impliedVol),
		EventDay:         nullTime(eventDay),
		DayToEvent:       nullFloat(dayToEvent),
	}, nil
}

func nullFloat(v sql.NullFloat64) optional.Option[float64] {
	if !v.Valid {
		return optional.None[float64]()
	}

	return optional.Some(v.Float64)
}

func nullTime(v sql.NullTime) optional.Option[time.Time] {
	if !v.Valid {
		return optional.None[time.Time]()
	}

	return optional.Some(v.Time.UTC())
}

func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func escapeLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
