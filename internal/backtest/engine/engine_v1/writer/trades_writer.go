// Package writer persists simulated trade legs through an in-memory DuckDB table.
package writer

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-options/internal/logger"
	"github.com/rxtech-lab/argo-options/internal/types"
	"github.com/rxtech-lab/argo-options/pkg/errors"
	"go.uber.org/zap"
)

// Format is the file format of an exported trade table.
type Format string

const (
	FormatParquet Format = "parquet"
	FormatCSV     Format = "csv"
)

// AllFormats lists the accepted output formats.
var AllFormats = []any{string(FormatParquet), string(FormatCSV)}

// IsValid reports whether f is a known format.
func (f Format) IsValid() bool {
	return f == FormatParquet || f == FormatCSV
}

// Extension returns the file extension of the format, including the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

const tradesTable = "trades"

// Summary aggregates the trade table of one run.
type Summary struct {
	Legs          int     `yaml:"legs"`
	Trades        int     `yaml:"trades"`
	Wins          int     `yaml:"wins"`
	Losses        int     `yaml:"losses"`
	TotalCashFlow float64 `yaml:"total_cash_flow"`
}

type TradesWriter struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewTradesWriter opens an in-memory table for trade legs.
func NewTradesWriter(logger *logger.Logger) (*TradesWriter, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeWriteFailed, "failed to open database", err)
	}

	w := &TradesWriter{
		db:     db,
		logger: logger,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}

	if err := w.initialize(); err != nil {
		_ = db.Close()

		return nil, err
	}

	return w, nil
}

// initialize creates the trades table in output column order.
func (w *TradesWriter) initialize() error {
	_, err := w.db.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			trade_num INTEGER,
			entry_date DATE,
			exit_date DATE,
			maturity_date DATE,
			underlying_symbol TEXT,
			dtm INTEGER,
			ratio INTEGER,
			contracts INTEGER,
			call_put TEXT,
			strike DOUBLE,
			entry_delta DOUBLE,
			entry_gamma DOUBLE,
			entry_vega DOUBLE,
			entry_theta DOUBLE,
			entry_rho DOUBLE,
			entry_underlying_price DOUBLE,
			exit_underlying_price DOUBLE,
			entry_opt_price DOUBLE,
			exit_opt_price DOUBLE,
			entry_price DOUBLE,
			exit_price DOUBLE,
			cash_flow DOUBLE
		)
	`, tradesTable))
	if err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to create trades table", err)
	}

	return nil
}

// Write appends trade legs in a single transaction.
func (w *TradesWriter) Write(legs []types.TradeLeg) error {
	if len(legs) == 0 {
		return nil
	}

	tx, err := w.db.Begin()
	if err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to begin transaction", err)
	}

	for _, leg := range legs {
		var rho any
		if leg.EntryRho.IsSome() {
			rho = leg.EntryRho.Unwrap()
		}

		_, err := w.sq.
			Insert(tradesTable).
			Columns(columnNames()...).
			Values(
				leg.TradeNum, leg.EntryDate, leg.ExitDate, leg.MaturityDate, leg.UnderlyingSymbol,
				leg.DTM, leg.Ratio, leg.Contracts, leg.CallPut.Code(), leg.Strike,
				leg.EntryDelta, leg.EntryGamma, leg.EntryVega, leg.EntryTheta, rho,
				leg.EntryUnderlyingPrice, leg.ExitUnderlyingPrice,
				leg.EntryOptPrice, leg.ExitOptPrice, leg.EntryPrice, leg.ExitPrice, leg.CashFlow,
			).
			RunWith(tx).
			Exec()
		if err != nil {
			_ = tx.Rollback()

			return errors.Wrap(errors.ErrCodeWriteFailed, "failed to insert trade leg", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to commit trade legs", err)
	}

	w.logger.Debug("Trade legs written", zap.Int("legs", len(legs)))

	return nil
}

// Count returns the number of stored trade legs.
func (w *TradesWriter) Count() (int, error) {
	query, args, err := w.sq.Select("COUNT(*)").From(tradesTable).ToSql()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build count query", err)
	}

	var count int
	if err := w.db.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count trade legs", err)
	}

	return count, nil
}

// Summary aggregates the stored trade legs.
func (w *TradesWriter) Summary() (Summary, error) {
	query, args, err := w.sq.
		Select("COUNT(*)", "COUNT(DISTINCT trade_num)", "COALESCE(ROUND(SUM(cash_flow), 2), 0)").
		From(tradesTable).
		ToSql()
	if err != nil {
		return Summary{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build summary query", err)
	}

	var summary Summary
	if err := w.db.QueryRow(query, args...).Scan(&summary.Legs, &summary.Trades, &summary.TotalCashFlow); err != nil {
		return Summary{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to summarize trade legs", err)
	}

	// a trade wins when the cash flow summed over its legs is not negative
	perTrade := w.sq.
		Select("trade_num", "SUM(cash_flow) AS total").
		From(tradesTable).
		GroupBy("trade_num")

	query, args, err = w.sq.
		Select("COUNT(*) FILTER (WHERE total >= 0)", "COUNT(*) FILTER (WHERE total < 0)").
		FromSelect(perTrade, "per_trade").
		ToSql()
	if err != nil {
		return Summary{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build outcome query", err)
	}

	if err := w.db.QueryRow(query, args...).Scan(&summary.Wins, &summary.Losses); err != nil {
		return Summary{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count trade outcomes", err)
	}

	return summary, nil
}

// Export copies the stored trade legs to path in the given format. trade_num leads the output
// columns.
func (w *TradesWriter) Export(path string, format Format) error {
	var options string

	switch format {
	case FormatParquet:
		options = "FORMAT PARQUET"
	case FormatCSV:
		options = "FORMAT CSV, HEADER"
	default:
		return errors.Newf(errors.ErrCodeInvalidOutputFormat, "unsupported output format %q", format)
	}

	// Squirrel doesn't support COPY
	_, err := w.db.Exec(fmt.Sprintf(`COPY (SELECT %s FROM %s ORDER BY trade_num, strike, exit_date, call_put, ratio) TO '%s' (%s)`,
		strings.Join(columnNames(), ", "), tradesTable, strings.ReplaceAll(path, "'", "''"), options))
	if err != nil {
		return errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to export trades to %s", path)
	}

	w.logger.Debug("Trades exported",
		zap.String("path", path),
		zap.String("format", string(format)),
	)

	return nil
}

// Reset removes every stored trade leg.
func (w *TradesWriter) Reset() error {
	query, args, err := w.sq.Delete(tradesTable).ToSql()
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to build delete query", err)
	}

	if _, err := w.db.Exec(query, args...); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to reset trades table", err)
	}

	return nil
}

// Close closes the database.
func (w *TradesWriter) Close() error {
	return w.db.Close()
}

func columnNames() []string {
	names := make([]string, 0, len(types.TradeLegColumns)+1)
	names = append(names, string(types.ColumnTradeNum))

	for _, col := range types.TradeLegColumns {
		names = append(names, string(col))
	}

	return names
}
