package writer

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-options/internal/logger"
	"github.com/rxtech-lab/argo-options/internal/types"
	"github.com/rxtech-lab/argo-options/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type TradesWriterTestSuite struct {
	suite.Suite
	writer *TradesWriter
}

func TestTradesWriterSuite(t *testing.T) {
	suite.Run(t, new(TradesWriterTestSuite))
}

func (suite *TradesWriterTestSuite) SetupTest() {
	w, err := NewTradesWriter(logger.NewNopLogger())
	suite.Require().NoError(err)

	suite.writer = w
}

func (suite *TradesWriterTestSuite) TearDownTest() {
	suite.NoError(suite.writer.Close())
}

func testLegs() []types.TradeLeg {
	entry := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	exit := time.Date(2024, 1, 19, 0, 0, 0, 0, time.UTC)
	maturity := time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC)

	return []types.TradeLeg{
		{
			TradeNum: 0, EntryDate: entry, ExitDate: exit, MaturityDate: maturity,
			UnderlyingSymbol: "SPX", DTM: 31, Ratio: 1, Contracts: 10, CallPut: types.OptionTypeCall,
			Strike: 100, EntryDelta: 0.5, EntryRho: optional.Some(0.05),
			EntryOptPrice: -1.2, ExitOptPrice: 2, EntryPrice: -12, ExitPrice: 20, CashFlow: 8,
		},
		{
			TradeNum: 0, EntryDate: entry, ExitDate: exit, MaturityDate: maturity,
			UnderlyingSymbol: "SPX", DTM: 31, Ratio: 1, Contracts: 10, CallPut: types.OptionTypePut,
			Strike: 100, EntryDelta: -0.5, EntryRho: optional.None[float64](),
			EntryOptPrice: -1.1, ExitOptPrice: 0.4, EntryPrice: -11, ExitPrice: 4, CashFlow: -7,
		},
		{
			TradeNum: 1, EntryDate: exit, ExitDate: exit, MaturityDate: maturity,
			UnderlyingSymbol: "SPX", DTM: 14, Ratio: -1, Contracts: 10, CallPut: types.OptionTypeCall,
			Strike: 105, EntryDelta: 0.3,
			EntryOptPrice: 0.5, ExitOptPrice: -0.5, EntryPrice: 5, ExitPrice: -5, CashFlow: 0.25,
		},
	}
}

func (suite *TradesWriterTestSuite) TestWriteAndSummary() {
	suite.Require().NoError(suite.writer.Write(testLegs()))

	count, err := suite.writer.Count()
	suite.Require().NoError(err)
	suite.Equal(3, count)

	summary, err := suite.writer.Summary()
	suite.Require().NoError(err)
	suite.Equal(3, summary.Legs)
	suite.Equal(2, summary.Trades)
	suite.Equal(2, summary.Wins)
	suite.Equal(0, summary.Losses)
	suite.InDelta(1.25, summary.TotalCashFlow, 1e-9)
}

func (suite *TradesWriterTestSuite) TestEmptySummary() {
	suite.Require().NoError(suite.writer.Write(nil))

	summary, err := suite.writer.Summary()
	suite.Require().NoError(err)
	suite.Equal(Summary{}, summary)
}

func (suite *TradesWriterTestSuite) TestExportCSV() {
	suite.Require().NoError(suite.writer.Write(testLegs()))

	path := filepath.Join(suite.T().TempDir(), "trades.csv")
	suite.Require().NoError(suite.writer.Export(path, FormatCSV))

	content, err := os.ReadFile(path)
	suite.Require().NoError(err)

	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	suite.Require().Len(lines, 4)
	suite.Equal(strings.Join(columnNames(), ","), lines[0])
	suite.True(strings.HasPrefix(lines[1], "0,2024-01-02,2024-01-19,2024-02-02,SPX,31,1,10,c,"))
	suite.True(strings.HasPrefix(lines[3], "1,"))
}

func (suite *TradesWriterTestSuite) TestExportParquet() {
	suite.Require().NoError(suite.writer.Write(testLegs()))

	path := filepath.Join(suite.T().TempDir(), "trades.parquet")
	suite.Require().NoError(suite.writer.Export(path, FormatParquet))

	db, err := sql.Open("duckdb", "")
	suite.Require().NoError(err)

	defer db.Close()

	var count int
	var nullRho int
	err = db.QueryRow(`SELECT COUNT(*), COUNT(*) FILTER (WHERE entry_rho IS NULL) FROM read_parquet('` + path + `')`).Scan(&count, &nullRho)
	suite.Require().NoError(err)
	suite.Equal(3, count)
	suite.Equal(2, nullRho)
}

func (suite *TradesWriterTestSuite) TestExportUnknownFormat() {
	err := suite.writer.Export(filepath.Join(suite.T().TempDir(), "trades.json"), Format("json"))
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidOutputFormat))
}

func (suite *TradesWriterTestSuite) TestReset() {
	suite.Require().NoError(suite.writer.Write(testLegs()))
	suite.Require().NoError(suite.writer.Reset())

	count, err := suite.writer.Count()
	suite.Require().NoError(err)
	suite.Equal(0, count)
}

func (suite *TradesWriterTestSuite) TestFormat() {
	suite.True(FormatCSV.IsValid())
	suite.False(Format("xlsx").IsValid())
	suite.Equal(".parquet", FormatParquet.Extension())
}
