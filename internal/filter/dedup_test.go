package filter

import (
	"testing"

	"github.com/rxtech-lab/argo-options/internal/types"
	"github.com/stretchr/testify/suite"
)

type DedupTestSuite struct {
	suite.Suite
	groupBy []types.Column
	order   []TieBreak
}

func TestDedupSuite(t *testing.T) {
	suite.Run(t, new(DedupTestSuite))
}

func (suite *DedupTestSuite) SetupTest() {
	suite.groupBy = []types.Column{
		types.ColumnDate,
		types.ColumnMaturityDate,
		types.ColumnUnderlyingSymbol,
		types.ColumnRatio,
		types.ColumnCallPut,
	}
	suite.order = []TieBreak{
		{Column: types.ColumnDelta, Mode: AggregateMax},
		{Column: types.ColumnStrike, Mode: AggregateMax},
	}
}

func leg(callPut types.OptionType, ratio int, strike, delta float64) types.SpreadLeg {
	return types.SpreadLeg{Quote: quote(callPut, strike, delta), Ratio: ratio}
}

func (suite *DedupTestSuite) TestNarrowsColumnByColumn() {
	rows := []types.SpreadLeg{
		leg(types.OptionTypeCall, 1, 2700, 0.5),
		leg(types.OptionTypeCall, 1, 2710, 0.5),
		leg(types.OptionTypeCall, 1, 2720, 0.4),
	}

	out, err := Dedup(rows, suite.groupBy, suite.order)
	suite.Require().NoError(err)
	suite.Require().Len(out, 1)
	// the highest strike lost on delta first, so it cannot come back
	suite.Equal(2710.0, out[0].Strike)
}

func (suite *DedupTestSuite) TestEveryGroupKeepsItsExtremum() {
	rows := []types.SpreadLeg{
		leg(types.OptionTypeCall, 1, 2700, 0.5),
		leg(types.OptionTypeCall, -1, 2750, 0.3),
		leg(types.OptionTypeCall, -1, 2760, 0.3),
		leg(types.OptionTypePut, 1, 2650, -0.3),
		leg(types.OptionTypePut, 1, 2600, -0.2),
	}

	out, err := Dedup(rows, suite.groupBy, suite.order)
	suite.Require().NoError(err)
	suite.Require().Len(out, 3)

	suite.Equal(2700.0, out[0].Strike)
	suite.Equal(2760.0, out[1].Strike)
	suite.Equal(2600.0, out[2].Strike)
	suite.Equal(-0.2, out[2].Delta)
}

func (suite *DedupTestSuite) TestMinMode() {
	rows := []types.SpreadLeg{
		leg(types.OptionTypeCall, 1, 2700, 0.5),
		leg(types.OptionTypeCall, 1, 2710, 0.4),
	}

	out, err := Dedup(rows, suite.groupBy, []TieBreak{{Column: types.ColumnDelta, Mode: AggregateMin}})
	suite.Require().NoError(err)
	suite.Require().Len(out, 1)
	suite.Equal(2710.0, out[0].Strike)
}

func (suite *DedupTestSuite) TestIdenticalRowsSurviveTogether() {
	rows := []types.SpreadLeg{
		leg(types.OptionTypeCall, 1, 2700, 0.5),
		leg(types.OptionTypeCall, 1, 2700, 0.5),
	}
	rows[1].LegIndex = 1

	out, err := Dedup(rows, suite.groupBy, suite.order)
	suite.Require().NoError(err)
	suite.Len(out, 2)
}

func (suite *DedupTestSuite) TestEmptyInput() {
	out, err := Dedup([]types.SpreadLeg{}, suite.groupBy, suite.order)
	suite.Require().NoError(err)
	suite.NotNil(out)
	suite.Empty(out)
}

func (suite *DedupTestSuite) TestUnknownColumn() {
	rows := []types.SpreadLeg{leg(types.OptionTypeCall, 1, 2700, 0.5)}

	_, err := Dedup(rows, suite.groupBy, []TieBreak{{Column: types.ColumnCashFlow}})
	suite.Error(err)
}
