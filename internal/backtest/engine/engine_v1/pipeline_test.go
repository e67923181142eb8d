package engine

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-options/internal/filter"
	"github.com/rxtech-lab/argo-options/internal/types"
	"github.com/rxtech-lab/argo-options/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type PipelineTestSuite struct {
	suite.Suite
}

func TestPipelineSuite(t *testing.T) {
	suite.Run(t, new(PipelineTestSuite))
}

var (
	firstDate = time.Date(2018, 1, 2, 0, 0, 0, 0, time.UTC)
	maturity  = time.Date(2018, 2, 2, 0, 0, 0, 0, time.UTC)
	straddle  = []types.Leg{
		{Type: types.OptionTypeCall, Ratio: types.RatioLong},
		{Type: types.OptionTypePut, Ratio: types.RatioLong},
	}
)

var callDeltas = map[float64]float64{95: 0.7, 100: 0.5, 105: 0.3}

func chainQuote(date time.Time, callPut types.OptionType, strike float64) types.Quote {
	delta := callDeltas[strike]
	if callPut == types.OptionTypePut {
		delta -= 1
	}

	offset := float64(types.DaysBetween(firstDate, date))

	return types.Quote{
		Date:             date,
		MaturityDate:     maturity,
		CallPut:          callPut,
		Strike:           strike,
		UnderlyingSymbol: "SPX",
		Bid:              1 + offset,
		Ask:              1.2 + offset,
		Last:             1.1 + offset,
		UnderlyingPrice:  100,
		Delta:            delta,
	}
}

// chain lists calls and puts at 95, 100 and 105 on the given number of consecutive days.
func chain(days int) []types.Quote {
	quotes := make([]types.Quote, 0)

	for d := 0; d < days; d++ {
		date := firstDate.AddDate(0, 0, d)
		for _, callPut := range []types.OptionType{types.OptionTypeCall, types.OptionTypePut} {
			for _, strike := range []float64{95, 100, 105} {
				quotes = append(quotes, chainQuote(date, callPut, strike))
			}
		}
	}

	return quotes
}

func (suite *PipelineTestSuite) plan(entries ...filter.Entry) *filter.Plan {
	plan, err := filter.Compile(filter.NewSet(entries...), nil)
	suite.Require().NoError(err)

	return plan
}

func (suite *PipelineTestSuite) pipeline(plan *filter.Plan, opts ...PipelineOption) *Pipeline {
	pricer, err := NewPricer(types.PricingModeMarket, 2)
	suite.Require().NoError(err)

	return NewPipeline(plan, straddle, pricer, opts...)
}

func contractSize(n int) filter.Entry {
	return filter.Entry{Name: "contract_size", Spec: filter.ValueSpec(filter.Integer(n))}
}

func (suite *PipelineTestSuite) TestStagesRunInOrder() {
	type report struct {
		stage   string
		records int
	}

	reports := make([]report, 0)
	p := suite.pipeline(suite.plan(contractSize(1)), WithStageObserver(func(stage string, records int) error {
		reports = append(reports, report{stage: stage, records: records})

		return nil
	}))

	trades, err := p.Run(context.Background(), chain(3))
	suite.Require().NoError(err)
	suite.Len(trades, 18)

	suite.Equal([]report{
		{stage: "init", records: 18},
		{stage: "entry", records: 18},
		{stage: "entry_spread", records: 6},
		{stage: "exit", records: 18},
		{stage: "exit_spread", records: 18},
	}, reports)
}

func (suite *PipelineTestSuite) TestDedupKeepsHighestDelta() {
	p := suite.pipeline(suite.plan(contractSize(1)))

	legs, err := p.Construct(context.Background(), chain(1))
	suite.Require().NoError(err)
	suite.Require().Len(legs, 2)

	for _, leg := range legs {
		suite.Equal(95.0, leg.Strike)
		suite.Equal(0, leg.TradeNum)
		suite.Equal(1, leg.Contracts)
	}

	suite.Equal(0, legs[0].LegIndex)
	suite.Equal(types.OptionTypeCall, legs[0].CallPut)
	suite.Equal(-1.2, legs[0].EntryOptPrice)
	suite.Equal(1, legs[1].LegIndex)
	suite.Equal(types.OptionTypePut, legs[1].CallPut)
}

func (suite *PipelineTestSuite) TestDedupBreaksDeltaTiesByStrike() {
	quotes := chain(1)
	tied := chainQuote(firstDate, types.OptionTypeCall, 110)
	tied.Delta = 0.7
	quotes = append(quotes, tied)

	legs, err := suite.pipeline(suite.plan()).Construct(context.Background(), quotes)
	suite.Require().NoError(err)
	suite.Require().Len(legs, 2)
	suite.Equal(110.0, legs[0].Strike)
}

func (suite *PipelineTestSuite) TestEntrySpreadSeesFilteredAndDedupedLegs() {
	// asks grow with the strike so every call/put pairing has its own net price
	quotes := chain(1)
	for i := range quotes {
		quotes[i].Ask = quotes[i].Strike / 100
	}

	netPrice := func(value float64) filter.Entry {
		return filter.Entry{Name: "entry_spread_price", Spec: filter.ValueSpec(filter.Range(value, value, value))}
	}
	legDelta := filter.Entry{Name: "leg1_delta", Spec: filter.ValueSpec(filter.Scalar(0.3))}

	// leg1_delta moves the call to 105 and dedup keeps the put at 95: -1.05 - 0.95
	legs, err := suite.pipeline(suite.plan(contractSize(1), legDelta, netPrice(-2.0))).Construct(context.Background(), quotes)
	suite.Require().NoError(err)
	suite.Require().Len(legs, 2)
	suite.Equal(105.0, legs[0].Strike)
	suite.Equal(95.0, legs[1].Strike)

	// without the leg filter dedup keeps the call at 95 and the net price becomes -1.90
	legs, err = suite.pipeline(suite.plan(contractSize(1), netPrice(-2.0))).Construct(context.Background(), quotes)
	suite.Require().NoError(err)
	suite.NotNil(legs)
	suite.Empty(legs)

	legs, err = suite.pipeline(suite.plan(contractSize(1), netPrice(-1.9))).Construct(context.Background(), quotes)
	suite.Require().NoError(err)
	suite.Require().Len(legs, 2)
	suite.Equal(95.0, legs[0].Strike)
	suite.Equal(95.0, legs[1].Strike)
}

func (suite *PipelineTestSuite) TestIncompleteSpreadsAreDropped() {
	quotes := make([]types.Quote, 0)

	for _, q := range chain(3) {
		if q.CallPut == types.OptionTypePut && q.Date.Equal(firstDate.AddDate(0, 0, 1)) {
			continue
		}

		quotes = append(quotes, q)
	}

	legs, err := suite.pipeline(suite.plan()).Construct(context.Background(), quotes)
	suite.Require().NoError(err)
	suite.Require().Len(legs, 4)

	for _, leg := range legs {
		suite.False(leg.Date.Equal(firstDate.AddDate(0, 0, 1)))
	}

	// trade numbers stay dense after the incomplete date is removed
	suite.Equal(0, legs[0].TradeNum)
	suite.Equal(1, legs[3].TradeNum)
}

func (suite *PipelineTestSuite) TestJoinHistoryIncludesEveryObservation() {
	history := chain(3)
	leg := types.SpreadLeg{Quote: chainQuote(firstDate.AddDate(0, 0, 1), types.OptionTypeCall, 100), Ratio: 1}

	candidates := JoinHistory([]types.SpreadLeg{leg}, history)
	suite.Require().Len(candidates, 3)

	for i, c := range candidates {
		suite.True(c.Exit.Date.Equal(firstDate.AddDate(0, 0, i)))
		suite.Equal(100.0, c.Exit.Strike)
		suite.Equal(types.OptionTypeCall, c.Exit.CallPut)
		suite.True(c.Entry.Date.Equal(leg.Date))
	}

	suite.Empty(JoinHistory([]types.SpreadLeg{leg}, nil))
}

func (suite *PipelineTestSuite) TestTradeNumbersAreDense() {
	p := suite.pipeline(suite.plan(
		contractSize(2),
		filter.Entry{Name: "exit_hold_days", Spec: filter.ValueSpec(filter.Integer(1))},
	))

	trades, err := p.Run(context.Background(), chain(4))
	suite.Require().NoError(err)
	suite.Require().Len(trades, 8)

	seen := make(map[int]int)
	for _, trade := range trades {
		seen[trade.TradeNum]++
	}

	suite.Equal(map[int]int{0: 2, 1: 2, 2: 2, 3: 2}, seen)

	// rows follow entry date, maturity, underlying and strike
	for i := 1; i < len(trades); i++ {
		suite.False(trades[i].EntryDate.Before(trades[i-1].EntryDate))
	}
}

func (suite *PipelineTestSuite) TestExitPricing() {
	p := suite.pipeline(suite.plan(
		contractSize(10),
		filter.Entry{Name: "exit_hold_days", Spec: filter.ValueSpec(filter.Integer(1))},
	))

	trades, err := p.Run(context.Background(), chain(2))
	suite.Require().NoError(err)

	var first types.TradeLeg

	found := false

	for _, trade := range trades {
		if trade.TradeNum == 0 && trade.CallPut == types.OptionTypeCall {
			first = trade
			found = true
		}
	}

	suite.Require().True(found)
	suite.Equal(1, types.DaysBetween(first.EntryDate, first.ExitDate))
	suite.Equal(-12.0, first.EntryPrice)
	suite.Equal(20.0, first.ExitPrice)
	suite.Equal(8.0, first.CashFlow)
}

func (suite *PipelineTestSuite) TestParallelMatchesSequential() {
	plan := suite.plan(contractSize(1), filter.Entry{Name: "exit_hold_days", Spec: filter.ValueSpec(filter.Integer(2))})
	quotes := chain(5)

	sequential, err := suite.pipeline(plan).Run(context.Background(), quotes)
	suite.Require().NoError(err)

	parallel, err := suite.pipeline(plan, WithParallelLegs(true)).Run(context.Background(), quotes)
	suite.Require().NoError(err)

	suite.Equal(sequential, parallel)
}

func (suite *PipelineTestSuite) TestEmptyResult() {
	trades, err := suite.pipeline(suite.plan()).Run(context.Background(), nil)
	suite.Require().NoError(err)
	suite.NotNil(trades)
	suite.Empty(trades)
}

func (suite *PipelineTestSuite) TestFilterErrorPropagates() {
	plan := filter.NewPlan([]filter.Filter{{Name: "start_date", Kind: filter.KindStartDate, Spec: filter.ValueSpec(filter.Scalar(3))}})

	_, err := suite.pipeline(plan).Run(context.Background(), chain(1))
	suite.Require().Error(err)
	suite.True(errors.IsFilterError(err))
}

func (suite *PipelineTestSuite) TestObserverErrorAborts() {
	boom := stderrors.New("stop")
	stages := make([]string, 0)

	p := suite.pipeline(suite.plan(), WithStageObserver(func(stage string, _ int) error {
		stages = append(stages, stage)
		if stage == "entry" {
			return boom
		}

		return nil
	}))

	_, err := p.Run(context.Background(), chain(2))
	suite.ErrorIs(err, boom)
	suite.Equal([]string{"init", "entry"}, stages)
}

func (suite *PipelineTestSuite) TestCancelledContext() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := suite.pipeline(suite.plan()).Run(ctx, chain(1))
	suite.ErrorIs(err, context.Canceled)
}
