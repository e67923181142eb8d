package filter

import (
	"testing"
	"time"

	"github.com/rxtech-lab/argo-options/pkg/errors"
	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"
)

type FilterTestSuite struct {
	suite.Suite
}

func TestFilterSuite(t *testing.T) {
	suite.Run(t, new(FilterTestSuite))
}

func (suite *FilterTestSuite) TestNewResolvesNames() {
	testCases := []struct {
		name  string
		spec  Spec
		kind  Kind
		stage Stage
		leg   int
	}{
		{"start_date", Spec{}, KindStartDate, StageInit, -1},
		{"day_to_event", Spec{}, KindDayToEvent, StageInit, -1},
		{"contract_size", ValueSpec(Integer(1)), KindContractSize, StageEntry, -1},
		{"entry_dtm", Spec{}, KindEntryDTM, StageEntry, -1},
		{"leg1_delta", Spec{}, KindLegDelta, StageEntry, 0},
		{"leg4_strike_pct", Spec{}, KindLegStrikePct, StageEntry, 3},
		{"entry_spread_price", Spec{}, KindEntrySpreadPrice, StageEntrySpread, -1},
		{"exit_dtm", Spec{}, KindExitDTM, StageExit, -1},
		{"exit_spread_cash_flow", Spec{}, KindExitSpreadCashFlow, StageExitSpread, -1},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			f, err := New(tc.name, tc.spec)
			suite.Require().NoError(err)
			suite.Equal(tc.kind, f.Kind)
			suite.Equal(tc.stage, f.Stage())

			if tc.leg < 0 {
				suite.True(f.Leg.IsNone())
			} else {
				suite.Equal(tc.leg, f.Leg.Unwrap())
			}
		})
	}
}

func (suite *FilterTestSuite) TestUnknownFilters() {
	for _, name := range []string{"vol_surface", "leg5_delta", "leg0_delta", "leg1_gamma", "delta"} {
		_, err := New(name, Spec{})
		suite.Error(err, name)
		suite.True(errors.HasCode(err, errors.ErrCodeUnknownFilter), name)
	}
}

func (suite *FilterTestSuite) TestNamesCoversLegFilters() {
	names := Names()
	suite.Contains(names, "leg1_delta")
	suite.Contains(names, "leg4_strike_pct")
	suite.Contains(names, "exit_hold_days")
	suite.NotContains(names, "delta")

	for _, name := range names {
		spec := Spec{}
		if name == "contract_size" {
			spec = ValueSpec(Integer(1))
		}

		_, err := New(name, spec)
		suite.NoError(err, name)
	}
}

func (suite *FilterTestSuite) TestValueValidation() {
	testCases := []struct {
		name string
		spec Spec
		code errors.ErrorCode
	}{
		{"start_date", CondSpec(Date(maturity), CondLess), errors.ErrCodeInvalidConditionForColumn},
		{"start_date", ValueSpec(Scalar(3)), errors.ErrCodeInvalidConditionForColumn},
		{"end_date", ValueSpec(Range(1, 2, 3)), errors.ErrCodeInvalidConditionForColumn},
		{"entry_dtm", ValueSpec(Date(maturity)), errors.ErrCodeInvalidConditionForColumn},
		{"contract_size", ValueSpec(Scalar(2.5)), errors.ErrCodeInvalidFilterValue},
		{"contract_size", ValueSpec(Integer(0)), errors.ErrCodeInvalidFilterValue},
		{"contract_size", Spec{}, errors.ErrCodeInvalidFilterValue},
		{"contract_size", CondSpec(Unset(), CondEqual), errors.ErrCodeInvalidFilterValue},
		{"end_date", CondSpec(Date(maturity), CondNearest), errors.ErrCodeInvalidConditionForColumn},
		{"leg1_delta", CondSpec(Range(0.3, 0.5, 0.7), CondLess), errors.ErrCodeInvalidFilterValue},
	}

	for _, tc := range testCases {
		_, err := New(tc.name, tc.spec)
		suite.Error(err, tc.name)
		suite.True(errors.HasCode(err, tc.code), "%s: %v", tc.name, err)
	}
}

func (suite *FilterTestSuite) TestNewLegFilter() {
	f, err := NewLegFilter(2, "strike_pct", ValueSpec(Range(0.95, 1, 1.05)))
	suite.Require().NoError(err)
	suite.Equal("leg3_strike_pct", f.Name)
	suite.True(f.AppliesToLeg(2))
	suite.False(f.AppliesToLeg(0))

	_, err = NewLegFilter(0, "entry_dtm", Spec{})
	suite.True(errors.HasCode(err, errors.ErrCodeUnknownFilter))
}

func (suite *FilterTestSuite) TestSetDecodesInOrder() {
	content := `
entry_dtm: [27, 30, 31]
leg1_delta:
  value: [0.3, 0.5, 0.7]
contract_size: 5
start_date: 2018-01-01
exit_hold_days: 2w
end_date: {value: "2018-06-30", cond: less}
exit_dtm:
`
	var set Set
	suite.Require().NoError(yaml.Unmarshal([]byte(content), &set))

	entries := set.Entries()
	suite.Require().Len(entries, 7)

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}

	suite.Equal([]string{"entry_dtm", "leg1_delta", "contract_size", "start_date", "exit_hold_days", "end_date", "exit_dtm"}, names)

	suite.Equal(Range(27, 30, 31), entries[0].Spec.Value)
	suite.Equal(Range(0.3, 0.5, 0.7), entries[1].Spec.Value)
	suite.Equal(Integer(5), entries[2].Spec.Value)
	suite.Equal(ValueDate, entries[3].Spec.Value.Kind)
	suite.True(entries[3].Spec.Value.Date.Equal(time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)))
	suite.Equal(Integer(14), entries[4].Spec.Value)
	suite.Equal(CondLess, entries[5].Spec.Cond)
	suite.Equal(ValueDate, entries[5].Spec.Value.Kind)
	suite.False(entries[6].Spec.Value.IsSet())
}

func (suite *FilterTestSuite) TestSetRejectsMalformedValues() {
	testCases := []string{
		"leg1_delta: [0.3, 0.5]",
		"leg1_delta: {value: 0.5, cond: around}",
		"leg1_delta: soon",
		"leg1_delta: {value: {a: 1}}",
		"leg1_delta: [0.3, x, 0.7]",
	}

	for _, content := range testCases {
		var set Set
		err := yaml.Unmarshal([]byte(content), &set)
		suite.Error(err, content)
		suite.True(errors.HasCode(err, errors.ErrCodeInvalidFilterValue), "%s: %v", content, err)
	}
}

func (suite *FilterTestSuite) TestParsePeriod() {
	days, ok := ParsePeriod("7d")
	suite.True(ok)
	suite.Equal(7, days)

	days, ok = ParsePeriod("2w")
	suite.True(ok)
	suite.Equal(14, days)

	_, ok = ParsePeriod("3m")
	suite.False(ok)
}

func (suite *FilterTestSuite) TestDefaultsMerge() {
	declared := NewSet(
		Entry{Name: "leg1_delta", Spec: ValueSpec(Range(0.3, 0.5, 0.7))},
		Entry{Name: "entry_dtm", Spec: ValueSpec(Range(40, 45, 50))},
	)

	merged := NewDefaults().Merge(declared)
	entries := merged.Entries()
	suite.Require().Len(entries, 3)

	suite.Equal("contract_size", entries[0].Name)
	suite.Equal(Integer(10), entries[0].Spec.Value)
	suite.Equal("entry_dtm", entries[1].Name)
	suite.Equal(Range(40, 45, 50), entries[1].Spec.Value)
	suite.Equal("leg1_delta", entries[2].Name)

	_, hasExit := merged.Get("exit_dtm")
	suite.False(hasExit)
}

func (suite *FilterTestSuite) TestNullContractSizeFailsCompile() {
	for _, content := range []string{"contract_size:\n", "contract_size: {cond: equal}\n"} {
		var declared Set
		suite.Require().NoError(yaml.Unmarshal([]byte(content), &declared), content)

		_, err := Compile(NewDefaults().Merge(declared), nil)
		suite.Error(err, content)
		suite.True(errors.HasCode(err, errors.ErrCodeInvalidFilterValue), "%s: %v", content, err)
	}
}
