package engine

import (
	"encoding/json"
	"testing"

	"github.com/rxtech-lab/argo-options/internal/backtest/engine/engine_v1/writer"
	"github.com/rxtech-lab/argo-options/internal/types"
	"github.com/rxtech-lab/argo-options/pkg/errors"
	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"
)

type ConfigTestSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) TestEmptyConfig() {
	config := EmptyConfig()

	suite.Equal(types.PricingModeMarket, config.PricingMode)
	suite.Equal(2, config.DecimalPrecision)
	suite.True(config.ImportPrecision.IsNone())
	suite.Equal(writer.FormatParquet, config.OutputFormat)
	suite.False(config.Parallel)
	suite.Empty(config.Fields)
	suite.NoError(config.Validate())
}

func (suite *ConfigTestSuite) TestUnmarshalKeepsDefaults() {
	var config BacktestEngineV1Config

	err := yaml.Unmarshal([]byte("output_format: csv\n"), &config)
	suite.Require().NoError(err)

	suite.Equal(writer.FormatCSV, config.OutputFormat)
	suite.Equal(types.PricingModeMarket, config.PricingMode)
	suite.Equal(2, config.DecimalPrecision)
	suite.True(config.ImportPrecision.IsNone())
}

func (suite *ConfigTestSuite) TestUnmarshalAllFields() {
	content := `
pricing_mode: mid_price
decimal_precision: 4
import_precision: 3
output_format: csv
parallel: true
fields:
  date: quote_date
  call_put: type
`

	var config BacktestEngineV1Config
	suite.Require().NoError(yaml.Unmarshal([]byte(content), &config))
	suite.Require().NoError(config.Validate())

	suite.Equal(types.PricingModeMidPrice, config.PricingMode)
	suite.Equal(4, config.DecimalPrecision)
	suite.Equal(3, config.ImportPrecision.Unwrap())
	suite.True(config.Parallel)
	suite.Equal("quote_date", config.Fields.Source(types.ColumnDate))
	suite.Equal("type", config.Fields.Source(types.ColumnCallPut))
	suite.Equal("strike", config.Fields.Source(types.ColumnStrike))
}

func (suite *ConfigTestSuite) TestValidate() {
	tests := []struct {
		name   string
		mutate func(*BacktestEngineV1Config)
		code   errors.ErrorCode
	}{
		{
			name:   "unknown pricing mode",
			mutate: func(c *BacktestEngineV1Config) { c.PricingMode = "close" },
			code:   errors.ErrCodeInvalidPricingMode,
		},
		{
			name:   "unknown output format",
			mutate: func(c *BacktestEngineV1Config) { c.OutputFormat = "json" },
			code:   errors.ErrCodeInvalidOutputFormat,
		},
		{
			name:   "negative precision",
			mutate: func(c *BacktestEngineV1Config) { c.DecimalPrecision = -1 },
			code:   errors.ErrCodeBacktestConfigError,
		},
		{
			name:   "unknown field mapping",
			mutate: func(c *BacktestEngineV1Config) { c.Fields = map[types.Column]string{"volume": "vol"} },
			code:   errors.ErrCodeBacktestConfigError,
		},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			config := EmptyConfig()
			tc.mutate(&config)

			err := config.Validate()
			suite.Require().Error(err)
			suite.True(errors.HasCode(err, tc.code), "got %v", err)
		})
	}
}

func (suite *ConfigTestSuite) TestGenerateSchema() {
	config := &BacktestEngineV1Config{}
	schema, err := config.GenerateSchema()

	suite.NoError(err)
	suite.NotNil(schema)
	suite.Equal("backtest-engine-v1-config", schema.Title)
	suite.Equal("Configuration schema for BacktestEngineV1", schema.Description)
	suite.Equal("http://json-schema.org/draft-07/schema#", schema.Version)
}

func (suite *ConfigTestSuite) TestGenerateSchemaJSON() {
	config := &BacktestEngineV1Config{}
	schemaJSON, err := config.GenerateSchemaJSON()

	suite.NoError(err)
	suite.NotEmpty(schemaJSON)

	// Verify it's valid JSON
	var result map[string]any
	suite.Require().NoError(json.Unmarshal([]byte(schemaJSON), &result))

	properties, ok := result["properties"].(map[string]any)
	suite.Require().True(ok)
	suite.Contains(properties, "pricing_mode")
	suite.Contains(properties, "output_format")
	suite.Contains(properties, "fields")
}
