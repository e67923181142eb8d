package engine

import (
	"encoding/json"
	"reflect"
	"slices"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-options/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-options/internal/backtest/engine/engine_v1/writer"
	"github.com/rxtech-lab/argo-options/internal/types"
	"github.com/rxtech-lab/argo-options/pkg/errors"
	"gopkg.in/yaml.v3"
)

type BacktestEngineV1Config struct {
	PricingMode      types.PricingMode    `yaml:"pricing_mode" json:"pricing_mode" jsonschema:"title=Pricing Mode,description=How option prices are read from quotes unless a strategy overrides it" validate:"oneof=market mid_price"`
	DecimalPrecision int                  `yaml:"decimal_precision" json:"decimal_precision" jsonschema:"title=Decimal Precision,description=Decimal places of prices and cash flows,minimum=0,default=2" validate:"min=0,max=8"`
	ImportPrecision  optional.Option[int] `yaml:"import_precision" json:"import_precision" jsonschema:"title=Import Precision,description=Optional decimal places numeric quote fields are rounded to on import"`
	OutputFormat     writer.Format        `yaml:"output_format" json:"output_format" jsonschema:"title=Output Format,description=File format of the trade table" validate:"oneof=parquet csv"`
	Parallel         bool                 `yaml:"parallel" json:"parallel" jsonschema:"title=Parallel,description=Extract and filter strategy legs concurrently"`
	// Fields maps quote fields to the columns of the data files.
	Fields datasource.FieldMapping `yaml:"fields" json:"fields" jsonschema:"title=Fields,description=Source column of each quote field when it differs from the field name"`
}

// UnmarshalYAML implements custom unmarshaling for BacktestEngineV1Config. Missing keys keep
// their defaults.
func (c *BacktestEngineV1Config) UnmarshalYAML(node *yaml.Node) error {
	type Config struct {
		PricingMode      *types.PricingMode      `yaml:"pricing_mode"`
		DecimalPrecision *int                    `yaml:"decimal_precision"`
		ImportPrecision  *int                    `yaml:"import_precision"`
		OutputFormat     *writer.Format          `yaml:"output_format"`
		Parallel         bool                    `yaml:"parallel"`
		Fields           datasource.FieldMapping `yaml:"fields"`
	}

	var config Config
	if err := node.Decode(&config); err != nil {
		return err
	}

	*c = EmptyConfig()

	if config.PricingMode != nil {
		c.PricingMode = *config.PricingMode
	}

	if config.DecimalPrecision != nil {
		c.DecimalPrecision = *config.DecimalPrecision
	}

	if config.ImportPrecision != nil {
		c.ImportPrecision = optional.Some(*config.ImportPrecision)
	}

	if config.OutputFormat != nil {
		c.OutputFormat = *config.OutputFormat
	}

	c.Parallel = config.Parallel

	if config.Fields != nil {
		c.Fields = config.Fields
	}

	return nil
}

// Validate checks the configuration values.
func (c *BacktestEngineV1Config) Validate() error {
	if !c.PricingMode.IsValid() {
		return errors.Newf(errors.ErrCodeInvalidPricingMode, "unknown pricing mode %q", c.PricingMode)
	}

	if !c.OutputFormat.IsValid() {
		return errors.Newf(errors.ErrCodeInvalidOutputFormat, "unknown output format %q", c.OutputFormat)
	}

	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestConfigError, "invalid engine config", err)
	}

	known := slices.Concat(datasource.RequiredFields, datasource.OptionalFields)
	for field := range c.Fields {
		if !slices.Contains(known, field) {
			return errors.Newf(errors.ErrCodeBacktestConfigError, "unknown quote field %q in fields", field)
		}
	}

	return nil
}

// GenerateSchema generates a JSON schema for the BacktestEngineV1Config
func (c *BacktestEngineV1Config) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			switch t {
			case reflect.TypeOf(optional.Option[int]{}):
				return &jsonschema.Schema{Type: "integer"}
			case reflect.TypeOf(types.PricingMode("")):
				return &jsonschema.Schema{Type: "string", Enum: types.AllPricingModes}
			case reflect.TypeOf(writer.Format("")):
				return &jsonschema.Schema{Type: "string", Enum: writer.AllFormats}
			case reflect.TypeOf(datasource.FieldMapping{}):
				return &jsonschema.Schema{
					Type:                 "object",
					AdditionalProperties: &jsonschema.Schema{Type: "string"},
				}
			}

			return nil
		},
	}

	schema := reflector.Reflect(c)

	schema.Title = "backtest-engine-v1-config"
	schema.Description = "Configuration schema for BacktestEngineV1"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON generates a JSON schema string for the BacktestEngineV1Config
func (c *BacktestEngineV1Config) GenerateSchemaJSON() (string, error) {
	schema, err := c.GenerateSchema()
	if err != nil {
		return "", err
	}

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}

// EmptyConfig returns a BacktestEngineV1Config with default values
func EmptyConfig() BacktestEngineV1Config {
	return BacktestEngineV1Config{
		PricingMode:      types.PricingModeMarket,
		DecimalPrecision: 2,
		ImportPrecision:  optional.None[int](),
		OutputFormat:     writer.FormatParquet,
		Parallel:         false,
		Fields:           datasource.FieldMapping{},
	}
}
