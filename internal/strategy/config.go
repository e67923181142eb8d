// Package strategy reads strategy configurations: the legs to trade, the pricing mode and the
// filters that select entries and exits.
package strategy

import (
	"encoding/json"
	"os"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/rxtech-lab/argo-options/internal/filter"
	"github.com/rxtech-lab/argo-options/internal/types"
	"github.com/rxtech-lab/argo-options/pkg/errors"
	"gopkg.in/yaml.v3"
)

// PresetName names a strategy with fixed legs.
type PresetName string

// LegConfig is one explicitly declared leg.
type LegConfig struct {
	Type  types.OptionType `yaml:"type" json:"type" jsonschema:"title=Type,description=Option type of the leg" validate:"required"`
	Ratio int              `yaml:"ratio" json:"ratio" jsonschema:"title=Ratio,description=1 for a long leg and -1 for a short leg,enum=1,enum=-1" validate:"oneof=-1 1"`
	// Filters are leg-scoped entry filters: delta and strike_pct.
	Filters filter.Set `yaml:"filters" json:"filters,omitempty" jsonschema:"title=Leg Filters,description=Entry filters that only apply to this leg"`
}

// Config is a strategy configuration file.
type Config struct {
	Name        string            `yaml:"name" json:"name" jsonschema:"title=Name,description=Name of the strategy used in result folders" validate:"required"`
	Strategy    PresetName        `yaml:"strategy" json:"strategy,omitempty" jsonschema:"title=Strategy,description=Preset whose legs are used when legs is empty"`
	PricingMode types.PricingMode `yaml:"pricing_mode" json:"pricing_mode,omitempty" jsonschema:"title=Pricing Mode,description=Overrides the engine pricing mode" validate:"omitempty,oneof=market mid_price"`
	Legs        []LegConfig       `yaml:"legs" json:"legs,omitempty" jsonschema:"title=Legs,description=Explicit legs of the strategy" validate:"omitempty,max=4,dive"`
	Filters     filter.Set        `yaml:"filters" json:"filters,omitempty" jsonschema:"title=Filters,description=Filters applied on top of the defaults"`
	// EngineVersion is a semver constraint on the backtester release, e.g. "~1.2".
	EngineVersion string `yaml:"engine_version" json:"engine_version,omitempty" jsonschema:"title=Engine Version,description=Semver constraint the backtester version must satisfy"`
}

// Parse decodes and validates a strategy configuration.
func Parse(content []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(content, &config); err != nil {
		if errors.GetCode(err) != errors.ErrCodeUnknown {
			return nil, err
		}

		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse strategy config", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// ParseFile reads and parses a strategy configuration file.
func ParseFile(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read strategy config %s", path)
	}

	return Parse(content)
}

// Validate checks the configuration, resolving the legs on the way.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		if c.PricingMode != "" && !c.PricingMode.IsValid() {
			return errors.Wrapf(errors.ErrCodeInvalidPricingMode, err, "unknown pricing mode %q", c.PricingMode)
		}

		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid strategy config", err)
	}

	if c.Strategy != "" && len(c.Legs) > 0 {
		return errors.New(errors.ErrCodeInvalidConfiguration, "strategy and legs are mutually exclusive")
	}

	legs, err := c.ResolveLegs()
	if err != nil {
		return err
	}

	return types.ValidateLegs(legs)
}

// ResolveLegs returns the legs of the preset or the declared legs.
func (c *Config) ResolveLegs() ([]types.Leg, error) {
	if c.Strategy != "" {
		return Preset(string(c.Strategy))
	}

	legs := make([]types.Leg, 0, len(c.Legs))
	for _, leg := range c.Legs {
		legs = append(legs, types.Leg{Type: leg.Type, Ratio: leg.Ratio})
	}

	return legs, nil
}

// Plan merges the filters over defaults and partitions them by stage.
func (c *Config) Plan(defaults filter.Defaults) (*filter.Plan, error) {
	legFilters := make([]filter.Set, 0, len(c.Legs))
	for _, leg := range c.Legs {
		legFilters = append(legFilters, leg.Filters)
	}

	return filter.Compile(defaults.Merge(c.Filters), legFilters)
}

// ResolvePricingMode returns the configured pricing mode or fallback when none is set.
func (c *Config) ResolvePricingMode(fallback types.PricingMode) types.PricingMode {
	if c.PricingMode == "" {
		return fallback
	}

	return c.PricingMode
}

// GenerateSchema generates a JSON schema for Config.
func (c *Config) GenerateSchema() (*jsonschema.Schema, error) {
	presetNames := make([]any, 0)
	for _, name := range PresetNames() {
		presetNames = append(presetNames, name)
	}

	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			switch t {
			case reflect.TypeOf(types.OptionType(0)):
				return &jsonschema.Schema{Type: "string", Enum: types.AllOptionTypes}
			case reflect.TypeOf(types.PricingMode("")):
				return &jsonschema.Schema{Type: "string", Enum: types.AllPricingModes}
			case reflect.TypeOf(PresetName("")):
				return &jsonschema.Schema{Type: "string", Enum: presetNames}
			}

			return nil
		},
	}

	schema := reflector.Reflect(c)
	schema.Title = "strategy-config"
	schema.Description = "Configuration schema for an options strategy"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON generates a JSON schema string for Config.
func (c *Config) GenerateSchemaJSON() (string, error) {
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
