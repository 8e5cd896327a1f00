package simulator

import (
	"encoding/json"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// Config holds the simulation parameters. Optional thresholds are off
// unless set.
type Config struct {
	InitialCapital float64 `yaml:"initial_capital" json:"initial_capital" validate:"gt=0" jsonschema:"title=Initial Capital,description=Starting capital for the simulation in USD,minimum=0"`
	// PositionSize is the fraction of capital committed per trade.
	PositionSize  float64 `yaml:"position_size" json:"position_size" validate:"gt=0,lte=1" jsonschema:"title=Position Size,description=Fraction of capital committed per trade,minimum=0,maximum=1"`
	CommissionPct float64 `yaml:"commission_pct" json:"commission_pct" validate:"gte=0" jsonschema:"title=Commission Rate,description=Commission as a fraction of trade value"`
	// MinCommission is an absolute floor charged per fill.
	MinCommission float64 `yaml:"min_commission" json:"min_commission" validate:"gte=0" jsonschema:"title=Minimum Commission,description=Absolute commission floor per fill in USD"`
	// SlippagePct is applied against the holder at both entry and exit.
	SlippagePct float64 `yaml:"slippage_pct" json:"slippage_pct" validate:"gte=0" jsonschema:"title=Slippage Rate,description=Execution price penalty as a fraction of price"`

	StopLossPct       optional.Option[float64] `yaml:"stop_loss_pct" json:"stop_loss_pct" jsonschema:"title=Stop Loss,description=Optional stop loss as a fraction of entry price"`
	TakeProfitPct     optional.Option[float64] `yaml:"take_profit_pct" json:"take_profit_pct" jsonschema:"title=Take Profit,description=Optional take profit as a fraction of entry price"`
	MaxHoldingPeriods optional.Option[int]     `yaml:"max_holding_periods" json:"max_holding_periods" jsonschema:"title=Max Holding Periods,description=Optional maximum number of bars a position may be held"`

	// EnableCompound sizes positions from current capital when true, and
	// always from initial capital when false.
	EnableCompound bool `yaml:"enable_compound" json:"enable_compound" jsonschema:"title=Enable Compounding,description=Size positions from current capital instead of initial capital"`
}

// DefaultConfig returns a Config with the documented defaults.
func DefaultConfig() Config {
	return Config{
		InitialCapital:    100000,
		PositionSize:      1.0,
		CommissionPct:     0.001,
		MinCommission:     5.0,
		SlippagePct:       0.001,
		StopLossPct:       optional.None[float64](),
		TakeProfitPct:     optional.None[float64](),
		MaxHoldingPeriods: optional.None[int](),
		EnableCompound:    true,
	}
}

// UnmarshalYAML implements custom unmarshaling for Config. Absent fields
// keep their defaults, and nullable thresholds map onto options.
func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type rawConfig struct {
		InitialCapital    *float64 `yaml:"initial_capital"`
		PositionSize      *float64 `yaml:"position_size"`
		CommissionPct     *float64 `yaml:"commission_pct"`
		MinCommission     *float64 `yaml:"min_commission"`
		SlippagePct       *float64 `yaml:"slippage_pct"`
		StopLossPct       *float64 `yaml:"stop_loss_pct"`
		TakeProfitPct     *float64 `yaml:"take_profit_pct"`
		MaxHoldingPeriods *int     `yaml:"max_holding_periods"`
		EnableCompound    *bool    `yaml:"enable_compound"`
	}

	var raw rawConfig
	if err := unmarshal(&raw); err != nil {
		return err
	}

	*c = DefaultConfig()

	if raw.InitialCapital != nil {
		c.InitialCapital = *raw.InitialCapital
	}

	if raw.PositionSize != nil {
		c.PositionSize = *raw.PositionSize
	}

	if raw.CommissionPct != nil {
		c.CommissionPct = *raw.CommissionPct
	}

	if raw.MinCommission != nil {
		c.MinCommission = *raw.MinCommission
	}

	if raw.SlippagePct != nil {
		c.SlippagePct = *raw.SlippagePct
	}

	if raw.StopLossPct != nil {
		c.StopLossPct = optional.Some(*raw.StopLossPct)
	}

	if raw.TakeProfitPct != nil {
		c.TakeProfitPct = optional.Some(*raw.TakeProfitPct)
	}

	if raw.MaxHoldingPeriods != nil {
		c.MaxHoldingPeriods = optional.Some(*raw.MaxHoldingPeriods)
	}

	if raw.EnableCompound != nil {
		c.EnableCompound = *raw.EnableCompound
	}

	return nil
}

// Validate checks the configuration before a run starts. A failure here
// aborts the run with no partial results.
func (c *Config) Validate() error {
	if c.InitialCapital <= 0 {
		return errors.Newf(errors.ErrCodeInvalidCapital, "initial capital must be positive, got %f", c.InitialCapital)
	}

	if c.PositionSize <= 0 || c.PositionSize > 1 {
		return errors.Newf(errors.ErrCodeInvalidPositionSize, "position size must be in (0, 1], got %f", c.PositionSize)
	}

	if c.CommissionPct < 0 || c.MinCommission < 0 {
		return errors.New(errors.ErrCodeInvalidCommission, "commission rate and minimum commission must be non-negative")
	}

	if c.SlippagePct < 0 {
		return errors.Newf(errors.ErrCodeInvalidSlippage, "slippage rate must be non-negative, got %f", c.SlippagePct)
	}

	if c.StopLossPct.IsSome() && c.StopLossPct.Unwrap() <= 0 {
		return errors.New(errors.ErrCodeInvalidThreshold, "stop loss must be positive when set")
	}

	if c.TakeProfitPct.IsSome() && c.TakeProfitPct.Unwrap() <= 0 {
		return errors.New(errors.ErrCodeInvalidThreshold, "take profit must be positive when set")
	}

	if c.MaxHoldingPeriods.IsSome() && c.MaxHoldingPeriods.Unwrap() <= 0 {
		return errors.New(errors.ErrCodeInvalidThreshold, "max holding periods must be positive when set")
	}

	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid simulation config", err)
	}

	return nil
}

// GenerateSchema generates a JSON schema for the Config.
func (c *Config) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t.String() == "optional.Option[float64]" {
				return &jsonschema.Schema{
					Type: "number",
				}
			}
			if strings.Contains(t.String(), "optional.Option[int]") {
				return &jsonschema.Schema{
					Type: "integer",
				}
			}
			return nil
		},
	}

	schema := reflector.Reflect(c)

	schema.Title = "simulation-config"
	schema.Description = "Configuration schema for the position simulator"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON generates a JSON schema string for the Config.
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
