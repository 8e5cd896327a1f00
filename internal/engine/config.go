package engine

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/simulator"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// EngineConfig is the YAML-facing configuration of a backtest run: the
// simulation parameters plus the analyzer inputs and an optional time
// window on the data.
type EngineConfig struct {
	Simulation            simulator.Config           `yaml:"simulation" json:"simulation"`
	RiskFreeRate          float64                    `yaml:"risk_free_rate" json:"risk_free_rate" jsonschema:"title=Risk Free Rate,description=Annual risk free rate used by the Sharpe ratio"`
	TradingPeriodsPerYear int                        `yaml:"trading_periods_per_year" json:"trading_periods_per_year" jsonschema:"title=Trading Periods Per Year,description=Number of bars in a year at the data frequency,minimum=1"`
	StartTime             optional.Option[time.Time] `yaml:"start_time" json:"start_time" jsonschema:"title=Start Time,description=Optional start of the simulated period"`
	EndTime               optional.Option[time.Time] `yaml:"end_time" json:"end_time" jsonschema:"title=End Time,description=Optional end of the simulated period"`
}

// DefaultEngineConfig returns an EngineConfig with the documented
// defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Simulation:            simulator.DefaultConfig(),
		RiskFreeRate:          0.02,
		TradingPeriodsPerYear: 252,
		StartTime:             optional.None[time.Time](),
		EndTime:               optional.None[time.Time](),
	}
}

// UnmarshalYAML implements custom unmarshaling for EngineConfig. Absent
// fields keep their defaults.
func (c *EngineConfig) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type rawConfig struct {
		Simulation            *simulator.Config `yaml:"simulation"`
		RiskFreeRate          *float64          `yaml:"risk_free_rate"`
		TradingPeriodsPerYear *int              `yaml:"trading_periods_per_year"`
		StartTime             *time.Time        `yaml:"start_time"`
		EndTime               *time.Time        `yaml:"end_time"`
	}

	var raw rawConfig
	if err := unmarshal(&raw); err != nil {
		return err
	}

	*c = DefaultEngineConfig()

	if raw.Simulation != nil {
		c.Simulation = *raw.Simulation
	}

	if raw.RiskFreeRate != nil {
		c.RiskFreeRate = *raw.RiskFreeRate
	}

	if raw.TradingPeriodsPerYear != nil {
		c.TradingPeriodsPerYear = *raw.TradingPeriodsPerYear
	}

	if raw.StartTime != nil {
		c.StartTime = optional.Some(*raw.StartTime)
	}

	if raw.EndTime != nil {
		c.EndTime = optional.Some(*raw.EndTime)
	}

	return nil
}

// Validate checks the engine configuration, including the nested
// simulation config.
func (c *EngineConfig) Validate() error {
	if err := c.Simulation.Validate(); err != nil {
		return err
	}

	if c.TradingPeriodsPerYear <= 0 {
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "trading periods per year must be positive, got %d", c.TradingPeriodsPerYear)
	}

	if c.StartTime.IsSome() && c.EndTime.IsSome() && c.EndTime.Unwrap().Before(c.StartTime.Unwrap()) {
		return errors.New(errors.ErrCodeInvalidConfiguration, "end time must not be before start time")
	}

	return nil
}
