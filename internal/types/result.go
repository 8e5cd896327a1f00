package types

import (
	"time"
)

// ResultRow is the per-bar output of a simulation run. Empty exit fields
// are zero values so the series stays directly writable as a table.
type ResultRow struct {
	Time           time.Time  `yaml:"time" json:"time" csv:"time"`
	Position       int        `yaml:"position" json:"position" csv:"position"`
	EntryPrice     float64    `yaml:"entry_price" json:"entry_price" csv:"entry_price"`
	EntryTime      time.Time  `yaml:"entry_time" json:"entry_time" csv:"entry_time"`
	ExitPrice      float64    `yaml:"exit_price" json:"exit_price" csv:"exit_price"`
	ExitTime       time.Time  `yaml:"exit_time" json:"exit_time" csv:"exit_time"`
	HoldingPeriods int        `yaml:"holding_periods" json:"holding_periods" csv:"holding_periods"`
	ExitReason     ExitReason `yaml:"exit_reason" json:"exit_reason" csv:"exit_reason"`
	Capital        float64    `yaml:"capital" json:"capital" csv:"capital"`
	Equity         float64    `yaml:"equity" json:"equity" csv:"equity"`
	Returns        float64    `yaml:"returns" json:"returns" csv:"returns"`
	TradeProfit    float64    `yaml:"trade_profit" json:"trade_profit" csv:"trade_profit"`
	Commission     float64    `yaml:"commission" json:"commission" csv:"commission"`
	Shares         int64      `yaml:"shares" json:"shares" csv:"shares"`
	TradeValue     float64    `yaml:"trade_value" json:"trade_value" csv:"trade_value"`
}

// ResultSeries holds one row per input bar, in bar order.
type ResultSeries []ResultRow

// EquityCurve extracts the equity column.
func (s ResultSeries) EquityCurve() []float64 {
	equity := make([]float64, len(s))
	for i := range s {
		equity[i] = s[i].Equity
	}

	return equity
}

// Returns extracts the per-bar returns column.
func (s ResultSeries) Returns() []float64 {
	returns := make([]float64, len(s))
	for i := range s {
		returns[i] = s[i].Returns
	}

	return returns
}
