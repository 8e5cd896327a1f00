package types

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Metrics is the performance summary derived from a completed run.
type Metrics struct {
	// Total return over the whole run, as a fraction of initial capital.
	TotalReturn float64 `yaml:"total_return" json:"total_return"`
	// Geometric annualized return.
	AnnualizedReturn float64 `yaml:"annualized_return" json:"annualized_return"`
	// Annualized standard deviation of per-bar returns.
	AnnualizedVolatility float64 `yaml:"annualized_volatility" json:"annualized_volatility"`
	// Excess return per unit of volatility, annualized.
	SharpeRatio float64 `yaml:"sharpe_ratio" json:"sharpe_ratio"`
	// Largest fractional decline of equity from its running peak. Non-positive.
	MaxDrawdown float64 `yaml:"max_drawdown" json:"max_drawdown"`
	// Annualized return divided by absolute max drawdown.
	CalmarRatio float64 `yaml:"calmar_ratio" json:"calmar_ratio"`

	// Trade statistics over completed trades only.
	TotalTrades          int     `yaml:"total_trades" json:"total_trades"`
	WinningTrades        int     `yaml:"winning_trades" json:"winning_trades"`
	LosingTrades         int     `yaml:"losing_trades" json:"losing_trades"`
	WinRate              float64 `yaml:"win_rate" json:"win_rate"`
	AvgWin               float64 `yaml:"avg_win" json:"avg_win"`
	AvgLoss              float64 `yaml:"avg_loss" json:"avg_loss"`
	ProfitFactor         float64 `yaml:"profit_factor" json:"profit_factor"`
	AvgHoldingPeriod     float64 `yaml:"avg_holding_period" json:"avg_holding_period"`
	MaxConsecutiveWins   int     `yaml:"max_consecutive_wins" json:"max_consecutive_wins"`
	MaxConsecutiveLosses int     `yaml:"max_consecutive_losses" json:"max_consecutive_losses"`
}

// WriteMetrics marshals the metrics to YAML and writes them to path.
func WriteMetrics(path string, metrics Metrics) error {
	data, err := yaml.Marshal(metrics)
	if err != nil {
		return fmt.Errorf("failed to marshal metrics to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write metrics to file: %w", err)
	}

	return nil
}
