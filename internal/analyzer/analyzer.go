package analyzer

import (
	"math"

	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"go.uber.org/zap"
)

// Analyzer derives summary statistics from a completed simulation run.
// Every ratio that would divide by zero or by a degenerate sample
// resolves to zero instead of NaN or Inf.
type Analyzer struct {
	logger *logger.Logger
}

func NewAnalyzer(log *logger.Logger) *Analyzer {
	return &Analyzer{
		logger: log,
	}
}

// Summarize computes the performance metrics for a result series and its
// trade list. Trade statistics cover completed trades only.
func (a *Analyzer) Summarize(results types.ResultSeries, trades []types.Trade, initialCapital float64, riskFreeRate float64, periodsPerYear int) types.Metrics {
	metrics := types.Metrics{}

	if len(results) == 0 || initialCapital <= 0 || periodsPerYear <= 0 {
		return metrics
	}

	equity := results.EquityCurve()
	returns := results.Returns()

	metrics.TotalReturn = equity[len(equity)-1]/initialCapital - 1

	years := float64(len(returns)) / float64(periodsPerYear)
	if years > 0 {
		metrics.AnnualizedReturn = annualize(metrics.TotalReturn, years)
	}

	stdev := sampleStdev(returns)
	if len(returns) > 1 {
		metrics.AnnualizedVolatility = stdev * math.Sqrt(float64(periodsPerYear))
	}

	if metrics.AnnualizedVolatility > 0 {
		periodicRiskFree := math.Pow(1+riskFreeRate, 1/float64(periodsPerYear)) - 1
		metrics.SharpeRatio = (mean(returns) - periodicRiskFree) / stdev * math.Sqrt(float64(periodsPerYear))
	}

	metrics.MaxDrawdown = maxDrawdown(equity, initialCapital)
	if metrics.MaxDrawdown != 0 {
		metrics.CalmarRatio = metrics.AnnualizedReturn / math.Abs(metrics.MaxDrawdown)
	}

	a.summarizeTrades(&metrics, trades)

	a.logger.Debug("Metrics computed",
		zap.Float64("total_return", metrics.TotalReturn),
		zap.Float64("sharpe_ratio", metrics.SharpeRatio),
		zap.Float64("max_drawdown", metrics.MaxDrawdown),
		zap.Int("total_trades", metrics.TotalTrades),
	)

	return metrics
}

func (a *Analyzer) summarizeTrades(metrics *types.Metrics, trades []types.Trade) {
	var (
		grossWin, grossLoss   float64
		totalHolding          int
		winStreak, lossStreak int
	)

	// Single forward scan in chronological open order.
	for i := range trades {
		result, ok := trades[i].Result()
		if !ok {
			continue
		}

		metrics.TotalTrades++
		totalHolding += result.HoldingPeriods

		switch {
		case result.Profit > 0:
			metrics.WinningTrades++
			grossWin += result.Profit
			winStreak++
			lossStreak = 0

			if winStreak > metrics.MaxConsecutiveWins {
				metrics.MaxConsecutiveWins = winStreak
			}
		case result.Profit < 0:
			metrics.LosingTrades++
			grossLoss += result.Profit
			lossStreak++
			winStreak = 0

			if lossStreak > metrics.MaxConsecutiveLosses {
				metrics.MaxConsecutiveLosses = lossStreak
			}
		}
	}

	if metrics.TotalTrades == 0 {
		return
	}

	metrics.WinRate = float64(metrics.WinningTrades) / float64(metrics.TotalTrades)
	metrics.AvgHoldingPeriod = float64(totalHolding) / float64(metrics.TotalTrades)

	if metrics.WinningTrades > 0 {
		metrics.AvgWin = grossWin / float64(metrics.WinningTrades)
	}

	if metrics.LosingTrades > 0 {
		metrics.AvgLoss = grossLoss / float64(metrics.LosingTrades)
	}

	if grossLoss != 0 {
		metrics.ProfitFactor = grossWin / math.Abs(grossLoss)
	}
}

// annualize converts a total return over the given number of years into
// a geometric annual rate. A total loss caps at -1 instead of producing
// a NaN from a negative base.
func annualize(totalReturn, years float64) float64 {
	if 1+totalReturn <= 0 {
		return -1
	}

	return math.Pow(1+totalReturn, 1/years) - 1
}

// maxDrawdown returns the most negative fractional decline of equity
// from its running peak. Zero when equity never declines.
func maxDrawdown(equity []float64, initialCapital float64) float64 {
	maxDD := 0.0
	runningMax := math.Inf(-1)

	for _, e := range equity {
		cum := e / initialCapital
		if cum > runningMax {
			runningMax = cum
		}

		if runningMax > 0 {
			dd := cum/runningMax - 1
			if dd < maxDD {
				maxDD = dd
			}
		}
	}

	return maxDD
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}

// sampleStdev is the n-1 standard deviation. Zero for fewer than two
// observations.
func sampleStdev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	m := mean(values)

	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}

	return math.Sqrt(sum / float64(len(values)-1))
}
