package analyzer

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/stretchr/testify/suite"
)

type AnalyzerTestSuite struct {
	suite.Suite
	analyzer *Analyzer
}

func TestAnalyzerSuite(t *testing.T) {
	suite.Run(t, new(AnalyzerTestSuite))
}

func (suite *AnalyzerTestSuite) SetupSuite() {
	log, err := logger.NewLogger()
	suite.Require().NoError(err)
	suite.analyzer = NewAnalyzer(log)
}

// equitySeries builds result rows from an equity path, filling the
// per-bar return the way the simulator does.
func equitySeries(equity ...float64) types.ResultSeries {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	results := make(types.ResultSeries, 0, len(equity))

	for i, e := range equity {
		row := types.ResultRow{
			Time:   base.AddDate(0, 0, i),
			Equity: e,
		}
		if i > 0 && equity[i-1] != 0 {
			row.Returns = e/equity[i-1] - 1
		}

		results = append(results, row)
	}

	return results
}

func closedTrade(profit float64, holdingPeriods int) types.Trade {
	return types.Trade{
		Direction: types.DirectionLong,
		Close: optional.Some(types.TradeClose{
			Profit:         profit,
			HoldingPeriods: holdingPeriods,
		}),
	}
}

func (suite *AnalyzerTestSuite) TestTotalAndAnnualizedReturn() {
	results := equitySeries(100000, 110000, 121000)

	// Three bars at three periods per year is exactly one year.
	metrics := suite.analyzer.Summarize(results, nil, 100000, 0, 3)

	suite.InDelta(0.21, metrics.TotalReturn, 1e-12)
	suite.InDelta(0.21, metrics.AnnualizedReturn, 1e-12)
}

func (suite *AnalyzerTestSuite) TestSharpeAndVolatility() {
	// Return series is [0, 0.1, -0.05]: mean 1/60, sample stdev
	// sqrt(7/1200).
	results := equitySeries(100000, 110000, 104500)

	metrics := suite.analyzer.Summarize(results, nil, 100000, 0, 252)

	suite.InDelta(1.2124, metrics.AnnualizedVolatility, 1e-3)
	suite.InDelta(3.4641, metrics.SharpeRatio, 1e-3)
}

func (suite *AnalyzerTestSuite) TestFlatEquityHasZeroRatios() {
	results := equitySeries(100000, 100000, 100000)

	metrics := suite.analyzer.Summarize(results, nil, 100000, 0.02, 252)

	suite.Equal(0.0, metrics.TotalReturn)
	suite.Equal(0.0, metrics.AnnualizedVolatility)
	suite.Equal(0.0, metrics.SharpeRatio)
	suite.Equal(0.0, metrics.MaxDrawdown)
	suite.Equal(0.0, metrics.CalmarRatio)
}

func (suite *AnalyzerTestSuite) TestMaxDrawdownAndCalmar() {
	// Peak at 120000, trough at 90000: drawdown 90/120 - 1 = -0.25.
	results := equitySeries(100000, 120000, 90000, 110000)

	metrics := suite.analyzer.Summarize(results, nil, 100000, 0, 252)

	suite.InDelta(-0.25, metrics.MaxDrawdown, 1e-12)
	suite.InDelta(metrics.AnnualizedReturn/0.25, metrics.CalmarRatio, 1e-12)
}

func (suite *AnalyzerTestSuite) TestTotalLossCapsAnnualizedReturn() {
	results := equitySeries(100000, 50000, 0)

	metrics := suite.analyzer.Summarize(results, nil, 100000, 0, 252)

	suite.Equal(-1.0, metrics.TotalReturn)
	suite.Equal(-1.0, metrics.AnnualizedReturn)
}

func (suite *AnalyzerTestSuite) TestSingleBarIsDegenerate() {
	results := equitySeries(100000)

	metrics := suite.analyzer.Summarize(results, nil, 100000, 0.02, 252)

	suite.Equal(0.0, metrics.SharpeRatio)
	suite.Equal(0.0, metrics.ProfitFactor)
	suite.Equal(0.0, metrics.WinRate)
}

func (suite *AnalyzerTestSuite) TestEmptyInputsYieldZeroMetrics() {
	suite.Equal(types.Metrics{}, suite.analyzer.Summarize(nil, nil, 100000, 0.02, 252))
	suite.Equal(types.Metrics{}, suite.analyzer.Summarize(equitySeries(100000), nil, 0, 0.02, 252))
}

func (suite *AnalyzerTestSuite) TestTradeStatistics() {
	trades := []types.Trade{
		closedTrade(10, 2),
		closedTrade(-5, 1),
		closedTrade(-3, 3),
		closedTrade(2, 2),
	}

	metrics := suite.analyzer.Summarize(equitySeries(100000, 100004), trades, 100000, 0, 252)

	suite.Equal(4, metrics.TotalTrades)
	suite.Equal(2, metrics.WinningTrades)
	suite.Equal(2, metrics.LosingTrades)
	suite.InDelta(0.5, metrics.WinRate, 1e-12)
	suite.InDelta(6.0, metrics.AvgWin, 1e-12)
	suite.InDelta(-4.0, metrics.AvgLoss, 1e-12)
	suite.InDelta(1.5, metrics.ProfitFactor, 1e-12)
	suite.InDelta(2.0, metrics.AvgHoldingPeriod, 1e-12)
	suite.Equal(1, metrics.MaxConsecutiveWins)
	suite.Equal(2, metrics.MaxConsecutiveLosses)
}

func (suite *AnalyzerTestSuite) TestOpenTradesExcluded() {
	trades := []types.Trade{
		closedTrade(10, 1),
		{Direction: types.DirectionLong, Close: optional.None[types.TradeClose]()},
	}

	metrics := suite.analyzer.Summarize(equitySeries(100000, 100010), trades, 100000, 0, 252)

	suite.Equal(1, metrics.TotalTrades)
	suite.Equal(1, metrics.WinningTrades)
	suite.Equal(1.0, metrics.WinRate)
}

func (suite *AnalyzerTestSuite) TestZeroProfitTradeCountsInTotalsOnly() {
	trades := []types.Trade{
		closedTrade(5, 1),
		closedTrade(0, 1),
		closedTrade(-5, 1),
	}

	metrics := suite.analyzer.Summarize(equitySeries(100000, 100000), trades, 100000, 0, 252)

	suite.Equal(3, metrics.TotalTrades)
	suite.Equal(1, metrics.WinningTrades)
	suite.Equal(1, metrics.LosingTrades)
	suite.InDelta(1.0/3.0, metrics.WinRate, 1e-12)
	suite.InDelta(1.0, metrics.ProfitFactor, 1e-12)
}

func (suite *AnalyzerTestSuite) TestAllWinnersHaveZeroProfitFactor() {
	trades := []types.Trade{
		closedTrade(5, 1),
		closedTrade(7, 1),
	}

	metrics := suite.analyzer.Summarize(equitySeries(100000, 100012), trades, 100000, 0, 252)

	suite.Equal(2, metrics.MaxConsecutiveWins)
	suite.Equal(0, metrics.MaxConsecutiveLosses)
	// No losing trades means the ratio denominator is zero.
	suite.Equal(0.0, metrics.ProfitFactor)
	suite.Equal(0.0, metrics.AvgLoss)
}
