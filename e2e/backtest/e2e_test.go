package backtest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/datasource"
	"github.com/rxtech-lab/argo-backtest/internal/engine"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/writer"
	"github.com/rxtech-lab/argo-backtest/mocks"
	"github.com/stretchr/testify/suite"
)

const engineConfig = `
simulation:
  initial_capital: 100000
  position_size: 0.5
  commission_pct: 0.001
  min_commission: 1
  slippage_pct: 0.001
  stop_loss_pct: 0.1
  take_profit_pct: 0.2
risk_free_rate: 0.02
trading_periods_per_year: 252
`

type E2ETestSuite struct {
	suite.Suite
	backtest      *engine.BacktestEngine
	dataPath      string
	resultsFolder string
}

func TestE2ETestSuite(t *testing.T) {
	suite.Run(t, new(E2ETestSuite))
}

func (s *E2ETestSuite) SetupTest() {
	generator := mocks.NewDataGenerator(42)
	bars := generator.Generate(mocks.DefaultConfig())

	s.dataPath = filepath.Join(s.T().TempDir(), "bars.csv")
	s.Require().NoError(mocks.WriteCSV(s.dataPath, bars))

	l, err := logger.NewLogger()
	s.Require().NoError(err)

	source, err := datasource.NewDuckDBBarSource(l)
	s.Require().NoError(err)

	backtest := engine.NewBacktestEngine()
	s.Require().NoError(backtest.Initialize(engineConfig))
	s.Require().NoError(backtest.SetDataPath(s.dataPath))
	s.Require().NoError(backtest.SetBarSource(source))

	s.resultsFolder = s.T().TempDir()
	s.Require().NoError(backtest.SetResultsFolder(s.resultsFolder))

	s.backtest = backtest
}

func (s *E2ETestSuite) TestFullPipelineCSV() {
	runs, err := s.backtest.Run(optional.None[engine.OnBarCallback]())
	s.Require().NoError(err)
	s.Require().Len(runs, 1)

	run := runs[0]
	s.Equal(s.dataPath, run.DataPath)

	for _, name := range []string{"results.csv", "trades.csv", "metrics.yaml"} {
		info, err := os.Stat(filepath.Join(run.ResultsFolder, name))
		s.Require().NoError(err, name)
		s.Greater(info.Size(), int64(0), name)
	}

	// The momentum signals guarantee at least one completed trade over a
	// 252-bar series.
	s.Greater(run.Metrics.TotalTrades, 0)
	s.GreaterOrEqual(run.Metrics.WinRate, 0.0)
	s.LessOrEqual(run.Metrics.WinRate, 1.0)
	s.LessOrEqual(run.Metrics.MaxDrawdown, 0.0)
}

func (s *E2ETestSuite) TestFullPipelineParquet() {
	s.backtest.SetFormat(writer.FormatParquet)

	runs, err := s.backtest.Run(optional.None[engine.OnBarCallback]())
	s.Require().NoError(err)
	s.Require().Len(runs, 1)

	for _, name := range []string{"results.parquet", "trades.parquet", "metrics.yaml"} {
		info, err := os.Stat(filepath.Join(runs[0].ResultsFolder, name))
		s.Require().NoError(err, name)
		s.Greater(info.Size(), int64(0), name)
	}
}

func (s *E2ETestSuite) TestProgressCallback() {
	bars := 0

	var total int

	callback := engine.OnBarCallback(func(current, t int) {
		bars = current
		total = t
	})

	_, err := s.backtest.Run(optional.Some(callback))
	s.Require().NoError(err)

	s.Equal(252, total)
	s.Equal(252, bars)
}
