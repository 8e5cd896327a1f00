package engine

import (
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/analyzer"
	"github.com/rxtech-lab/argo-backtest/internal/datasource"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/simulator"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/internal/writer"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// OnBarCallback is notified once per processed bar with the running
// count and the total, so callers can render progress.
type OnBarCallback func(current int, total int)

// RunResult summarizes one completed backtest run.
type RunResult struct {
	// ID is the unique identifier for this run.
	ID string
	// DataPath is the market data file the run consumed.
	DataPath string
	// ResultsFolder is where the run artifacts were written.
	ResultsFolder string
	Metrics       types.Metrics
}

// BacktestEngine glues a bar source, the position simulator, the
// performance analyzer and a result writer into end-to-end runs.
type BacktestEngine struct {
	config        EngineConfig
	log           *logger.Logger
	simulator     *simulator.Simulator
	analyzer      *analyzer.Analyzer
	source        datasource.BarSource
	dataPaths     []string
	resultsFolder string
	format        writer.Format
}

func NewBacktestEngine() *BacktestEngine {
	return &BacktestEngine{
		config: DefaultEngineConfig(),
		format: writer.FormatCSV,
	}
}

// Initialize parses the YAML engine configuration and prepares the
// simulator and analyzer.
func (e *BacktestEngine) Initialize(config string) error {
	err := yaml.Unmarshal([]byte(config), &e.config)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse engine config", err)
	}

	if err := e.config.Validate(); err != nil {
		return err
	}

	var loggerError error

	e.log, loggerError = logger.NewLogger()
	if loggerError != nil {
		return loggerError
	}

	e.log.Debug("Backtest engine initialized",
		zap.String("config", config),
	)

	e.simulator = simulator.NewSimulator(e.log)
	e.analyzer = analyzer.NewAnalyzer(e.log)

	return nil
}

// SetDataPath resolves the given glob into absolute data paths.
func (e *BacktestEngine) SetDataPath(path string) error {
	files, err := filepath.Glob(path)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeEngineNoDataPath, err, "failed to resolve data path %s", path)
	}

	absolutePaths := make([]string, len(files))

	for i, file := range files {
		absPath, err := filepath.Abs(file)
		if err != nil {
			return errors.Wrapf(errors.ErrCodeEngineNoDataPath, err, "failed to get absolute path for %s", file)
		}

		absolutePaths[i] = absPath
	}

	e.dataPaths = absolutePaths

	return nil
}

// SetResultsFolder sets the folder run artifacts are written under.
func (e *BacktestEngine) SetResultsFolder(folder string) error {
	e.resultsFolder = folder

	return nil
}

// SetBarSource sets the bar provider used for every run.
func (e *BacktestEngine) SetBarSource(source datasource.BarSource) error {
	e.source = source

	return nil
}

// SetFormat selects the result output format.
func (e *BacktestEngine) SetFormat(format writer.Format) {
	e.format = format
}

// GetConfigSchema returns the JSON schema of the simulation config.
func (e *BacktestEngine) GetConfigSchema() (string, error) {
	return e.config.Simulation.GenerateSchemaJSON()
}

func (e *BacktestEngine) preRunCheck() error {
	if e.log == nil || e.simulator == nil {
		return errors.New(errors.ErrCodeEngineNotInitialized, "engine is not initialized")
	}

	if len(e.dataPaths) == 0 {
		return errors.New(errors.ErrCodeEngineNoDataPath, "no data paths loaded")
	}

	if e.resultsFolder == "" {
		return errors.New(errors.ErrCodeEngineNoResultsDir, "no results folder set")
	}

	if e.source == nil {
		return errors.New(errors.ErrCodeEngineNoDatasource, "no bar source set")
	}

	return nil
}

// Run executes one backtest per data path and returns the run
// summaries. Nothing is written if any run fails.
func (e *BacktestEngine) Run(onBar optional.Option[OnBarCallback]) ([]RunResult, error) {
	if err := e.preRunCheck(); err != nil {
		return nil, err
	}

	results := make([]RunResult, 0, len(e.dataPaths))

	for _, dataPath := range e.dataPaths {
		runResult, err := e.runOne(dataPath, onBar)
		if err != nil {
			return nil, err
		}

		results = append(results, runResult)
	}

	return results, nil
}

func (e *BacktestEngine) runOne(dataPath string, onBar optional.Option[OnBarCallback]) (RunResult, error) {
	if err := e.source.Initialize(dataPath); err != nil {
		return RunResult{}, err
	}

	total, err := e.source.Count(e.config.StartTime, e.config.EndTime)
	if err != nil {
		return RunResult{}, err
	}

	var bars types.BarSeries

	var readErr error

	current := 0

	e.source.ReadAll(e.config.StartTime, e.config.EndTime)(func(bar types.Bar, err error) bool {
		if err != nil {
			readErr = err

			return false
		}

		bars = append(bars, bar)
		current++

		if onBar.IsSome() {
			onBar.Unwrap()(current, total)
		}

		return true
	})

	if readErr != nil {
		return RunResult{}, readErr
	}

	series, trades, err := e.simulator.Run(bars, e.config.Simulation)
	if err != nil {
		return RunResult{}, err
	}

	metrics := e.analyzer.Summarize(series, trades, e.config.Simulation.InitialCapital, e.config.RiskFreeRate, e.config.TradingPeriodsPerYear)

	runID := uuid.New().String()
	runFolder := filepath.Join(e.resultsFolder, runID)

	if err := e.writeResults(runFolder, series, trades, metrics); err != nil {
		return RunResult{}, err
	}

	e.log.Info("Backtest run completed",
		zap.String("run_id", runID),
		zap.String("data", dataPath),
		zap.Int("bars", len(series)),
		zap.Int("trades", len(trades)),
	)

	return RunResult{
		ID:            runID,
		DataPath:      dataPath,
		ResultsFolder: runFolder,
		Metrics:       metrics,
	}, nil
}

func (e *BacktestEngine) writeResults(runFolder string, series types.ResultSeries, trades []types.Trade, metrics types.Metrics) error {
	var resultWriter writer.ResultWriter

	var err error

	switch e.format {
	case writer.FormatParquet:
		resultWriter, err = writer.NewDuckDBWriter(runFolder, e.log)
	default:
		resultWriter, err = writer.NewCSVWriter(runFolder)
	}

	if err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to create result writer", err)
	}

	if err := resultWriter.WriteResults(series); err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to write results", err)
	}

	if err := resultWriter.WriteTrades(trades); err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to write trades", err)
	}

	if err := resultWriter.WriteMetrics(metrics); err != nil {
		return errors.Wrap(errors.ErrCodeMetricsWriteFailed, "failed to write metrics", err)
	}

	return resultWriter.Close()
}

// SweepResult pairs one sweep configuration with its metrics.
type SweepResult struct {
	Config  simulator.Config
	Metrics types.Metrics
	Err     error
}

// RunSweep runs the same bar series under several configurations
// concurrently. Each run owns its own state, so runs are independent.
func (e *BacktestEngine) RunSweep(bars types.BarSeries, configs []simulator.Config) []SweepResult {
	results := make([]SweepResult, len(configs))

	var wg sync.WaitGroup

	for i := range configs {
		wg.Add(1)

		go func(idx int) {
			defer wg.Done()

			series, trades, err := e.simulator.Run(bars, configs[idx])
			if err != nil {
				results[idx] = SweepResult{Config: configs[idx], Err: err}

				return
			}

			metrics := e.analyzer.Summarize(series, trades, configs[idx].InitialCapital, e.config.RiskFreeRate, e.config.TradingPeriodsPerYear)
			results[idx] = SweepResult{Config: configs[idx], Metrics: metrics, Err: nil}
		}(i)
	}

	wg.Wait()

	return results
}
