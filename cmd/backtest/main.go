package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/datasource"
	"github.com/rxtech-lab/argo-backtest/internal/engine"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/version"
	"github.com/rxtech-lab/argo-backtest/internal/writer"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
)

// runAction executes the backtest: it wires the DuckDB bar source into
// the engine, renders per-bar progress and prints the metrics summary.
func runAction(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	dataPath := cmd.String("data")
	outputDir := cmd.String("output")
	format := cmd.String("format")

	configContent := ""

	if configPath != "" {
		content, err := os.ReadFile(configPath)
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		configContent = string(content)
	}

	backtester := engine.NewBacktestEngine()

	if err := backtester.Initialize(configContent); err != nil {
		return fmt.Errorf("failed to initialize engine: %w", err)
	}

	appLogger, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer appLogger.Sync()

	source, err := datasource.NewDuckDBBarSource(appLogger)
	if err != nil {
		return fmt.Errorf("failed to create bar source: %w", err)
	}
	defer source.Close()

	if err := backtester.SetBarSource(source); err != nil {
		return err
	}

	if err := backtester.SetDataPath(dataPath); err != nil {
		return err
	}

	if err := backtester.SetResultsFolder(outputDir); err != nil {
		return err
	}

	backtester.SetFormat(writer.Format(format))

	var bar *progressbar.ProgressBar

	onBar := engine.OnBarCallback(func(current, total int) {
		if bar == nil {
			bar = progressbar.Default(int64(total))
		}

		bar.Set(current)
	})

	results, err := backtester.Run(optional.Some(onBar))
	if err != nil {
		return fmt.Errorf("backtest failed: %w", err)
	}

	for _, result := range results {
		metrics := result.Metrics

		fmt.Printf("\nRun %s (%s)\n", result.ID, result.DataPath)
		fmt.Printf("  Total return:       %.2f%%\n", metrics.TotalReturn*100)
		fmt.Printf("  Annualized return:  %.2f%%\n", metrics.AnnualizedReturn*100)
		fmt.Printf("  Sharpe ratio:       %.2f\n", metrics.SharpeRatio)
		fmt.Printf("  Max drawdown:       %.2f%%\n", metrics.MaxDrawdown*100)
		fmt.Printf("  Calmar ratio:       %.2f\n", metrics.CalmarRatio)
		fmt.Printf("  Trades:             %d (win rate %.2f%%)\n", metrics.TotalTrades, metrics.WinRate*100)
		fmt.Printf("  Profit factor:      %.2f\n", metrics.ProfitFactor)
		fmt.Printf("  Results folder:     %s\n", result.ResultsFolder)
	}

	return nil
}

// schemaAction prints the JSON schema of the simulation configuration.
func schemaAction(ctx context.Context, cmd *cli.Command) error {
	backtester := engine.NewBacktestEngine()

	if err := backtester.Initialize(""); err != nil {
		return fmt.Errorf("failed to initialize engine: %w", err)
	}

	schema, err := backtester.GetConfigSchema()
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	fmt.Println(schema)

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:    "backtest",
		Usage:   "Run a signal-driven backtest over historical bars",
		Version: version.GetVersion(),
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Replay bars against their signals and write results",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "config",
						Aliases:  []string{"c"},
						Usage:    "Path to the YAML engine configuration",
						Required: false,
					},
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "Glob of parquet or CSV bar files",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "output",
						Aliases:  []string{"o"},
						Usage:    "Directory run artifacts are written under",
						Value:    "results",
						Required: false,
					},
					&cli.StringFlag{
						Name:     "format",
						Aliases:  []string{"f"},
						Usage:    fmt.Sprintf("Output format (%s or %s)", writer.FormatCSV, writer.FormatParquet),
						Value:    string(writer.FormatCSV),
						Required: false,
					},
				},
				Action: runAction,
			},
			{
				Name:   "schema",
				Usage:  "Print the JSON schema of the simulation configuration",
				Action: schemaAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
