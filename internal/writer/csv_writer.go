package writer

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// CSVWriter implements ResultWriter by writing results.csv, trades.csv
// and metrics.yaml into a run directory.
type CSVWriter struct {
	runDir string

	resultsFile *os.File
	tradesFile  *os.File

	resultsCsv *csv.Writer
	tradesCsv  *csv.Writer
}

// NewCSVWriter creates a CSVWriter rooted at the given run directory.
func NewCSVWriter(runDir string) (ResultWriter, error) {
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}

	writer := &CSVWriter{
		runDir: runDir,
	}

	if err := writer.initFiles(); err != nil {
		return nil, err
	}

	return writer, nil
}

// initFiles initializes all CSV files
func (w *CSVWriter) initFiles() error {
	resultsFile, err := os.Create(filepath.Join(w.runDir, "results.csv"))
	if err != nil {
		return fmt.Errorf("failed to create results file: %w", err)
	}

	w.resultsFile = resultsFile
	w.resultsCsv = csv.NewWriter(resultsFile)

	if err := w.resultsCsv.Write([]string{
		"time", "position", "entry_price", "entry_time", "exit_price", "exit_time",
		"holding_periods", "exit_reason", "capital", "equity", "returns",
		"trade_profit", "commission", "shares", "trade_value",
	}); err != nil {
		return fmt.Errorf("failed to write results header: %w", err)
	}

	tradesFile, err := os.Create(filepath.Join(w.runDir, "trades.csv"))
	if err != nil {
		return fmt.Errorf("failed to create trades file: %w", err)
	}

	w.tradesFile = tradesFile
	w.tradesCsv = csv.NewWriter(tradesFile)

	if err := w.tradesCsv.Write([]string{
		"entry_time", "entry_price", "direction", "shares", "trade_value",
		"entry_commission", "exit_time", "exit_price", "exit_reason",
		"profit", "return_pct", "holding_periods",
	}); err != nil {
		return fmt.Errorf("failed to write trades header: %w", err)
	}

	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.Format(time.RFC3339)
}

// WriteResults implements ResultWriter.
func (w *CSVWriter) WriteResults(results types.ResultSeries) error {
	for i := range results {
		row := &results[i]

		record := []string{
			formatTime(row.Time),
			strconv.Itoa(row.Position),
			fmt.Sprintf("%f", row.EntryPrice),
			formatTime(row.EntryTime),
			fmt.Sprintf("%f", row.ExitPrice),
			formatTime(row.ExitTime),
			strconv.Itoa(row.HoldingPeriods),
			string(row.ExitReason),
			fmt.Sprintf("%f", row.Capital),
			fmt.Sprintf("%f", row.Equity),
			fmt.Sprintf("%f", row.Returns),
			fmt.Sprintf("%f", row.TradeProfit),
			fmt.Sprintf("%f", row.Commission),
			strconv.FormatInt(row.Shares, 10),
			fmt.Sprintf("%f", row.TradeValue),
		}

		if err := w.resultsCsv.Write(record); err != nil {
			return fmt.Errorf("failed to write result row: %w", err)
		}
	}

	w.resultsCsv.Flush()

	return w.resultsCsv.Error()
}

// WriteTrades implements ResultWriter. Open trades get empty close
// columns.
func (w *CSVWriter) WriteTrades(trades []types.Trade) error {
	for i := range trades {
		trade := &trades[i]

		record := []string{
			formatTime(trade.EntryTime),
			fmt.Sprintf("%f", trade.EntryPrice),
			string(trade.Direction),
			strconv.FormatInt(trade.Shares, 10),
			fmt.Sprintf("%f", trade.TradeValue),
			fmt.Sprintf("%f", trade.EntryCommission),
		}

		if result, ok := trade.Result(); ok {
			record = append(record,
				formatTime(result.ExitTime),
				fmt.Sprintf("%f", result.ExitPrice),
				string(result.ExitReason),
				fmt.Sprintf("%f", result.Profit),
				fmt.Sprintf("%f", result.ReturnPct),
				strconv.Itoa(result.HoldingPeriods),
			)
		} else {
			record = append(record, "", "", "", "", "", "")
		}

		if err := w.tradesCsv.Write(record); err != nil {
			return fmt.Errorf("failed to write trade: %w", err)
		}
	}

	w.tradesCsv.Flush()

	return w.tradesCsv.Error()
}

// WriteMetrics implements ResultWriter.
func (w *CSVWriter) WriteMetrics(metrics types.Metrics) error {
	return types.WriteMetrics(filepath.Join(w.runDir, "metrics.yaml"), metrics)
}

// Close implements ResultWriter.
func (w *CSVWriter) Close() error {
	w.resultsCsv.Flush()
	w.tradesCsv.Flush()

	if err := w.resultsFile.Close(); err != nil {
		return fmt.Errorf("failed to close results file: %w", err)
	}

	if err := w.tradesFile.Close(); err != nil {
		return fmt.Errorf("failed to close trades file: %w", err)
	}

	return nil
}
