package writer

import (
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// ResultWriter persists the output of a simulation run.
type ResultWriter interface {
	// WriteResults writes the per-bar result series.
	WriteResults(results types.ResultSeries) error
	// WriteTrades writes the trade list, open trades included.
	WriteTrades(trades []types.Trade) error
	// WriteMetrics writes the performance summary.
	WriteMetrics(metrics types.Metrics) error
	// Close finalizes the writing process.
	Close() error
}

// Format selects a ResultWriter implementation.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
)
