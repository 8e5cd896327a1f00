package writer

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"go.uber.org/zap"
)

// DuckDBWriter implements ResultWriter by staging rows in an in-memory
// DuckDB instance and exporting them as parquet files on Close.
type DuckDBWriter struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
	runDir string
}

// NewDuckDBWriter creates a parquet-exporting writer rooted at runDir.
func NewDuckDBWriter(runDir string, log *logger.Logger) (ResultWriter, error) {
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}

	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	writer := &DuckDBWriter{
		db:     db,
		logger: log,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
		runDir: runDir,
	}

	if err := writer.initTables(); err != nil {
		db.Close()

		return nil, err
	}

	return writer, nil
}

func (w *DuckDBWriter) initTables() error {
	_, err := w.db.Exec(`
		CREATE TABLE IF NOT EXISTS results (
			time TIMESTAMP,
			position INTEGER,
			entry_price DOUBLE,
			entry_time TIMESTAMP,
			exit_price DOUBLE,
			exit_time TIMESTAMP,
			holding_periods INTEGER,
			exit_reason TEXT,
			capital DOUBLE,
			equity DOUBLE,
			returns DOUBLE,
			trade_profit DOUBLE,
			commission DOUBLE,
			shares BIGINT,
			trade_value DOUBLE
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create results table: %w", err)
	}

	_, err = w.db.Exec(`
		CREATE TABLE IF NOT EXISTS trades (
			entry_time TIMESTAMP,
			entry_price DOUBLE,
			direction TEXT,
			shares BIGINT,
			trade_value DOUBLE,
			entry_commission DOUBLE,
			is_closed BOOLEAN,
			exit_time TIMESTAMP,
			exit_price DOUBLE,
			exit_reason TEXT,
			profit DOUBLE,
			return_pct DOUBLE,
			holding_periods INTEGER
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create trades table: %w", err)
	}

	return nil
}

// WriteResults implements ResultWriter.
func (w *DuckDBWriter) WriteResults(results types.ResultSeries) error {
	for i := range results {
		row := &results[i]

		insertQuery := w.sq.
			Insert("results").
			Columns(
				"time", "position", "entry_price", "entry_time", "exit_price", "exit_time",
				"holding_periods", "exit_reason", "capital", "equity", "returns",
				"trade_profit", "commission", "shares", "trade_value",
			).
			Values(
				row.Time, row.Position, row.EntryPrice, row.EntryTime, row.ExitPrice, row.ExitTime,
				row.HoldingPeriods, string(row.ExitReason), row.Capital, row.Equity, row.Returns,
				row.TradeProfit, row.Commission, row.Shares, row.TradeValue,
			).
			RunWith(w.db)

		if _, err := insertQuery.Exec(); err != nil {
			return fmt.Errorf("failed to insert result row: %w", err)
		}
	}

	return nil
}

// WriteTrades implements ResultWriter.
func (w *DuckDBWriter) WriteTrades(trades []types.Trade) error {
	for i := range trades {
		trade := &trades[i]
		result, closed := trade.Result()

		insertQuery := w.sq.
			Insert("trades").
			Columns(
				"entry_time", "entry_price", "direction", "shares", "trade_value",
				"entry_commission", "is_closed", "exit_time", "exit_price", "exit_reason",
				"profit", "return_pct", "holding_periods",
			).
			Values(
				trade.EntryTime, trade.EntryPrice, string(trade.Direction), trade.Shares, trade.TradeValue,
				trade.EntryCommission, closed, result.ExitTime, result.ExitPrice, string(result.ExitReason),
				result.Profit, result.ReturnPct, result.HoldingPeriods,
			).
			RunWith(w.db)

		if _, err := insertQuery.Exec(); err != nil {
			return fmt.Errorf("failed to insert trade: %w", err)
		}
	}

	return nil
}

// WriteMetrics implements ResultWriter.
func (w *DuckDBWriter) WriteMetrics(metrics types.Metrics) error {
	return types.WriteMetrics(filepath.Join(w.runDir, "metrics.yaml"), metrics)
}

// Close exports the staged tables to parquet and releases the database.
func (w *DuckDBWriter) Close() error {
	resultsPath := filepath.Join(w.runDir, "results.parquet")

	_, err := w.db.Exec(fmt.Sprintf(`COPY results TO '%s' (FORMAT PARQUET)`, resultsPath))
	if err != nil {
		return fmt.Errorf("failed to export results to Parquet: %w", err)
	}

	tradesPath := filepath.Join(w.runDir, "trades.parquet")

	_, err = w.db.Exec(fmt.Sprintf(`COPY trades TO '%s' (FORMAT PARQUET)`, tradesPath))
	if err != nil {
		return fmt.Errorf("failed to export trades to Parquet: %w", err)
	}

	w.logger.Info("Exported simulation results to Parquet files",
		zap.String("results", resultsPath),
		zap.String("trades", tradesPath),
	)

	return w.db.Close()
}
