package datasource

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"go.uber.org/zap"
)

// DuckDBBarSource reads bars from parquet or CSV files through DuckDB.
// Cleaning happens at load time: rows with non-finite values, an
// inconsistent OHLC range or an unrecognized signal are dropped before
// they reach the simulator, and the view is ordered by time.
type DuckDBBarSource struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewDuckDBBarSource creates a bar source backed by an in-memory DuckDB
// instance.
func NewDuckDBBarSource(log *logger.Logger) (BarSource, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open DuckDB", err)
	}

	return &DuckDBBarSource{
		db:     db,
		logger: log,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}, nil
}

// Initialize implements BarSource. The path may point at a parquet or
// CSV file containing time, open, high, low, close, volume and signal
// columns.
func (d *DuckDBBarSource) Initialize(path string) error {
	d.logger.Debug("Initializing DuckDB bar source", zap.String("path", path))

	var reader string

	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		reader = fmt.Sprintf("read_parquet('%s')", path)
	case ".csv":
		reader = fmt.Sprintf("read_csv_auto('%s')", path)
	default:
		return errors.Newf(errors.ErrCodeDataSourceUnavailable, "unsupported data format: %s", filepath.Ext(path))
	}

	_, err := d.db.Exec(`DROP VIEW IF EXISTS bars;`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to drop existing view", err)
	}

	// The view encodes the provider-side cleaning contract: only finite,
	// OHLC-consistent rows with a recognized signal survive.
	query := fmt.Sprintf(`
		CREATE VIEW bars AS
		SELECT time, open, high, low, close, volume, signal
		FROM %s
		WHERE NOT isnan(open) AND NOT isinf(open)
			AND NOT isnan(high) AND NOT isinf(high)
			AND NOT isnan(low) AND NOT isinf(low)
			AND NOT isnan(close) AND NOT isinf(close)
			AND NOT isnan(volume) AND NOT isinf(volume)
			AND open > 0 AND high > 0 AND low > 0 AND close > 0 AND volume >= 0
			AND high >= greatest(open, close)
			AND low <= least(open, close)
			AND signal IN (-1, 0, 1)
		ORDER BY time ASC;
	`, reader)

	_, err = d.db.Exec(query)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to load bars from %s", path)
	}

	return nil
}

// Count implements BarSource.
func (d *DuckDBBarSource) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	query := d.sq.Select("COUNT(*)").From("bars")

	if start.IsSome() {
		query = query.Where(squirrel.GtOrEq{"time": start.Unwrap()})
	}

	if end.IsSome() {
		query = query.Where(squirrel.LtOrEq{"time": end.Unwrap()})
	}

	var count int

	err := query.RunWith(d.db).QueryRow().Scan(&count)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count bars", err)
	}

	return count, nil
}

// ReadAll implements BarSource with batch processing.
func (d *DuckDBBarSource) ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.Bar, error) bool) {
	const batchSize = 1000

	return func(yield func(types.Bar, error) bool) {
		d.logger.Debug("Reading all bars from DuckDB")

		query := d.sq.
			Select("time", "open", "high", "low", "close", "volume", "signal").
			From("bars").
			OrderBy("time ASC")

		if start.IsSome() {
			query = query.Where(squirrel.GtOrEq{"time": start.Unwrap()})
		}

		if end.IsSome() {
			query = query.Where(squirrel.LtOrEq{"time": end.Unwrap()})
		}

		rows, err := query.RunWith(d.db).Query()
		if err != nil {
			yield(types.Bar{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query bars", err))

			return
		}
		defer rows.Close()

		batch := make([]types.Bar, 0, batchSize)

		for rows.Next() {
			var bar types.Bar

			var signal int

			err := rows.Scan(&bar.Time, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume, &signal)
			if err != nil {
				yield(types.Bar{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan bar", err))

				return
			}

			bar.Signal = types.Signal(signal)
			batch = append(batch, bar)

			if len(batch) >= batchSize {
				for _, b := range batch {
					if !yield(b, nil) {
						return
					}
				}

				batch = batch[:0]
			}
		}

		if err := rows.Err(); err != nil {
			yield(types.Bar{}, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating bars", err))

			return
		}

		for _, b := range batch {
			if !yield(b, nil) {
				return
			}
		}
	}
}

// Close implements BarSource.
func (d *DuckDBBarSource) Close() error {
	return d.db.Close()
}
