package datasource

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// BarSource supplies the validated, time-ascending bar sequence consumed
// by the simulator. Implementations own data cleaning: rows with
// non-finite values or inconsistent OHLC never reach the caller.
type BarSource interface {
	// Initialize initializes the source with the given data path.
	Initialize(path string) error
	// ReadAll reads all bars within the optional time range and yields
	// them to the caller in ascending time order.
	ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.Bar, error) bool)
	// Count returns the number of bars within the optional time range.
	Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error)
	// Close closes the source and releases any resources.
	Close() error
}

// ReadSeries drains a source into a BarSeries.
func ReadSeries(source BarSource, start optional.Option[time.Time], end optional.Option[time.Time]) (types.BarSeries, error) {
	var series types.BarSeries

	var readErr error

	source.ReadAll(start, end)(func(bar types.Bar, err error) bool {
		if err != nil {
			readErr = err

			return false
		}

		series = append(series, bar)

		return true
	})

	if readErr != nil {
		return nil, readErr
	}

	return series, nil
}
