package datasource

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// SliceBarSource serves bars from an in-memory series. Useful for tests
// and for callers that already hold their bars.
type SliceBarSource struct {
	bars types.BarSeries
}

func NewSliceBarSource(bars types.BarSeries) BarSource {
	return &SliceBarSource{
		bars: bars,
	}
}

// Initialize implements BarSource. The slice source has nothing to load.
func (s *SliceBarSource) Initialize(path string) error {
	return nil
}

func (s *SliceBarSource) inRange(bar *types.Bar, start optional.Option[time.Time], end optional.Option[time.Time]) bool {
	if start.IsSome() && bar.Time.Before(start.Unwrap()) {
		return false
	}

	if end.IsSome() && bar.Time.After(end.Unwrap()) {
		return false
	}

	return true
}

// ReadAll implements BarSource.
func (s *SliceBarSource) ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.Bar, error) bool) {
	return func(yield func(types.Bar, error) bool) {
		for i := range s.bars {
			if !s.inRange(&s.bars[i], start, end) {
				continue
			}

			if !yield(s.bars[i], nil) {
				return
			}
		}
	}
}

// Count implements BarSource.
func (s *SliceBarSource) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	count := 0

	for i := range s.bars {
		if s.inRange(&s.bars[i], start, end) {
			count++
		}
	}

	return count, nil
}

// Close implements BarSource.
func (s *SliceBarSource) Close() error {
	return nil
}
