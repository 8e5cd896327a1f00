package types

import (
	"math"
	"time"

	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// Bar is one OHLCV observation plus the signal computed for it.
type Bar struct {
	Time   time.Time `yaml:"time" json:"time" csv:"time"`
	Open   float64   `yaml:"open" json:"open" csv:"open"`
	High   float64   `yaml:"high" json:"high" csv:"high"`
	Low    float64   `yaml:"low" json:"low" csv:"low"`
	Close  float64   `yaml:"close" json:"close" csv:"close"`
	Volume float64   `yaml:"volume" json:"volume" csv:"volume"`
	Signal Signal    `yaml:"signal" json:"signal" csv:"signal"`
}

// Validate checks the OHLC consistency contract. Bars that fail here are
// upstream data-quality bugs, so the simulator refuses them instead of
// sanitizing.
func (b *Bar) Validate() error {
	for _, v := range []float64{b.Open, b.High, b.Low, b.Close} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return errors.Newf(errors.ErrCodeInvalidBar, "bar at %s has non-finite or non-positive price", b.Time)
		}
	}

	if math.IsNaN(b.Volume) || math.IsInf(b.Volume, 0) || b.Volume < 0 {
		return errors.Newf(errors.ErrCodeInvalidBar, "bar at %s has invalid volume %f", b.Time, b.Volume)
	}

	if b.High < math.Max(b.Open, b.Close) || b.Low > math.Min(b.Open, b.Close) {
		return errors.Newf(errors.ErrCodeInvalidBar, "bar at %s violates OHLC consistency", b.Time)
	}

	return b.Signal.Validate()
}

// BarSeries is a time-ascending sequence of bars.
type BarSeries []Bar

// Validate checks that the series is non-empty, every bar is valid, and
// timestamps are strictly increasing.
func (s BarSeries) Validate() error {
	if len(s) == 0 {
		return errors.New(errors.ErrCodeEmptyBarSeries, "bar series is empty")
	}

	for i := range s {
		if err := s[i].Validate(); err != nil {
			return err
		}

		if i > 0 && !s[i].Time.After(s[i-1].Time) {
			return errors.Newf(errors.ErrCodeBarsOutOfOrder, "bar at index %d is not after its predecessor", i)
		}
	}

	return nil
}
