package types

import (
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// Signal is a precomputed directional instruction attached to a bar.
type Signal int

const (
	// SignalShort instructs the simulator to be short after this bar.
	SignalShort Signal = -1
	// SignalNeutral instructs the simulator to be flat after this bar.
	SignalNeutral Signal = 0
	// SignalLong instructs the simulator to be long after this bar.
	SignalLong Signal = 1
)

// Validate checks that the signal is within the recognized domain.
func (s Signal) Validate() error {
	switch s {
	case SignalShort, SignalNeutral, SignalLong:
		return nil
	default:
		return errors.Newf(errors.ErrCodeInvalidSignal, "signal %d outside {-1, 0, 1}", int(s))
	}
}
