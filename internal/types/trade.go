package types

import (
	"time"

	"github.com/moznion/go-optional"
)

type Direction string

const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
)

// Sign returns +1 for long and -1 for short.
func (d Direction) Sign() int {
	if d == DirectionShort {
		return -1
	}

	return 1
}

type ExitReason string

const (
	ExitReasonStopLoss   ExitReason = "Stop Loss"
	ExitReasonTakeProfit ExitReason = "Take Profit"
	ExitReasonMaxHolding ExitReason = "Max Holding"
	ExitReasonSignal     ExitReason = "Signal"
)

// TradeClose holds the fields that exist only once a trade has been
// closed out.
type TradeClose struct {
	ExitTime       time.Time  `yaml:"exit_time" json:"exit_time" csv:"exit_time"`
	ExitPrice      float64    `yaml:"exit_price" json:"exit_price" csv:"exit_price"`
	ExitReason     ExitReason `yaml:"exit_reason" json:"exit_reason" csv:"exit_reason"`
	Profit         float64    `yaml:"profit" json:"profit" csv:"profit"`
	ReturnPct      float64    `yaml:"return_pct" json:"return_pct" csv:"return_pct"`
	HoldingPeriods int        `yaml:"holding_periods" json:"holding_periods" csv:"holding_periods"`
}

// Trade is one opened position. The close fields are present only for
// completed trades, so consumers cannot read an exit price off a trade
// that is still open.
type Trade struct {
	EntryTime       time.Time `yaml:"entry_time" json:"entry_time" csv:"entry_time"`
	EntryPrice      float64   `yaml:"entry_price" json:"entry_price" csv:"entry_price"`
	Direction       Direction `yaml:"direction" json:"direction" csv:"direction"`
	Shares          int64     `yaml:"shares" json:"shares" csv:"shares"`
	TradeValue      float64   `yaml:"trade_value" json:"trade_value" csv:"trade_value"`
	EntryCommission float64   `yaml:"entry_commission" json:"entry_commission" csv:"entry_commission"`

	Close optional.Option[TradeClose] `yaml:"close" json:"close" csv:"-"`
}

// IsClosed reports whether the trade has been completed.
func (t *Trade) IsClosed() bool {
	return t.Close.IsSome()
}

// Result returns the close record of a completed trade. The boolean is
// false while the trade is still open.
func (t *Trade) Result() (TradeClose, bool) {
	if t.Close.IsNone() {
		return TradeClose{}, false
	}

	return t.Close.Unwrap(), true
}
