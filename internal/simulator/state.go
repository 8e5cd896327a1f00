package simulator

import (
	"time"
)

// TradeState is the mutable per-run simulation state. It is owned by
// exactly one Run call and never shared.
type TradeState struct {
	// Position is -1 (short), 0 (flat) or 1 (long).
	Position int
	// EntryPrice is the post-slippage fill price of the open position.
	EntryPrice float64
	// EntryTime is the bar time the open position was entered at.
	EntryTime time.Time
	// HoldingPeriods counts bars elapsed since entry.
	HoldingPeriods int
	// Shares held by the open position. Always non-negative.
	Shares int64
	// EntryValue is the capital committed at entry, post slippage.
	EntryValue float64
	// CurrentCapital is cash. It changes only on trade open and close.
	CurrentCapital float64
	// CurrentEquity is capital plus unrealized profit.
	CurrentEquity float64
}

func newTradeState(initialCapital float64) *TradeState {
	return &TradeState{
		Position:       0,
		CurrentCapital: initialCapital,
		CurrentEquity:  initialCapital,
	}
}

// resetPosition flattens the state after a close, leaving capital and
// equity untouched.
func (s *TradeState) resetPosition() {
	s.Position = 0
	s.EntryPrice = 0
	s.EntryTime = time.Time{}
	s.HoldingPeriods = 0
	s.Shares = 0
	s.EntryValue = 0
}

// unrealizedProfit marks the open position to the given close price. A
// long contributes its market value, a short its buyback liability,
// balancing the cash flow applied at entry. Returns 0 when flat.
func (s *TradeState) unrealizedProfit(closePrice float64) float64 {
	switch s.Position {
	case 1:
		return float64(s.Shares) * closePrice
	case -1:
		return -float64(s.Shares) * closePrice
	default:
		return 0
	}
}
