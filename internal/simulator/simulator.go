package simulator

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Simulator replays a bar series against its precomputed signals,
// maintaining position and cash state bar by bar. A single Run is
// strictly sequential; independent runs may execute concurrently as long
// as each owns its own state.
type Simulator struct {
	logger *logger.Logger
}

func NewSimulator(log *logger.Logger) *Simulator {
	return &Simulator{
		logger: log,
	}
}

// Run replays bars under cfg and returns one result row per bar plus the
// chronological trade list. The run is deterministic: identical inputs
// produce identical outputs.
func (s *Simulator) Run(bars types.BarSeries, cfg Config) (types.ResultSeries, []types.Trade, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	if err := bars.Validate(); err != nil {
		return nil, nil, err
	}

	state := newTradeState(cfg.InitialCapital)
	results := make(types.ResultSeries, 0, len(bars))

	var trades []types.Trade

	prevEquity := cfg.InitialCapital

	for i := range bars {
		bar := &bars[i]
		row := types.ResultRow{Time: bar.Time}

		// Holding counter advances in elapsed bars, not calendar time,
		// so the exit rules are frequency-agnostic.
		if state.Position != 0 {
			state.HoldingPeriods++
		}

		trigger := s.evaluateExitTriggers(state, bar.Close, cfg)

		shouldClose := state.Position != 0 &&
			(trigger.IsSome() || int(bar.Signal) == -state.Position || bar.Signal == types.SignalNeutral)

		if shouldClose {
			reason := types.ExitReasonSignal
			if trigger.IsSome() {
				reason = trigger.Unwrap()
			}

			closeRec, commission := s.closePosition(state, &trades[len(trades)-1], bar, reason, cfg)

			row.ExitPrice = closeRec.ExitPrice
			row.ExitTime = closeRec.ExitTime
			row.ExitReason = closeRec.ExitReason
			row.HoldingPeriods = closeRec.HoldingPeriods
			row.TradeProfit = closeRec.Profit
			row.Commission += commission

			state.resetPosition()
		}

		if state.Position == 0 && bar.Signal != types.SignalNeutral {
			trade, commission := s.openPosition(state, bar, cfg)
			trades = append(trades, trade)
			row.Commission += commission
		}

		state.CurrentEquity = state.CurrentCapital + state.unrealizedProfit(bar.Close)

		row.Position = state.Position
		row.EntryPrice = state.EntryPrice
		row.EntryTime = state.EntryTime
		row.Capital = state.CurrentCapital
		row.Equity = state.CurrentEquity
		row.Shares = state.Shares
		row.TradeValue = state.EntryValue

		if state.Position != 0 {
			row.HoldingPeriods = state.HoldingPeriods
		}

		if i > 0 && prevEquity != 0 {
			row.Returns = state.CurrentEquity/prevEquity - 1
		}

		prevEquity = state.CurrentEquity
		results = append(results, row)
	}

	s.logger.Debug("Simulation finished",
		zap.Int("bars", len(bars)),
		zap.Int("trades", len(trades)),
		zap.Float64("final_equity", prevEquity),
	)

	return results, trades, nil
}

// evaluateExitTriggers checks the configured exit rules against the bar
// close. The first matching rule wins: stop loss, then take profit, then
// max holding. Unset thresholds are skipped.
func (s *Simulator) evaluateExitTriggers(state *TradeState, closePrice float64, cfg Config) optional.Option[types.ExitReason] {
	if state.Position == 0 {
		return optional.None[types.ExitReason]()
	}

	if cfg.StopLossPct.IsSome() {
		pct := cfg.StopLossPct.Unwrap()

		longStop := state.Position == 1 && closePrice <= state.EntryPrice*(1-pct)
		shortStop := state.Position == -1 && closePrice >= state.EntryPrice*(1+pct)

		if longStop || shortStop {
			return optional.Some(types.ExitReasonStopLoss)
		}
	}

	if cfg.TakeProfitPct.IsSome() {
		pct := cfg.TakeProfitPct.Unwrap()

		longTarget := state.Position == 1 && closePrice >= state.EntryPrice*(1+pct)
		shortTarget := state.Position == -1 && closePrice <= state.EntryPrice*(1-pct)

		if longTarget || shortTarget {
			return optional.Some(types.ExitReasonTakeProfit)
		}
	}

	if cfg.MaxHoldingPeriods.IsSome() && state.HoldingPeriods >= cfg.MaxHoldingPeriods.Unwrap() {
		return optional.Some(types.ExitReasonMaxHolding)
	}

	return optional.None[types.ExitReason]()
}

// closePosition fills the open position at the bar close with slippage
// against the holder, charges commission, applies the cash flow and
// stamps the trade's close record.
func (s *Simulator) closePosition(state *TradeState, trade *types.Trade, bar *types.Bar, reason types.ExitReason, cfg Config) (types.TradeClose, float64) {
	one := decimal.NewFromInt(1)
	closeDec := decimal.NewFromFloat(bar.Close)
	slipDec := decimal.NewFromFloat(cfg.SlippagePct)

	var exitDec decimal.Decimal
	if state.Position == 1 {
		exitDec = closeDec.Mul(one.Sub(slipDec))
	} else {
		exitDec = closeDec.Mul(one.Add(slipDec))
	}

	proceedsDec := decimal.NewFromInt(state.Shares).Mul(exitDec)
	commissionDec := proceedsDec.Mul(decimal.NewFromFloat(cfg.CommissionPct))

	minDec := decimal.NewFromFloat(cfg.MinCommission)
	if commissionDec.LessThan(minDec) {
		commissionDec = minDec
	}

	entryValueDec := decimal.NewFromFloat(state.EntryValue)
	capitalDec := decimal.NewFromFloat(state.CurrentCapital)

	var profitDec decimal.Decimal
	if state.Position == 1 {
		profitDec = proceedsDec.Sub(entryValueDec).Sub(commissionDec)
		capitalDec = capitalDec.Add(proceedsDec.Sub(commissionDec))
	} else {
		profitDec = entryValueDec.Sub(proceedsDec).Sub(commissionDec)
		capitalDec = capitalDec.Sub(proceedsDec.Add(commissionDec))
	}

	returnPct := 0.0
	if state.EntryValue != 0 {
		returnPct, _ = profitDec.Div(entryValueDec).Float64()
	}

	profit, _ := profitDec.Float64()
	exitPrice, _ := exitDec.Float64()
	commission, _ := commissionDec.Float64()
	state.CurrentCapital, _ = capitalDec.Float64()

	closeRec := types.TradeClose{
		ExitTime:       bar.Time,
		ExitPrice:      exitPrice,
		ExitReason:     reason,
		Profit:         profit,
		ReturnPct:      returnPct,
		HoldingPeriods: state.HoldingPeriods,
	}
	trade.Close = optional.Some(closeRec)

	s.logger.Debug("Closed position",
		zap.Time("time", bar.Time),
		zap.String("reason", string(reason)),
		zap.Float64("exit_price", exitPrice),
		zap.Float64("profit", profit),
	)

	return closeRec, commission
}

// openPosition fills a new position at the bar close with slippage
// against the holder, sizes it from capital, and applies the cash flow.
func (s *Simulator) openPosition(state *TradeState, bar *types.Bar, cfg Config) (types.Trade, float64) {
	one := decimal.NewFromInt(1)
	closeDec := decimal.NewFromFloat(bar.Close)
	slipDec := decimal.NewFromFloat(cfg.SlippagePct)

	direction := types.DirectionLong

	var entryDec decimal.Decimal
	if bar.Signal == types.SignalLong {
		entryDec = closeDec.Mul(one.Add(slipDec))
	} else {
		direction = types.DirectionShort
		entryDec = closeDec.Mul(one.Sub(slipDec))
	}

	sizingCapital := cfg.InitialCapital
	if cfg.EnableCompound {
		sizingCapital = state.CurrentCapital
	}

	tradeValueDec := decimal.NewFromFloat(sizingCapital).Mul(decimal.NewFromFloat(cfg.PositionSize))

	// No fractional shares: floor the monetary amount by the fill price.
	shares := tradeValueDec.Div(entryDec).Floor().IntPart()
	if shares < 0 {
		shares = 0
	}

	entryValueDec := decimal.NewFromInt(shares).Mul(entryDec)
	commissionDec := entryValueDec.Mul(decimal.NewFromFloat(cfg.CommissionPct))

	minDec := decimal.NewFromFloat(cfg.MinCommission)
	if commissionDec.LessThan(minDec) {
		commissionDec = minDec
	}

	capitalDec := decimal.NewFromFloat(state.CurrentCapital)
	if direction == types.DirectionLong {
		capitalDec = capitalDec.Sub(entryValueDec.Add(commissionDec))
	} else {
		capitalDec = capitalDec.Add(entryValueDec.Sub(commissionDec))
	}

	entryPrice, _ := entryDec.Float64()
	entryValue, _ := entryValueDec.Float64()
	commission, _ := commissionDec.Float64()
	tradeValue, _ := tradeValueDec.Float64()
	state.CurrentCapital, _ = capitalDec.Float64()

	state.Position = direction.Sign()
	state.EntryPrice = entryPrice
	state.EntryTime = bar.Time
	state.HoldingPeriods = 0
	state.Shares = shares
	state.EntryValue = entryValue

	s.logger.Debug("Opened position",
		zap.Time("time", bar.Time),
		zap.String("direction", string(direction)),
		zap.Float64("entry_price", entryPrice),
		zap.Int64("shares", shares),
	)

	return types.Trade{
		EntryTime:       bar.Time,
		EntryPrice:      entryPrice,
		Direction:       direction,
		Shares:          shares,
		TradeValue:      tradeValue,
		EntryCommission: commission,
		Close:           optional.None[types.TradeClose](),
	}, commission
}
