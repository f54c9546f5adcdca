package engine

import (
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/optionrun/internal/domain"
	"github.com/sawpanic/optionrun/internal/market"
	"github.com/sawpanic/optionrun/internal/metrics"
	"github.com/sawpanic/optionrun/internal/pricing"
)

// closePosition settles one position and moves it to the closed set.
// Expiration closes settle at piecewise intrinsic value; every other exit
// reason marks to market through the pricing engine. No cash moved at
// entry besides commission, so the whole per-unit P&L
// (value + credit − debit) is realized here.
func (e *Engine) closePosition(st *runState, pos *domain.Position, snap *market.Snapshot, reason domain.Action) error {
	spot, ok := snap.Price(pos.Ticker)
	if !ok {
		// Ticker has no bar today; settle against its last known close
		if hist, found := e.store.History(pos.Ticker); found {
			if last, has := hist.UpTo(snap.Date).Last(); has {
				spot = last.Close
				ok = true
			}
		}
	}
	if !ok {
		log.Warn().Str("position", pos.ID).Str("ticker", pos.Ticker).
			Msg("No price history at close, settling at zero value")
	}

	var valuePerUnit, slippagePerUnit float64
	if reason == domain.CloseExpiration {
		// Exercise and assignment happen at intrinsic, no crossing of a spread
		valuePerUnit = pricing.SettlementValue(pos.Legs, spot)
	} else {
		vol := 0.10
		if v, has := snap.RealizedVol[pos.Ticker]; has {
			vol = v
		}
		valuePerUnit = pricing.PositionValue(pos.Legs, spot, vol, snap.Date, e.cfg.RiskFreeRate)
		slippagePerUnit = e.cfg.Slippage
	}

	units := float64(pos.Contracts) * domain.ContractMultiplier
	gross := (valuePerUnit + pos.Credit - pos.Debit) * units
	slippage := slippagePerUnit * units
	exitCommission := e.commission(pos)

	st.cash += gross - slippage - exitCommission
	pos.CommissionPaid += exitCommission

	net := gross - slippage - pos.CommissionPaid
	if err := pos.Close(snap.Date, reason, net); err != nil {
		return err // double close is state corruption, fail the run
	}

	st.closed = append(st.closed, pos)
	st.trades = append(st.trades, e.tradeRecord(pos))
	for _, o := range e.observers {
		o.OnClose(pos)
	}
	log.Debug().
		Str("position", pos.ID).
		Str("strategy", pos.Strategy).
		Str("reason", reason.String()).
		Float64("pnl", net).
		Msg("Position closed")
	return nil
}

// commission prices one side of the round trip
func (e *Engine) commission(pos *domain.Position) float64 {
	return e.cfg.CommissionPerLeg * float64(len(pos.Legs)) * float64(pos.Contracts)
}

// tradeRecord converts a closed position into its trade-log entry
func (e *Engine) tradeRecord(pos *domain.Position) metrics.Trade {
	returnPct := 0.0
	if risk := pos.RiskDollars(); risk > 0 {
		returnPct = pos.RealizedPnL / risk
	}
	return metrics.Trade{
		PositionID: pos.ID,
		Strategy:   pos.Strategy,
		Ticker:     pos.Ticker,
		Direction:  string(pos.Direction),
		Contracts:  pos.Contracts,
		EntryDate:  pos.EntryDate,
		ExitDate:   pos.ExitDate,
		ExitReason: pos.ExitReason.String(),
		NetCredit:  pos.Credit - pos.Debit,
		PnL:        pos.RealizedPnL,
		ReturnPct:  returnPct,
		Commission: pos.CommissionPaid,
		DaysHeld:   pos.DaysHeld(pos.ExitDate),
		Legs:       pos.Legs,
	}
}
