package strategy

import (
	"github.com/sawpanic/optionrun/internal/domain"
	"github.com/sawpanic/optionrun/internal/market"
	"github.com/sawpanic/optionrun/internal/regime"
)

// Momentum is the one non-options strategy: swing trades in the underlying
// riding regime-confirmed momentum, long in bull tape and short in bear
// tape. One unit is one round lot. Risk per unit is the stop distance, not
// the full notional.
type Momentum struct {
	entryRSI   float64 // long side: RSI must clear this
	exitRSI    float64 // long side: RSI falling through this exits
	smaWindow  int
	stopPct    float64
	targetPct  float64
	maxHold    int // sessions before a time exit
	riskBudget float64
}

// NewMomentum builds the strategy from a parameter bundle
func NewMomentum(p Params) *Momentum {
	return &Momentum{
		entryRSI:   p.Get("entry_rsi", 58),
		exitRSI:    p.Get("exit_rsi", 48),
		smaWindow:  p.GetInt("sma_window", 50),
		stopPct:    p.Get("stop_pct", 0.05),
		targetPct:  p.Get("target_pct", 0.10),
		maxHold:    p.GetInt("max_hold_days", 30),
		riskBudget: p.Get("risk_budget", 0.01),
	}
}

func (s *Momentum) Name() string { return NameMomentum }

// GenerateSignals proposes swing entries where trend, regime and oscillator align
func (s *Momentum) GenerateSignals(snap *market.Snapshot) ([]domain.Signal, error) {
	if snap.Regime == regime.Crash || snap.Regime == regime.HighVol {
		return nil, nil
	}

	var signals []domain.Signal
	for _, ticker := range snap.Tickers {
		hist := snap.Histories[ticker]
		sma := market.SMA(hist.Closes(), s.smaWindow)
		if sma <= 0 {
			continue // not enough history
		}

		spot := snap.Prices[ticker]
		rsi := snap.Oscillator[ticker]

		var long bool
		switch {
		case snap.Regime == regime.Bull && rsi >= s.entryRSI && spot > sma:
			long = true
		case snap.Regime == regime.Bear && rsi <= 100-s.entryRSI && spot < sma:
			long = false
		default:
			continue
		}

		sig := s.buildSwing(ticker, spot, rsi, long)
		if sig.Validate() == nil {
			signals = append(signals, sig)
		}
	}
	return signals, nil
}

func (s *Momentum) buildSwing(ticker string, spot, rsi float64, long bool) domain.Signal {
	legType := domain.LongUnderlying
	direction := domain.DirectionLong
	sig := domain.Signal{
		Strategy:         NameMomentum,
		Ticker:           ticker,
		MaxLossPerUnit:   spot * s.stopPct,
		MaxProfitPerUnit: spot * s.targetPct,
		ProfitTargetPct:  1.0,
		StopLossMult:     1.0,
	}

	if long {
		sig.Debit = spot
		sig.Score = rsi - 50
	} else {
		legType = domain.ShortUnderlying
		direction = domain.DirectionShort
		sig.Credit = spot
		sig.Score = 50 - rsi
	}
	sig.Direction = direction
	sig.Legs = []domain.TradeLeg{{Type: legType, EntryPrice: spot}}
	sig.Meta = map[string]float64{"entry_spot": spot, "rsi": rsi}
	return sig
}

// ManagePosition exits on stop, target, oscillator reversal, or time
func (s *Momentum) ManagePosition(pos *domain.Position, snap *market.Snapshot) domain.Action {
	spot, ok := snap.Price(pos.Ticker)
	if !ok {
		return domain.Hold
	}

	entry := pos.Meta["entry_spot"]
	if entry <= 0 {
		entry = pos.EntryPremium()
	}

	long := pos.Direction == domain.DirectionLong
	var move float64
	if long {
		move = (spot - entry) / entry
	} else {
		move = (entry - spot) / entry
	}

	if move <= -s.stopPct {
		return domain.CloseStopLoss
	}
	if move >= s.targetPct {
		return domain.CloseProfitTarget
	}

	rsi := snap.Oscillator[pos.Ticker]
	if long && rsi < s.exitRSI {
		return domain.CloseSignalExit
	}
	if !long && rsi > 100-s.exitRSI {
		return domain.CloseSignalExit
	}

	if pos.DaysHeld(snap.Date) >= s.maxHold {
		return domain.CloseTimeDecay
	}
	return domain.Hold
}

// SizePosition risks the stop distance against the strategy budget
func (s *Momentum) SizePosition(sig domain.Signal, state domain.PortfolioState) int {
	return riskBudgetContracts(sig, state, s.riskBudget)
}

// ParameterSpace describes the tunable surface for the optimizer
func (s *Momentum) ParameterSpace() []Parameter {
	return []Parameter{
		{Name: "entry_rsi", Min: 52, Max: 70, Step: 2, Default: 58},
		{Name: "exit_rsi", Min: 40, Max: 52, Step: 2, Default: 48},
		{Name: "sma_window", Min: 20, Max: 100, Step: 10, Default: 50},
		{Name: "stop_pct", Min: 0.02, Max: 0.10, Step: 0.01, Default: 0.05},
		{Name: "target_pct", Min: 0.05, Max: 0.20, Step: 0.025, Default: 0.10},
		{Name: "max_hold_days", Min: 10, Max: 60, Step: 5, Default: 30},
		{Name: "risk_budget", Min: 0.005, Max: 0.03, Step: 0.005, Default: 0.01},
	}
}
