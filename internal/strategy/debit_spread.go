package strategy

import (
	"github.com/sawpanic/optionrun/internal/domain"
	"github.com/sawpanic/optionrun/internal/market"
	"github.com/sawpanic/optionrun/internal/pricing"
	"github.com/sawpanic/optionrun/internal/regime"
)

// DebitSpread buys directional vertical spreads: call spreads on strong
// bullish momentum, put spreads on strong bearish momentum. Risk is the
// debit paid; reward is width minus debit.
type DebitSpread struct {
	longDelta    float64
	width        float64
	minDTE       int
	maxDTE       int
	rsiBull      float64
	rsiBear      float64
	maxDebitFrac float64 // maximum debit as fraction of width
	profitTarget float64
	stopLossMult float64
	closeDTE     int
	riskBudget   float64
	rate         float64
}

// NewDebitSpread builds the strategy from a parameter bundle
func NewDebitSpread(p Params) *DebitSpread {
	return &DebitSpread{
		longDelta:    p.Get("long_delta", 0.55),
		width:        p.Get("width", 5),
		minDTE:       p.GetInt("min_dte", 30),
		maxDTE:       p.GetInt("max_dte", 60),
		rsiBull:      p.Get("rsi_bull", 58),
		rsiBear:      p.Get("rsi_bear", 42),
		maxDebitFrac: p.Get("max_debit_frac", 0.60),
		profitTarget: p.Get("profit_target", 0.60),
		stopLossMult: p.Get("stop_loss_mult", 0.50),
		closeDTE:     p.GetInt("close_dte", 2),
		riskBudget:   p.Get("risk_budget", 0.015),
		rate:         p.Get("risk_free_rate", defaultRiskFreeRate),
	}
}

func (s *DebitSpread) Name() string { return NameDebitSpread }

// GenerateSignals proposes directional spreads where momentum and regime agree
func (s *DebitSpread) GenerateSignals(snap *market.Snapshot) ([]domain.Signal, error) {
	if snap.Regime == regime.Crash {
		return nil, nil
	}

	var signals []domain.Signal
	for _, ticker := range snap.Tickers {
		rsi := snap.Oscillator[ticker]

		var bullish bool
		switch {
		case snap.Regime == regime.Bull && rsi >= s.rsiBull:
			bullish = true
		case snap.Regime == regime.Bear && rsi <= s.rsiBear:
			bullish = false
		default:
			continue
		}

		if sig, ok := s.buildSpread(snap, ticker, bullish); ok {
			signals = append(signals, sig)
		}
	}
	return signals, nil
}

func (s *DebitSpread) buildSpread(snap *market.Snapshot, ticker string, bullish bool) (domain.Signal, bool) {
	spot := snap.Prices[ticker]
	vol := volFor(snap, ticker)

	expiry := expirationWithin(snap.Date, s.minDTE, s.maxDTE)
	if expiry.IsZero() {
		return domain.Signal{}, false
	}
	years := pricing.YearsBetween(snap.Date, expiry)

	isCall := bullish
	longStrike := pricing.StrikeForDelta(spot, s.longDelta, years, s.rate, vol, isCall)
	var shortStrike float64
	if bullish {
		shortStrike = longStrike + s.width
	} else {
		shortStrike = longStrike - s.width
	}
	if longStrike <= 0 || shortStrike <= 0 {
		return domain.Signal{}, false
	}

	debit := pricing.Price(spot, longStrike, years, s.rate, vol, isCall) -
		pricing.Price(spot, shortStrike, years, s.rate, vol, isCall)
	if debit <= 0 || debit > s.width*s.maxDebitFrac {
		return domain.Signal{}, false
	}

	direction := domain.DirectionLong
	legType, hedgeType := domain.LongCall, domain.ShortCall
	if !bullish {
		direction = domain.DirectionShort
		legType, hedgeType = domain.LongPut, domain.ShortPut
	}

	sig := domain.Signal{
		Strategy:  s.Name(),
		Ticker:    ticker,
		Direction: direction,
		Legs: []domain.TradeLeg{
			{Type: legType, Strike: longStrike, Expiration: expiry, EntryPrice: pricing.Price(spot, longStrike, years, s.rate, vol, isCall)},
			{Type: hedgeType, Strike: shortStrike, Expiration: expiry, EntryPrice: pricing.Price(spot, shortStrike, years, s.rate, vol, isCall)},
		},
		Debit:            debit,
		MaxLossPerUnit:   debit,
		MaxProfitPerUnit: s.width - debit,
		ProfitTargetPct:  s.profitTarget,
		StopLossMult:     s.stopLossMult,
		Score:            (s.width - debit) / debit * 20, // reward-to-risk weighted
		Meta: map[string]float64{
			"long_strike":  longStrike,
			"short_strike": shortStrike,
		},
	}
	if sig.Validate() != nil {
		return domain.Signal{}, false
	}
	return sig, true
}

// ManagePosition applies the standard premium exit ladder
func (s *DebitSpread) ManagePosition(pos *domain.Position, snap *market.Snapshot) domain.Action {
	return premiumExit{rate: s.rate, closeDTE: s.closeDTE}.manage(pos, snap)
}

// SizePosition sizes against the strategy risk budget and the heat cap
func (s *DebitSpread) SizePosition(sig domain.Signal, state domain.PortfolioState) int {
	return riskBudgetContracts(sig, state, s.riskBudget)
}

// ParameterSpace describes the tunable surface for the optimizer
func (s *DebitSpread) ParameterSpace() []Parameter {
	return []Parameter{
		{Name: "long_delta", Min: 0.40, Max: 0.70, Step: 0.05, Default: 0.55},
		{Name: "width", Min: 1, Max: 10, Step: 1, Default: 5},
		{Name: "rsi_bull", Min: 55, Max: 70, Step: 1, Default: 58},
		{Name: "rsi_bear", Min: 30, Max: 45, Step: 1, Default: 42},
		{Name: "max_debit_frac", Min: 0.40, Max: 0.70, Step: 0.05, Default: 0.60},
		{Name: "profit_target", Min: 0.40, Max: 0.80, Step: 0.05, Default: 0.60},
		{Name: "risk_budget", Min: 0.005, Max: 0.03, Step: 0.005, Default: 0.015},
	}
}
