package strategy

import (
	"github.com/sawpanic/optionrun/internal/domain"
	"github.com/sawpanic/optionrun/internal/market"
	"github.com/sawpanic/optionrun/internal/pricing"
	"github.com/sawpanic/optionrun/internal/regime"
)

// Straddle trades volatility in both directions: long ATM straddles when
// the vol rank is depressed ahead of an event, short OTM strangles when vol
// is rich and the regime is calm. The short side has no hard structural
// floor, so its max loss is modeled as the stop level and the stop is the
// risk control.
type Straddle struct {
	lowIVRank     float64 // at or below: buy the straddle
	highIVRank    float64 // at or above: sell the strangle
	strangleDelta float64
	minDTE        int
	maxDTE        int
	eventWindow   int // long side wants an event inside this window
	profitTarget  float64
	stopLossMult  float64
	closeDTE      int
	riskBudget    float64
	rate          float64
}

// NewStraddle builds the strategy from a parameter bundle
func NewStraddle(p Params) *Straddle {
	return &Straddle{
		lowIVRank:     p.Get("low_iv_rank", 20),
		highIVRank:    p.Get("high_iv_rank", 60),
		strangleDelta: p.Get("strangle_delta", 0.16),
		minDTE:        p.GetInt("min_dte", 25),
		maxDTE:        p.GetInt("max_dte", 50),
		eventWindow:   p.GetInt("event_window_days", 7),
		profitTarget:  p.Get("profit_target", 0.50),
		stopLossMult:  p.Get("stop_loss_mult", 2.0),
		closeDTE:      p.GetInt("close_dte", 5),
		riskBudget:    p.Get("risk_budget", 0.015),
		rate:          p.Get("risk_free_rate", defaultRiskFreeRate),
	}
}

func (s *Straddle) Name() string { return NameStraddle }

// GenerateSignals proposes long straddles on cheap vol, short strangles on rich vol
func (s *Straddle) GenerateSignals(snap *market.Snapshot) ([]domain.Signal, error) {
	var signals []domain.Signal
	for _, ticker := range snap.Tickers {
		ivRank := snap.IVRank[ticker]

		switch {
		case ivRank <= s.lowIVRank && snap.EventWithin(s.eventWindow):
			if sig, ok := s.buildLongStraddle(snap, ticker); ok {
				signals = append(signals, sig)
			}
		case ivRank >= s.highIVRank && (snap.Regime == regime.Bull || snap.Regime == regime.LowVol):
			if sig, ok := s.buildShortStrangle(snap, ticker); ok {
				signals = append(signals, sig)
			}
		}
	}
	return signals, nil
}

func (s *Straddle) buildLongStraddle(snap *market.Snapshot, ticker string) (domain.Signal, bool) {
	spot := snap.Prices[ticker]
	vol := volFor(snap, ticker)

	expiry := expirationWithin(snap.Date, s.minDTE, s.maxDTE)
	if expiry.IsZero() {
		return domain.Signal{}, false
	}
	years := pricing.YearsBetween(snap.Date, expiry)

	strike := pricing.StrikeForDelta(spot, 0.50, years, s.rate, vol, true)
	if strike <= 0 {
		return domain.Signal{}, false
	}

	callPrice := pricing.Price(spot, strike, years, s.rate, vol, true)
	putPrice := pricing.Price(spot, strike, years, s.rate, vol, false)
	debit := callPrice + putPrice
	if debit <= 0 {
		return domain.Signal{}, false
	}

	sig := domain.Signal{
		Strategy:  s.Name(),
		Ticker:    ticker,
		Direction: domain.DirectionNeutral,
		Legs: []domain.TradeLeg{
			{Type: domain.LongCall, Strike: strike, Expiration: expiry, EntryPrice: callPrice},
			{Type: domain.LongPut, Strike: strike, Expiration: expiry, EntryPrice: putPrice},
		},
		Debit:            debit,
		MaxLossPerUnit:   debit,
		MaxProfitPerUnit: debit, // target scale, upside is open-ended
		ProfitTargetPct:  s.profitTarget,
		StopLossMult:     0.50,
		Score:            (s.lowIVRank - snap.IVRank[ticker]) * 3,
		Meta:             map[string]float64{"strike": strike, "iv_rank": snap.IVRank[ticker]},
	}
	if sig.Validate() != nil {
		return domain.Signal{}, false
	}
	return sig, true
}

func (s *Straddle) buildShortStrangle(snap *market.Snapshot, ticker string) (domain.Signal, bool) {
	spot := snap.Prices[ticker]
	vol := volFor(snap, ticker)

	expiry := expirationWithin(snap.Date, s.minDTE, s.maxDTE)
	if expiry.IsZero() {
		return domain.Signal{}, false
	}
	years := pricing.YearsBetween(snap.Date, expiry)

	putStrike := pricing.StrikeForDelta(spot, s.strangleDelta, years, s.rate, vol, false)
	callStrike := pricing.StrikeForDelta(spot, s.strangleDelta, years, s.rate, vol, true)
	if putStrike <= 0 || callStrike <= putStrike {
		return domain.Signal{}, false
	}

	putPrice := pricing.Price(spot, putStrike, years, s.rate, vol, false)
	callPrice := pricing.Price(spot, callStrike, years, s.rate, vol, true)
	credit := putPrice + callPrice
	if credit <= 0 {
		return domain.Signal{}, false
	}

	sig := domain.Signal{
		Strategy:  s.Name(),
		Ticker:    ticker,
		Direction: domain.DirectionNeutral,
		Legs: []domain.TradeLeg{
			{Type: domain.ShortPut, Strike: putStrike, Expiration: expiry, EntryPrice: putPrice},
			{Type: domain.ShortCall, Strike: callStrike, Expiration: expiry, EntryPrice: callPrice},
		},
		Credit: credit,
		// Undefined-risk structure: the stop level is the modeled max loss
		MaxLossPerUnit:   credit * s.stopLossMult,
		MaxProfitPerUnit: credit,
		ProfitTargetPct:  s.profitTarget,
		StopLossMult:     s.stopLossMult,
		Score:            snap.IVRank[ticker],
		Meta:             map[string]float64{"put_strike": putStrike, "call_strike": callStrike, "iv_rank": snap.IVRank[ticker]},
	}
	if sig.Validate() != nil {
		return domain.Signal{}, false
	}
	return sig, true
}

// ManagePosition applies the standard premium exit ladder
func (s *Straddle) ManagePosition(pos *domain.Position, snap *market.Snapshot) domain.Action {
	return premiumExit{rate: s.rate, closeDTE: s.closeDTE}.manage(pos, snap)
}

// SizePosition sizes against the strategy risk budget and the heat cap
func (s *Straddle) SizePosition(sig domain.Signal, state domain.PortfolioState) int {
	return riskBudgetContracts(sig, state, s.riskBudget)
}

// ParameterSpace describes the tunable surface for the optimizer
func (s *Straddle) ParameterSpace() []Parameter {
	return []Parameter{
		{Name: "low_iv_rank", Min: 10, Max: 30, Step: 5, Default: 20},
		{Name: "high_iv_rank", Min: 50, Max: 80, Step: 5, Default: 60},
		{Name: "strangle_delta", Min: 0.10, Max: 0.25, Step: 0.02, Default: 0.16},
		{Name: "event_window_days", Min: 3, Max: 10, Step: 1, Default: 7},
		{Name: "profit_target", Min: 0.25, Max: 0.75, Step: 0.05, Default: 0.50},
		{Name: "stop_loss_mult", Min: 1.5, Max: 3.0, Step: 0.5, Default: 2.0},
		{Name: "risk_budget", Min: 0.005, Max: 0.03, Step: 0.005, Default: 0.015},
	}
}
