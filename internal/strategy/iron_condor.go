package strategy

import (
	"github.com/sawpanic/optionrun/internal/domain"
	"github.com/sawpanic/optionrun/internal/market"
	"github.com/sawpanic/optionrun/internal/pricing"
	"github.com/sawpanic/optionrun/internal/regime"
)

// IronCondor sells a bull-put and a bear-call spread on the same
// underlying and expiration, profiting while price stays inside the short
// strikes. Only trades range-bound tape: neutral oscillator, elevated IV
// rank, no imminent macro events.
type IronCondor struct {
	shortDelta   float64
	width        float64
	minDTE       int
	maxDTE       int
	minIVRank    float64
	rsiLow       float64
	rsiHigh      float64
	profitTarget float64
	stopLossMult float64
	closeDTE     int
	eventBuffer  int
	riskBudget   float64
	rate         float64
}

// NewIronCondor builds the strategy from a parameter bundle
func NewIronCondor(p Params) *IronCondor {
	return &IronCondor{
		shortDelta:   p.Get("short_delta", 0.16),
		width:        p.Get("width", 5),
		minDTE:       p.GetInt("min_dte", 30),
		maxDTE:       p.GetInt("max_dte", 50),
		minIVRank:    p.Get("min_iv_rank", 25),
		rsiLow:       p.Get("rsi_low", 40),
		rsiHigh:      p.Get("rsi_high", 60),
		profitTarget: p.Get("profit_target", 0.50),
		stopLossMult: p.Get("stop_loss_mult", 1.5),
		closeDTE:     p.GetInt("close_dte", 2),
		eventBuffer:  p.GetInt("event_buffer_days", 3),
		riskBudget:   p.Get("risk_budget", 0.02),
		rate:         p.Get("risk_free_rate", defaultRiskFreeRate),
	}
}

func (s *IronCondor) Name() string { return NameIronCondor }

// GenerateSignals proposes condors on range-bound tickers
func (s *IronCondor) GenerateSignals(snap *market.Snapshot) ([]domain.Signal, error) {
	switch snap.Regime {
	case regime.HighVol, regime.Crash:
		return nil, nil
	}
	if snap.EventWithin(s.eventBuffer) {
		return nil, nil
	}

	var signals []domain.Signal
	for _, ticker := range snap.Tickers {
		rsi := snap.Oscillator[ticker]
		if rsi < s.rsiLow || rsi > s.rsiHigh {
			continue
		}
		if snap.IVRank[ticker] < s.minIVRank {
			continue
		}
		if sig, ok := s.buildCondor(snap, ticker); ok {
			signals = append(signals, sig)
		}
	}
	return signals, nil
}

func (s *IronCondor) buildCondor(snap *market.Snapshot, ticker string) (domain.Signal, bool) {
	spot := snap.Prices[ticker]
	vol := volFor(snap, ticker)

	expiry := expirationWithin(snap.Date, s.minDTE, s.maxDTE)
	if expiry.IsZero() {
		return domain.Signal{}, false
	}
	years := pricing.YearsBetween(snap.Date, expiry)

	shortPut := pricing.StrikeForDelta(spot, s.shortDelta, years, s.rate, vol, false)
	shortCall := pricing.StrikeForDelta(spot, s.shortDelta, years, s.rate, vol, true)
	longPut := shortPut - s.width
	longCall := shortCall + s.width
	if longPut <= 0 || shortCall <= shortPut {
		return domain.Signal{}, false
	}

	putCredit := pricing.Price(spot, shortPut, years, s.rate, vol, false) -
		pricing.Price(spot, longPut, years, s.rate, vol, false)
	callCredit := pricing.Price(spot, shortCall, years, s.rate, vol, true) -
		pricing.Price(spot, longCall, years, s.rate, vol, true)
	credit := putCredit + callCredit
	if credit <= 0 || credit >= s.width {
		return domain.Signal{}, false
	}

	legs := []domain.TradeLeg{
		{Type: domain.ShortPut, Strike: shortPut, Expiration: expiry, EntryPrice: pricing.Price(spot, shortPut, years, s.rate, vol, false)},
		{Type: domain.LongPut, Strike: longPut, Expiration: expiry, EntryPrice: pricing.Price(spot, longPut, years, s.rate, vol, false)},
		{Type: domain.ShortCall, Strike: shortCall, Expiration: expiry, EntryPrice: pricing.Price(spot, shortCall, years, s.rate, vol, true)},
		{Type: domain.LongCall, Strike: longCall, Expiration: expiry, EntryPrice: pricing.Price(spot, longCall, years, s.rate, vol, true)},
	}

	// Only one side can finish in the money, so risk is one wing
	sig := domain.Signal{
		Strategy:         s.Name(),
		Ticker:           ticker,
		Direction:        domain.DirectionNeutral,
		Legs:             legs,
		Credit:           credit,
		MaxLossPerUnit:   s.width - credit,
		MaxProfitPerUnit: credit,
		ProfitTargetPct:  s.profitTarget,
		StopLossMult:     s.stopLossMult,
		Score:            credit/s.width*100 + snap.IVRank[ticker]*0.25,
		Meta: map[string]float64{
			"short_put":  shortPut,
			"short_call": shortCall,
			"iv_rank":    snap.IVRank[ticker],
		},
	}
	if sig.Validate() != nil {
		return domain.Signal{}, false
	}
	return sig, true
}

// ManagePosition applies the standard premium exit ladder
func (s *IronCondor) ManagePosition(pos *domain.Position, snap *market.Snapshot) domain.Action {
	return premiumExit{rate: s.rate, closeDTE: s.closeDTE}.manage(pos, snap)
}

// SizePosition sizes against the strategy risk budget and the heat cap
func (s *IronCondor) SizePosition(sig domain.Signal, state domain.PortfolioState) int {
	return riskBudgetContracts(sig, state, s.riskBudget)
}

// ParameterSpace describes the tunable surface for the optimizer
func (s *IronCondor) ParameterSpace() []Parameter {
	return []Parameter{
		{Name: "short_delta", Min: 0.10, Max: 0.25, Step: 0.02, Default: 0.16},
		{Name: "width", Min: 1, Max: 10, Step: 1, Default: 5},
		{Name: "min_iv_rank", Min: 0, Max: 60, Step: 5, Default: 25},
		{Name: "rsi_low", Min: 30, Max: 45, Step: 5, Default: 40},
		{Name: "rsi_high", Min: 55, Max: 70, Step: 5, Default: 60},
		{Name: "profit_target", Min: 0.25, Max: 0.75, Step: 0.05, Default: 0.50},
		{Name: "stop_loss_mult", Min: 1.0, Max: 2.5, Step: 0.5, Default: 1.5},
		{Name: "risk_budget", Min: 0.005, Max: 0.05, Step: 0.005, Default: 0.02},
	}
}
