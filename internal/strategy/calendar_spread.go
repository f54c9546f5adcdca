package strategy

import (
	"github.com/sawpanic/optionrun/internal/domain"
	"github.com/sawpanic/optionrun/internal/market"
	"github.com/sawpanic/optionrun/internal/pricing"
	"github.com/sawpanic/optionrun/internal/regime"
)

// CalendarSpread buys a longer-dated ATM call and sells a nearer-dated one
// at the same strike, paying a net debit for the differential time decay.
// Wants cheap volatility and a quiet tape; the position is closed before
// the short leg expires.
type CalendarSpread struct {
	nearMinDTE   int
	nearMaxDTE   int
	farOffsetDays int
	maxIVRank    float64
	rsiLow       float64
	rsiHigh      float64
	profitTarget float64
	stopLossMult float64
	closeDTE     int
	riskBudget   float64
	rate         float64
}

// NewCalendarSpread builds the strategy from a parameter bundle
func NewCalendarSpread(p Params) *CalendarSpread {
	return &CalendarSpread{
		nearMinDTE:    p.GetInt("near_min_dte", 20),
		nearMaxDTE:    p.GetInt("near_max_dte", 40),
		farOffsetDays: p.GetInt("far_offset_days", 30),
		maxIVRank:     p.Get("max_iv_rank", 35),
		rsiLow:        p.Get("rsi_low", 40),
		rsiHigh:       p.Get("rsi_high", 60),
		profitTarget:  p.Get("profit_target", 0.40),
		stopLossMult:  p.Get("stop_loss_mult", 0.60),
		closeDTE:      p.GetInt("close_dte", 3),
		riskBudget:    p.Get("risk_budget", 0.015),
		rate:          p.Get("risk_free_rate", defaultRiskFreeRate),
	}
}

func (s *CalendarSpread) Name() string { return NameCalendarSpread }

// GenerateSignals proposes calendars on quiet, cheap-vol tickers
func (s *CalendarSpread) GenerateSignals(snap *market.Snapshot) ([]domain.Signal, error) {
	switch snap.Regime {
	case regime.HighVol, regime.Crash:
		return nil, nil
	}

	var signals []domain.Signal
	for _, ticker := range snap.Tickers {
		if snap.IVRank[ticker] > s.maxIVRank {
			continue // vol already rich, decay edge is gone
		}
		rsi := snap.Oscillator[ticker]
		if rsi < s.rsiLow || rsi > s.rsiHigh {
			continue
		}
		if sig, ok := s.buildCalendar(snap, ticker); ok {
			signals = append(signals, sig)
		}
	}
	return signals, nil
}

func (s *CalendarSpread) buildCalendar(snap *market.Snapshot, ticker string) (domain.Signal, bool) {
	spot := snap.Prices[ticker]
	vol := volFor(snap, ticker)

	nearExpiry := expirationWithin(snap.Date, s.nearMinDTE, s.nearMaxDTE)
	if nearExpiry.IsZero() {
		return domain.Signal{}, false
	}
	farExpiry := expirationWithin(nearExpiry, s.farOffsetDays-7, s.farOffsetDays+21)
	if farExpiry.IsZero() || !farExpiry.After(nearExpiry) {
		return domain.Signal{}, false
	}

	strike := pricing.StrikeForDelta(spot, 0.50, pricing.YearsBetween(snap.Date, nearExpiry), s.rate, vol, true)
	if strike <= 0 {
		return domain.Signal{}, false
	}

	nearPrice := pricing.Price(spot, strike, pricing.YearsBetween(snap.Date, nearExpiry), s.rate, vol, true)
	farPrice := pricing.Price(spot, strike, pricing.YearsBetween(snap.Date, farExpiry), s.rate, vol, true)
	debit := farPrice - nearPrice
	if debit <= 0 {
		return domain.Signal{}, false
	}

	sig := domain.Signal{
		Strategy:  s.Name(),
		Ticker:    ticker,
		Direction: domain.DirectionNeutral,
		Legs: []domain.TradeLeg{
			{Type: domain.ShortCall, Strike: strike, Expiration: nearExpiry, EntryPrice: nearPrice},
			{Type: domain.LongCall, Strike: strike, Expiration: farExpiry, EntryPrice: farPrice},
		},
		Debit:            debit,
		MaxLossPerUnit:   debit,
		MaxProfitPerUnit: debit, // decay capture roughly bounded by the debit paid
		ProfitTargetPct:  s.profitTarget,
		StopLossMult:     s.stopLossMult,
		Score:            (s.maxIVRank - snap.IVRank[ticker]) * 2,
		Meta: map[string]float64{
			"strike":  strike,
			"iv_rank": snap.IVRank[ticker],
		},
	}
	if sig.Validate() != nil {
		return domain.Signal{}, false
	}
	return sig, true
}

// ManagePosition closes ahead of the short leg's expiration
func (s *CalendarSpread) ManagePosition(pos *domain.Position, snap *market.Snapshot) domain.Action {
	return premiumExit{rate: s.rate, closeDTE: s.closeDTE}.manage(pos, snap)
}

// SizePosition sizes against the strategy risk budget and the heat cap
func (s *CalendarSpread) SizePosition(sig domain.Signal, state domain.PortfolioState) int {
	return riskBudgetContracts(sig, state, s.riskBudget)
}

// ParameterSpace describes the tunable surface for the optimizer
func (s *CalendarSpread) ParameterSpace() []Parameter {
	return []Parameter{
		{Name: "near_min_dte", Min: 15, Max: 30, Step: 5, Default: 20},
		{Name: "near_max_dte", Min: 30, Max: 50, Step: 5, Default: 40},
		{Name: "far_offset_days", Min: 21, Max: 60, Step: 7, Default: 30},
		{Name: "max_iv_rank", Min: 20, Max: 50, Step: 5, Default: 35},
		{Name: "profit_target", Min: 0.20, Max: 0.60, Step: 0.05, Default: 0.40},
		{Name: "risk_budget", Min: 0.005, Max: 0.03, Step: 0.005, Default: 0.015},
	}
}
