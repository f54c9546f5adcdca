package strategy

import (
	"github.com/sawpanic/optionrun/internal/domain"
	"github.com/sawpanic/optionrun/internal/market"
	"github.com/sawpanic/optionrun/internal/pricing"
	"github.com/sawpanic/optionrun/internal/regime"
)

// CreditSpread sells directional vertical spreads: put spreads under
// benign regimes with supportive momentum, call spreads in bear regimes.
// Premium collection with defined risk equal to width minus credit.
type CreditSpread struct {
	shortDelta    float64
	width         float64
	minDTE        int
	maxDTE        int
	minIVRank     float64
	minCreditFrac float64 // minimum credit as fraction of width
	profitTarget  float64
	stopLossMult  float64
	closeDTE      int
	eventBuffer   int
	maxWeekday    int // latest weekday to open (1=Mon .. 5=Fri)
	riskBudget    float64
	rate          float64
}

// NewCreditSpread builds the strategy from a parameter bundle
func NewCreditSpread(p Params) *CreditSpread {
	return &CreditSpread{
		shortDelta:    p.Get("short_delta", 0.30),
		width:         p.Get("width", 5),
		minDTE:        p.GetInt("min_dte", 30),
		maxDTE:        p.GetInt("max_dte", 45),
		minIVRank:     p.Get("min_iv_rank", 30),
		minCreditFrac: p.Get("min_credit_frac", 0.10),
		profitTarget:  p.Get("profit_target", 0.50),
		stopLossMult:  p.Get("stop_loss_mult", 2.0),
		closeDTE:      p.GetInt("close_dte", 1),
		eventBuffer:   p.GetInt("event_buffer_days", 2),
		maxWeekday:    p.GetInt("max_entry_weekday", 3),
		riskBudget:    p.Get("risk_budget", 0.02),
		rate:          p.Get("risk_free_rate", defaultRiskFreeRate),
	}
}

func (s *CreditSpread) Name() string { return NameCreditSpread }

// GenerateSignals scans for sellable spreads under the strategy gates
func (s *CreditSpread) GenerateSignals(snap *market.Snapshot) ([]domain.Signal, error) {
	if int(snap.Date.Weekday()) > s.maxWeekday {
		return nil, nil // no fresh premium into the weekend
	}
	if snap.EventWithin(s.eventBuffer) {
		return nil, nil
	}

	var signals []domain.Signal
	for _, ticker := range snap.Tickers {
		if snap.IVRank[ticker] < s.minIVRank {
			continue
		}

		var sellPuts bool
		switch snap.Regime {
		case regime.Bull, regime.LowVol:
			if snap.Oscillator[ticker] < 45 {
				continue
			}
			sellPuts = true
		case regime.Bear:
			if snap.Oscillator[ticker] > 55 {
				continue
			}
			sellPuts = false
		default:
			continue // stand aside in high_vol and crash
		}

		if sig, ok := s.buildSpread(snap, ticker, sellPuts); ok {
			signals = append(signals, sig)
		}
	}
	return signals, nil
}

func (s *CreditSpread) buildSpread(snap *market.Snapshot, ticker string, sellPuts bool) (domain.Signal, bool) {
	spot := snap.Prices[ticker]
	vol := volFor(snap, ticker)

	expiry := expirationWithin(snap.Date, s.minDTE, s.maxDTE)
	if expiry.IsZero() {
		return domain.Signal{}, false
	}
	years := pricing.YearsBetween(snap.Date, expiry)

	isCall := !sellPuts
	shortStrike := pricing.StrikeForDelta(spot, s.shortDelta, years, s.rate, vol, isCall)
	var longStrike float64
	if sellPuts {
		longStrike = shortStrike - s.width
	} else {
		longStrike = shortStrike + s.width
	}
	if shortStrike <= 0 || longStrike <= 0 {
		return domain.Signal{}, false
	}

	credit := pricing.Price(spot, shortStrike, years, s.rate, vol, isCall) -
		pricing.Price(spot, longStrike, years, s.rate, vol, isCall)
	if credit < s.width*s.minCreditFrac || credit >= s.width {
		return domain.Signal{}, false // not worth the risk, or mispriced
	}

	var legs []domain.TradeLeg
	direction := domain.DirectionLong
	if sellPuts {
		legs = []domain.TradeLeg{
			{Type: domain.ShortPut, Strike: shortStrike, Expiration: expiry, EntryPrice: pricing.Price(spot, shortStrike, years, s.rate, vol, false)},
			{Type: domain.LongPut, Strike: longStrike, Expiration: expiry, EntryPrice: pricing.Price(spot, longStrike, years, s.rate, vol, false)},
		}
	} else {
		direction = domain.DirectionShort
		legs = []domain.TradeLeg{
			{Type: domain.ShortCall, Strike: shortStrike, Expiration: expiry, EntryPrice: pricing.Price(spot, shortStrike, years, s.rate, vol, true)},
			{Type: domain.LongCall, Strike: longStrike, Expiration: expiry, EntryPrice: pricing.Price(spot, longStrike, years, s.rate, vol, true)},
		}
	}

	sig := domain.Signal{
		Strategy:         s.Name(),
		Ticker:           ticker,
		Direction:        direction,
		Legs:             legs,
		Credit:           credit,
		MaxLossPerUnit:   s.width - credit,
		MaxProfitPerUnit: credit,
		ProfitTargetPct:  s.profitTarget,
		StopLossMult:     s.stopLossMult,
		Score:            credit/s.width*100 + snap.IVRank[ticker]*0.25,
		Meta: map[string]float64{
			"short_strike": shortStrike,
			"long_strike":  longStrike,
			"iv_rank":      snap.IVRank[ticker],
		},
	}
	if sig.Validate() != nil {
		return domain.Signal{}, false
	}
	return sig, true
}

// ManagePosition applies the standard premium exit ladder
func (s *CreditSpread) ManagePosition(pos *domain.Position, snap *market.Snapshot) domain.Action {
	return premiumExit{rate: s.rate, closeDTE: s.closeDTE}.manage(pos, snap)
}

// SizePosition sizes against the strategy risk budget and the heat cap
func (s *CreditSpread) SizePosition(sig domain.Signal, state domain.PortfolioState) int {
	return riskBudgetContracts(sig, state, s.riskBudget)
}

// ParameterSpace describes the tunable surface for the optimizer
func (s *CreditSpread) ParameterSpace() []Parameter {
	return []Parameter{
		{Name: "short_delta", Min: 0.15, Max: 0.40, Step: 0.05, Default: 0.30},
		{Name: "width", Min: 1, Max: 10, Step: 1, Default: 5},
		{Name: "min_dte", Min: 20, Max: 40, Step: 5, Default: 30},
		{Name: "max_dte", Min: 40, Max: 60, Step: 5, Default: 45},
		{Name: "min_iv_rank", Min: 0, Max: 60, Step: 10, Default: 30},
		{Name: "profit_target", Min: 0.25, Max: 0.75, Step: 0.05, Default: 0.50},
		{Name: "stop_loss_mult", Min: 1.0, Max: 3.0, Step: 0.5, Default: 2.0},
		{Name: "risk_budget", Min: 0.005, Max: 0.05, Step: 0.005, Default: 0.02},
	}
}
