package strategy

import (
	"time"

	"github.com/sawpanic/optionrun/internal/domain"
	"github.com/sawpanic/optionrun/internal/market"
	"github.com/sawpanic/optionrun/internal/pricing"
)

// metaEventDay keys the target event date (unix days) in signal metadata
const metaEventDay = "event_day"

// Lotto buys cheap short-dated OTM options into scheduled macro events,
// betting on an outsized move. Small, frequent losses against occasional
// large wins; the risk budget is deliberately tiny.
type Lotto struct {
	eventWindow int // event must land within this many days
	optionDelta float64
	minDTE      int
	maxDTE      int
	profitMult  float64 // take profit at this multiple of the debit
	stopFrac    float64 // cut at this fraction of the debit lost
	riskBudget  float64
	rate        float64
}

// NewLotto builds the strategy from a parameter bundle
func NewLotto(p Params) *Lotto {
	return &Lotto{
		eventWindow: p.GetInt("event_window_days", 3),
		optionDelta: p.Get("option_delta", 0.20),
		minDTE:      p.GetInt("min_dte", 7),
		maxDTE:      p.GetInt("max_dte", 28),
		profitMult:  p.Get("profit_mult", 2.0),
		stopFrac:    p.Get("stop_frac", 0.50),
		riskBudget:  p.Get("risk_budget", 0.005),
		rate:        p.Get("risk_free_rate", defaultRiskFreeRate),
	}
}

func (s *Lotto) Name() string { return NameLotto }

// GenerateSignals fires only when a macro event is imminent
func (s *Lotto) GenerateSignals(snap *market.Snapshot) ([]domain.Signal, error) {
	var eventDay time.Time
	for _, ev := range snap.Events {
		if !ev.Date.Before(snap.Date) && daysBetween(snap.Date, ev.Date) <= s.eventWindow {
			eventDay = ev.Date
			break
		}
	}
	if eventDay.IsZero() {
		return nil, nil
	}

	var signals []domain.Signal
	for _, ticker := range snap.Tickers {
		if sig, ok := s.buildLotto(snap, ticker, eventDay); ok {
			signals = append(signals, sig)
		}
	}
	return signals, nil
}

func (s *Lotto) buildLotto(snap *market.Snapshot, ticker string, eventDay time.Time) (domain.Signal, bool) {
	spot := snap.Prices[ticker]
	vol := volFor(snap, ticker)

	expiry := expirationWithin(snap.Date, s.minDTE, s.maxDTE)
	if expiry.IsZero() || expiry.Before(eventDay) {
		return domain.Signal{}, false // option must outlive the event
	}
	years := pricing.YearsBetween(snap.Date, expiry)

	// Momentum picks the side of the bet
	bullish := snap.Oscillator[ticker] >= 50
	strike := pricing.StrikeForDelta(spot, s.optionDelta, years, s.rate, vol, bullish)
	if strike <= 0 {
		return domain.Signal{}, false
	}

	debit := pricing.Price(spot, strike, years, s.rate, vol, bullish)
	if debit <= 0 {
		return domain.Signal{}, false
	}

	legType := domain.LongCall
	direction := domain.DirectionLong
	if !bullish {
		legType = domain.LongPut
		direction = domain.DirectionShort
	}

	sig := domain.Signal{
		Strategy:  s.Name(),
		Ticker:    ticker,
		Direction: direction,
		Legs: []domain.TradeLeg{
			{Type: legType, Strike: strike, Expiration: expiry, EntryPrice: debit},
		},
		Debit:            debit,
		MaxLossPerUnit:   debit,
		MaxProfitPerUnit: debit * s.profitMult,
		ProfitTargetPct:  1.0,
		StopLossMult:     s.stopFrac,
		// Closer events score higher
		Score: float64(s.eventWindow-daysBetween(snap.Date, eventDay)) * 10,
		Meta: map[string]float64{
			metaEventDay: float64(eventDay.Unix() / 86400),
			"strike":     strike,
		},
	}
	if sig.Validate() != nil {
		return domain.Signal{}, false
	}
	return sig, true
}

// ManagePosition exits after the event passes, on targets, or at expiration
func (s *Lotto) ManagePosition(pos *domain.Position, snap *market.Snapshot) domain.Action {
	spot, ok := snap.Price(pos.Ticker)
	if !ok {
		return domain.Hold
	}

	expiry := pos.EarliestExpiration()
	if !expiry.IsZero() && !snap.Date.Before(expiry) {
		return domain.CloseExpiration
	}

	vol := volFor(snap, pos.Ticker)
	value := pricing.PositionValue(pos.Legs, spot, vol, snap.Date, s.rate)
	pnlPerUnit := value - pos.Debit

	if pnlPerUnit >= pos.Debit*s.profitMult {
		return domain.CloseProfitTarget
	}
	if pnlPerUnit <= -pos.Debit*s.stopFrac {
		return domain.CloseStopLoss
	}

	// The gamma window closes once the event is behind us
	if eventDay, ok := pos.Meta[metaEventDay]; ok {
		if float64(snap.Date.Unix()/86400) > eventDay {
			return domain.CloseEvent
		}
	}
	return domain.Hold
}

// SizePosition sizes against the deliberately small lotto budget
func (s *Lotto) SizePosition(sig domain.Signal, state domain.PortfolioState) int {
	return riskBudgetContracts(sig, state, s.riskBudget)
}

// ParameterSpace describes the tunable surface for the optimizer
func (s *Lotto) ParameterSpace() []Parameter {
	return []Parameter{
		{Name: "event_window_days", Min: 1, Max: 5, Step: 1, Default: 3},
		{Name: "option_delta", Min: 0.10, Max: 0.35, Step: 0.05, Default: 0.20},
		{Name: "min_dte", Min: 5, Max: 14, Step: 1, Default: 7},
		{Name: "max_dte", Min: 14, Max: 35, Step: 7, Default: 28},
		{Name: "profit_mult", Min: 1.0, Max: 4.0, Step: 0.5, Default: 2.0},
		{Name: "stop_frac", Min: 0.30, Max: 0.70, Step: 0.10, Default: 0.50},
		{Name: "risk_budget", Min: 0.0025, Max: 0.01, Step: 0.0025, Default: 0.005},
	}
}
