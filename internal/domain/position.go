package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Position is an accepted Signal promoted to a tracked open trade.
// Owned exclusively by the simulation loop; legs and entry economics are
// copied from the originating signal and never mutated afterward. A position
// is either open (no exit fields set) or closed (all exit fields set).
type Position struct {
	ID        string    `json:"id"`
	Strategy  string    `json:"strategy"`
	Ticker    string    `json:"ticker"`
	Direction Direction `json:"direction"`
	Legs      []TradeLeg `json:"legs"`

	Credit           float64 `json:"credit"`
	Debit            float64 `json:"debit"`
	MaxLossPerUnit   float64 `json:"max_loss_per_unit"`
	MaxProfitPerUnit float64 `json:"max_profit_per_unit"`
	ProfitTargetPct  float64 `json:"profit_target_pct"`
	StopLossMult     float64 `json:"stop_loss_mult"`

	Contracts      int       `json:"contracts"`
	EntryDate      time.Time `json:"entry_date"`
	CommissionPaid float64   `json:"commission_paid"`

	ExitDate    time.Time `json:"exit_date,omitempty"`
	ExitReason  Action    `json:"exit_reason,omitempty"`
	RealizedPnL float64   `json:"realized_pnl,omitempty"`

	// Meta carries strategy metadata copied from the originating signal
	Meta map[string]float64 `json:"meta,omitempty"`
}

// NewPosition promotes an accepted signal into an open position
func NewPosition(sig Signal, contracts int, entryDate time.Time) (*Position, error) {
	if err := sig.Validate(); err != nil {
		return nil, err
	}
	if contracts < 1 {
		return nil, fmt.Errorf("position requires contracts >= 1, got %d", contracts)
	}

	legs := make([]TradeLeg, len(sig.Legs))
	copy(legs, sig.Legs)

	var meta map[string]float64
	if len(sig.Meta) > 0 {
		meta = make(map[string]float64, len(sig.Meta))
		for k, v := range sig.Meta {
			meta[k] = v
		}
	}

	return &Position{
		ID:               uuid.New().String(),
		Strategy:         sig.Strategy,
		Ticker:           sig.Ticker,
		Direction:        sig.Direction,
		Legs:             legs,
		Credit:           sig.Credit,
		Debit:            sig.Debit,
		MaxLossPerUnit:   sig.MaxLossPerUnit,
		MaxProfitPerUnit: sig.MaxProfitPerUnit,
		ProfitTargetPct:  sig.ProfitTargetPct,
		StopLossMult:     sig.StopLossMult,
		Contracts:        contracts,
		EntryDate:        entryDate,
		Meta:             meta,
	}, nil
}

// IsOpen reports whether the position has not yet been closed
func (p *Position) IsOpen() bool {
	return p.ExitDate.IsZero()
}

// IsCredit reports whether the entry collected net premium
func (p *Position) IsCredit() bool {
	return p.Credit > 0
}

// EntryPremium returns the per-unit premium exchanged at entry
func (p *Position) EntryPremium() float64 {
	if p.IsCredit() {
		return p.Credit
	}
	return p.Debit
}

// RiskDollars returns the committed dollar risk of the position
func (p *Position) RiskDollars() float64 {
	return p.MaxLossPerUnit * float64(p.Contracts) * ContractMultiplier
}

// EarliestExpiration returns the nearest option expiration across legs,
// zero time if the position holds only underlying legs
func (p *Position) EarliestExpiration() time.Time {
	var earliest time.Time
	for _, leg := range p.Legs {
		if !leg.Type.IsOption() {
			continue
		}
		if earliest.IsZero() || leg.Expiration.Before(earliest) {
			earliest = leg.Expiration
		}
	}
	return earliest
}

// Close records the terminal state of the position. Closing twice is an
// engine-internal invariant violation and fails loudly.
func (p *Position) Close(date time.Time, reason Action, pnl float64) error {
	if !p.IsOpen() {
		return fmt.Errorf("position %s already closed on %s", p.ID, p.ExitDate.Format("2006-01-02"))
	}
	if !reason.Closes() {
		return fmt.Errorf("position %s cannot close with action %s", p.ID, reason)
	}
	p.ExitDate = date
	p.ExitReason = reason
	p.RealizedPnL = pnl
	return nil
}

// DaysHeld returns calendar days between entry and the given date
func (p *Position) DaysHeld(date time.Time) int {
	return int(date.Sub(p.EntryDate).Hours() / 24)
}
