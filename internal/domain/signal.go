package domain

import (
	"fmt"
	"time"
)

// Signal is a candidate trade proposed by a strategy for the current day.
// Created fresh each day; discarded if not accepted by admission control.
// Exactly one of Credit/Debit is positive: Credit for net-premium-received
// entries, Debit for net-premium-paid entries (both per unit).
type Signal struct {
	Strategy  string    `json:"strategy"`
	Ticker    string    `json:"ticker"`
	Direction Direction `json:"direction"`
	Legs      []TradeLeg `json:"legs"`

	Credit           float64 `json:"credit"`
	Debit            float64 `json:"debit"`
	MaxLossPerUnit   float64 `json:"max_loss_per_unit"`
	MaxProfitPerUnit float64 `json:"max_profit_per_unit"`

	ProfitTargetPct float64 `json:"profit_target_pct"` // fraction of entry premium to capture
	StopLossMult    float64 `json:"stop_loss_mult"`    // multiple of entry premium

	Score float64   `json:"score"`
	Date  time.Time `json:"date"` // stamped by the engine when pooled

	Meta map[string]float64 `json:"meta,omitempty"`
}

// IsCredit reports whether the entry collects net premium
func (s *Signal) IsCredit() bool {
	return s.Credit > 0
}

// EntryPremium returns the per-unit premium exchanged at entry,
// positive regardless of credit/debit orientation
func (s *Signal) EntryPremium() float64 {
	if s.IsCredit() {
		return s.Credit
	}
	return s.Debit
}

// Validate rejects economically invalid signals before they can reach
// admission control: non-positive max loss, missing premium, or a
// credit/debit both set.
func (s *Signal) Validate() error {
	if s.Strategy == "" {
		return fmt.Errorf("signal missing strategy name")
	}
	if s.Ticker == "" {
		return fmt.Errorf("signal missing ticker")
	}
	if len(s.Legs) == 0 {
		return fmt.Errorf("signal %s/%s has no legs", s.Strategy, s.Ticker)
	}
	if s.Credit > 0 && s.Debit > 0 {
		return fmt.Errorf("signal %s/%s has both credit %.2f and debit %.2f", s.Strategy, s.Ticker, s.Credit, s.Debit)
	}
	if s.Credit <= 0 && s.Debit <= 0 {
		return fmt.Errorf("signal %s/%s has non-positive entry premium", s.Strategy, s.Ticker)
	}
	if s.MaxLossPerUnit <= 0 {
		return fmt.Errorf("signal %s/%s has non-positive max loss %.4f", s.Strategy, s.Ticker, s.MaxLossPerUnit)
	}
	return nil
}
