package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(d int) time.Time {
	return time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, d)
}

func TestCompute_Empty(t *testing.T) {
	s := Compute(nil, nil)

	assert.Zero(t, s.Trades)
	assert.Zero(t, s.WinRate)
	assert.Zero(t, s.ProfitFactor)
	assert.Zero(t, s.SharpeRatio)
	assert.Zero(t, s.MaxDrawdownPct)
	assert.NotNil(t, s.MonthlyPnL)
	assert.NotNil(t, s.YearlyPnL)
}

func TestCompute_TradeStats(t *testing.T) {
	trades := []Trade{
		{Strategy: "credit_spread", PnL: 100, ExitDate: day(0), DaysHeld: 10},
		{Strategy: "credit_spread", PnL: 200, ExitDate: day(1), DaysHeld: 20},
		{Strategy: "credit_spread", PnL: -150, ExitDate: day(2), DaysHeld: 5},
		{Strategy: "credit_spread", PnL: -50, ExitDate: day(3), DaysHeld: 5},
		{Strategy: "credit_spread", PnL: 300, ExitDate: day(40), DaysHeld: 15},
	}

	s := Compute(trades, nil)

	assert.Equal(t, 5, s.Trades)
	assert.Equal(t, 3, s.Wins)
	assert.Equal(t, 2, s.Losses)
	assert.InDelta(t, 0.6, s.WinRate, 1e-9)
	assert.InDelta(t, 400, s.TotalPnL, 1e-9)
	assert.InDelta(t, 200, s.AvgWin, 1e-9)
	assert.InDelta(t, -100, s.AvgLoss, 1e-9)
	assert.InDelta(t, 3.0, s.ProfitFactor, 1e-9)
	assert.Equal(t, 2, s.MaxWinStreak)
	assert.Equal(t, 2, s.MaxLossStreak)
	assert.InDelta(t, 11, s.AvgDaysHeld, 1e-9)

	assert.InDelta(t, 100, s.MonthlyPnL["2023-06"], 1e-9, "June holds the first four exits")
	assert.InDelta(t, 300, s.MonthlyPnL["2023-07"], 1e-9)
	assert.InDelta(t, 400, s.YearlyPnL[2023], 1e-9)
}

func TestCompute_ProfitFactorCapped(t *testing.T) {
	trades := []Trade{
		{PnL: 100, ExitDate: day(0)},
		{PnL: 50, ExitDate: day(1)},
	}
	s := Compute(trades, nil)
	assert.Equal(t, 999.0, s.ProfitFactor, "no losers caps the factor instead of dividing by zero")

	trades = append(trades, Trade{PnL: -0.01, ExitDate: day(2)})
	s = Compute(trades, nil)
	assert.Equal(t, 999.0, s.ProfitFactor, "tiny loss still capped")
}

func TestCompute_StreaksOrderByExitDate(t *testing.T) {
	// Deliberately shuffled input; streaks follow exit chronology
	trades := []Trade{
		{PnL: -10, ExitDate: day(3)},
		{PnL: 10, ExitDate: day(0)},
		{PnL: -10, ExitDate: day(4)},
		{PnL: 10, ExitDate: day(1)},
		{PnL: -10, ExitDate: day(5)},
		{PnL: 10, ExitDate: day(2)},
	}
	s := Compute(trades, nil)
	assert.Equal(t, 3, s.MaxWinStreak)
	assert.Equal(t, 3, s.MaxLossStreak)
}

func TestCompute_CurveMetrics(t *testing.T) {
	curve := []EquityPoint{
		{Date: day(0), Equity: 100000},
		{Date: day(1), Equity: 102000},
		{Date: day(2), Equity: 101000},
		{Date: day(3), Equity: 96900}, // 5% off the 102000 peak
		{Date: day(4), Equity: 104000},
	}
	s := Compute(nil, curve)

	assert.InDelta(t, 0.05, s.MaxDrawdownPct, 1e-9)
	assert.InDelta(t, 0.04, s.TotalReturnPct, 1e-9)
	assert.NotZero(t, s.SharpeRatio)
}

func TestCompute_FlatCurveHasZeroSharpe(t *testing.T) {
	curve := []EquityPoint{
		{Date: day(0), Equity: 100000},
		{Date: day(1), Equity: 100000},
		{Date: day(2), Equity: 100000},
	}
	s := Compute(nil, curve)
	assert.Zero(t, s.SharpeRatio)
	assert.Zero(t, s.MaxDrawdownPct)
}

func TestByStrategy(t *testing.T) {
	trades := []Trade{
		{Strategy: "credit_spread", PnL: 100, ExitDate: day(0)},
		{Strategy: "credit_spread", PnL: -40, ExitDate: day(1)},
		{Strategy: "lotto", PnL: -20, ExitDate: day(1)},
	}

	by := ByStrategy(trades)
	assert.Len(t, by, 2)
	assert.Equal(t, 2, by["credit_spread"].Trades)
	assert.InDelta(t, 60, by["credit_spread"].TotalPnL, 1e-9)
	assert.Equal(t, 1, by["lotto"].Trades)
	assert.Zero(t, by["lotto"].SharpeRatio, "no per-strategy curve")
}
