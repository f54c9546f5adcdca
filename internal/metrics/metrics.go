// Package metrics computes performance summaries from a closed trade log
// and a daily equity curve.
package metrics

import (
	"math"
	"sort"
	"time"

	"github.com/sawpanic/optionrun/internal/domain"
)

// profitFactorCap stands in for infinity when a trade set has no losers
const profitFactorCap = 999.0

// Trade is one closed position in the trade log
type Trade struct {
	PositionID string    `json:"position_id"`
	Strategy   string    `json:"strategy"`
	Ticker     string    `json:"ticker"`
	Direction  string    `json:"direction"`
	Contracts  int       `json:"contracts"`
	EntryDate  time.Time `json:"entry_date"`
	ExitDate   time.Time `json:"exit_date"`
	ExitReason string    `json:"exit_reason"`
	NetCredit  float64   `json:"net_credit"` // per unit, negative for debit entries
	PnL        float64   `json:"pnl"`        // net of commissions
	ReturnPct  float64   `json:"return_pct"` // PnL over committed risk
	Commission float64   `json:"commission"` // round-trip, informational
	DaysHeld   int       `json:"days_held"`

	Legs []domain.TradeLeg `json:"legs,omitempty"`
}

// EquityPoint is one day on the equity curve
type EquityPoint struct {
	Date   time.Time `json:"date"`
	Equity float64   `json:"equity"`
}

// Summary aggregates the performance of a trade set
type Summary struct {
	Trades        int     `json:"trades"`
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
	WinRate       float64 `json:"win_rate"` // 0..1
	TotalPnL      float64 `json:"total_pnl"`
	AvgWin        float64 `json:"avg_win"`
	AvgLoss       float64 `json:"avg_loss"` // negative
	ProfitFactor  float64 `json:"profit_factor"`
	MaxWinStreak  int     `json:"max_win_streak"`
	MaxLossStreak int     `json:"max_loss_streak"`
	AvgDaysHeld   float64 `json:"avg_days_held"`

	SharpeRatio    float64 `json:"sharpe_ratio"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct"` // 0..1, peak to trough
	TotalReturnPct float64 `json:"total_return_pct"`

	MonthlyPnL map[string]float64 `json:"monthly_pnl"` // "2023-06" -> pnl
	YearlyPnL  map[int]float64    `json:"yearly_pnl"`
}

// Compute summarizes a trade log against its equity curve. Either input
// may be empty; the zero-valued fields then say what they can.
func Compute(trades []Trade, curve []EquityPoint) Summary {
	s := Summary{
		MonthlyPnL: make(map[string]float64),
		YearlyPnL:  make(map[int]float64),
	}

	ordered := make([]Trade, len(trades))
	copy(ordered, trades)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ExitDate.Before(ordered[j].ExitDate)
	})

	var grossWin, grossLoss, daysHeld float64
	var winStreak, lossStreak int
	for _, t := range ordered {
		s.Trades++
		s.TotalPnL += t.PnL
		daysHeld += float64(t.DaysHeld)

		// Attribute P&L to the exit date, when cash actually moves
		s.MonthlyPnL[t.ExitDate.Format("2006-01")] += t.PnL
		s.YearlyPnL[t.ExitDate.Year()] += t.PnL

		if t.PnL > 0 {
			s.Wins++
			grossWin += t.PnL
			winStreak++
			lossStreak = 0
		} else {
			s.Losses++
			grossLoss += -t.PnL
			lossStreak++
			winStreak = 0
		}
		if winStreak > s.MaxWinStreak {
			s.MaxWinStreak = winStreak
		}
		if lossStreak > s.MaxLossStreak {
			s.MaxLossStreak = lossStreak
		}
	}

	if s.Trades > 0 {
		s.WinRate = float64(s.Wins) / float64(s.Trades)
		s.AvgDaysHeld = daysHeld / float64(s.Trades)
	}
	if s.Wins > 0 {
		s.AvgWin = grossWin / float64(s.Wins)
	}
	if s.Losses > 0 {
		s.AvgLoss = -grossLoss / float64(s.Losses)
	}
	switch {
	case grossLoss > 0:
		s.ProfitFactor = grossWin / grossLoss
		if s.ProfitFactor > profitFactorCap {
			s.ProfitFactor = profitFactorCap
		}
	case grossWin > 0:
		s.ProfitFactor = profitFactorCap
	}

	s.SharpeRatio = sharpe(curve)
	s.MaxDrawdownPct = maxDrawdown(curve)
	if len(curve) > 1 && curve[0].Equity > 0 {
		s.TotalReturnPct = curve[len(curve)-1].Equity/curve[0].Equity - 1
	}
	return s
}

// sharpe annualizes the mean daily return over its sample stddev
func sharpe(curve []EquityPoint) float64 {
	if len(curve) < 3 {
		return 0
	}

	returns := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Equity
		if prev <= 0 {
			return 0
		}
		returns = append(returns, curve[i].Equity/prev-1)
	}

	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns) - 1)

	sd := math.Sqrt(variance)
	if sd == 0 {
		return 0
	}
	return mean / sd * math.Sqrt(252)
}

// maxDrawdown returns the deepest peak-to-trough decline as a fraction
func maxDrawdown(curve []EquityPoint) float64 {
	var peak, worst float64
	for _, p := range curve {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak > 0 {
			dd := (peak - p.Equity) / peak
			if dd > worst {
				worst = dd
			}
		}
	}
	return worst
}

// ByStrategy splits the trade log per strategy and summarizes each slice.
// Per-strategy equity curves are not tracked, so the curve-derived fields
// (Sharpe, drawdown, total return) stay zero in these summaries.
func ByStrategy(trades []Trade) map[string]Summary {
	buckets := make(map[string][]Trade)
	for _, t := range trades {
		buckets[t.Strategy] = append(buckets[t.Strategy], t)
	}
	out := make(map[string]Summary, len(buckets))
	for name, ts := range buckets {
		out[name] = Compute(ts, nil)
	}
	return out
}
