package engine

import (
	"time"

	"github.com/sawpanic/optionrun/internal/metrics"
)

// Results is the complete output of one backtest run: the sole interface
// handed to reporting, persistence, and any downstream optimizer.
type Results struct {
	RunID           string    `json:"run_id,omitempty"`
	Reference       string    `json:"reference"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	TradingDays     int       `json:"trading_days"`
	StartingCapital float64   `json:"starting_capital"`
	EndingEquity    float64   `json:"ending_equity"`
	TotalCommission float64   `json:"total_commission"`

	Combined   metrics.Summary            `json:"combined"`
	ByStrategy map[string]metrics.Summary `json:"by_strategy"`

	Trades      []metrics.Trade       `json:"trades"`
	EquityCurve []metrics.EquityPoint `json:"equity_curve"`
}

func (e *Engine) assembleResults(st *runState, dates []time.Time) *Results {
	totalCommission := 0.0
	for _, pos := range st.closed {
		totalCommission += pos.CommissionPaid
	}

	return &Results{
		Reference:       e.cfg.ReferenceTicker,
		Start:           dates[0],
		End:             dates[len(dates)-1],
		TradingDays:     len(dates),
		StartingCapital: e.cfg.StartingCapital,
		EndingEquity:    st.cash,
		TotalCommission: totalCommission,
		Combined:        metrics.Compute(st.trades, st.curve),
		ByStrategy:      metrics.ByStrategy(st.trades),
		Trades:          st.trades,
		EquityCurve:     st.curve,
	}
}
