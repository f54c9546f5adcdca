package engine

import (
	"github.com/sawpanic/optionrun/internal/domain"
)

// admit applies the admission checks in order: global position cap,
// per-strategy cap, heat cap with a one-unit risk estimate, and the
// ticker+strategy duplicate guard. A failing check silently skips the
// signal; later signals in the queue are still evaluated.
func (e *Engine) admit(st *runState, sig domain.Signal) bool {
	if len(st.open) >= e.cfg.MaxPositions {
		return false
	}

	byStrategy := 0
	for _, pos := range st.open {
		if pos.Strategy == sig.Strategy {
			byStrategy++
			if pos.Ticker == sig.Ticker {
				return false // already carrying this trade
			}
		}
	}
	if byStrategy >= e.cfg.MaxPerStrategy {
		return false
	}

	// One-unit estimate: whether even the smallest fill would breach the cap
	oneUnitRisk := sig.MaxLossPerUnit * domain.ContractMultiplier
	if e.committedRisk(st)+oneUnitRisk > st.cash*e.cfg.MaxPortfolioRisk {
		return false
	}
	return true
}

// committedRisk sums the open positions' dollar risk
func (e *Engine) committedRisk(st *runState) float64 {
	total := 0.0
	for _, pos := range st.open {
		total += pos.RiskDollars()
	}
	return total
}

// stateView snapshots the portfolio for a strategy's sizing call. Open
// positions are copied so strategies cannot reach the engine's arena.
func (e *Engine) stateView(st *runState) domain.PortfolioState {
	open := make([]domain.Position, len(st.open))
	for i, pos := range st.open {
		open[i] = *pos
	}
	return domain.PortfolioState{
		Equity:           st.cash,
		StartingCapital:  e.cfg.StartingCapital,
		Cash:             st.cash,
		OpenPositions:    open,
		CommittedRisk:    e.committedRisk(st),
		MaxPortfolioRisk: e.cfg.MaxPortfolioRisk,
	}
}
