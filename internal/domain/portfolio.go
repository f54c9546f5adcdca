package domain

// PortfolioState is the read-only view handed to a strategy's sizing
// decision. Rebuilt fresh before each sizing call; open positions are
// copies, so a strategy can never reach the engine's arena through it.
type PortfolioState struct {
	Equity           float64    `json:"equity"`
	StartingCapital  float64    `json:"starting_capital"`
	Cash             float64    `json:"cash"`
	OpenPositions    []Position `json:"open_positions"`
	CommittedRisk    float64    `json:"committed_risk"`     // sum of RiskDollars over open positions
	MaxPortfolioRisk float64    `json:"max_portfolio_risk"` // heat cap, fraction of equity
}

// OpenByStrategy counts open positions belonging to the named strategy
func (ps *PortfolioState) OpenByStrategy(strategy string) int {
	n := 0
	for i := range ps.OpenPositions {
		if ps.OpenPositions[i].Strategy == strategy {
			n++
		}
	}
	return n
}

// RiskHeadroom returns the dollar risk still available under the heat cap
func (ps *PortfolioState) RiskHeadroom() float64 {
	headroom := ps.Equity*ps.MaxPortfolioRisk - ps.CommittedRisk
	if headroom < 0 {
		return 0
	}
	return headroom
}
