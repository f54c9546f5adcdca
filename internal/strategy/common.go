package strategy

import (
	"math"
	"time"

	"github.com/sawpanic/optionrun/internal/domain"
	"github.com/sawpanic/optionrun/internal/market"
	"github.com/sawpanic/optionrun/internal/pricing"
)

// Registry names for the built-in strategies
const (
	NameCreditSpread   = "credit_spread"
	NameIronCondor     = "iron_condor"
	NameCalendarSpread = "calendar_spread"
	NameDebitSpread    = "debit_spread"
	NameLotto          = "lotto"
	NameStraddle       = "straddle"
	NameMomentum       = "momentum"
)

const defaultRiskFreeRate = 0.04

// thirdFriday returns the monthly option expiration for a year/month
func thirdFriday(year int, month time.Month) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(time.Friday) - int(first.Weekday()) + 7) % 7
	return first.AddDate(0, 0, offset+14)
}

// expirationWithin returns the first monthly expiration whose DTE from the
// reference date falls inside [minDTE, maxDTE], or the earliest one past
// minDTE when no expiration lands in the window
func expirationWithin(date time.Time, minDTE, maxDTE int) time.Time {
	probe := date
	var firstPastMin time.Time
	for i := 0; i < 6; i++ {
		exp := thirdFriday(probe.Year(), probe.Month())
		dte := daysBetween(date, exp)
		if dte >= minDTE {
			if firstPastMin.IsZero() {
				firstPastMin = exp
			}
			if dte <= maxDTE {
				return exp
			}
		}
		probe = probe.AddDate(0, 1, 0)
	}
	return firstPastMin
}

// daysBetween returns whole calendar days from one date to another
func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

// volFor returns the snapshot's realized-vol proxy for a ticker, floor if absent
func volFor(snap *market.Snapshot, ticker string) float64 {
	if v, ok := snap.RealizedVol[ticker]; ok {
		return v
	}
	return 0.10
}

// riskBudgetContracts sizes a signal against the per-strategy risk budget
// and the portfolio heat cap. Returns 0 when even one contract would breach
// either limit.
func riskBudgetContracts(sig domain.Signal, state domain.PortfolioState, riskFraction float64) int {
	riskPerContract := sig.MaxLossPerUnit * domain.ContractMultiplier
	if riskPerContract <= 0 {
		return 0
	}

	budget := state.Equity * riskFraction
	byBudget := int(math.Floor(budget / riskPerContract))
	byHeat := int(math.Floor(state.RiskHeadroom() / riskPerContract))

	contracts := byBudget
	if byHeat < contracts {
		contracts = byHeat
	}
	if contracts < 1 {
		return 0
	}
	return contracts
}

// premiumExit holds the shared exit thresholds for premium positions
type premiumExit struct {
	rate     float64
	closeDTE int // close remaining positions this many days before expiration
}

// manage applies the standard premium exit ladder: expiration, then stop
// loss, then profit target, then time decay. Works for both credit and
// debit entries; mark-to-market goes through the pricing engine so entry
// economics and exit valuation share one model.
func (pe premiumExit) manage(pos *domain.Position, snap *market.Snapshot) domain.Action {
	spot, ok := snap.Price(pos.Ticker)
	if !ok {
		return domain.Hold // no data today, try again tomorrow
	}

	expiry := pos.EarliestExpiration()
	if !expiry.IsZero() && !snap.Date.Before(expiry) {
		return domain.CloseExpiration
	}

	vol := volFor(snap, pos.Ticker)
	value := pricing.PositionValue(pos.Legs, spot, vol, snap.Date, pe.rate)
	pnlPerUnit := value + pos.Credit - pos.Debit
	premium := pos.EntryPremium()

	if pos.StopLossMult > 0 && pnlPerUnit <= -premium*pos.StopLossMult {
		return domain.CloseStopLoss
	}
	if pos.ProfitTargetPct > 0 {
		var target float64
		if pos.IsCredit() {
			target = pos.Credit * pos.ProfitTargetPct
		} else {
			target = pos.MaxProfitPerUnit * pos.ProfitTargetPct
		}
		if target > 0 && pnlPerUnit >= target {
			return domain.CloseProfitTarget
		}
	}
	if pe.closeDTE > 0 && !expiry.IsZero() && daysBetween(snap.Date, expiry) <= pe.closeDTE {
		return domain.CloseTimeDecay
	}
	return domain.Hold
}
