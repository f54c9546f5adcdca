// Package pricing implements closed-form Black-Scholes option valuation and
// multi-leg position marking. It is the single source of truth for "what
// would it cost to close this position today": entry credit estimation and
// exit mark-to-market both go through PositionValue.
package pricing

import (
	"math"
	"time"

	"github.com/sawpanic/optionrun/internal/domain"
)

const (
	// MinYearsToExpiry floors time-to-expiration to avoid the T->0 singularity
	MinYearsToExpiry = 1.0 / 365.0

	// MinVolatility floors sigma; a zero-vol lognormal is degenerate
	MinVolatility = 0.05

	daysPerYear = 365.0
)

// normCDF is the standard normal cumulative distribution function
func normCDF(x float64) float64 {
	return 0.5 * (1.0 + math.Erf(x/math.Sqrt2))
}

// Intrinsic returns the exercise value of a single option
func Intrinsic(spot, strike float64, call bool) float64 {
	if call {
		return math.Max(0, spot-strike)
	}
	return math.Max(0, strike-spot)
}

// Price returns the Black-Scholes price of a European option.
// Degenerate inputs (non-positive spot or strike) collapse to intrinsic
// value rather than erroring; time and volatility are clamped to floors.
func Price(spot, strike, years, rate, vol float64, call bool) float64 {
	if spot <= 0 || strike <= 0 {
		return Intrinsic(spot, strike, call)
	}
	if years < MinYearsToExpiry {
		years = MinYearsToExpiry
	}
	if vol < MinVolatility {
		vol = MinVolatility
	}

	sqrtT := math.Sqrt(years)
	d1 := (math.Log(spot/strike) + (rate+0.5*vol*vol)*years) / (vol * sqrtT)
	d2 := d1 - vol*sqrtT
	discount := math.Exp(-rate * years)

	var price float64
	if call {
		price = spot*normCDF(d1) - strike*discount*normCDF(d2)
	} else {
		price = strike*discount*normCDF(-d2) - spot*normCDF(-d1)
	}
	return math.Max(0, price)
}

// Delta returns the Black-Scholes delta, used as a proxy for the
// probability an option expires in-the-money. Calls in [0,1], puts in [-1,0].
func Delta(spot, strike, years, rate, vol float64, call bool) float64 {
	if spot <= 0 || strike <= 0 {
		if Intrinsic(spot, strike, call) > 0 {
			if call {
				return 1
			}
			return -1
		}
		return 0
	}
	if years < MinYearsToExpiry {
		years = MinYearsToExpiry
	}
	if vol < MinVolatility {
		vol = MinVolatility
	}

	d1 := (math.Log(spot/strike) + (rate+0.5*vol*vol)*years) / (vol * math.Sqrt(years))
	if call {
		return normCDF(d1)
	}
	return normCDF(d1) - 1
}

// StrikeForDelta returns the strike whose absolute delta is closest to
// target, scanned on a one-point grid around spot. Used by strategies to
// place short strikes at a target assignment probability.
func StrikeForDelta(spot, target, years, rate, vol float64, call bool) float64 {
	if spot <= 0 {
		return 0
	}
	step := strikeStep(spot)

	best := spot
	bestDiff := math.MaxFloat64
	for k := spot * 0.5; k <= spot*1.5; k += step {
		strike := math.Round(k/step) * step
		diff := math.Abs(math.Abs(Delta(spot, strike, years, rate, vol, call)) - target)
		if diff < bestDiff {
			bestDiff = diff
			best = strike
		}
	}
	return best
}

// strikeStep picks the listed strike increment for a given spot level
func strikeStep(spot float64) float64 {
	switch {
	case spot < 25:
		return 0.5
	case spot < 200:
		return 1
	default:
		return 5
	}
}

// YearsBetween returns the year fraction from one date to a later date,
// never negative
func YearsBetween(from, to time.Time) float64 {
	days := to.Sub(from).Hours() / 24
	if days < 0 {
		return 0
	}
	return days / daysPerYear
}

// PositionValue returns the signed per-unit liquidation value of a set of
// legs: the premium received (long legs) minus the premium paid back (short
// legs) if the position were closed at theoretical prices as of the given
// date. Legs past expiration are valued at intrinsic only. Underlying legs
// contribute +/- spot.
func PositionValue(legs []domain.TradeLeg, spot, vol float64, asOf time.Time, rate float64) float64 {
	value := 0.0
	for _, leg := range legs {
		value += LegValue(leg, spot, vol, asOf, rate)
	}
	return value
}

// LegValue returns the signed per-unit value of one leg as of a date
func LegValue(leg domain.TradeLeg, spot, vol float64, asOf time.Time, rate float64) float64 {
	if !leg.Type.IsOption() {
		return leg.Type.Sign() * spot
	}

	years := YearsBetween(asOf, leg.Expiration)
	var price float64
	if years <= 0 {
		price = Intrinsic(spot, leg.Strike, leg.Type.IsCall())
	} else {
		price = Price(spot, leg.Strike, years, rate, vol, leg.Type.IsCall())
	}
	return leg.Type.Sign() * price
}

// SettlementValue returns the signed per-unit value of the legs settled at
// expiration: piecewise intrinsic for options, linear for underlying legs.
func SettlementValue(legs []domain.TradeLeg, spot float64) float64 {
	value := 0.0
	for _, leg := range legs {
		if leg.Type.IsOption() {
			value += leg.Type.Sign() * Intrinsic(spot, leg.Strike, leg.Type.IsCall())
		} else {
			value += leg.Type.Sign() * spot
		}
	}
	return value
}
