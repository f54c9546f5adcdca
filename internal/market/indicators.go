package market

import (
	"math"

	"github.com/sawpanic/optionrun/internal/data"
)

// Realized-vol clipping band, annualized
const (
	minRealizedVol = 0.10
	maxRealizedVol = 1.00
)

// SMA returns the simple moving average of the last n values
func SMA(values []float64, n int) float64 {
	if n <= 0 || len(values) < n {
		return 0
	}
	sum := 0.0
	for _, v := range values[len(values)-n:] {
		sum += v
	}
	return sum / float64(n)
}

// RSI returns the relative strength index over the given period.
// Neutral 50 when there is not enough history.
func RSI(closes []float64, period int) float64 {
	if period <= 0 || len(closes) < period+1 {
		return 50
	}

	gains, losses := 0.0, 0.0
	for i := len(closes) - period; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}

	if losses == 0 {
		if gains == 0 {
			return 50
		}
		return 100
	}
	rs := gains / losses
	return 100 - 100/(1+rs)
}

// RealizedVol returns an annualized true-range volatility proxy over the
// given window, clipped to [0.10, 1.00]. Falls back to the floor when the
// history is too short.
func RealizedVol(h data.History, window int) float64 {
	if window <= 0 || len(h) < window+1 {
		return minRealizedVol
	}

	sum := 0.0
	for i := len(h) - window; i < len(h); i++ {
		tr := trueRange(h[i], h[i-1])
		if h[i].Close > 0 {
			sum += tr / h[i].Close
		}
	}
	vol := sum / float64(window) * math.Sqrt(252)

	if vol < minRealizedVol {
		return minRealizedVol
	}
	if vol > maxRealizedVol {
		return maxRealizedVol
	}
	return vol
}

// trueRange is the session's range extended to cover gaps from prior close
func trueRange(bar, prev data.Bar) float64 {
	hl := bar.High - bar.Low
	hc := math.Abs(bar.High - prev.Close)
	lc := math.Abs(bar.Low - prev.Close)
	return math.Max(hl, math.Max(hc, lc))
}

// IVRank locates the current level inside its trailing window range,
// expressed 0-100. Returns 50 when the window is degenerate.
func IVRank(history data.History, current float64, window int) float64 {
	h := history
	if len(h) > window {
		h = h[len(h)-window:]
	}
	if len(h) < 2 {
		return 50
	}

	lo, hi := h[0].Close, h[0].Close
	for _, b := range h[1:] {
		if b.Close < lo {
			lo = b.Close
		}
		if b.Close > hi {
			hi = b.Close
		}
	}
	if hi <= lo {
		return 50
	}

	rank := (current - lo) / (hi - lo) * 100
	if rank < 0 {
		return 0
	}
	if rank > 100 {
		return 100
	}
	return rank
}
