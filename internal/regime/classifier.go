// Package regime tags each trading day with a discrete market regime from
// volatility level and trend direction. Strategies and the snapshot builder
// consume the tag; nothing here mutates shared state.
package regime

import (
	"github.com/sawpanic/optionrun/internal/data"
)

// Regime is the market regime classification for one day
type Regime int

const (
	Bull Regime = iota
	Bear
	HighVol
	LowVol
	Crash
)

func (r Regime) String() string {
	switch r {
	case Bull:
		return "bull"
	case Bear:
		return "bear"
	case HighVol:
		return "high_vol"
	case LowVol:
		return "low_vol"
	case Crash:
		return "crash"
	default:
		return "unknown"
	}
}

// Config holds classification thresholds
type Config struct {
	CrashVix       float64 `yaml:"crash_vix"`        // Default: 40
	CrashDrop      float64 `yaml:"crash_drop"`       // Default: -0.05 over CrashLookback sessions
	CrashLookback  int     `yaml:"crash_lookback"`   // Default: 10
	HighVolVix     float64 `yaml:"high_vol_vix"`     // Default: 30
	BearVix        float64 `yaml:"bear_vix"`         // Default: 25
	BullVix        float64 `yaml:"bull_vix"`         // Default: 20
	LowVolVix      float64 `yaml:"low_vol_vix"`      // Default: 15
	TrendWindow    int     `yaml:"trend_window"`     // SMA window, default: 20
	TrendLookback  int     `yaml:"trend_lookback"`   // Sessions between SMA readings, default: 20
	TrendThreshold float64 `yaml:"trend_threshold"`  // Annualized fraction/year, default: 0.05
}

// DefaultConfig returns the production thresholds
func DefaultConfig() Config {
	return Config{
		CrashVix:       40,
		CrashDrop:      -0.05,
		CrashLookback:  10,
		HighVolVix:     30,
		BearVix:        25,
		BullVix:        20,
		LowVolVix:      15,
		TrendWindow:    20,
		TrendLookback:  20,
		TrendThreshold: 0.05,
	}
}

// Classifier performs rule-based regime classification
type Classifier struct {
	config Config
}

// New creates a classifier with the given thresholds
func New(config Config) *Classifier {
	return &Classifier{config: config}
}

// Classify tags one day given the volatility index level and the reference
// price history up to and including that day.
//
// Priority order: crash, high_vol, bear, bull, low_vol. Ambiguous
// combinations fall toward the nearest directional label, with a final
// fallback to bull when genuinely flat and vix is not low. The bullish
// default is intentional and kept for behavioral compatibility with
// historical runs (see DESIGN.md).
func (c *Classifier) Classify(vix float64, history data.History) Regime {
	if vix > c.config.CrashVix && c.recentReturn(history) < c.config.CrashDrop {
		return Crash
	}
	if vix > c.config.HighVolVix {
		return HighVol
	}

	trend := c.trendDirection(history)

	switch {
	case vix > c.config.BearVix && trend < 0:
		return Bear
	case vix < c.config.BullVix && trend > 0:
		return Bull
	case vix < c.config.LowVolVix && trend == 0:
		return LowVol
	}

	// Ambiguous zone: lean on whatever directional signal exists
	if trend < 0 {
		return Bear
	}
	if trend > 0 {
		return Bull
	}
	if vix < c.config.LowVolVix {
		return LowVol
	}
	return Bull
}

// recentReturn computes the fractional return over the crash lookback window
func (c *Classifier) recentReturn(history data.History) float64 {
	n := c.config.CrashLookback
	if len(history) <= n {
		return 0
	}
	then := history[len(history)-1-n].Close
	now := history[len(history)-1].Close
	if then <= 0 {
		return 0
	}
	return (now - then) / then
}

// trendDirection returns +1, 0 or -1 from the annualized slope of the
// rolling moving average
func (c *Classifier) trendDirection(history data.History) int {
	window := c.config.TrendWindow
	lookback := c.config.TrendLookback
	closes := history.Closes()
	if len(closes) < window+lookback {
		return 0
	}

	now := mean(closes[len(closes)-window:])
	then := mean(closes[len(closes)-window-lookback : len(closes)-lookback])
	if then <= 0 {
		return 0
	}

	annualized := (now - then) / then * 252.0 / float64(lookback)
	if annualized > c.config.TrendThreshold {
		return 1
	}
	if annualized < -c.config.TrendThreshold {
		return -1
	}
	return 0
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
