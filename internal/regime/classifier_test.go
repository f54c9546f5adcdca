package regime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sawpanic/optionrun/internal/data"
)

// trendingHistory builds a daily close series with a constant per-session
// fractional drift, long enough for the trend windows
func trendingHistory(days int, start, drift float64) data.History {
	h := make(data.History, days)
	price := start
	date := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := 0; i < days; i++ {
		h[i] = data.Bar{Date: date, Open: price, High: price * 1.005, Low: price * 0.995, Close: price, Volume: 1e6}
		price *= 1 + drift
		date = date.AddDate(0, 0, 1)
	}
	return h
}

func TestClassify_SpecScenarios(t *testing.T) {
	c := New(DefaultConfig())

	t.Run("vix 45 with sharp decline is crash", func(t *testing.T) {
		h := trendingHistory(60, 450, -0.008) // about -8% over 10 sessions
		assert.Equal(t, Crash, c.Classify(45, h))
	})

	t.Run("vix 18 with positive trend is bull", func(t *testing.T) {
		h := trendingHistory(60, 400, 0.002)
		assert.Equal(t, Bull, c.Classify(18, h))
	})

	t.Run("vix 12 flat trend is low_vol", func(t *testing.T) {
		h := trendingHistory(60, 400, 0)
		assert.Equal(t, LowVol, c.Classify(12, h))
	})
}

func TestClassify_PriorityOrder(t *testing.T) {
	c := New(DefaultConfig())

	t.Run("high vix without decline is high_vol not crash", func(t *testing.T) {
		h := trendingHistory(60, 400, 0.001)
		assert.Equal(t, HighVol, c.Classify(45, h))
	})

	t.Run("vix 32 beats any trend", func(t *testing.T) {
		h := trendingHistory(60, 400, 0.003)
		assert.Equal(t, HighVol, c.Classify(32, h))
	})

	t.Run("vix 28 with negative trend is bear", func(t *testing.T) {
		h := trendingHistory(60, 400, -0.003)
		assert.Equal(t, Bear, c.Classify(28, h))
	})
}

func TestClassify_AmbiguousZone(t *testing.T) {
	c := New(DefaultConfig())

	t.Run("mid vix negative trend leans bear", func(t *testing.T) {
		h := trendingHistory(60, 400, -0.003)
		assert.Equal(t, Bear, c.Classify(22, h))
	})

	t.Run("mid vix positive trend leans bull", func(t *testing.T) {
		h := trendingHistory(60, 400, 0.003)
		assert.Equal(t, Bull, c.Classify(22, h))
	})

	t.Run("flat and vix not low defaults to bull", func(t *testing.T) {
		h := trendingHistory(60, 400, 0)
		assert.Equal(t, Bull, c.Classify(22, h))
	})
}

func TestClassify_ShortHistoryHasNoTrend(t *testing.T) {
	c := New(DefaultConfig())

	// Too few bars for SMA windows: trend is flat, vix 18 falls to bull default
	h := trendingHistory(10, 400, 0.01)
	assert.Equal(t, Bull, c.Classify(18, h))

	// Same short history at low vix is low_vol
	assert.Equal(t, LowVol, c.Classify(12, h))
}

func TestRegime_String(t *testing.T) {
	assert.Equal(t, "bull", Bull.String())
	assert.Equal(t, "bear", Bear.String())
	assert.Equal(t, "high_vol", HighVol.String())
	assert.Equal(t, "low_vol", LowVol.String())
	assert.Equal(t, "crash", Crash.String())
	assert.Equal(t, "unknown", Regime(99).String())
}
