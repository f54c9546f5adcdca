package data

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sampleHistory() History {
	return History{
		{Date: day(2023, 3, 1), Close: 100},
		{Date: day(2023, 3, 2), Close: 101},
		{Date: day(2023, 3, 3), Close: 99},
		{Date: day(2023, 3, 6), Close: 102},
	}
}

func TestHistory_UpTo(t *testing.T) {
	h := sampleHistory()

	assert.Len(t, h.UpTo(day(2023, 3, 3)), 3, "includes the boundary date")
	assert.Len(t, h.UpTo(day(2023, 3, 4)), 3, "weekend gap excluded")
	assert.Len(t, h.UpTo(day(2023, 2, 28)), 0, "nothing before series start")
	assert.Len(t, h.UpTo(day(2023, 4, 1)), 4, "full series after end")
}

func TestHistory_CloseOn(t *testing.T) {
	h := sampleHistory()

	c, ok := h.CloseOn(day(2023, 3, 2))
	require.True(t, ok)
	assert.Equal(t, 101.0, c)

	_, ok = h.CloseOn(day(2023, 3, 4))
	assert.False(t, ok, "no bar on a non-trading day")
}

func TestStore_TradingDates(t *testing.T) {
	store := NewStore()
	store.Put("SPY", sampleHistory())

	dates := store.TradingDates("SPY", day(2023, 3, 2), day(2023, 3, 3))
	require.Len(t, dates, 2)
	assert.Equal(t, day(2023, 3, 2), dates[0])
	assert.Equal(t, day(2023, 3, 3), dates[1])

	assert.Empty(t, store.TradingDates("QQQ", day(2023, 3, 1), day(2023, 3, 6)), "unknown reference ticker")
}

func TestStore_PutSortsBars(t *testing.T) {
	store := NewStore()
	store.Put("SPY", History{
		{Date: day(2023, 3, 6), Close: 102},
		{Date: day(2023, 3, 1), Close: 100},
	})

	h, ok := store.History("SPY")
	require.True(t, ok)
	assert.True(t, h[0].Date.Before(h[1].Date), "bars sorted ascending on insert")
}
