// Package data models daily OHLCV history and the one-time bulk-fetch phase
// that loads it before the simulation loop starts.
package data

import (
	"sort"
	"time"
)

// Bar is one daily OHLCV record
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// History is a date-ascending series of daily bars
type History []Bar

// UpTo returns the prefix of bars dated at or before the given date.
// The returned slice shares backing storage; callers treat history as
// read-only.
func (h History) UpTo(date time.Time) History {
	idx := sort.Search(len(h), func(i int) bool {
		return h[i].Date.After(date)
	})
	return h[:idx]
}

// Last returns the most recent bar
func (h History) Last() (Bar, bool) {
	if len(h) == 0 {
		return Bar{}, false
	}
	return h[len(h)-1], true
}

// CloseOn returns the closing price on an exact date
func (h History) CloseOn(date time.Time) (float64, bool) {
	idx := sort.Search(len(h), func(i int) bool {
		return !h[i].Date.Before(date)
	})
	if idx < len(h) && h[idx].Date.Equal(date) {
		return h[idx].Close, true
	}
	return 0, false
}

// Closes returns the close series
func (h History) Closes() []float64 {
	out := make([]float64, len(h))
	for i, b := range h {
		out[i] = b.Close
	}
	return out
}

// Store holds per-ticker histories for one backtest run. It is filled once
// during the bulk-fetch phase and read-only afterwards.
type Store struct {
	histories map[string]History
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{histories: make(map[string]History)}
}

// Put installs a ticker history, replacing any previous series
func (s *Store) Put(ticker string, h History) {
	sort.Slice(h, func(i, j int) bool { return h[i].Date.Before(h[j].Date) })
	s.histories[ticker] = h
}

// History returns the full series for a ticker
func (s *Store) History(ticker string) (History, bool) {
	h, ok := s.histories[ticker]
	return h, ok
}

// Tickers returns all loaded tickers in sorted order
func (s *Store) Tickers() []string {
	out := make([]string, 0, len(s.histories))
	for t := range s.histories {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// TradingDates returns the reference ticker's dates inside [start, end].
// The simulation loop iterates these in order.
func (s *Store) TradingDates(reference string, start, end time.Time) []time.Time {
	h, ok := s.histories[reference]
	if !ok {
		return nil
	}
	dates := make([]time.Time, 0, len(h))
	for _, b := range h {
		if b.Date.Before(start) || b.Date.After(end) {
			continue
		}
		dates = append(dates, b.Date)
	}
	return dates
}
