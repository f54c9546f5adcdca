// Package market assembles the per-day MarketSnapshot: everything a
// strategy may look at for one simulated day, built once by the engine and
// handed out read-only.
package market

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/optionrun/internal/data"
	"github.com/sawpanic/optionrun/internal/events"
	"github.com/sawpanic/optionrun/internal/regime"
)

// Snapshot is one immutable bundle of market state for a single day.
// Strategies must treat it as read-only and never retain it across days.
type Snapshot struct {
	Date   time.Time
	Regime regime.Regime

	VIX        float64
	VIXHistory data.History

	Events []events.EconEvent

	// Tickers with data up to Date, sorted; tickers without data are omitted
	Tickers []string

	Prices      map[string]float64
	Histories   map[string]data.History
	IVRank      map[string]float64
	RealizedVol map[string]float64
	Oscillator  map[string]float64
}

// Price returns the day's close for a ticker
func (s *Snapshot) Price(ticker string) (float64, bool) {
	p, ok := s.Prices[ticker]
	return p, ok
}

// History returns the ticker's price history up to and including Date
func (s *Snapshot) History(ticker string) (data.History, bool) {
	h, ok := s.Histories[ticker]
	return h, ok
}

// EventWithin reports whether any calendar event lands within the next n days
func (s *Snapshot) EventWithin(days int) bool {
	horizon := s.Date.AddDate(0, 0, days)
	for _, ev := range s.Events {
		if !ev.Date.Before(s.Date) && !ev.Date.After(horizon) {
			return true
		}
	}
	return false
}

// BuilderConfig tunes indicator windows and fallbacks
type BuilderConfig struct {
	EventLookaheadDays int     `yaml:"event_lookahead_days"` // Default: 10
	RealizedVolWindow  int     `yaml:"realized_vol_window"`  // Default: 21
	OscillatorPeriod   int     `yaml:"oscillator_period"`    // Default: 14
	IVRankWindow       int     `yaml:"iv_rank_window"`       // Default: 252
	DefaultVIX         float64 `yaml:"default_vix"`          // Default: 20
}

// DefaultBuilderConfig returns production windows
func DefaultBuilderConfig() BuilderConfig {
	return BuilderConfig{
		EventLookaheadDays: 10,
		RealizedVolWindow:  21,
		OscillatorPeriod:   14,
		IVRankWindow:       252,
		DefaultVIX:         20,
	}
}

// Builder constructs one Snapshot per simulated day
type Builder struct {
	store      *data.Store
	vix        data.History
	calendar   *events.Calendar
	classifier *regime.Classifier
	config     BuilderConfig
	reference  string // ticker whose history drives regime trend
}

// NewBuilder wires the snapshot builder. The reference ticker drives the
// regime classifier's trend input; if absent from the store, the first
// loaded ticker is used.
func NewBuilder(store *data.Store, vix data.History, calendar *events.Calendar, classifier *regime.Classifier, reference string, config BuilderConfig) *Builder {
	if _, ok := store.History(reference); !ok {
		tickers := store.Tickers()
		if len(tickers) > 0 {
			log.Warn().Str("reference", reference).Str("fallback", tickers[0]).
				Msg("Reference ticker not loaded, using fallback for regime trend")
			reference = tickers[0]
		}
	}
	return &Builder{
		store:      store,
		vix:        vix,
		calendar:   calendar,
		classifier: classifier,
		config:     config,
		reference:  reference,
	}
}

// Build assembles the snapshot for one day. Tickers with no data up to the
// date are silently omitted; a missing volatility index falls back to the
// configured default rather than failing the day.
func (b *Builder) Build(date time.Time) *Snapshot {
	snap := &Snapshot{
		Date:        date,
		Prices:      make(map[string]float64),
		Histories:   make(map[string]data.History),
		IVRank:      make(map[string]float64),
		RealizedVol: make(map[string]float64),
		Oscillator:  make(map[string]float64),
	}

	snap.VIXHistory = b.vix.UpTo(date)
	if last, ok := snap.VIXHistory.Last(); ok {
		snap.VIX = last.Close
	} else {
		snap.VIX = b.config.DefaultVIX
	}

	for _, ticker := range b.store.Tickers() {
		full, _ := b.store.History(ticker)
		hist := full.UpTo(date)
		last, ok := hist.Last()
		if !ok {
			continue // no data up to this date, strategy coverage shrinks
		}

		snap.Tickers = append(snap.Tickers, ticker)
		snap.Histories[ticker] = hist
		snap.Prices[ticker] = last.Close
		snap.RealizedVol[ticker] = RealizedVol(hist, b.config.RealizedVolWindow)
		snap.Oscillator[ticker] = RSI(hist.Closes(), b.config.OscillatorPeriod)
		snap.IVRank[ticker] = IVRank(snap.VIXHistory, snap.VIX, b.config.IVRankWindow)
	}

	if refHist, ok := snap.Histories[b.reference]; ok {
		snap.Regime = b.classifier.Classify(snap.VIX, refHist)
	} else {
		snap.Regime = b.classifier.Classify(snap.VIX, nil)
	}

	snap.Events = b.calendar.Within(date, b.config.EventLookaheadDays)
	return snap
}
