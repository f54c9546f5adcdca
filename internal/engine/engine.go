// Package engine drives the daily portfolio simulation: exits first, then
// signal pooling, admission control and entries, with equity recorded per
// day and every remaining position force-settled after the final date.
package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/optionrun/internal/data"
	"github.com/sawpanic/optionrun/internal/domain"
	"github.com/sawpanic/optionrun/internal/market"
	"github.com/sawpanic/optionrun/internal/metrics"
	"github.com/sawpanic/optionrun/internal/strategy"
)

// Config is the engine's risk and cost surface
type Config struct {
	ReferenceTicker  string    `yaml:"reference_ticker"`  // drives the trading calendar
	Start            time.Time `yaml:"start_date"`
	End              time.Time `yaml:"end_date"`
	StartingCapital  float64   `yaml:"starting_capital"`
	CommissionPerLeg float64   `yaml:"commission_per_leg"` // per leg per contract, each way
	Slippage         float64   `yaml:"slippage"`           // per-unit haircut charged at close
	MaxPositions     int       `yaml:"max_positions"`
	MaxPerStrategy   int       `yaml:"max_positions_per_strategy"`
	MaxPortfolioRisk float64   `yaml:"max_portfolio_risk_pct"` // fraction of equity
	RiskFreeRate     float64   `yaml:"risk_free_rate"`
}

// DefaultConfig returns conservative production defaults
func DefaultConfig() Config {
	return Config{
		ReferenceTicker:  "SPY",
		StartingCapital:  100000,
		CommissionPerLeg: 0.65,
		Slippage:         0.05,
		MaxPositions:     10,
		MaxPerStrategy:   3,
		MaxPortfolioRisk: 0.10,
		RiskFreeRate:     0.04,
	}
}

// Validate rejects configurations the loop cannot run with
func (c Config) Validate() error {
	if c.StartingCapital <= 0 {
		return fmt.Errorf("starting capital must be positive, got %.2f", c.StartingCapital)
	}
	if c.MaxPositions < 1 || c.MaxPerStrategy < 1 {
		return fmt.Errorf("position caps must be >= 1 (global %d, per-strategy %d)", c.MaxPositions, c.MaxPerStrategy)
	}
	if c.MaxPortfolioRisk <= 0 || c.MaxPortfolioRisk > 1 {
		return fmt.Errorf("max portfolio risk must be in (0, 1], got %.2f", c.MaxPortfolioRisk)
	}
	if c.ReferenceTicker == "" {
		return fmt.Errorf("reference ticker is required")
	}
	if !c.End.IsZero() && c.End.Before(c.Start) {
		return fmt.Errorf("end date %s precedes start date %s",
			c.End.Format("2006-01-02"), c.Start.Format("2006-01-02"))
	}
	return nil
}

// Observer receives simulation lifecycle callbacks. Used by the telemetry
// layer; implementations must not mutate what they are handed.
type Observer interface {
	OnDay(date time.Time, equity float64, openPositions int)
	OnSignals(strategy string, count int)
	OnOpen(pos *domain.Position)
	OnClose(pos *domain.Position)
}

// Engine owns the simulation loop and the portfolio arena
type Engine struct {
	cfg        Config
	strategies []strategy.Strategy
	byName     map[string]strategy.Strategy
	builder    *market.Builder
	store      *data.Store
	observers  []Observer
}

// New wires an engine. Strategy order is preserved: it breaks score ties
// during signal pooling, so runs are deterministic.
func New(cfg Config, strategies []strategy.Strategy, builder *market.Builder, store *data.Store) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(strategies) == 0 {
		return nil, fmt.Errorf("engine requires at least one strategy")
	}
	byName := make(map[string]strategy.Strategy, len(strategies))
	for _, s := range strategies {
		if _, dup := byName[s.Name()]; dup {
			return nil, fmt.Errorf("duplicate strategy %q", s.Name())
		}
		byName[s.Name()] = s
	}
	return &Engine{
		cfg:        cfg,
		strategies: strategies,
		byName:     byName,
		builder:    builder,
		store:      store,
	}, nil
}

// AddObserver attaches a lifecycle observer. Not safe during Run.
func (e *Engine) AddObserver(o Observer) {
	e.observers = append(e.observers, o)
}

// runState is the mutable portfolio arena for one run
type runState struct {
	cash   float64
	open   []*domain.Position
	closed []*domain.Position
	trades []metrics.Trade
	curve  []metrics.EquityPoint
}

// Run replays the simulation window day by day and returns the results.
// Fails only on invariant violations or a completely empty trading
// calendar; single-day data problems degrade locally.
func (e *Engine) Run(ctx context.Context) (*Results, error) {
	dates := e.store.TradingDates(e.cfg.ReferenceTicker, e.cfg.Start, e.cfg.End)
	if len(dates) == 0 {
		return nil, fmt.Errorf("no trading dates for %s in [%s, %s]",
			e.cfg.ReferenceTicker, e.cfg.Start.Format("2006-01-02"), e.cfg.End.Format("2006-01-02"))
	}

	log.Info().
		Str("reference", e.cfg.ReferenceTicker).
		Int("days", len(dates)).
		Float64("capital", e.cfg.StartingCapital).
		Int("strategies", len(e.strategies)).
		Msg("Backtest starting")

	st := &runState{cash: e.cfg.StartingCapital}
	var finalSnap *market.Snapshot

	for _, date := range dates {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		snap := e.builder.Build(date)
		finalSnap = snap

		if err := e.manageExits(st, snap); err != nil {
			return nil, err
		}
		e.openEntries(st, snap)

		st.curve = append(st.curve, metrics.EquityPoint{Date: date, Equity: st.cash})
		for _, o := range e.observers {
			o.OnDay(date, st.cash, len(st.open))
		}
	}

	// Whatever is still open settles as if it expired on the final date
	if err := e.forceClose(st, finalSnap); err != nil {
		return nil, err
	}
	st.curve[len(st.curve)-1].Equity = st.cash

	res := e.assembleResults(st, dates)
	log.Info().
		Int("trades", len(st.trades)).
		Float64("ending_equity", st.cash).
		Float64("total_pnl", res.Combined.TotalPnL).
		Msg("Backtest complete")
	return res, nil
}

// manageExits runs every open position through its strategy's exit logic.
// A Hold verdict on an already-expired position is overridden: expired
// positions cannot stay open.
func (e *Engine) manageExits(st *runState, snap *market.Snapshot) error {
	kept := st.open[:0]
	for _, pos := range st.open {
		action := domain.Hold
		if strat, ok := e.byName[pos.Strategy]; ok {
			action = strat.ManagePosition(pos, snap)
		}
		if action == domain.Hold {
			if exp := pos.EarliestExpiration(); !exp.IsZero() && !snap.Date.Before(exp) {
				action = domain.CloseExpiration
			}
		}
		if !action.Closes() {
			kept = append(kept, pos)
			continue
		}
		if err := e.closePosition(st, pos, snap, action); err != nil {
			return err
		}
	}
	st.open = kept
	return nil
}

// forceClose settles every remaining position by the expiration rule
func (e *Engine) forceClose(st *runState, snap *market.Snapshot) error {
	for _, pos := range st.open {
		if err := e.closePosition(st, pos, snap, domain.CloseExpiration); err != nil {
			return err
		}
	}
	st.open = nil
	return nil
}

// openEntries pools the day's signals across strategies, ranks them by
// score, and admits them against the shrinking position and risk slots
func (e *Engine) openEntries(st *runState, snap *market.Snapshot) {
	var pool []domain.Signal
	for _, strat := range e.strategies {
		sigs, err := strat.GenerateSignals(snap)
		if err != nil {
			// One broken strategy must not halt the backtest
			log.Warn().Err(err).
				Str("strategy", strat.Name()).
				Time("date", snap.Date).
				Msg("Signal generation failed, no signals from this strategy today")
			continue
		}
		accepted := 0
		for _, sig := range sigs {
			if vErr := sig.Validate(); vErr != nil {
				log.Debug().Err(vErr).Str("strategy", strat.Name()).Str("ticker", sig.Ticker).
					Msg("Discarding economically invalid signal")
				continue
			}
			pool = append(pool, sig)
			accepted++
		}
		for _, o := range e.observers {
			o.OnSignals(strat.Name(), accepted)
		}
	}

	// Stable sort keeps strategy registration order as the tie-break
	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].Score > pool[j].Score
	})

	for _, sig := range pool {
		if !e.admit(st, sig) {
			continue
		}
		strat := e.byName[sig.Strategy]
		contracts := strat.SizePosition(sig, e.stateView(st))
		if contracts < 1 {
			continue
		}

		pos, err := domain.NewPosition(sig, contracts, snap.Date)
		if err != nil {
			log.Debug().Err(err).Str("strategy", sig.Strategy).Msg("Signal rejected at position construction")
			continue
		}
		entryCommission := e.commission(pos)
		st.cash -= entryCommission
		pos.CommissionPaid = entryCommission

		st.open = append(st.open, pos)
		for _, o := range e.observers {
			o.OnOpen(pos)
		}
		log.Debug().
			Str("position", pos.ID).
			Str("strategy", pos.Strategy).
			Str("ticker", pos.Ticker).
			Int("contracts", contracts).
			Float64("risk", pos.RiskDollars()).
			Msg("Position opened")
	}
}
