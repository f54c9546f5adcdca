package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/optionrun/internal/data"
	"github.com/sawpanic/optionrun/internal/domain"
	"github.com/sawpanic/optionrun/internal/events"
	"github.com/sawpanic/optionrun/internal/market"
	"github.com/sawpanic/optionrun/internal/regime"
)

// snapshotFixture builds a one-ticker snapshot with direct control over the
// gate inputs. Tuesday 2023-06-06 keeps the weekday gates open.
func snapshotFixture(reg regime.Regime, ivRank, rsi float64) *market.Snapshot {
	date := time.Date(2023, 6, 6, 0, 0, 0, 0, time.UTC)

	hist := make(data.History, 60)
	d := date.AddDate(0, 0, -60)
	for i := range hist {
		hist[i] = data.Bar{Date: d, Open: 448, High: 452, Low: 446, Close: 450, Volume: 1e6}
		d = d.AddDate(0, 0, 1)
	}

	return &market.Snapshot{
		Date:        date,
		Regime:      reg,
		VIX:         18,
		Tickers:     []string{"SPY"},
		Prices:      map[string]float64{"SPY": 450},
		Histories:   map[string]data.History{"SPY": hist},
		IVRank:      map[string]float64{"SPY": ivRank},
		RealizedVol: map[string]float64{"SPY": 0.20},
		Oscillator:  map[string]float64{"SPY": rsi},
	}
}

func portfolioFixture() domain.PortfolioState {
	return domain.PortfolioState{
		Equity:           100000,
		StartingCapital:  100000,
		Cash:             100000,
		MaxPortfolioRisk: 0.10,
	}
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()
	names := r.Names()
	assert.Equal(t, []string{
		NameCalendarSpread, NameCreditSpread, NameDebitSpread,
		NameIronCondor, NameLotto, NameMomentum, NameStraddle,
	}, names, "all seven strategies registered, sorted")

	for _, name := range names {
		s, err := r.Create(name, nil)
		require.NoError(t, err, name)
		assert.Equal(t, name, s.Name())
		assert.NotEmpty(t, s.ParameterSpace(), "%s exposes a parameter space", name)
	}

	_, err := r.Create("nope", nil)
	assert.Error(t, err)
}

func TestCreditSpread_GenerateSignals(t *testing.T) {
	s := NewCreditSpread(nil)

	t.Run("bull regime with decent vol rank sells a put spread", func(t *testing.T) {
		sigs, err := s.GenerateSignals(snapshotFixture(regime.Bull, 50, 55))
		require.NoError(t, err)
		require.Len(t, sigs, 1)

		sig := sigs[0]
		assert.Equal(t, domain.DirectionLong, sig.Direction)
		require.Len(t, sig.Legs, 2)
		assert.Equal(t, domain.ShortPut, sig.Legs[0].Type)
		assert.Equal(t, domain.LongPut, sig.Legs[1].Type)
		assert.Less(t, sig.Legs[0].Strike, 450.0, "short put below spot")
		assert.Equal(t, sig.Legs[0].Strike-5, sig.Legs[1].Strike, "width respected")
		assert.Greater(t, sig.Credit, 0.0)
		assert.InDelta(t, 5.0, sig.Credit+sig.MaxLossPerUnit, 1e-9, "credit plus max loss equals width")
		require.NoError(t, sig.Validate())
	})

	t.Run("low IV rank stands aside", func(t *testing.T) {
		sigs, err := s.GenerateSignals(snapshotFixture(regime.Bull, 10, 55))
		require.NoError(t, err)
		assert.Empty(t, sigs)
	})

	t.Run("crash regime stands aside", func(t *testing.T) {
		sigs, err := s.GenerateSignals(snapshotFixture(regime.Crash, 90, 55))
		require.NoError(t, err)
		assert.Empty(t, sigs)
	})

	t.Run("bear regime sells call spreads", func(t *testing.T) {
		sigs, err := s.GenerateSignals(snapshotFixture(regime.Bear, 50, 45))
		require.NoError(t, err)
		require.Len(t, sigs, 1)
		assert.Equal(t, domain.ShortCall, sigs[0].Legs[0].Type)
		assert.Greater(t, sigs[0].Legs[0].Strike, 450.0, "short call above spot")
	})

	t.Run("no entries late in the week", func(t *testing.T) {
		snap := snapshotFixture(regime.Bull, 50, 55)
		snap.Date = time.Date(2023, 6, 9, 0, 0, 0, 0, time.UTC) // Friday
		sigs, err := s.GenerateSignals(snap)
		require.NoError(t, err)
		assert.Empty(t, sigs)
	})

	t.Run("imminent event blocks entries", func(t *testing.T) {
		snap := snapshotFixture(regime.Bull, 50, 55)
		snap.Events = []events.EconEvent{{Name: "FOMC", Date: snap.Date.AddDate(0, 0, 1), Impact: events.ImpactHigh}}
		sigs, err := s.GenerateSignals(snap)
		require.NoError(t, err)
		assert.Empty(t, sigs)
	})
}

func creditPosition(t *testing.T, stopMult float64) *domain.Position {
	t.Helper()
	expiry := time.Date(2023, 7, 21, 0, 0, 0, 0, time.UTC)
	sig := domain.Signal{
		Strategy:  NameCreditSpread,
		Ticker:    "SPY",
		Direction: domain.DirectionLong,
		Legs: []domain.TradeLeg{
			{Type: domain.ShortPut, Strike: 450, Expiration: expiry, EntryPrice: 3.4},
			{Type: domain.LongPut, Strike: 445, Expiration: expiry, EntryPrice: 1.65},
		},
		Credit:           1.75,
		MaxLossPerUnit:   3.25,
		MaxProfitPerUnit: 1.75,
		ProfitTargetPct:  0.50,
		StopLossMult:     stopMult,
	}
	pos, err := domain.NewPosition(sig, 2, time.Date(2023, 6, 6, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return pos
}

func TestCreditSpread_ManagePosition(t *testing.T) {
	s := NewCreditSpread(nil)

	t.Run("holds while nothing triggers", func(t *testing.T) {
		snap := snapshotFixture(regime.Bull, 50, 55)
		snap.Prices["SPY"] = 452
		assert.Equal(t, domain.Hold, s.ManagePosition(creditPosition(t, 2.0), snap))
	})

	t.Run("profit target after spread collapses", func(t *testing.T) {
		snap := snapshotFixture(regime.Bull, 50, 55)
		snap.Date = time.Date(2023, 7, 14, 0, 0, 0, 0, time.UTC)
		snap.Prices["SPY"] = 480
		snap.RealizedVol["SPY"] = 0.10
		assert.Equal(t, domain.CloseProfitTarget, s.ManagePosition(creditPosition(t, 2.0), snap))
	})

	t.Run("stop loss when the spread goes deep ITM", func(t *testing.T) {
		snap := snapshotFixture(regime.Bull, 50, 55)
		snap.Date = time.Date(2023, 7, 18, 0, 0, 0, 0, time.UTC)
		snap.Prices["SPY"] = 400
		assert.Equal(t, domain.CloseStopLoss, s.ManagePosition(creditPosition(t, 1.5), snap))
	})

	t.Run("expiration day closes at expiration", func(t *testing.T) {
		snap := snapshotFixture(regime.Bull, 50, 55)
		snap.Date = time.Date(2023, 7, 21, 0, 0, 0, 0, time.UTC)
		snap.Prices["SPY"] = 460
		assert.Equal(t, domain.CloseExpiration, s.ManagePosition(creditPosition(t, 2.0), snap))
	})

	t.Run("missing ticker data holds", func(t *testing.T) {
		snap := snapshotFixture(regime.Bull, 50, 55)
		delete(snap.Prices, "SPY")
		assert.Equal(t, domain.Hold, s.ManagePosition(creditPosition(t, 2.0), snap))
	})
}

func TestCreditSpread_SizePosition(t *testing.T) {
	s := NewCreditSpread(nil)
	state := portfolioFixture()

	sig := domain.Signal{
		Strategy: NameCreditSpread, Ticker: "SPY", Direction: domain.DirectionLong,
		Legs:           []domain.TradeLeg{{Type: domain.ShortPut, Strike: 440}},
		Credit:         1.75,
		MaxLossPerUnit: 3.25,
	}

	// 2% of 100k = 2000 budget; 325 risk per contract => 6 contracts
	assert.Equal(t, 6, s.SizePosition(sig, state))

	t.Run("heat cap binds before the budget", func(t *testing.T) {
		tight := state
		tight.CommittedRisk = 9500 // 10% cap leaves 500 headroom => 1 contract
		assert.Equal(t, 1, s.SizePosition(sig, tight))
	})

	t.Run("no headroom rejects", func(t *testing.T) {
		full := state
		full.CommittedRisk = 10000
		assert.Equal(t, 0, s.SizePosition(sig, full))
	})
}

func TestIronCondor_GenerateSignals(t *testing.T) {
	s := NewIronCondor(nil)

	t.Run("neutral tape produces a four-leg condor", func(t *testing.T) {
		sigs, err := s.GenerateSignals(snapshotFixture(regime.LowVol, 40, 50))
		require.NoError(t, err)
		require.Len(t, sigs, 1)

		sig := sigs[0]
		assert.Equal(t, domain.DirectionNeutral, sig.Direction)
		require.Len(t, sig.Legs, 4)
		assert.Greater(t, sig.Credit, 0.0)
		assert.Greater(t, sig.MaxLossPerUnit, 0.0)
		require.NoError(t, sig.Validate())
	})

	t.Run("directional oscillator stands aside", func(t *testing.T) {
		sigs, err := s.GenerateSignals(snapshotFixture(regime.LowVol, 40, 75))
		require.NoError(t, err)
		assert.Empty(t, sigs)
	})
}

func TestCalendarSpread_GenerateSignals(t *testing.T) {
	s := NewCalendarSpread(nil)

	sigs, err := s.GenerateSignals(snapshotFixture(regime.LowVol, 15, 50))
	require.NoError(t, err)
	require.Len(t, sigs, 1)

	sig := sigs[0]
	require.Len(t, sig.Legs, 2)
	assert.Equal(t, domain.ShortCall, sig.Legs[0].Type)
	assert.Equal(t, domain.LongCall, sig.Legs[1].Type)
	assert.Equal(t, sig.Legs[0].Strike, sig.Legs[1].Strike, "same strike, different expirations")
	assert.True(t, sig.Legs[1].Expiration.After(sig.Legs[0].Expiration))
	assert.Greater(t, sig.Debit, 0.0)

	t.Run("rich vol stands aside", func(t *testing.T) {
		sigs, err := s.GenerateSignals(snapshotFixture(regime.LowVol, 80, 50))
		require.NoError(t, err)
		assert.Empty(t, sigs)
	})
}

func TestDebitSpread_GenerateSignals(t *testing.T) {
	s := NewDebitSpread(nil)

	sigs, err := s.GenerateSignals(snapshotFixture(regime.Bull, 40, 62))
	require.NoError(t, err)
	require.Len(t, sigs, 1)
	assert.Equal(t, domain.LongCall, sigs[0].Legs[0].Type)
	assert.Greater(t, sigs[0].Debit, 0.0)
	assert.Greater(t, sigs[0].MaxProfitPerUnit, 0.0)

	t.Run("weak momentum stands aside", func(t *testing.T) {
		sigs, err := s.GenerateSignals(snapshotFixture(regime.Bull, 40, 50))
		require.NoError(t, err)
		assert.Empty(t, sigs)
	})
}

func TestLotto_EventDriven(t *testing.T) {
	s := NewLotto(nil)

	t.Run("no event no trade", func(t *testing.T) {
		sigs, err := s.GenerateSignals(snapshotFixture(regime.Bull, 40, 55))
		require.NoError(t, err)
		assert.Empty(t, sigs)
	})

	t.Run("imminent event buys an OTM option", func(t *testing.T) {
		snap := snapshotFixture(regime.Bull, 40, 55)
		snap.Events = []events.EconEvent{{Name: "CPI", Date: snap.Date.AddDate(0, 0, 2), Impact: events.ImpactHigh}}

		sigs, err := s.GenerateSignals(snap)
		require.NoError(t, err)
		require.Len(t, sigs, 1)

		sig := sigs[0]
		require.Len(t, sig.Legs, 1)
		assert.Equal(t, domain.LongCall, sig.Legs[0].Type, "RSI 55 bets the upside")
		assert.Greater(t, sig.Legs[0].Strike, 450.0, "OTM call")
		assert.Contains(t, sig.Meta, metaEventDay)
	})

	t.Run("position exits once the event passes", func(t *testing.T) {
		snap := snapshotFixture(regime.Bull, 40, 55)
		snap.Events = []events.EconEvent{{Name: "CPI", Date: snap.Date.AddDate(0, 0, 2), Impact: events.ImpactHigh}}
		sigs, err := s.GenerateSignals(snap)
		require.NoError(t, err)
		require.Len(t, sigs, 1)

		pos, err := domain.NewPosition(sigs[0], 1, snap.Date)
		require.NoError(t, err)

		after := snapshotFixture(regime.Bull, 40, 55)
		after.Date = snap.Date.AddDate(0, 0, 3)
		assert.Equal(t, domain.CloseEvent, s.ManagePosition(pos, after))
	})
}

func TestStraddle_GenerateSignals(t *testing.T) {
	s := NewStraddle(nil)

	t.Run("cheap vol ahead of an event buys the straddle", func(t *testing.T) {
		snap := snapshotFixture(regime.Bull, 10, 50)
		snap.Events = []events.EconEvent{{Name: "FOMC", Date: snap.Date.AddDate(0, 0, 5), Impact: events.ImpactHigh}}

		sigs, err := s.GenerateSignals(snap)
		require.NoError(t, err)
		require.Len(t, sigs, 1)
		assert.Greater(t, sigs[0].Debit, 0.0)
		require.Len(t, sigs[0].Legs, 2)
		assert.Equal(t, sigs[0].Legs[0].Strike, sigs[0].Legs[1].Strike, "straddle shares the strike")
	})

	t.Run("rich vol in calm tape sells the strangle", func(t *testing.T) {
		sigs, err := s.GenerateSignals(snapshotFixture(regime.LowVol, 75, 50))
		require.NoError(t, err)
		require.Len(t, sigs, 1)
		assert.Greater(t, sigs[0].Credit, 0.0)
		assert.Equal(t, domain.ShortPut, sigs[0].Legs[0].Type)
		assert.Equal(t, domain.ShortCall, sigs[0].Legs[1].Type)
		assert.Greater(t, sigs[0].MaxLossPerUnit, sigs[0].Credit, "modeled risk beyond the credit")
	})

	t.Run("mid vol rank stands aside", func(t *testing.T) {
		sigs, err := s.GenerateSignals(snapshotFixture(regime.Bull, 40, 50))
		require.NoError(t, err)
		assert.Empty(t, sigs)
	})
}

func TestMomentum_Lifecycle(t *testing.T) {
	s := NewMomentum(nil)

	snap := snapshotFixture(regime.Bull, 40, 62)
	snap.Prices["SPY"] = 455 // above the flat 450 SMA

	sigs, err := s.GenerateSignals(snap)
	require.NoError(t, err)
	require.Len(t, sigs, 1)
	require.Equal(t, domain.LongUnderlying, sigs[0].Legs[0].Type)

	pos, err := domain.NewPosition(sigs[0], 1, snap.Date)
	require.NoError(t, err)

	t.Run("holds inside the band", func(t *testing.T) {
		later := snapshotFixture(regime.Bull, 40, 60)
		later.Prices["SPY"] = 460
		assert.Equal(t, domain.Hold, s.ManagePosition(pos, later))
	})

	t.Run("stop loss on a five percent drop", func(t *testing.T) {
		later := snapshotFixture(regime.Bull, 40, 60)
		later.Prices["SPY"] = 430
		assert.Equal(t, domain.CloseStopLoss, s.ManagePosition(pos, later))
	})

	t.Run("target on a ten percent gain", func(t *testing.T) {
		later := snapshotFixture(regime.Bull, 40, 60)
		later.Prices["SPY"] = 501
		assert.Equal(t, domain.CloseProfitTarget, s.ManagePosition(pos, later))
	})

	t.Run("oscillator reversal is a signal exit", func(t *testing.T) {
		later := snapshotFixture(regime.Bull, 40, 45)
		later.Prices["SPY"] = 458
		assert.Equal(t, domain.CloseSignalExit, s.ManagePosition(pos, later))
	})

	t.Run("stale position times out", func(t *testing.T) {
		later := snapshotFixture(regime.Bull, 40, 60)
		later.Date = snap.Date.AddDate(0, 0, 45)
		later.Prices["SPY"] = 458
		assert.Equal(t, domain.CloseTimeDecay, s.ManagePosition(pos, later))
	})
}
