package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/optionrun/internal/strategy"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeFile(t, "backtest.yaml", `
tickers: [SPY, QQQ, IWM]
start_date: "2022-01-03"
end_date: "2023-12-29"
starting_capital: 250000
commission_per_leg: 1.00
max_positions: 15
max_positions_per_strategy: 5
max_portfolio_risk_pct: 0.15
reference_ticker: SPY
strategies:
  credit_spread:
    short_delta: 0.25
    width: 10
  lotto: {}
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"SPY", "QQQ", "IWM"}, cfg.Tickers)
	assert.Equal(t, 250000.0, cfg.StartingCapital)
	assert.Equal(t, 1.00, cfg.CommissionPerLeg)
	assert.Equal(t, 15, cfg.MaxPositions)
	assert.Equal(t, 0.15, cfg.MaxPortfolioRiskPct)

	// Untouched fields keep defaults
	assert.Equal(t, 0.05, cfg.Slippage)
	assert.Equal(t, "VIX", cfg.VIXTicker)
	assert.Equal(t, 0.04, cfg.RiskFreeRate)

	require.Contains(t, cfg.Strategies, "credit_spread")
	assert.Equal(t, 0.25, cfg.Strategies["credit_spread"]["short_delta"])
	assert.Contains(t, cfg.Strategies, "lotto")

	start, end, err := cfg.Window()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2023, 12, 29, 0, 0, 0, 0, time.UTC), end)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no tickers", func(c *Config) { c.Tickers = nil }},
		{"zero capital", func(c *Config) { c.StartingCapital = 0 }},
		{"zero caps", func(c *Config) { c.MaxPositions = 0 }},
		{"risk above one", func(c *Config) { c.MaxPortfolioRiskPct = 1.5 }},
		{"no strategies", func(c *Config) { c.Strategies = nil }},
		{"no reference", func(c *Config) { c.ReferenceTicker = "" }},
		{"bad date", func(c *Config) { c.StartDate = "01/03/2022" }},
		{"inverted window", func(c *Config) { c.StartDate = "2023-01-01"; c.EndDate = "2022-01-01" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, Default().Validate(), "defaults must be valid")
}

func TestEngineConfig(t *testing.T) {
	cfg := Default()
	cfg.StartDate = "2022-01-03"
	cfg.EndDate = "2022-06-30"

	ec, err := cfg.EngineConfig()
	require.NoError(t, err)
	assert.Equal(t, cfg.StartingCapital, ec.StartingCapital)
	assert.Equal(t, cfg.MaxPositions, ec.MaxPositions)
	assert.Equal(t, cfg.MaxPortfolioRiskPct, ec.MaxPortfolioRisk)
	assert.Equal(t, time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC), ec.Start)
	assert.NoError(t, ec.Validate())
}

func TestBuildStrategies(t *testing.T) {
	cfg := Default()
	cfg.Strategies = map[string]strategy.Params{
		strategy.NameLotto:        {},
		strategy.NameCreditSpread: {"width": 10},
	}

	built, err := cfg.BuildStrategies(strategy.DefaultRegistry())
	require.NoError(t, err)
	require.Len(t, built, 2)
	assert.Equal(t, strategy.NameCreditSpread, built[0].Name(), "sorted order")
	assert.Equal(t, strategy.NameLotto, built[1].Name())

	cfg.Strategies["made_up"] = strategy.Params{}
	_, err = cfg.BuildStrategies(strategy.DefaultRegistry())
	assert.Error(t, err)
}

func TestLoadEvents(t *testing.T) {
	path := writeFile(t, "events.yaml", `
events:
  - name: FOMC
    date: "2023-06-14"
    impact: high
  - name: CPI
    date: "2023-06-13"
`)

	cal, err := LoadEvents(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cal.Len())

	within := cal.Within(time.Date(2023, 6, 12, 0, 0, 0, 0, time.UTC), 2)
	require.Len(t, within, 2)
	assert.Equal(t, "CPI", within[0].Name, "calendar returns events date-sorted")
}

func TestLoadEvents_BadDate(t *testing.T) {
	path := writeFile(t, "events.yaml", `
events:
  - name: FOMC
    date: "June 14"
`)
	_, err := LoadEvents(path)
	assert.Error(t, err)
}
