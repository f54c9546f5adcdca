// Package config loads and validates the backtest configuration file.
package config

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sawpanic/optionrun/internal/engine"
	"github.com/sawpanic/optionrun/internal/market"
	"github.com/sawpanic/optionrun/internal/regime"
	"github.com/sawpanic/optionrun/internal/strategy"
)

const dateLayout = "2006-01-02"

// Config is the full configuration surface for one backtest run
type Config struct {
	Tickers   []string `yaml:"tickers"`
	StartDate string   `yaml:"start_date"` // YYYY-MM-DD
	EndDate   string   `yaml:"end_date"`

	StartingCapital         float64 `yaml:"starting_capital"`
	CommissionPerLeg        float64 `yaml:"commission_per_leg"`
	Slippage                float64 `yaml:"slippage"`
	MaxPositions            int     `yaml:"max_positions"`
	MaxPositionsPerStrategy int     `yaml:"max_positions_per_strategy"`
	MaxPortfolioRiskPct     float64 `yaml:"max_portfolio_risk_pct"`
	RiskFreeRate            float64 `yaml:"risk_free_rate"`

	DataDir         string `yaml:"data_dir"`
	VIXTicker       string `yaml:"vix_ticker"`
	ReferenceTicker string `yaml:"reference_ticker"`
	EventsFile      string `yaml:"events_file"` // empty uses the built-in calendar

	// Strategies maps strategy name to its parameter bundle; only listed
	// strategies participate in the run
	Strategies map[string]strategy.Params `yaml:"strategies"`

	Snapshot market.BuilderConfig `yaml:"snapshot"`
	Regime   regime.Config        `yaml:"regime"`

	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// RedisConfig wires the optional bar cache
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TTLHours int    `yaml:"ttl_hours"`
}

// TTL returns the cache expiry as a duration
func (r RedisConfig) TTL() time.Duration {
	if r.TTLHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(r.TTLHours) * time.Hour
}

// PostgresConfig wires optional run persistence
type PostgresConfig struct {
	Enabled bool   `yaml:"enabled"`
	DSN     string `yaml:"dsn"`
}

// Default returns the configuration used when a field is absent from the file
func Default() *Config {
	return &Config{
		Tickers:                 []string{"SPY"},
		StartingCapital:         100000,
		CommissionPerLeg:        0.65,
		Slippage:                0.05,
		MaxPositions:            10,
		MaxPositionsPerStrategy: 3,
		MaxPortfolioRiskPct:     0.10,
		RiskFreeRate:            0.04,
		DataDir:                 "data",
		VIXTicker:               "VIX",
		ReferenceTicker:         "SPY",
		Strategies:              defaultStrategies(),
		Snapshot:                market.DefaultBuilderConfig(),
		Regime:   regime.DefaultConfig(),
		Redis:    RedisConfig{Addr: "localhost:6379", TTLHours: 24},
	}
}

func defaultStrategies() map[string]strategy.Params {
	return map[string]strategy.Params{
		strategy.NameCreditSpread: {},
		strategy.NameIronCondor:   {},
	}
}

// Load reads a config file over the defaults and validates the result.
// A strategies block in the file replaces the default set entirely.
func Load(path string) (*Config, error) {
	cfg := Default()
	cfg.Strategies = nil

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}
	if len(cfg.Strategies) == 0 {
		cfg.Strategies = defaultStrategies()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks the fields the simulation cannot run without
func (c *Config) Validate() error {
	if len(c.Tickers) == 0 {
		return fmt.Errorf("at least one ticker is required")
	}
	if c.StartingCapital <= 0 {
		return fmt.Errorf("starting_capital must be positive, got %.2f", c.StartingCapital)
	}
	if c.MaxPositions < 1 || c.MaxPositionsPerStrategy < 1 {
		return fmt.Errorf("position caps must be >= 1")
	}
	if c.MaxPortfolioRiskPct <= 0 || c.MaxPortfolioRiskPct > 1 {
		return fmt.Errorf("max_portfolio_risk_pct must be in (0, 1], got %.2f", c.MaxPortfolioRiskPct)
	}
	if len(c.Strategies) == 0 {
		return fmt.Errorf("at least one strategy must be enabled")
	}
	if c.ReferenceTicker == "" {
		return fmt.Errorf("reference_ticker is required")
	}

	start, end, err := c.Window()
	if err != nil {
		return err
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return fmt.Errorf("end_date %s precedes start_date %s", c.EndDate, c.StartDate)
	}
	return nil
}

// Window parses the simulation date range. Either bound may be empty,
// meaning "everything the data covers" on that side.
func (c *Config) Window() (start, end time.Time, err error) {
	if c.StartDate != "" {
		start, err = time.Parse(dateLayout, c.StartDate)
		if err != nil {
			return start, end, fmt.Errorf("invalid start_date %q: %w", c.StartDate, err)
		}
	}
	if c.EndDate != "" {
		end, err = time.Parse(dateLayout, c.EndDate)
		if err != nil {
			return start, end, fmt.Errorf("invalid end_date %q: %w", c.EndDate, err)
		}
	} else {
		end = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
	}
	return start, end, nil
}

// EngineConfig maps the file surface onto the engine's config
func (c *Config) EngineConfig() (engine.Config, error) {
	start, end, err := c.Window()
	if err != nil {
		return engine.Config{}, err
	}
	return engine.Config{
		ReferenceTicker:  c.ReferenceTicker,
		Start:            start,
		End:              end,
		StartingCapital:  c.StartingCapital,
		CommissionPerLeg: c.CommissionPerLeg,
		Slippage:         c.Slippage,
		MaxPositions:     c.MaxPositions,
		MaxPerStrategy:   c.MaxPositionsPerStrategy,
		MaxPortfolioRisk: c.MaxPortfolioRiskPct,
		RiskFreeRate:     c.RiskFreeRate,
	}, nil
}

// BuildStrategies instantiates every enabled strategy from the registry,
// injecting the global risk-free rate unless the bundle overrides it
func (c *Config) BuildStrategies(registry *strategy.Registry) ([]strategy.Strategy, error) {
	names := make([]string, 0, len(c.Strategies))
	for name := range c.Strategies {
		names = append(names, name)
	}
	// Deterministic engine tie-break order
	sort.Strings(names)

	out := make([]strategy.Strategy, 0, len(names))
	for _, name := range names {
		params := strategy.Params{}
		for k, v := range c.Strategies[name] {
			params[k] = v
		}
		if _, set := params["risk_free_rate"]; !set {
			params["risk_free_rate"] = c.RiskFreeRate
		}
		s, err := registry.Create(name, params)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
