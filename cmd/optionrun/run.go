package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawpanic/optionrun/internal/config"
	"github.com/sawpanic/optionrun/internal/data"
	"github.com/sawpanic/optionrun/internal/engine"
	"github.com/sawpanic/optionrun/internal/events"
	"github.com/sawpanic/optionrun/internal/market"
	"github.com/sawpanic/optionrun/internal/persistence/postgres"
	"github.com/sawpanic/optionrun/internal/regime"
	"github.com/sawpanic/optionrun/internal/strategy"
	"github.com/sawpanic/optionrun/internal/telemetry"
)

func runBacktest(cmd *cobra.Command, args []string) error {
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if start, _ := cmd.Flags().GetString("start"); start != "" {
		cfg.StartDate = start
	}
	if end, _ := cmd.Flags().GetString("end"); end != "" {
		cfg.EndDate = end
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start, end, err := cfg.Window()
	if err != nil {
		return err
	}
	// Indicators need history before the first simulated day
	fetchStart := start
	if !fetchStart.IsZero() {
		fetchStart = fetchStart.AddDate(-2, 0, 0)
	}

	provider, closeProvider := buildProvider(cfg)
	defer closeProvider()

	tickers := append([]string{}, cfg.Tickers...)
	tickers = append(tickers, cfg.VIXTicker)
	store, err := data.BulkFetch(ctx, provider, tickers, fetchStart, end)
	if err != nil {
		return fmt.Errorf("market data load failed: %w", err)
	}
	vix, _ := store.History(cfg.VIXTicker)

	calendar, err := loadCalendar(cfg)
	if err != nil {
		return err
	}

	builder := market.NewBuilder(store, vix, calendar, regime.New(cfg.Regime), cfg.ReferenceTicker, cfg.Snapshot)

	strategies, err := cfg.BuildStrategies(strategy.DefaultRegistry())
	if err != nil {
		return err
	}

	engineCfg, err := cfg.EngineConfig()
	if err != nil {
		return err
	}
	eng, err := engine.New(engineCfg, strategies, builder, store)
	if err != nil {
		return err
	}

	if addr, _ := cmd.Flags().GetString("monitor"); addr != "" {
		metrics := telemetry.NewMetrics()
		eng.AddObserver(metrics)

		server := telemetry.NewServer(addr, metrics)
		go func() {
			if serveErr := server.Start(); serveErr != nil {
				log.Error().Err(serveErr).Msg("Monitor server failed")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			server.Shutdown(shutdownCtx)
		}()
	}

	results, err := eng.Run(ctx)
	if err != nil {
		return err
	}

	printReport(cmd.OutOrStdout(), results)

	save, _ := cmd.Flags().GetBool("save")
	if save || cfg.Postgres.Enabled {
		if err := saveResults(ctx, cfg, results); err != nil {
			return err
		}
	}
	return nil
}

// buildProvider assembles the data source chain: CSV reader, rate limiter,
// circuit breaker, and the optional Redis bar cache in front
func buildProvider(cfg *config.Config) (data.Provider, func()) {
	var provider data.Provider = data.NewCSVProvider(cfg.DataDir)
	provider = data.NewRateLimitedProvider(provider, 50, 10)
	provider = data.NewBreakerProvider(provider, "csv")

	closeFn := func() {}
	if cfg.Redis.Enabled {
		cache, err := data.NewBarCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, provider, cfg.Redis.TTL())
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, loading bars uncached")
		} else {
			provider = cache
			closeFn = func() { cache.Close() }
		}
	}
	return provider, closeFn
}

func loadCalendar(cfg *config.Config) (*events.Calendar, error) {
	if cfg.EventsFile == "" {
		return events.DefaultCalendar(), nil
	}
	return config.LoadEvents(cfg.EventsFile)
}

func saveResults(ctx context.Context, cfg *config.Config, results *engine.Results) error {
	if cfg.Postgres.DSN == "" {
		return fmt.Errorf("postgres.dsn is required to save results")
	}
	db, err := postgres.Connect(ctx, cfg.Postgres.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	repo, err := postgres.NewResultsRepo(ctx, db, 30*time.Second)
	if err != nil {
		return err
	}
	runID, err := repo.SaveResults(ctx, results)
	if err != nil {
		return err
	}
	log.Info().Str("run_id", runID).Msg("Results saved")
	return nil
}
