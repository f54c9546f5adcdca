package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const (
	appName = "OptionRun"
	version = "v1.0.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	rootCmd := &cobra.Command{
		Use:     "optionrun",
		Short:   "Multi-strategy options portfolio backtester",
		Version: version,
		Long: `OptionRun replays a portfolio of options strategies day by day against
historical market data: seven strategies, Black-Scholes valuation,
portfolio-wide risk gating, and full performance attribution.`,
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run a backtest",
		Long:  "Loads market data, replays the configured window, and prints the performance report",
		RunE:  runBacktest,
	}
	runCmd.Flags().StringP("config", "c", "config/backtest.yaml", "Path to backtest configuration")
	runCmd.Flags().String("start", "", "Override start date (YYYY-MM-DD)")
	runCmd.Flags().String("end", "", "Override end date (YYYY-MM-DD)")
	runCmd.Flags().String("monitor", "", "Serve /metrics and /health on this address while running")
	runCmd.Flags().Bool("save", false, "Persist results to Postgres (requires postgres config)")
	runCmd.Flags().BoolP("verbose", "v", false, "Debug logging")

	strategiesCmd := &cobra.Command{
		Use:   "strategies",
		Short: "List available strategies and their parameter spaces",
		RunE:  runStrategies,
	}

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(strategiesCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("Command failed")
	}
}
