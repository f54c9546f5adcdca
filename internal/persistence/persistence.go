// Package persistence defines the storage contract for completed backtest
// runs. Implementations live in subpackages; the engine itself never
// depends on storage.
package persistence

import (
	"context"
	"time"

	"github.com/sawpanic/optionrun/internal/engine"
)

// ResultsRepo stores completed runs with their trade logs and equity curves
type ResultsRepo interface {
	// SaveResults persists one run atomically and returns its run id
	SaveResults(ctx context.Context, res *engine.Results) (string, error)

	// ListRuns returns the most recent run records, newest first
	ListRuns(ctx context.Context, limit int) ([]RunRecord, error)
}

// RunRecord is the summary row stored per run
type RunRecord struct {
	ID              string    `db:"id"`
	Reference       string    `db:"reference"`
	StartDate       time.Time `db:"start_date"`
	EndDate         time.Time `db:"end_date"`
	TradingDays     int       `db:"trading_days"`
	StartingCapital float64   `db:"starting_capital"`
	EndingEquity    float64   `db:"ending_equity"`
	TotalPnL        float64   `db:"total_pnl"`
	Trades          int       `db:"trades"`
	WinRate         float64   `db:"win_rate"`
	SharpeRatio     float64   `db:"sharpe_ratio"`
	MaxDrawdownPct  float64   `db:"max_drawdown_pct"`
	CreatedAt       time.Time `db:"created_at"`
}
