// Package postgres implements run persistence on PostgreSQL via sqlx.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sawpanic/optionrun/internal/engine"
	"github.com/sawpanic/optionrun/internal/persistence"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id               UUID PRIMARY KEY,
	reference        TEXT NOT NULL,
	start_date       DATE NOT NULL,
	end_date         DATE NOT NULL,
	trading_days     INT NOT NULL,
	starting_capital DOUBLE PRECISION NOT NULL,
	ending_equity    DOUBLE PRECISION NOT NULL,
	total_pnl        DOUBLE PRECISION NOT NULL,
	trades           INT NOT NULL,
	win_rate         DOUBLE PRECISION NOT NULL,
	sharpe_ratio     DOUBLE PRECISION NOT NULL,
	max_drawdown_pct DOUBLE PRECISION NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS run_trades (
	run_id      UUID NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	position_id UUID NOT NULL,
	strategy    TEXT NOT NULL,
	ticker      TEXT NOT NULL,
	direction   TEXT NOT NULL,
	contracts   INT NOT NULL,
	entry_date  DATE NOT NULL,
	exit_date   DATE NOT NULL,
	exit_reason TEXT NOT NULL,
	net_credit  DOUBLE PRECISION NOT NULL,
	pnl         DOUBLE PRECISION NOT NULL,
	return_pct  DOUBLE PRECISION NOT NULL,
	commission  DOUBLE PRECISION NOT NULL,
	legs        JSONB NOT NULL,
	PRIMARY KEY (run_id, position_id)
);

CREATE TABLE IF NOT EXISTS run_equity (
	run_id UUID NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	date   DATE NOT NULL,
	equity DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (run_id, date)
);`

// Connect opens a pooled connection and verifies it
func Connect(ctx context.Context, dsn string) (*sqlx.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// resultsRepo implements persistence.ResultsRepo on PostgreSQL
type resultsRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewResultsRepo creates the repository and ensures the schema exists
func NewResultsRepo(ctx context.Context, db *sqlx.DB, timeout time.Duration) (persistence.ResultsRepo, error) {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}
	return &resultsRepo{db: db, timeout: timeout}, nil
}

// SaveResults writes the run summary, trade log and equity curve in one
// transaction so a run is either fully recorded or absent
func (r *resultsRepo) SaveResults(ctx context.Context, res *engine.Results) (string, error) {
	runID := res.RunID
	if runID == "" {
		runID = uuid.New().String()
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout*time.Duration(len(res.Trades)/500+1))
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, reference, start_date, end_date, trading_days,
			starting_capital, ending_equity, total_pnl, trades,
			win_rate, sharpe_ratio, max_drawdown_pct)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		runID, res.Reference, res.Start, res.End, res.TradingDays,
		res.StartingCapital, res.EndingEquity, res.Combined.TotalPnL, res.Combined.Trades,
		res.Combined.WinRate, res.Combined.SharpeRatio, res.Combined.MaxDrawdownPct)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return "", fmt.Errorf("run %s already recorded: %w", runID, err)
		}
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	tradeStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_trades (run_id, position_id, strategy, ticker, direction,
			contracts, entry_date, exit_date, exit_reason, net_credit,
			pnl, return_pct, commission, legs)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare trade insert: %w", err)
	}
	defer tradeStmt.Close()

	for _, t := range res.Trades {
		legsJSON, mErr := json.Marshal(t.Legs)
		if mErr != nil {
			return "", fmt.Errorf("failed to marshal legs for %s: %w", t.PositionID, mErr)
		}
		if _, err = tradeStmt.ExecContext(ctx,
			runID, t.PositionID, t.Strategy, t.Ticker, t.Direction,
			t.Contracts, t.EntryDate, t.ExitDate, t.ExitReason, t.NetCredit,
			t.PnL, t.ReturnPct, t.Commission, legsJSON); err != nil {
			return "", fmt.Errorf("failed to insert trade %s: %w", t.PositionID, err)
		}
	}

	equityStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_equity (run_id, date, equity) VALUES ($1, $2, $3)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare equity insert: %w", err)
	}
	defer equityStmt.Close()

	for _, p := range res.EquityCurve {
		if _, err = equityStmt.ExecContext(ctx, runID, p.Date, p.Equity); err != nil {
			return "", fmt.Errorf("failed to insert equity point %s: %w", p.Date.Format("2006-01-02"), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}
	return runID, nil
}

// ListRuns returns recent run summaries, newest first
func (r *resultsRepo) ListRuns(ctx context.Context, limit int) ([]persistence.RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var runs []persistence.RunRecord
	err := r.db.SelectContext(ctx, &runs, `
		SELECT id, reference, start_date, end_date, trading_days,
			starting_capital, ending_equity, total_pnl, trades,
			win_rate, sharpe_ratio, max_drawdown_pct, created_at
		FROM runs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}
