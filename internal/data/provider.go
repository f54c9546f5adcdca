package data

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// Provider fetches daily bars for one ticker over a date window. The engine
// only touches providers during the upfront bulk-fetch phase; the day loop
// itself never blocks on I/O.
type Provider interface {
	Fetch(ctx context.Context, ticker string, start, end time.Time) (History, error)
}

// CSVProvider reads one <TICKER>.csv file per ticker from a directory.
// Expected layout: a header row, then date,open,high,low,close,volume.
type CSVProvider struct {
	dir string
}

// NewCSVProvider creates a provider rooted at the given directory
func NewCSVProvider(dir string) *CSVProvider {
	return &CSVProvider{dir: dir}
}

// Fetch reads and window-filters the ticker's CSV file
func (p *CSVProvider) Fetch(ctx context.Context, ticker string, start, end time.Time) (History, error) {
	path := filepath.Join(p.dir, fmt.Sprintf("%s.csv", strings.ToUpper(ticker)))

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bars file for %s: %w", ticker, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse bars file %s: %w", path, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("bars file %s has no data rows", path)
	}

	bars := make(History, 0, len(records)-1)
	for i, rec := range records[1:] { // skip header
		if len(rec) < 6 {
			return nil, fmt.Errorf("bars file %s row %d: want 6 columns, got %d", path, i+2, len(rec))
		}
		bar, err := parseBar(rec)
		if err != nil {
			return nil, fmt.Errorf("bars file %s row %d: %w", path, i+2, err)
		}
		if bar.Date.Before(start) || bar.Date.After(end) {
			continue
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

func parseBar(rec []string) (Bar, error) {
	date, err := time.Parse("2006-01-02", strings.TrimSpace(rec[0]))
	if err != nil {
		return Bar{}, fmt.Errorf("bad date %q: %w", rec[0], err)
	}

	fields := make([]float64, 5)
	for i := 0; i < 5; i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[i+1]), 64)
		if err != nil {
			return Bar{}, fmt.Errorf("bad numeric field %q: %w", rec[i+1], err)
		}
		fields[i] = v
	}
	return Bar{
		Date:   date.UTC(),
		Open:   fields[0],
		High:   fields[1],
		Low:    fields[2],
		Close:  fields[3],
		Volume: fields[4],
	}, nil
}

// RateLimitedProvider throttles fetches against an upstream request budget
type RateLimitedProvider struct {
	inner   Provider
	limiter *rate.Limiter
}

// NewRateLimitedProvider wraps a provider with a token-bucket limiter
func NewRateLimitedProvider(inner Provider, rps float64, burst int) *RateLimitedProvider {
	return &RateLimitedProvider{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Fetch blocks until the limiter grants a token, then delegates
func (p *RateLimitedProvider) Fetch(ctx context.Context, ticker string, start, end time.Time) (History, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait for %s: %w", ticker, err)
	}
	return p.inner.Fetch(ctx, ticker, start, end)
}

// BreakerProvider trips after repeated upstream failures so a degraded data
// source fails fast for the remaining tickers instead of stalling the fetch
// phase.
type BreakerProvider struct {
	inner   Provider
	breaker *gobreaker.CircuitBreaker
}

// NewBreakerProvider wraps a provider with a circuit breaker
func NewBreakerProvider(inner Provider, name string) *BreakerProvider {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 2,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("provider", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Data provider breaker state change")
		},
	}
	return &BreakerProvider{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// Fetch delegates through the breaker
func (p *BreakerProvider) Fetch(ctx context.Context, ticker string, start, end time.Time) (History, error) {
	result, err := p.breaker.Execute(func() (interface{}, error) {
		return p.inner.Fetch(ctx, ticker, start, end)
	})
	if err != nil {
		return nil, err
	}
	return result.(History), nil
}

// BulkFetch loads every ticker into a fresh store. Individual ticker
// failures are logged and skipped; the fetch only fails as a whole when no
// ticker loaded at all.
func BulkFetch(ctx context.Context, provider Provider, tickers []string, start, end time.Time) (*Store, error) {
	store := NewStore()
	loaded := 0

	for _, ticker := range tickers {
		bars, err := provider.Fetch(ctx, ticker, start, end)
		if err != nil {
			log.Warn().Err(err).Str("ticker", ticker).Msg("Skipping ticker: fetch failed")
			continue
		}
		if len(bars) == 0 {
			log.Warn().Str("ticker", ticker).Msg("Skipping ticker: no bars in window")
			continue
		}
		store.Put(ticker, bars)
		loaded++
	}

	if loaded == 0 {
		return nil, fmt.Errorf("no price data loaded for any of %d requested tickers", len(tickers))
	}

	log.Info().Int("tickers", loaded).Int("requested", len(tickers)).Msg("Bulk fetch complete")
	return store, nil
}
