package data

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeBarsFile(t *testing.T, dir, ticker, content string) {
	t.Helper()
	path := filepath.Join(dir, ticker+".csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestCSVProvider_Fetch(t *testing.T) {
	dir := t.TempDir()
	writeBarsFile(t, dir, "SPY",
		"date,open,high,low,close,volume\n"+
			"2023-03-01,399.5,401.2,398.0,400.1,80000000\n"+
			"2023-03-02,400.0,402.8,399.4,402.5,75000000\n"+
			"2023-03-03,402.0,403.0,397.5,398.2,90000000\n")

	p := NewCSVProvider(dir)
	bars, err := p.Fetch(context.Background(), "SPY", day(2023, 3, 2), day(2023, 3, 3))
	require.NoError(t, err)
	require.Len(t, bars, 2, "window filter applied")
	assert.Equal(t, 402.5, bars[0].Close)
	assert.Equal(t, 90000000.0, bars[1].Volume)
}

func TestCSVProvider_Errors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		p := NewCSVProvider(dir)
		_, err := p.Fetch(context.Background(), "NOPE", day(2023, 1, 1), day(2023, 12, 31))
		assert.Error(t, err)
	})

	t.Run("malformed row", func(t *testing.T) {
		writeBarsFile(t, dir, "BAD", "date,open,high,low,close,volume\n2023-03-01,x,1,1,1,1\n")
		p := NewCSVProvider(dir)
		_, err := p.Fetch(context.Background(), "BAD", day(2023, 1, 1), day(2023, 12, 31))
		assert.ErrorContains(t, err, "bad numeric field")
	})
}

type failingProvider struct {
	calls int
}

func (f *failingProvider) Fetch(ctx context.Context, ticker string, start, end time.Time) (History, error) {
	f.calls++
	return nil, fmt.Errorf("upstream down")
}

func TestBreakerProvider_TripsAfterConsecutiveFailures(t *testing.T) {
	upstream := &failingProvider{}
	p := NewBreakerProvider(upstream, "test")

	for i := 0; i < 8; i++ {
		_, err := p.Fetch(context.Background(), "SPY", day(2023, 1, 1), day(2023, 12, 31))
		assert.Error(t, err)
	}

	assert.Equal(t, 5, upstream.calls, "breaker stops delegating after trip threshold")
}

func TestBulkFetch(t *testing.T) {
	dir := t.TempDir()
	writeBarsFile(t, dir, "SPY",
		"date,open,high,low,close,volume\n2023-03-01,399,401,398,400,1\n")

	t.Run("partial coverage succeeds", func(t *testing.T) {
		store, err := BulkFetch(context.Background(), NewCSVProvider(dir),
			[]string{"SPY", "MISSING"}, day(2023, 1, 1), day(2023, 12, 31))
		require.NoError(t, err)
		assert.Equal(t, []string{"SPY"}, store.Tickers(), "missing ticker silently omitted")
	})

	t.Run("total failure is fatal", func(t *testing.T) {
		_, err := BulkFetch(context.Background(), NewCSVProvider(dir),
			[]string{"A", "B"}, day(2023, 1, 1), day(2023, 12, 31))
		assert.ErrorContains(t, err, "no price data loaded")
	})
}

func TestRateLimitedProvider_Delegates(t *testing.T) {
	dir := t.TempDir()
	writeBarsFile(t, dir, "SPY",
		"date,open,high,low,close,volume\n2023-03-01,399,401,398,400,1\n")

	p := NewRateLimitedProvider(NewCSVProvider(dir), 100, 1)
	bars, err := p.Fetch(context.Background(), "SPY", day(2023, 1, 1), day(2023, 12, 31))
	require.NoError(t, err)
	assert.Len(t, bars, 1)
}
