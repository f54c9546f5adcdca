package data

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticProvider struct {
	bars  History
	calls int
}

func (s *staticProvider) Fetch(ctx context.Context, ticker string, start, end time.Time) (History, error) {
	s.calls++
	return s.bars, nil
}

func TestBarCache_Hit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	upstream := &staticProvider{bars: sampleHistory()}
	cache := &BarCache{client: db, inner: upstream, ttl: time.Hour, prefix: "bars:"}

	cached, err := json.Marshal(sampleHistory())
	require.NoError(t, err)
	mock.ExpectGet("bars:SPY:2023-03-01:2023-03-06").SetVal(string(cached))

	bars, err := cache.Fetch(context.Background(), "SPY", day(2023, 3, 1), day(2023, 3, 6))
	require.NoError(t, err)
	assert.Len(t, bars, 4)
	assert.Equal(t, 0, upstream.calls, "cache hit skips upstream")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBarCache_MissFillsAndStores(t *testing.T) {
	db, mock := redismock.NewClientMock()
	upstream := &staticProvider{bars: sampleHistory()}
	cache := &BarCache{client: db, inner: upstream, ttl: time.Hour, prefix: "bars:"}

	payload, err := json.Marshal(sampleHistory())
	require.NoError(t, err)

	key := "bars:SPY:2023-03-01:2023-03-06"
	mock.ExpectGet(key).RedisNil()
	mock.ExpectSet(key, payload, time.Hour).SetVal("OK")

	bars, err := cache.Fetch(context.Background(), "SPY", day(2023, 3, 1), day(2023, 3, 6))
	require.NoError(t, err)
	assert.Len(t, bars, 4)
	assert.Equal(t, 1, upstream.calls, "miss delegates upstream once")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBarCache_RedisErrorDegradesToPassThrough(t *testing.T) {
	db, mock := redismock.NewClientMock()
	upstream := &staticProvider{bars: sampleHistory()}
	cache := &BarCache{client: db, inner: upstream, ttl: time.Hour, prefix: "bars:"}

	key := "bars:SPY:2023-03-01:2023-03-06"
	mock.ExpectGet(key).SetErr(assert.AnError)

	bars, err := cache.Fetch(context.Background(), "SPY", day(2023, 3, 1), day(2023, 3, 6))
	require.NoError(t, err, "cache failure must not fail the fetch")
	assert.Len(t, bars, 4)
	assert.Equal(t, 1, upstream.calls)
}
