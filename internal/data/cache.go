package data

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
)

// BarCache fronts a Provider with a Redis byte cache so repeated backtests
// over the same window skip the upstream fetch entirely. Cache failures are
// soft: a broken Redis degrades to pass-through, never fails the fetch.
type BarCache struct {
	client *redis.Client
	inner  Provider
	ttl    time.Duration
	prefix string
}

// NewBarCache connects to Redis and wraps the inner provider
func NewBarCache(addr, password string, db int, inner Provider, ttl time.Duration) (*BarCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &BarCache{client: rdb, inner: inner, ttl: ttl, prefix: "bars:"}, nil
}

// Fetch returns cached bars when present, otherwise delegates and caches
func (c *BarCache) Fetch(ctx context.Context, ticker string, start, end time.Time) (History, error) {
	key := c.key(ticker, start, end)

	val, err := c.client.Get(ctx, key).Result()
	if err == nil {
		var bars History
		if jsonErr := json.Unmarshal([]byte(val), &bars); jsonErr == nil {
			return bars, nil
		}
		// Corrupt entry: drop it and refetch
		c.client.Del(ctx, key)
	} else if err != redis.Nil {
		log.Warn().Err(err).Str("ticker", ticker).Msg("Bar cache read failed, fetching upstream")
	}

	bars, err := c.inner.Fetch(ctx, ticker, start, end)
	if err != nil {
		return nil, err
	}

	if payload, jsonErr := json.Marshal(bars); jsonErr == nil {
		if setErr := c.client.Set(ctx, key, payload, c.ttl).Err(); setErr != nil {
			log.Warn().Err(setErr).Str("ticker", ticker).Msg("Bar cache write failed")
		}
	}
	return bars, nil
}

// Close releases the Redis connection
func (c *BarCache) Close() error {
	return c.client.Close()
}

func (c *BarCache) key(ticker string, start, end time.Time) string {
	return fmt.Sprintf("%s%s:%s:%s", c.prefix, ticker, start.Format("2006-01-02"), end.Format("2006-01-02"))
}
