package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"equity-signal-bot/internal/market"
)

// DefaultSeriesTTL bounds how stale cached daily bars may get between scans.
const DefaultSeriesTTL = 15 * time.Minute

// SeriesStore is the cache abstraction the price-feed wrapper works against.
// Implementations treat every failure as a miss.
type SeriesStore interface {
	GetSeries(ctx context.Context, key string) (market.PriceSeries, bool)
	SetSeries(ctx context.Context, key string, series market.PriceSeries)
}

// SeriesKey builds the cache key for one ticker and lookback.
func SeriesKey(ticker string, lookbackDays int) string {
	return fmt.Sprintf("series:%s:%d", ticker, lookbackDays)
}

// RedisSeriesStore caches bar history in Redis through the CacheService, so
// multiple processes (scanner and one-shot runs) share fetched data.
type RedisSeriesStore struct {
	cache *CacheService
	ttl   time.Duration
}

// NewRedisSeriesStore wraps a CacheService. A non-positive ttl falls back to
// DefaultSeriesTTL.
func NewRedisSeriesStore(cache *CacheService, ttl time.Duration) *RedisSeriesStore {
	if ttl <= 0 {
		ttl = DefaultSeriesTTL
	}
	return &RedisSeriesStore{cache: cache, ttl: ttl}
}

// GetSeries fetches and decodes cached bars. Any failure, including a
// degraded Redis, is reported as a miss.
func (s *RedisSeriesStore) GetSeries(ctx context.Context, key string) (market.PriceSeries, bool) {
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, false
	}

	var series market.PriceSeries
	if err := json.Unmarshal([]byte(raw), &series); err != nil {
		return nil, false
	}
	if len(series) == 0 {
		return nil, false
	}
	return series, true
}

// SetSeries stores bars best-effort; a degraded Redis drops the write.
func (s *RedisSeriesStore) SetSeries(ctx context.Context, key string, series market.PriceSeries) {
	_ = s.cache.Set(ctx, key, series, s.ttl)
}
