package cache

import (
	"context"
	"sync"
	"time"

	"equity-signal-bot/internal/market"
)

// cachedSeries holds one series with its expiry
type cachedSeries struct {
	Series    market.PriceSeries
	ExpiresAt time.Time
}

// MemorySeriesStore caches bar history in process with a TTL, for runs
// without Redis
type MemorySeriesStore struct {
	mu    sync.RWMutex
	cache map[string]*cachedSeries
	ttl   time.Duration
}

// NewMemorySeriesStore creates a new in-memory store with the specified TTL
func NewMemorySeriesStore(ttl time.Duration) *MemorySeriesStore {
	if ttl <= 0 {
		ttl = DefaultSeriesTTL
	}
	return &MemorySeriesStore{
		cache: make(map[string]*cachedSeries),
		ttl:   ttl,
	}
}

// GetSeries retrieves cached bars if not expired
func (ms *MemorySeriesStore) GetSeries(ctx context.Context, key string) (market.PriceSeries, bool) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	cached, exists := ms.cache[key]
	if !exists {
		return nil, false
	}

	// Check if expired
	if time.Now().After(cached.ExpiresAt) {
		return nil, false
	}

	return cached.Series, true
}

// SetSeries stores bars in cache with TTL
func (ms *MemorySeriesStore) SetSeries(ctx context.Context, key string, series market.PriceSeries) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.cache[key] = &cachedSeries{
		Series:    series,
		ExpiresAt: time.Now().Add(ms.ttl),
	}
}

// Clear removes all cached series
func (ms *MemorySeriesStore) Clear() {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.cache = make(map[string]*cachedSeries)
}

// CleanupExpired removes expired cache entries
func (ms *MemorySeriesStore) CleanupExpired() {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := time.Now()
	for key, cached := range ms.cache {
		if now.After(cached.ExpiresAt) {
			delete(ms.cache, key)
		}
	}
}
