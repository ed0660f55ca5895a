package scanner

import (
	"sort"
	"sync"
	"time"

	"equity-signal-bot/internal/market"
)

// ResultCache holds the latest evaluation per ticker with a TTL. It lets the
// API serve current signals when persistence is disabled, and goes stale on
// its own once the scanner stops producing.
type ResultCache struct {
	mu      sync.RWMutex
	entries map[string]*cachedResult
	ttl     time.Duration
}

type cachedResult struct {
	Record    *market.SignalRecord
	ExpiresAt time.Time
}

// NewResultCache creates a new cache with the specified TTL
func NewResultCache(ttl time.Duration) *ResultCache {
	return &ResultCache{
		entries: make(map[string]*cachedResult),
		ttl:     ttl,
	}
}

// Get retrieves the latest record for a ticker if not expired
func (rc *ResultCache) Get(ticker string) *market.SignalRecord {
	rc.mu.RLock()
	defer rc.mu.RUnlock()

	cached, exists := rc.entries[ticker]
	if !exists {
		return nil
	}

	if time.Now().After(cached.ExpiresAt) {
		return nil
	}

	return cached.Record
}

// Set stores a record under its ticker with the cache TTL
func (rc *ResultCache) Set(rec *market.SignalRecord) {
	if rec == nil {
		return
	}

	rc.mu.Lock()
	defer rc.mu.Unlock()

	rc.entries[rec.Ticker] = &cachedResult{
		Record:    rec,
		ExpiresAt: time.Now().Add(rc.ttl),
	}
}

// All returns every unexpired record, ordered by ticker
func (rc *ResultCache) All() []*market.SignalRecord {
	rc.mu.RLock()
	defer rc.mu.RUnlock()

	now := time.Now()
	out := make([]*market.SignalRecord, 0, len(rc.entries))
	for _, cached := range rc.entries {
		if now.After(cached.ExpiresAt) {
			continue
		}
		out = append(out, cached.Record)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	return out
}

// Clear removes all cached results
func (rc *ResultCache) Clear() {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	rc.entries = make(map[string]*cachedResult)
}

// CleanupExpired removes expired cache entries
func (rc *ResultCache) CleanupExpired() {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	now := time.Now()
	for ticker, cached := range rc.entries {
		if now.After(cached.ExpiresAt) {
			delete(rc.entries, ticker)
		}
	}
}
