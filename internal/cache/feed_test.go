package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"equity-signal-bot/internal/market"
)

func sampleSeries(n int) market.PriceSeries {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	series := make(market.PriceSeries, n)
	for i := 0; i < n; i++ {
		price := 100.0 + float64(i)
		series[i] = market.PricePoint{
			Time:   start.AddDate(0, 0, i),
			Open:   price,
			High:   price + 1,
			Low:    price - 1,
			Close:  price,
			Volume: 1000,
		}
	}
	return series
}

type countingFeed struct {
	series market.PriceSeries
	err    error
	calls  int
}

func (f *countingFeed) Fetch(ctx context.Context, ticker string, lookbackDays int) (market.PriceSeries, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.series, nil
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemorySeriesStore(time.Minute)
	ctx := context.Background()
	key := SeriesKey("NVDA", 250)

	if _, ok := store.GetSeries(ctx, key); ok {
		t.Fatal("empty store should miss")
	}

	store.SetSeries(ctx, key, sampleSeries(3))
	got, ok := store.GetSeries(ctx, key)
	if !ok {
		t.Fatal("stored series should hit")
	}
	if len(got) != 3 {
		t.Errorf("expected 3 bars back, got %d", len(got))
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemorySeriesStore(30 * time.Millisecond)
	ctx := context.Background()
	key := SeriesKey("NVDA", 250)

	store.SetSeries(ctx, key, sampleSeries(3))
	time.Sleep(50 * time.Millisecond)

	if _, ok := store.GetSeries(ctx, key); ok {
		t.Error("expired entry should miss")
	}

	store.CleanupExpired()
	store.mu.RLock()
	remaining := len(store.cache)
	store.mu.RUnlock()
	if remaining != 0 {
		t.Errorf("cleanup should drop expired entries, %d left", remaining)
	}
}

func TestMemoryStoreClear(t *testing.T) {
	store := NewMemorySeriesStore(time.Minute)
	ctx := context.Background()

	store.SetSeries(ctx, SeriesKey("NVDA", 250), sampleSeries(3))
	store.Clear()

	if _, ok := store.GetSeries(ctx, SeriesKey("NVDA", 250)); ok {
		t.Error("cleared store should miss")
	}
}

func TestCachedFeedHitSkipsUnderlyingFeed(t *testing.T) {
	feed := &countingFeed{series: sampleSeries(5)}
	store := NewMemorySeriesStore(time.Minute)
	cached := NewCachedPriceFeed(feed, store, zerolog.Nop())
	ctx := context.Background()

	first, err := cached.Fetch(ctx, "NVDA", 250)
	if err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	second, err := cached.Fetch(ctx, "NVDA", 250)
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}

	if feed.calls != 1 {
		t.Errorf("second fetch should be served from cache, feed called %d times", feed.calls)
	}
	if len(first) != len(second) {
		t.Errorf("cache should return the same series, %d vs %d bars", len(first), len(second))
	}
}

func TestCachedFeedDistinguishesLookbacks(t *testing.T) {
	feed := &countingFeed{series: sampleSeries(5)}
	cached := NewCachedPriceFeed(feed, NewMemorySeriesStore(time.Minute), zerolog.Nop())
	ctx := context.Background()

	cached.Fetch(ctx, "NVDA", 250)
	cached.Fetch(ctx, "NVDA", 60)

	if feed.calls != 2 {
		t.Errorf("different lookbacks must not share a cache entry, feed called %d times", feed.calls)
	}
}

func TestCachedFeedErrorPassesThrough(t *testing.T) {
	wantErr := errors.New("upstream down")
	feed := &countingFeed{err: wantErr}
	cached := NewCachedPriceFeed(feed, NewMemorySeriesStore(time.Minute), zerolog.Nop())

	_, err := cached.Fetch(context.Background(), "NVDA", 250)
	if !errors.Is(err, wantErr) {
		t.Errorf("feed error should pass through, got %v", err)
	}
}
