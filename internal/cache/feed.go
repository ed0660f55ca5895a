package cache

import (
	"context"

	"github.com/rs/zerolog"

	"equity-signal-bot/internal/market"
)

// CachedPriceFeed serves bar history from a SeriesStore before hitting the
// underlying feed. It implements market.PriceFeed, so the evaluator never
// knows whether bars came from cache or the wire.
type CachedPriceFeed struct {
	feed   market.PriceFeed
	store  SeriesStore
	logger zerolog.Logger
}

// NewCachedPriceFeed wraps feed with store.
func NewCachedPriceFeed(feed market.PriceFeed, store SeriesStore, logger zerolog.Logger) *CachedPriceFeed {
	return &CachedPriceFeed{
		feed:   feed,
		store:  store,
		logger: logger.With().Str("component", "series-cache").Logger(),
	}
}

// Fetch returns cached bars when fresh, otherwise fetches live and populates
// the cache on the way back.
func (f *CachedPriceFeed) Fetch(ctx context.Context, ticker string, lookbackDays int) (market.PriceSeries, error) {
	key := SeriesKey(ticker, lookbackDays)

	if series, ok := f.store.GetSeries(ctx, key); ok {
		f.logger.Debug().Str("ticker", ticker).Msg("series cache hit")
		return series, nil
	}

	series, err := f.feed.Fetch(ctx, ticker, lookbackDays)
	if err != nil {
		return nil, err
	}

	f.store.SetSeries(ctx, key, series)
	return series, nil
}
