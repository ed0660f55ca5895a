package market

import "context"

// PriceFeed supplies daily bar history for one instrument. Implementations
// return an error wrapping ErrFeedUnavailable on network or data failures.
type PriceFeed interface {
	Fetch(ctx context.Context, ticker string, lookbackDays int) (PriceSeries, error)
}

// NewsFeed supplies recent headlines, newest first. An empty slice is a valid
// result, not an error.
type NewsFeed interface {
	Headlines(ctx context.Context, ticker string, count int) ([]string, error)
}

// OptionsFeed supplies the positioning snapshot for one instrument.
type OptionsFeed interface {
	Metrics(ctx context.Context, ticker string) (OptionsMetrics, error)
}

// MacroFeed supplies the broad-market index series and the rate series used
// by the market gate.
type MacroFeed interface {
	IndexAndRate(ctx context.Context) (index PriceSeries, rate PriceSeries, err error)
}

// SignalSink persists completed signal records. At-least-once delivery is the
// sink's responsibility.
type SignalSink interface {
	Persist(ctx context.Context, rec *SignalRecord) error
}

// AlertSink delivers alert notifications. The scanner invokes it only for
// records the debouncer did not suppress.
type AlertSink interface {
	Notify(ctx context.Context, ticker string, rec *SignalRecord) error
}
