package market

import "errors"

// Error taxonomy for the evaluation pipeline. Per-ticker errors
// (ErrInsufficientHistory, ErrFeedUnavailable) abort that ticker only and are
// recorded on its signal; ErrConfiguration is fatal at startup.
var (
	// ErrInsufficientHistory means a price series is too short for technical
	// computation (fewer than MinHistoryBars points).
	ErrInsufficientHistory = errors.New("insufficient price history")

	// ErrFeedUnavailable means an upstream feed failed; the owning gate fails
	// closed, except the news gate which treats missing headlines as neutral.
	ErrFeedUnavailable = errors.New("feed unavailable")

	// ErrMalformedSeries means a fetched series violated its invariants
	// (non-increasing timestamps, non-positive prices, negative volume).
	ErrMalformedSeries = errors.New("malformed price series")

	// ErrConfiguration means thresholds or tiers are invalid. Evaluation must
	// not start.
	ErrConfiguration = errors.New("invalid configuration")
)
