package gates

import (
	"context"
	"fmt"

	"equity-signal-bot/internal/market"
	"equity-signal-bot/internal/sentiment"
)

// NewsConfig sets the sentiment gate's inputs and threshold.
type NewsConfig struct {
	// TopK is how many recent headlines to score. Default 3.
	TopK int

	// BlockThreshold fails the gate when the mean compound score is at or
	// below it. Default -0.5.
	BlockThreshold float64
}

// DefaultNewsConfig returns the standard headline count and block threshold.
func DefaultNewsConfig() NewsConfig {
	return NewsConfig{TopK: 3, BlockThreshold: -0.5}
}

func (c NewsConfig) withDefaults() NewsConfig {
	if c.TopK <= 0 {
		c.TopK = 3
	}
	if c.BlockThreshold == 0 {
		c.BlockThreshold = -0.5
	}
	return c
}

// NewsGate scores recent headlines and blocks on strongly negative aggregate
// sentiment.
type NewsGate struct {
	feed     market.NewsFeed
	analyzer *sentiment.Analyzer
	cfg      NewsConfig
}

// NewNewsGate wires the gate to its headline feed and analyzer.
func NewNewsGate(feed market.NewsFeed, analyzer *sentiment.Analyzer, cfg NewsConfig) *NewsGate {
	return &NewsGate{feed: feed, analyzer: analyzer, cfg: cfg.withDefaults()}
}

// Evaluate fetches the ticker's recent headlines and judges their mean
// compound score.
//
// An empty headline list passes through as neutral: a ticker without news
// coverage must not be blocked by the absence of data. A failing feed is
// different, that fails closed like every other gate.
func (g *NewsGate) Evaluate(ctx context.Context, ticker string) market.GateResult {
	headlines, err := g.feed.Headlines(ctx, ticker, g.cfg.TopK)
	if err != nil {
		return fail(market.GateNews,
			fmt.Sprintf("news feed unavailable: %v", err), nil)
	}

	if len(headlines) == 0 {
		return pass(market.GateNews, "no recent headlines, treating as neutral",
			map[string]float64{"sentiment": 0, "headlines": 0})
	}

	score := g.analyzer.ScoreAll(headlines)
	metrics := map[string]float64{
		"sentiment": score,
		"headlines": float64(len(headlines)),
	}

	if score <= g.cfg.BlockThreshold {
		return fail(market.GateNews,
			fmt.Sprintf("aggregate sentiment %.2f at or below block threshold %.2f over %d headlines",
				score, g.cfg.BlockThreshold, len(headlines)),
			metrics)
	}

	return pass(market.GateNews,
		fmt.Sprintf("aggregate sentiment %.2f over %d headlines", score, len(headlines)),
		metrics)
}
