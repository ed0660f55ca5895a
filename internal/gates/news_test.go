package gates

import (
	"context"
	"errors"
	"strings"
	"testing"

	"equity-signal-bot/internal/sentiment"
)

// stubNewsFeed serves canned headlines or a canned error.
type stubNewsFeed struct {
	headlines []string
	err       error
}

func (s *stubNewsFeed) Headlines(_ context.Context, _ string, count int) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	if len(s.headlines) > count {
		return s.headlines[:count], nil
	}
	return s.headlines, nil
}

func TestNewsGateBlocksNegativeSentiment(t *testing.T) {
	feed := &stubNewsFeed{headlines: []string{
		"Shares crash as bankruptcy fears spread",
		"Regulator opens fraud investigation, stock plunges",
		"Massive layoffs announced amid collapse",
	}}
	gate := NewNewsGate(feed, sentiment.NewAnalyzer(), DefaultNewsConfig())

	result := gate.Evaluate(context.Background(), "TSLA")

	if result.Passed {
		t.Fatalf("expected block, got pass: %s", result.Reason)
	}
	if result.Metrics["sentiment"] > -0.5 {
		t.Errorf("aggregate sentiment = %f, want at or below -0.5", result.Metrics["sentiment"])
	}
}

func TestNewsGatePassesPositiveSentiment(t *testing.T) {
	feed := &stubNewsFeed{headlines: []string{
		"Stock surges after record earnings beat",
		"Analysts upgrade on strong growth",
	}}
	gate := NewNewsGate(feed, sentiment.NewAnalyzer(), DefaultNewsConfig())

	result := gate.Evaluate(context.Background(), "NVDA")

	if !result.Passed {
		t.Fatalf("expected pass, got block: %s", result.Reason)
	}
	if result.Metrics["sentiment"] <= 0 {
		t.Errorf("aggregate sentiment = %f, want positive", result.Metrics["sentiment"])
	}
}

func TestNewsGateEmptyHeadlinesAreNeutral(t *testing.T) {
	gate := NewNewsGate(&stubNewsFeed{}, sentiment.NewAnalyzer(), DefaultNewsConfig())

	result := gate.Evaluate(context.Background(), "AAPL")

	if !result.Passed {
		t.Fatalf("ticker without news must pass through, got: %s", result.Reason)
	}
	if !strings.Contains(result.Reason, "neutral") {
		t.Errorf("reason %q should say the gate treated missing news as neutral", result.Reason)
	}
	if result.Metrics["sentiment"] != 0 {
		t.Errorf("sentiment metric = %f, want 0", result.Metrics["sentiment"])
	}
}

func TestNewsGateFeedErrorFailsClosed(t *testing.T) {
	gate := NewNewsGate(&stubNewsFeed{err: errors.New("timeout")},
		sentiment.NewAnalyzer(), DefaultNewsConfig())

	result := gate.Evaluate(context.Background(), "MSFT")

	if result.Passed {
		t.Fatal("failing news feed must fail the gate closed")
	}
	if !strings.Contains(result.Reason, "news feed unavailable") {
		t.Errorf("reason %q should name the feed failure", result.Reason)
	}
}

func TestNewsGateRespectsTopK(t *testing.T) {
	feed := &stubNewsFeed{headlines: []string{
		"Stock surges on record profit",
		"Shares rally after upgrade",
		"Growth beats expectations",
		"Bankruptcy crash collapse fraud panic", // must be cut off by TopK 3
	}}
	gate := NewNewsGate(feed, sentiment.NewAnalyzer(), DefaultNewsConfig())

	result := gate.Evaluate(context.Background(), "AMZN")

	if !result.Passed {
		t.Fatalf("expected pass on the top three headlines, got: %s", result.Reason)
	}
	if result.Metrics["headlines"] != 3 {
		t.Errorf("scored %v headlines, want 3", result.Metrics["headlines"])
	}
}
