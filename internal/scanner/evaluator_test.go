package scanner

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"equity-signal-bot/internal/gates"
	"equity-signal-bot/internal/market"
	"equity-signal-bot/internal/sentiment"
)

type stubPriceFeed struct {
	mu     sync.Mutex
	series market.PriceSeries
	err    error
	calls  int
}

func (s *stubPriceFeed) Fetch(ctx context.Context, ticker string, lookbackDays int) (market.PriceSeries, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.series, nil
}

func (s *stubPriceFeed) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubOptionsFeed struct {
	metrics market.OptionsMetrics
	err     error
}

func (s *stubOptionsFeed) Metrics(ctx context.Context, ticker string) (market.OptionsMetrics, error) {
	if s.err != nil {
		return market.OptionsMetrics{}, s.err
	}
	return s.metrics, nil
}

type stubHeadlines struct {
	headlines []string
	err       error
}

func (s *stubHeadlines) Headlines(ctx context.Context, ticker string, count int) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	if count > 0 && len(s.headlines) > count {
		return s.headlines[:count], nil
	}
	return s.headlines, nil
}

// trendingSeries builds a steady uptrend with a shallow dip every ten bars,
// which carves support troughs below the final close and leaves no
// resistance overhead.
func trendingSeries(n int) market.PriceSeries {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	series := make(market.PriceSeries, n)
	price := 100.0
	for i := 0; i < n; i++ {
		price += 0.3
		if i%10 == 9 {
			price -= 1.5
		}
		series[i] = market.PricePoint{
			Time:   start.AddDate(0, 0, i),
			Open:   price - 0.1,
			High:   price + 0.2,
			Low:    price - 0.2,
			Close:  price,
			Volume: 1_000_000,
		}
	}
	return series
}

func passingMacro() market.MacroSnapshot {
	return market.MacroSnapshot{
		Result: market.GateResult{
			Gate:   market.GateMarket,
			Passed: true,
			Reason: "index above trend, no rate spike",
		},
		IndexClose: 450,
		IndexMA:    430,
		Time:       time.Date(2024, 6, 3, 14, 30, 0, 0, time.UTC),
	}
}

func failedMacro() market.MacroSnapshot {
	return market.MacroSnapshot{
		Result: market.GateResult{
			Gate:   market.GateMarket,
			Passed: false,
			Reason: "index 400.00 below 120-day average 430.00",
		},
		IndexClose: 400,
		IndexMA:    430,
		Time:       time.Date(2024, 6, 3, 14, 30, 0, 0, time.UTC),
	}
}

func newTestEvaluator(prices *stubPriceFeed, options *stubOptionsFeed, news *stubHeadlines) *Evaluator {
	newsGate := gates.NewNewsGate(news, sentiment.NewAnalyzer(), gates.NewsConfig{})
	cfg := EvaluatorConfig{
		DefaultOversold: 95,
		Support:         gates.SupportConfig{MaxSupportDistance: 1.0},
	}
	return NewEvaluator(prices, options, newsGate, cfg, nil, zerolog.Nop())
}

func TestEvaluateAllGatesPassingIsStrongBuy(t *testing.T) {
	prices := &stubPriceFeed{series: trendingSeries(126)}
	options := &stubOptionsFeed{metrics: market.OptionsMetrics{
		IVRank:        20,
		FlowDirection: market.FlowNone,
		PutCallRatio:  0.5,
	}}
	e := newTestEvaluator(prices, options, &stubHeadlines{})

	now := time.Date(2024, 6, 3, 14, 30, 0, 0, time.UTC)
	rec := e.Evaluate(context.Background(), "NVDA", passingMacro(), now)

	if rec.Classification != market.StrongBuy {
		t.Fatalf("expected strong_buy, got %s; gates: %+v", rec.Classification, rec.Gates)
	}
	if len(rec.Gates) != 5 {
		t.Fatalf("expected all 5 gate results, got %d", len(rec.Gates))
	}
	for _, g := range rec.Gates {
		if !g.Passed {
			t.Errorf("gate %s unexpectedly failed: %s", g.Gate, g.Reason)
		}
	}
	if rec.ID == "" {
		t.Error("record should carry a stamped ID")
	}
	if rec.Ticker != "NVDA" || !rec.Time.Equal(now) {
		t.Errorf("record identity wrong: %s at %v", rec.Ticker, rec.Time)
	}
	if rec.Price <= 0 {
		t.Error("record should carry the last close")
	}
	if rec.RSI <= 0 || rec.RSI >= 95 {
		t.Errorf("expected RSI inside the (0, 95) band for the uptrend, got %.1f", rec.RSI)
	}
	if rec.NearestSupport <= 0 || rec.NearestSupport >= rec.Price {
		t.Errorf("nearest support %.2f should sit below price %.2f", rec.NearestSupport, rec.Price)
	}
	if rec.PointOfControl <= 0 {
		t.Error("point of control should be populated")
	}
}

func TestEvaluateRecordIDsAreUnique(t *testing.T) {
	prices := &stubPriceFeed{series: trendingSeries(126)}
	options := &stubOptionsFeed{metrics: market.OptionsMetrics{IVRank: 20, PutCallRatio: 0.5, FlowDirection: market.FlowNone}}
	e := newTestEvaluator(prices, options, &stubHeadlines{})

	now := time.Now()
	a := e.Evaluate(context.Background(), "NVDA", passingMacro(), now)
	b := e.Evaluate(context.Background(), "NVDA", passingMacro(), now)
	if a.ID == b.ID {
		t.Errorf("two evaluations must not share an ID: %s", a.ID)
	}
}

func TestEvaluateMacroFailSkipsPerTickerFeeds(t *testing.T) {
	prices := &stubPriceFeed{series: trendingSeries(126)}
	options := &stubOptionsFeed{}
	e := newTestEvaluator(prices, options, &stubHeadlines{})

	rec := e.Evaluate(context.Background(), "NVDA", failedMacro(), time.Now())

	if rec.Classification != market.NoSignal {
		t.Errorf("macro failure must classify no_signal, got %s", rec.Classification)
	}
	if len(rec.Gates) != 1 {
		t.Errorf("expected only the shared market gate on the record, got %d", len(rec.Gates))
	}
	if prices.callCount() != 0 {
		t.Errorf("price feed should not be touched when the macro gate failed, got %d calls", prices.callCount())
	}
}

func TestEvaluatePriceFeedFailureFailsClosed(t *testing.T) {
	prices := &stubPriceFeed{err: fmt.Errorf("%w: connection refused", market.ErrFeedUnavailable)}
	e := newTestEvaluator(prices, &stubOptionsFeed{}, &stubHeadlines{})

	rec := e.Evaluate(context.Background(), "NVDA", passingMacro(), time.Now())

	if rec.Classification != market.NoSignal {
		t.Errorf("broken price feed must classify no_signal, got %s", rec.Classification)
	}
	chart := rec.GateByName(market.GateChart)
	if chart == nil {
		t.Fatal("the chart gate should own the price feed failure")
	}
	if chart.Passed {
		t.Error("owning gate must fail closed")
	}
	if !strings.Contains(chart.Reason, "feed unavailable") {
		t.Errorf("reason should carry the upstream error, got %q", chart.Reason)
	}
}

func TestEvaluateInsufficientHistoryAbortsTickerOnly(t *testing.T) {
	prices := &stubPriceFeed{series: trendingSeries(50)}
	e := newTestEvaluator(prices, &stubOptionsFeed{}, &stubHeadlines{})

	rec := e.Evaluate(context.Background(), "NVDA", passingMacro(), time.Now())

	if rec.Classification != market.NoSignal {
		t.Errorf("short history must classify no_signal, got %s", rec.Classification)
	}
	chart := rec.GateByName(market.GateChart)
	if chart == nil || chart.Passed {
		t.Fatal("chart gate should record the aborted analysis")
	}
	if !strings.Contains(chart.Reason, "insufficient price history") {
		t.Errorf("reason should name the history shortfall, got %q", chart.Reason)
	}
	if rec.Price <= 0 {
		t.Error("record should still carry the last close when bars were fetched")
	}
}

func TestEvaluateOptionsFeedFailureYieldsWatch(t *testing.T) {
	// Every other gate passes; only the options feed is down. The owning
	// gate fails closed, demoting the signal to watch.
	prices := &stubPriceFeed{series: trendingSeries(126)}
	options := &stubOptionsFeed{err: fmt.Errorf("%w: chain endpoint 502", market.ErrFeedUnavailable)}
	e := newTestEvaluator(prices, options, &stubHeadlines{})

	rec := e.Evaluate(context.Background(), "NVDA", passingMacro(), time.Now())

	if rec.Classification != market.Watch {
		t.Fatalf("expected watch when only options failed, got %s; gates: %+v", rec.Classification, rec.Gates)
	}
	opt := rec.GateByName(market.GateOptions)
	if opt == nil || opt.Passed {
		t.Error("options gate should fail closed on a broken feed")
	}
	if len(rec.Gates) != 5 {
		t.Errorf("remaining gates should still be evaluated, got %d results", len(rec.Gates))
	}
}

func TestEvaluateBearishNewsBlocks(t *testing.T) {
	prices := &stubPriceFeed{series: trendingSeries(126)}
	options := &stubOptionsFeed{metrics: market.OptionsMetrics{IVRank: 20, PutCallRatio: 0.5, FlowDirection: market.FlowNone}}
	news := &stubHeadlines{headlines: []string{
		"Shares crash after fraud investigation deepens",
		"Massive layoffs announced amid bankruptcy fears",
		"Stock plunges on disastrous earnings miss",
	}}
	e := newTestEvaluator(prices, options, news)

	rec := e.Evaluate(context.Background(), "NVDA", passingMacro(), time.Now())

	if rec.Classification != market.Watch {
		t.Fatalf("bearish headlines should demote to watch, got %s", rec.Classification)
	}
	newsGate := rec.GateByName(market.GateNews)
	if newsGate == nil || newsGate.Passed {
		t.Error("news gate should fail on strongly negative sentiment")
	}
}
