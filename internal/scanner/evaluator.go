package scanner

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"equity-signal-bot/internal/analysis"
	"equity-signal-bot/internal/gates"
	"equity-signal-bot/internal/market"
	"equity-signal-bot/internal/metrics"
	"equity-signal-bot/internal/signal"
)

// EvaluatorConfig carries the per-ticker pipeline settings.
type EvaluatorConfig struct {
	// LookbackDays is the bar history requested per ticker.
	LookbackDays int

	// DefaultOversold is the RSI threshold for tickers without a volatility
	// group assignment.
	DefaultOversold float64

	// OversoldByTicker maps a ticker to the oversold threshold of its
	// volatility group.
	OversoldByTicker map[string]float64

	Analyzer analysis.AnalyzerConfig
	Levels   analysis.LevelConfig
	Profile  analysis.ProfileConfig
	Options  gates.OptionsConfig
	Support  gates.SupportConfig
}

func (c EvaluatorConfig) withDefaults() EvaluatorConfig {
	if c.LookbackDays <= 0 {
		c.LookbackDays = 250
	}
	if c.DefaultOversold <= 0 {
		c.DefaultOversold = 30
	}
	return c
}

// Evaluator runs the full gate pipeline for one ticker and produces the
// signal record. Per-ticker failures never propagate: they come back as a
// no_signal record carrying the failure reason on the owning gate.
type Evaluator struct {
	prices  market.PriceFeed
	options market.OptionsFeed
	news    *gates.NewsGate
	cfg     EvaluatorConfig
	metrics *metrics.Recorder
	logger  zerolog.Logger
}

// NewEvaluator wires the pipeline. rec may be nil when instrumentation is
// not wanted, e.g. in one-shot runs.
func NewEvaluator(
	prices market.PriceFeed,
	options market.OptionsFeed,
	news *gates.NewsGate,
	cfg EvaluatorConfig,
	rec *metrics.Recorder,
	logger zerolog.Logger,
) *Evaluator {
	return &Evaluator{
		prices:  prices,
		options: options,
		news:    news,
		cfg:     cfg.withDefaults(),
		metrics: rec,
		logger:  logger.With().Str("component", "evaluator").Logger(),
	}
}

// Evaluate runs every reachable gate for ticker under the shared macro
// snapshot and classifies the outcome. When the macro gate already failed,
// per-ticker feeds are not touched and the record carries only the shared
// result.
func (e *Evaluator) Evaluate(ctx context.Context, ticker string, macro market.MacroSnapshot, now time.Time) *market.SignalRecord {
	results := []market.GateResult{macro.Result}

	if !macro.Result.Passed {
		return e.finish(signal.Inputs{Ticker: ticker, Time: now, Gates: results})
	}

	series, err := e.prices.Fetch(ctx, ticker, e.cfg.LookbackDays)
	if err != nil {
		e.logger.Warn().Err(err).Str("ticker", ticker).Msg("price fetch failed")
		e.recordFeedError("price")
		results = append(results, gates.FeedFailure(market.GateChart, err))
		return e.finish(signal.Inputs{Ticker: ticker, Time: now, Gates: results})
	}
	price := series.LastClose()

	a, err := analysis.AnalyzeSeries(series, e.cfg.Analyzer)
	if err != nil {
		e.logger.Warn().Err(err).Str("ticker", ticker).Msg("series analysis failed")
		results = append(results, market.GateResult{
			Gate:   market.GateChart,
			Passed: false,
			Reason: err.Error(),
		})
		return e.finish(signal.Inputs{Ticker: ticker, Time: now, Price: price, Gates: results})
	}

	results = append(results, gates.EvaluateChart(a, e.oversoldFor(ticker)))
	results = append(results, e.news.Evaluate(ctx, ticker))

	om, err := e.options.Metrics(ctx, ticker)
	if err != nil {
		e.logger.Warn().Err(err).Str("ticker", ticker).Msg("options fetch failed")
		e.recordFeedError("options")
		results = append(results, gates.FeedFailure(market.GateOptions, err))
	} else {
		results = append(results, gates.EvaluateOptions(om, e.cfg.Options))
	}

	supports, resistances := analysis.DeriveLevels(series, e.cfg.Levels)
	results = append(results, gates.EvaluateSupport(price, supports, resistances, e.cfg.Support))

	in := signal.Inputs{
		Ticker: ticker,
		Time:   now,
		Price:  price,
		Gates:  results,
		RSI:    a.RSI,
	}
	if s := analysis.NearestBelow(supports, price); s != nil {
		in.NearestSupport = s.Price
	}
	if r := analysis.NearestAbove(resistances, price); r != nil {
		in.NearestResistance = r.Price
	}
	if prof, err := analysis.BuildProfile(series, e.cfg.Profile); err == nil {
		in.PointOfControl = prof.PointOfControl
	}

	if e.metrics != nil {
		e.metrics.RecordTicker(ticker, price, a.RSI)
	}
	return e.finish(in)
}

// finish classifies the collected inputs and stamps the record ID. The
// aggregator itself stays pure; identity is attached here.
func (e *Evaluator) finish(in signal.Inputs) *market.SignalRecord {
	rec := signal.Aggregate(in)
	rec.ID = uuid.New().String()
	return rec
}

func (e *Evaluator) oversoldFor(ticker string) float64 {
	if v, ok := e.cfg.OversoldByTicker[ticker]; ok && v > 0 {
		return v
	}
	return e.cfg.DefaultOversold
}

func (e *Evaluator) recordFeedError(feed string) {
	if e.metrics != nil {
		e.metrics.RecordFeedError(feed)
	}
}
