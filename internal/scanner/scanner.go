// Package scanner runs the signal pipeline on a polling schedule: one shared
// macro evaluation per run, then every watchlist ticker through the gate
// pipeline on a small worker pool, with persistence, alert debouncing, and
// event publication on the way out.
package scanner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"equity-signal-bot/internal/events"
	"equity-signal-bot/internal/gates"
	"equity-signal-bot/internal/market"
	"equity-signal-bot/internal/metrics"
)

// RunSink receives completed run summaries, typically for persistence.
type RunSink interface {
	SaveRun(ctx context.Context, run *RunResult) error
}

// Scanner orchestrates periodic evaluation of the watchlist
type Scanner struct {
	macro     market.MacroFeed
	macroCfg  gates.MacroConfig
	evaluator *Evaluator
	debouncer *AlertDebouncer
	results   *ResultCache
	sink      market.SignalSink
	alerts    []market.AlertSink
	runs      RunSink
	eventBus  *events.EventBus
	metrics   *metrics.Recorder
	config    Config
	logger    zerolog.Logger

	stopChan chan struct{}
	wg       sync.WaitGroup

	mu          sync.RWMutex
	running     bool
	lastRun     *RunResult
	consecutive int
}

// NewScanner creates a new scanner instance. sink, alerts, eventBus, and rec
// are each optional; a nil sink simply skips that side effect.
func NewScanner(
	macro market.MacroFeed,
	macroCfg gates.MacroConfig,
	evaluator *Evaluator,
	sink market.SignalSink,
	alerts []market.AlertSink,
	eventBus *events.EventBus,
	rec *metrics.Recorder,
	config Config,
	logger zerolog.Logger,
) *Scanner {
	config = config.withDefaults()
	return &Scanner{
		macro:     macro,
		macroCfg:  macroCfg,
		evaluator: evaluator,
		debouncer: NewAlertDebouncer(config.Cooldown, config.AlertTiers...),
		results:   NewResultCache(2 * config.ScanInterval),
		sink:      sink,
		alerts:    alerts,
		eventBus:  eventBus,
		metrics:   rec,
		config:    config,
		logger:    logger.With().Str("component", "scanner").Logger(),
		stopChan:  make(chan struct{}),
	}
}

// Start begins the background scan loop
func (sc *Scanner) Start() {
	if !sc.config.Enabled {
		sc.logger.Info().Msg("scanner is disabled")
		return
	}

	sc.mu.Lock()
	if sc.running {
		sc.mu.Unlock()
		return
	}
	sc.running = true
	sc.mu.Unlock()

	sc.wg.Add(1)
	go sc.runScanLoop()

	if sc.eventBus != nil {
		sc.eventBus.Publish(events.Event{Type: events.EventScannerStarted})
	}
	sc.logger.Info().
		Int("watchlist", len(sc.config.Watchlist)).
		Dur("interval", sc.config.ScanInterval).
		Msg("scanner started")
}

// runScanLoop executes scans at configured intervals
func (sc *Scanner) runScanLoop() {
	defer sc.wg.Done()

	ticker := time.NewTicker(sc.config.ScanInterval)
	defer ticker.Stop()

	// Run immediately
	sc.scan(context.Background())

	for {
		select {
		case <-ticker.C:
			sc.scan(context.Background())
		case <-sc.stopChan:
			sc.logger.Info().Msg("scanner stopped")
			return
		}
	}
}

// Scan executes a single scan cycle (public method for manual triggering)
func (sc *Scanner) Scan(ctx context.Context) *RunResult {
	return sc.scan(ctx)
}

// scan executes a single scan cycle
func (sc *Scanner) scan(parent context.Context) *RunResult {
	ctx, cancel := context.WithTimeout(parent, sc.runDeadline())
	defer cancel()

	start := time.Now()
	run := &RunResult{
		RunID:     uuid.New().String(),
		StartTime: start,
	}

	sc.logger.Info().Str("run_id", run.RunID).Msg("starting scan")
	if sc.eventBus != nil {
		sc.eventBus.PublishScanStarted(run.RunID, len(sc.config.Watchlist))
	}

	// One macro evaluation shared by every ticker in this run. A broken
	// macro feed fails the gate closed rather than aborting the run.
	snapshot := sc.macroSnapshot(ctx)
	run.MacroPassed = snapshot.Result.Passed
	run.MacroReason = snapshot.Result.Reason

	records := sc.evaluateAll(ctx, snapshot)
	run.Records = records
	run.Evaluated = len(records)

	for _, rec := range records {
		sc.results.Set(rec)

		switch rec.Classification {
		case market.StrongBuy:
			run.StrongBuys++
		case market.Watch:
			run.Watches++
		default:
			run.NoSignals++
		}

		if sc.metrics != nil {
			sc.metrics.RecordSignal(rec.Ticker, string(rec.Classification))
		}
		if sc.eventBus != nil && rec.Classification != market.NoSignal {
			sc.eventBus.PublishSignal(rec.Ticker, string(rec.Classification), classificationReason(rec), rec.Price)
		}

		sc.persist(ctx, rec, run)
		sc.maybeAlert(ctx, rec, run)
	}

	run.EndTime = time.Now()
	run.Duration = run.EndTime.Sub(start)

	if sc.runs != nil {
		if err := sc.runs.SaveRun(ctx, run); err != nil {
			run.SinkErrors++
			sc.logger.Error().Err(err).Str("run_id", run.RunID).Msg("failed to persist run summary")
		}
	}

	sc.mu.Lock()
	sc.lastRun = run
	if snapshot.Result.Reason != "" && !run.MacroPassed && isUnavailable(snapshot) {
		sc.consecutive++
	} else {
		sc.consecutive = 0
	}
	consecutive := sc.consecutive
	sc.mu.Unlock()

	if consecutive >= sc.config.MaxConsecutiveFailures {
		sc.logger.Error().
			Int("consecutive_failures", consecutive).
			Msg("macro feed has been unavailable for several runs")
		// Publish once when the threshold is crossed, not on every run after
		if sc.eventBus != nil && consecutive == sc.config.MaxConsecutiveFailures {
			sc.eventBus.PublishError("scanner",
				fmt.Sprintf("macro feed unavailable for %d consecutive runs", consecutive), nil)
		}
	}

	if sc.metrics != nil {
		sc.metrics.RecordScan(runOutcome(run, snapshot), run.Duration.Seconds())
	}
	if sc.eventBus != nil {
		sc.eventBus.PublishScanCompleted(run.RunID, run.MacroPassed, run.StrongBuys, run.Watches, run.SinkErrors, run.Duration)
	}

	sc.logger.Info().
		Str("run_id", run.RunID).
		Bool("macro_passed", run.MacroPassed).
		Int("strong_buys", run.StrongBuys).
		Int("watches", run.Watches).
		Int("alerts_sent", run.AlertsSent).
		Dur("duration", run.Duration).
		Msg("scan completed")

	return run
}

// macroSnapshot fetches the index and rate series and evaluates the shared
// market gate once for this run.
func (sc *Scanner) macroSnapshot(ctx context.Context) market.MacroSnapshot {
	index, rate, err := sc.macro.IndexAndRate(ctx)
	if err != nil {
		sc.logger.Warn().Err(err).Msg("macro feed unavailable")
		if sc.metrics != nil {
			sc.metrics.RecordFeedError("macro")
		}
		if sc.eventBus != nil {
			sc.eventBus.PublishError("scanner", "macro feed unavailable", err)
		}
		return gates.MacroUnavailable(err)
	}
	return gates.EvaluateMacro(index, rate, sc.macroCfg)
}

// evaluateAll runs every watchlist ticker through the pipeline on a bounded
// worker pool. Results come back in watchlist order.
func (sc *Scanner) evaluateAll(ctx context.Context, snapshot market.MacroSnapshot) []*market.SignalRecord {
	now := time.Now()
	records := make([]*market.SignalRecord, len(sc.config.Watchlist))

	tickerChan := make(chan int, len(sc.config.Watchlist))
	var wg sync.WaitGroup

	for i := 0; i < sc.config.WorkerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range tickerChan {
				select {
				case <-ctx.Done():
					return
				default:
				}
				tctx, cancel := context.WithTimeout(ctx, sc.config.TickerTimeout)
				records[idx] = sc.evaluator.Evaluate(tctx, sc.config.Watchlist[idx], snapshot, now)
				cancel()
			}
		}()
	}

	for i := range sc.config.Watchlist {
		tickerChan <- i
	}
	close(tickerChan)
	wg.Wait()

	// A worker canceled mid-run leaves gaps; drop them.
	out := records[:0]
	for _, rec := range records {
		if rec != nil {
			out = append(out, rec)
		}
	}
	return out
}

// persist hands the record to the signal sink.
func (sc *Scanner) persist(ctx context.Context, rec *market.SignalRecord, run *RunResult) {
	if sc.sink == nil {
		return
	}
	if err := sc.sink.Persist(ctx, rec); err != nil {
		run.SinkErrors++
		sc.logger.Error().Err(err).Str("ticker", rec.Ticker).Msg("failed to persist signal")
		if sc.eventBus != nil {
			sc.eventBus.PublishError("scanner", "failed to persist signal", err)
		}
	}
}

// maybeAlert consults the debouncer and notifies every alert sink when the
// alert is not suppressed.
func (sc *Scanner) maybeAlert(ctx context.Context, rec *market.SignalRecord, run *RunResult) {
	fire, remaining := sc.debouncer.ShouldAlert(rec.Ticker, rec.Classification, rec.Time)
	if !fire {
		if remaining > 0 {
			sc.logger.Debug().
				Str("ticker", rec.Ticker).
				Dur("cooldown_remaining", remaining).
				Msg("alert suppressed by cooldown")
			if sc.metrics != nil {
				sc.metrics.RecordAlert(metrics.AlertSuppressed)
			}
			if sc.eventBus != nil {
				sc.eventBus.PublishAlertSuppressed(rec.Ticker, string(rec.Classification), remaining)
			}
		}
		return
	}

	for _, sink := range sc.alerts {
		if err := sink.Notify(ctx, rec.Ticker, rec); err != nil {
			sc.logger.Error().Err(err).Str("ticker", rec.Ticker).Msg("failed to deliver alert")
			if sc.metrics != nil {
				sc.metrics.RecordAlert(metrics.AlertFailed)
			}
			continue
		}
		run.AlertsSent++
		if sc.metrics != nil {
			sc.metrics.RecordAlert(metrics.AlertSent)
		}
		if sc.eventBus != nil {
			sc.eventBus.PublishAlertSent(rec.Ticker, string(rec.Classification), rec.Price)
		}
	}
}

// Status returns the scanner's current state
func (sc *Scanner) Status() Status {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return Status{
		Running:             sc.running,
		Watchlist:           sc.config.Watchlist,
		ScanIntervalSec:     sc.config.ScanInterval.Seconds(),
		ConsecutiveFailures: sc.consecutive,
		LastRun:             sc.lastRun,
		Cooldowns:           sc.debouncer.Snapshot(),
	}
}

// LastRun returns the most recent run result
func (sc *Scanner) LastRun() *RunResult {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.lastRun
}

// Latest returns the most recent unexpired evaluation for a ticker, or nil.
func (sc *Scanner) Latest(ticker string) *market.SignalRecord {
	return sc.results.Get(ticker)
}

// LatestAll returns the most recent unexpired evaluation per ticker.
func (sc *Scanner) LatestAll() []*market.SignalRecord {
	return sc.results.All()
}

// Debouncer exposes the cooldown table, mainly for the API reset endpoint.
func (sc *Scanner) Debouncer() *AlertDebouncer {
	return sc.debouncer
}

// SetRunSink attaches an optional sink for completed run summaries. Must be
// called before Start.
func (sc *Scanner) SetRunSink(sink RunSink) {
	sc.runs = sink
}

// Stop gracefully shuts down the scanner
func (sc *Scanner) Stop() {
	sc.mu.Lock()
	if !sc.running {
		sc.mu.Unlock()
		return
	}
	sc.running = false
	sc.mu.Unlock()

	close(sc.stopChan)
	sc.wg.Wait()

	if sc.eventBus != nil {
		sc.eventBus.Publish(events.Event{Type: events.EventScannerStopped})
	}
}

// runDeadline bounds a full scan: every ticker at worst-case timeout plus
// headroom for the macro fetch.
func (sc *Scanner) runDeadline() time.Duration {
	d := time.Duration(len(sc.config.Watchlist)+1) * sc.config.TickerTimeout
	if d < sc.config.ScanInterval {
		return sc.config.ScanInterval
	}
	return d
}

func classificationReason(rec *market.SignalRecord) string {
	for _, g := range rec.Gates {
		if !g.Passed {
			return g.Reason
		}
	}
	return "all gates passed"
}

func isUnavailable(snapshot market.MacroSnapshot) bool {
	return snapshot.IndexClose == 0 && snapshot.IndexMA == 0
}

func runOutcome(run *RunResult, snapshot market.MacroSnapshot) string {
	switch {
	case isUnavailable(snapshot) && !run.MacroPassed:
		return metrics.ScanOutcomeError
	case !run.MacroPassed:
		return metrics.ScanOutcomeMacroBlocked
	default:
		return metrics.ScanOutcomeOK
	}
}
