package gates

import (
	"fmt"
	"strings"
	"time"

	"equity-signal-bot/internal/analysis"
	"equity-signal-bot/internal/market"
)

// MacroConfig sets the market-regime thresholds.
type MacroConfig struct {
	// IndexMAPeriod is the moving-average window the index must close above.
	// Default 120.
	IndexMAPeriod int

	// RateSpikeThreshold fails the gate when the rate series rises more than
	// this fraction day over day. Default 0.05.
	RateSpikeThreshold float64

	// CrashThreshold fails the gate when the index daily return is at or
	// below this fraction. Default -0.03.
	CrashThreshold float64
}

// DefaultMacroConfig returns the standard regime thresholds.
func DefaultMacroConfig() MacroConfig {
	return MacroConfig{
		IndexMAPeriod:      120,
		RateSpikeThreshold: 0.05,
		CrashThreshold:     -0.03,
	}
}

func (c MacroConfig) withDefaults() MacroConfig {
	if c.IndexMAPeriod <= 0 {
		c.IndexMAPeriod = 120
	}
	if c.RateSpikeThreshold <= 0 {
		c.RateSpikeThreshold = 0.05
	}
	if c.CrashThreshold >= 0 {
		c.CrashThreshold = -0.03
	}
	return c
}

// EvaluateMacro judges the broad-market regime from the index series and the
// rate series. It is instrument-independent: the scanner computes it once per
// run and every ticker evaluation reads the same snapshot.
//
// The gate passes when the index closes above its long moving average, the
// index has not crashed on the day, and the rate has not spiked. Every failed
// sub-condition lands in the reason string.
func EvaluateMacro(index, rate market.PriceSeries, cfg MacroConfig) market.MacroSnapshot {
	cfg = cfg.withDefaults()
	now := time.Now().UTC()

	if len(index) < cfg.IndexMAPeriod {
		return market.MacroSnapshot{
			Result: fail(market.GateMarket,
				fmt.Sprintf("index history too short: %d bars, need %d", len(index), cfg.IndexMAPeriod),
				nil),
			Time: now,
		}
	}

	closes := index.Closes()
	ma := analysis.CalculateSMA(closes, cfg.IndexMAPeriod)
	last := index.LastClose()
	prev := closes[len(closes)-2]
	indexChange := (last - prev) / prev

	metrics := map[string]float64{
		"index_close":  last,
		"index_ma":     ma,
		"index_change": indexChange,
	}

	var reasons []string

	if last <= ma {
		reasons = append(reasons,
			fmt.Sprintf("index %.2f below %d-day average %.2f", last, cfg.IndexMAPeriod, ma))
	}
	if indexChange <= cfg.CrashThreshold {
		reasons = append(reasons,
			fmt.Sprintf("index down %.1f%% on the day", -100*indexChange))
	}

	rateChange := 0.0
	if len(rate) < 2 {
		reasons = append(reasons, "rate series unavailable")
	} else {
		rateLast := rate.LastClose()
		ratePrev := rate[len(rate)-2].Close
		rateChange = (rateLast - ratePrev) / ratePrev
		metrics["rate_change"] = rateChange
		if rateChange > cfg.RateSpikeThreshold {
			reasons = append(reasons,
				fmt.Sprintf("rate spiked %.1f%% on the day", 100*rateChange))
		}
	}

	snapshot := market.MacroSnapshot{
		IndexClose: last,
		IndexMA:    ma,
		RateChange: rateChange,
		Time:       now,
	}

	if len(reasons) > 0 {
		snapshot.Result = fail(market.GateMarket, strings.Join(reasons, "; "), metrics)
		return snapshot
	}

	snapshot.Result = pass(market.GateMarket,
		fmt.Sprintf("index %.2f above %d-day average %.2f, no rate spike", last, cfg.IndexMAPeriod, ma),
		metrics)
	return snapshot
}

// MacroUnavailable builds the snapshot used when the macro feed itself fails:
// the gate fails closed and every ticker in the run inherits the reason.
func MacroUnavailable(err error) market.MacroSnapshot {
	return market.MacroSnapshot{
		Result: fail(market.GateMarket, fmt.Sprintf("macro feed unavailable: %v", err), nil),
		Time:   time.Now().UTC(),
	}
}
