// Package analysis implements the technical layer of the signal pipeline:
// momentum and trend indicators, extrema detection, level clustering, and
// volume profiling. Everything in this package is pure computation over an
// in-memory price series; no I/O.
package analysis

import (
	"fmt"

	"equity-signal-bot/internal/market"
)

// ============================================================================
// MOVING AVERAGES
// ============================================================================

// CalculateSMA calculates the simple moving average of the final period
// values. Returns 0 when there is not enough data.
func CalculateSMA(values []float64, period int) float64 {
	if period <= 0 || len(values) < period {
		return 0
	}

	sum := 0.0
	for i := len(values) - period; i < len(values); i++ {
		sum += values[i]
	}
	return sum / float64(period)
}

// ============================================================================
// RSI (Relative Strength Index)
// ============================================================================

// CalculateRSI calculates RSI over the given period using Wilder's smoothing:
// seed averages from the first period of changes, then blend each subsequent
// change with weight 1/period. Scaled 0-100.
//
// Conventions: a flat series (no gains, no losses) reports 50 (neutral); a
// series with gains and no losses reports 100. Too little data also reports
// the neutral 50 rather than an error; length enforcement belongs to
// AnalyzeSeries.
func CalculateRSI(values []float64, period int) float64 {
	if period <= 0 || len(values) < period+1 {
		return 50.0
	}

	avgGain := 0.0
	avgLoss := 0.0
	for i := 1; i <= period; i++ {
		change := values[i] - values[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss += -change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	// Wilder's recursive smoothing over the remainder of the series.
	for i := period + 1; i < len(values); i++ {
		change := values[i] - values[i-1]
		gain := 0.0
		loss := 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		if avgGain == 0 {
			return 50.0
		}
		return 100.0
	}

	rs := avgGain / avgLoss
	return 100.0 - (100.0 / (1.0 + rs))
}

// ============================================================================
// SERIES ANALYSIS
// ============================================================================

// AnalyzerConfig sets the indicator windows. Zero values fall back to the
// defaults used throughout the pipeline.
type AnalyzerConfig struct {
	RSIPeriod    int // default 14
	FastMAPeriod int // default 20
	SlowMAPeriod int // default 60
}

func (c AnalyzerConfig) withDefaults() AnalyzerConfig {
	if c.RSIPeriod <= 0 {
		c.RSIPeriod = 14
	}
	if c.FastMAPeriod <= 0 {
		c.FastMAPeriod = 20
	}
	if c.SlowMAPeriod <= 0 {
		c.SlowMAPeriod = 60
	}
	return c
}

// SeriesAnalysis is the technical snapshot of one instrument on the latest
// bar.
type SeriesAnalysis struct {
	RSI         float64 `json:"rsi"`
	FastMA      float64 `json:"fast_ma"`
	SlowMA      float64 `json:"slow_ma"`
	GoldenCross bool    `json:"golden_cross"`
	LastClose   float64 `json:"last_close"`
}

// AnalyzeSeries computes RSI, the fast/slow moving averages, and the
// golden-cross state (fast above slow on the latest bar) for a series.
// Deterministic for identical input. Fails with market.ErrInsufficientHistory
// when the series is shorter than market.MinHistoryBars.
func AnalyzeSeries(series market.PriceSeries, cfg AnalyzerConfig) (*SeriesAnalysis, error) {
	if !series.HasMinHistory() {
		return nil, fmt.Errorf("%w: got %d bars, need %d",
			market.ErrInsufficientHistory, len(series), market.MinHistoryBars)
	}
	cfg = cfg.withDefaults()

	closes := series.Closes()
	fast := CalculateSMA(closes, cfg.FastMAPeriod)
	slow := CalculateSMA(closes, cfg.SlowMAPeriod)

	return &SeriesAnalysis{
		RSI:         CalculateRSI(closes, cfg.RSIPeriod),
		FastMA:      fast,
		SlowMA:      slow,
		GoldenCross: fast > slow,
		LastClose:   series.LastClose(),
	}, nil
}
