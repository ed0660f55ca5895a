package gates

import (
	"fmt"
	"strings"

	"equity-signal-bot/internal/market"
)

// OptionsConfig sets the positioning gate's thresholds.
type OptionsConfig struct {
	// MaxIVRank is the highest acceptable implied-volatility rank. Default 30.
	MaxIVRank float64

	// BullishPutCallRatio is the cutoff below which put/call volume reads as
	// bullish bias. Default 0.7.
	BullishPutCallRatio float64
}

// DefaultOptionsConfig returns the standard IV rank and put/call cutoffs.
func DefaultOptionsConfig() OptionsConfig {
	return OptionsConfig{MaxIVRank: 30, BullishPutCallRatio: 0.7}
}

func (c OptionsConfig) withDefaults() OptionsConfig {
	if c.MaxIVRank <= 0 {
		c.MaxIVRank = 30
	}
	if c.BullishPutCallRatio <= 0 {
		c.BullishPutCallRatio = 0.7
	}
	return c
}

// EvaluateOptions judges the positioning snapshot: cheap volatility, no
// bearish unusual flow, and bullish put/call bias. All three sub-checks are
// independent reads, so every failing one lands in the reason.
func EvaluateOptions(m market.OptionsMetrics, cfg OptionsConfig) market.GateResult {
	cfg = cfg.withDefaults()

	metrics := map[string]float64{
		"iv_rank":        m.IVRank,
		"put_call_ratio": m.PutCallRatio,
	}

	var reasons []string

	if m.IVRank > cfg.MaxIVRank {
		reasons = append(reasons,
			fmt.Sprintf("iv rank %.0f above limit %.0f", m.IVRank, cfg.MaxIVRank))
	}
	if m.FlowDirection == market.FlowBearish {
		reasons = append(reasons, "bearish unusual flow detected")
	}
	if m.PutCallRatio >= cfg.BullishPutCallRatio {
		reasons = append(reasons,
			fmt.Sprintf("put/call ratio %.2f not below bullish cutoff %.2f",
				m.PutCallRatio, cfg.BullishPutCallRatio))
	}

	if len(reasons) > 0 {
		return fail(market.GateOptions, strings.Join(reasons, "; "), metrics)
	}

	return pass(market.GateOptions,
		fmt.Sprintf("iv rank %.0f, %s flow, put/call %.2f", m.IVRank, m.FlowDirection, m.PutCallRatio),
		metrics)
}
