// Package gates implements the five filters of the signal pipeline: market
// regime, chart technicals, news sentiment, options positioning, and
// support/resistance proximity. Each gate judges independently-supplied
// inputs and reports a pass/fail verdict with the reason and the metrics it
// looked at.
package gates

import (
	"fmt"

	"equity-signal-bot/internal/market"
)

func pass(gate, reason string, metrics map[string]float64) market.GateResult {
	return market.GateResult{Gate: gate, Passed: true, Reason: reason, Metrics: metrics}
}

func fail(gate, reason string, metrics map[string]float64) market.GateResult {
	return market.GateResult{Gate: gate, Passed: false, Reason: reason, Metrics: metrics}
}

// FeedFailure marks the gate owning a broken feed as failed closed, carrying
// the upstream error as the reason. Used by the evaluator when a fetch fails
// before the gate could judge anything.
func FeedFailure(gate string, err error) market.GateResult {
	return fail(gate, fmt.Sprintf("feed unavailable: %v", err), nil)
}
