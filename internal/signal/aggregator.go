// Package signal turns gate outcomes into the final classification. The
// aggregator is a pure function: identical gate results and technical
// metrics always produce an identical record, which is what makes the
// pipeline's decision layer testable in isolation.
package signal

import (
	"time"

	"equity-signal-bot/internal/market"
)

// Inputs carries everything the aggregator judges: the five gate results in
// pipeline order plus the technical metrics that ride along on the record.
type Inputs struct {
	Ticker string
	Time   time.Time
	Price  float64

	// Gates holds the results in pipeline order: market, chart, news,
	// options, support. Evaluations that aborted early may supply fewer; a
	// missing gate counts as not passed.
	Gates []market.GateResult

	RSI               float64
	NearestSupport    float64
	NearestResistance float64
	PointOfControl    float64
}

// Aggregate classifies one evaluation:
//
//   - every gate passed                  -> strong_buy
//   - market and chart passed, any of
//     news/options/support failed        -> watch
//   - market or chart failed (or absent) -> no_signal
//
// The returned record carries no ID; the caller stamps one before handing it
// to sinks, keeping this function deterministic.
func Aggregate(in Inputs) *market.SignalRecord {
	rec := &market.SignalRecord{
		Ticker:            in.Ticker,
		Time:              in.Time,
		Price:             in.Price,
		Gates:             in.Gates,
		RSI:               in.RSI,
		NearestSupport:    in.NearestSupport,
		NearestResistance: in.NearestResistance,
		PointOfControl:    in.PointOfControl,
	}

	rec.Classification = classify(in.Gates)
	return rec
}

func classify(results []market.GateResult) market.Classification {
	passed := func(name string) bool {
		for i := range results {
			if results[i].Gate == name {
				return results[i].Passed
			}
		}
		return false
	}

	if !passed(market.GateMarket) || !passed(market.GateChart) {
		return market.NoSignal
	}
	if passed(market.GateNews) && passed(market.GateOptions) && passed(market.GateSupport) {
		return market.StrongBuy
	}
	return market.Watch
}
