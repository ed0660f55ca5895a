package gates

import (
	"fmt"

	"equity-signal-bot/internal/analysis"
	"equity-signal-bot/internal/market"
)

// EvaluateChart judges the instrument's own technicals: RSI must sit inside
// the oversold band for the ticker's volatility group, and the fast moving
// average must be above the slow one (golden cross).
func EvaluateChart(a *analysis.SeriesAnalysis, oversoldRSI float64) market.GateResult {
	metrics := map[string]float64{
		"rsi":          a.RSI,
		"oversold_rsi": oversoldRSI,
		"fast_ma":      a.FastMA,
		"slow_ma":      a.SlowMA,
	}

	if a.RSI >= oversoldRSI {
		return fail(market.GateChart,
			fmt.Sprintf("rsi %.1f not below oversold threshold %.0f", a.RSI, oversoldRSI),
			metrics)
	}
	if !a.GoldenCross {
		return fail(market.GateChart,
			fmt.Sprintf("no golden cross: fast MA %.2f not above slow MA %.2f", a.FastMA, a.SlowMA),
			metrics)
	}

	return pass(market.GateChart,
		fmt.Sprintf("rsi %.1f oversold with golden cross intact", a.RSI),
		metrics)
}
