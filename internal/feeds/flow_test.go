package feeds

import (
	"math"
	"testing"

	"equity-signal-bot/internal/market"
)

func TestPutCallRatio(t *testing.T) {
	tests := []struct {
		name     string
		callVol  float64
		putVol   float64
		expected float64
	}{
		{"balanced", 1000, 1000, 1.0},
		{"put heavy", 100, 50, 0.5},
		{"dead chain", 0, 0, 1.0},
		{"puts only", 0, 100, maxPutCallRatio},
		{"capped", 1, 1e6, maxPutCallRatio},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PutCallRatio(tt.callVol, tt.putVol)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("PutCallRatio(%v, %v) = %v, want %v", tt.callVol, tt.putVol, got, tt.expected)
			}
		})
	}
}

func TestClassifyFlowBullish(t *testing.T) {
	// Cheap puts, unusual call volume, and call-heavy open interest should
	// all line up bullish: 30 + 25 + 25 = 80.
	calls := []OptionContract{{Strike: 100, Volume: 3000, OpenInterest: 1000}}
	puts := []OptionContract{{Strike: 100, Volume: 1000, OpenInterest: 500}}

	direction, net := ClassifyFlow(calls, puts, FlowConfig{})
	if direction != market.FlowBullish {
		t.Errorf("expected bullish flow, got %s (net %.0f)", direction, net)
	}
	if net != 80 {
		t.Errorf("expected net score 80, got %.0f", net)
	}
}

func TestClassifyFlowBearish(t *testing.T) {
	calls := []OptionContract{{Strike: 100, Volume: 1000, OpenInterest: 500}}
	puts := []OptionContract{{Strike: 100, Volume: 3000, OpenInterest: 1000}}

	direction, net := ClassifyFlow(calls, puts, FlowConfig{})
	if direction != market.FlowBearish {
		t.Errorf("expected bearish flow, got %s (net %.0f)", direction, net)
	}
	if net != -80 {
		t.Errorf("expected net score -80, got %.0f", net)
	}
}

func TestClassifyFlowBalanced(t *testing.T) {
	calls := []OptionContract{{Strike: 100, Volume: 1000, OpenInterest: 1000}}
	puts := []OptionContract{{Strike: 100, Volume: 1000, OpenInterest: 1000}}

	direction, net := ClassifyFlow(calls, puts, FlowConfig{})
	if direction != market.FlowNone {
		t.Errorf("expected no directional flow, got %s", direction)
	}
	if net != 0 {
		t.Errorf("expected net score 0, got %.0f", net)
	}
}

func TestClassifyFlowNetAtThresholdIsNone(t *testing.T) {
	// Bullish put/call (+30) and unusual call volume (+25) against put-heavy
	// open interest (-25) nets exactly 30, which must not clear the strict
	// threshold.
	calls := []OptionContract{{Strike: 100, Volume: 1000, OpenInterest: 100}}
	puts := []OptionContract{{Strike: 100, Volume: 500, OpenInterest: 2000}}

	direction, net := ClassifyFlow(calls, puts, FlowConfig{})
	if net != 30 {
		t.Fatalf("expected net score 30, got %.0f", net)
	}
	if direction != market.FlowNone {
		t.Errorf("net score at the threshold should stay none, got %s", direction)
	}
}

func TestClassifyFlowEmptyChain(t *testing.T) {
	direction, net := ClassifyFlow(nil, nil, FlowConfig{})
	if direction != market.FlowNone || net != 0 {
		t.Errorf("empty chain should be neutral, got %s net %.0f", direction, net)
	}
}

func TestIVRankShortHistoryIsNeutral(t *testing.T) {
	if got := IVRankFromCloses([]float64{100, 101, 102}, 30); got != 50 {
		t.Errorf("short history should rank neutral 50, got %v", got)
	}
}

func TestIVRankFlatHistoryIsNeutral(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100
	}
	if got := IVRankFromCloses(closes, 30); got != 50 {
		t.Errorf("flat history should rank neutral 50, got %v", got)
	}
}

func TestIVRankCalmThenVolatile(t *testing.T) {
	// Four flat closes then two big swings: the final rolling window holds
	// the largest moves, so current vol is the historical max.
	closes := []float64{100, 100, 100, 100, 110, 90, 110}
	got := IVRankFromCloses(closes, 2)
	if got != 100 {
		t.Errorf("expected rank 100 when current vol is the max, got %v", got)
	}
}

func TestIVRankVolatileThenCalm(t *testing.T) {
	closes := []float64{100, 110, 90, 110, 100, 100, 100, 100}
	got := IVRankFromCloses(closes, 2)
	if got != 0 {
		t.Errorf("expected rank 0 when current vol is the min, got %v", got)
	}
}

func TestIVRankNonPositiveCloseIsNeutral(t *testing.T) {
	closes := []float64{100, 0, 100, 100, 100, 100}
	if got := IVRankFromCloses(closes, 2); got != 50 {
		t.Errorf("corrupt close should rank neutral 50, got %v", got)
	}
}
