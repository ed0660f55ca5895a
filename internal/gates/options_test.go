package gates

import (
	"strings"
	"testing"

	"equity-signal-bot/internal/market"
)

func TestEvaluateOptions(t *testing.T) {
	tests := []struct {
		name       string
		metrics    market.OptionsMetrics
		wantPass   bool
		wantReason string
	}{
		{
			name:     "cheap vol with bullish flow passes",
			metrics:  market.OptionsMetrics{IVRank: 22, FlowDirection: market.FlowBullish, PutCallRatio: 0.6},
			wantPass: true,
		},
		{
			name:     "no unusual flow also passes",
			metrics:  market.OptionsMetrics{IVRank: 10, FlowDirection: market.FlowNone, PutCallRatio: 0.5},
			wantPass: true,
		},
		{
			name:       "iv rank above limit",
			metrics:    market.OptionsMetrics{IVRank: 45, FlowDirection: market.FlowBullish, PutCallRatio: 0.6},
			wantPass:   false,
			wantReason: "iv rank",
		},
		{
			name:       "bearish flow blocks",
			metrics:    market.OptionsMetrics{IVRank: 20, FlowDirection: market.FlowBearish, PutCallRatio: 0.6},
			wantPass:   false,
			wantReason: "bearish unusual flow",
		},
		{
			name:       "put heavy tape blocks",
			metrics:    market.OptionsMetrics{IVRank: 20, FlowDirection: market.FlowNone, PutCallRatio: 1.2},
			wantPass:   false,
			wantReason: "put/call ratio",
		},
		{
			name:       "cutoff is strict",
			metrics:    market.OptionsMetrics{IVRank: 20, FlowDirection: market.FlowNone, PutCallRatio: 0.7},
			wantPass:   false,
			wantReason: "put/call ratio",
		},
	}

	for _, tt := range tests {
		result := EvaluateOptions(tt.metrics, DefaultOptionsConfig())

		if result.Passed != tt.wantPass {
			t.Errorf("%s: passed = %v, want %v (reason: %s)",
				tt.name, result.Passed, tt.wantPass, result.Reason)
			continue
		}
		if !tt.wantPass && !strings.Contains(result.Reason, tt.wantReason) {
			t.Errorf("%s: reason %q should contain %q", tt.name, result.Reason, tt.wantReason)
		}
	}
}

func TestEvaluateOptionsReportsEveryFailure(t *testing.T) {
	result := EvaluateOptions(market.OptionsMetrics{
		IVRank: 80, FlowDirection: market.FlowBearish, PutCallRatio: 1.5,
	}, DefaultOptionsConfig())

	if result.Passed {
		t.Fatal("expected fail")
	}
	for _, want := range []string{"iv rank", "bearish unusual flow", "put/call ratio"} {
		if !strings.Contains(result.Reason, want) {
			t.Errorf("reason %q missing sub-check %q", result.Reason, want)
		}
	}
}
