package gates

import (
	"strings"
	"testing"

	"equity-signal-bot/internal/analysis"
)

func TestEvaluateChartPasses(t *testing.T) {
	a := &analysis.SeriesAnalysis{
		RSI: 28.3, FastMA: 110, SlowMA: 100, GoldenCross: true,
	}

	result := EvaluateChart(a, 30)

	if !result.Passed {
		t.Fatalf("expected pass, got fail: %s", result.Reason)
	}
	if result.Metrics["rsi"] != 28.3 {
		t.Errorf("rsi metric = %f, want 28.3", result.Metrics["rsi"])
	}
	if result.Metrics["oversold_rsi"] != 30 {
		t.Errorf("oversold metric = %f, want 30", result.Metrics["oversold_rsi"])
	}
}

func TestEvaluateChartRSINotOversold(t *testing.T) {
	a := &analysis.SeriesAnalysis{
		RSI: 42.1, FastMA: 110, SlowMA: 100, GoldenCross: true,
	}

	result := EvaluateChart(a, 30)

	if result.Passed {
		t.Fatal("expected fail for RSI above threshold")
	}
	if !strings.Contains(result.Reason, "not below oversold") {
		t.Errorf("reason %q should name the RSI condition", result.Reason)
	}
}

func TestEvaluateChartThresholdBoundary(t *testing.T) {
	// The band is strict: RSI exactly at the threshold is not oversold.
	a := &analysis.SeriesAnalysis{
		RSI: 30, FastMA: 110, SlowMA: 100, GoldenCross: true,
	}

	if result := EvaluateChart(a, 30); result.Passed {
		t.Error("RSI equal to the threshold must not pass")
	}
}

func TestEvaluateChartNoGoldenCross(t *testing.T) {
	a := &analysis.SeriesAnalysis{
		RSI: 25, FastMA: 95, SlowMA: 100, GoldenCross: false,
	}

	result := EvaluateChart(a, 30)

	if result.Passed {
		t.Fatal("expected fail without golden cross")
	}
	if !strings.Contains(result.Reason, "golden cross") {
		t.Errorf("reason %q should name the crossover condition", result.Reason)
	}
}
