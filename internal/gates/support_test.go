package gates

import (
	"strings"
	"testing"

	"equity-signal-bot/internal/market"
)

func TestEvaluateSupportPasses(t *testing.T) {
	supports := []market.Level{
		{Price: 98, TouchCount: 5, Strength: market.StrengthHigh, Kind: market.LevelSupport},
		{Price: 90, TouchCount: 2, Strength: market.StrengthMedium, Kind: market.LevelSupport},
	}
	resistances := []market.Level{
		{Price: 110, TouchCount: 5, Strength: market.StrengthHigh, Kind: market.LevelResistance},
	}

	result := EvaluateSupport(100, supports, resistances, DefaultSupportConfig())

	if !result.Passed {
		t.Fatalf("expected pass, got fail: %s", result.Reason)
	}
	if result.Metrics["nearest_support"] != 98 {
		t.Errorf("nearest support metric = %f, want 98", result.Metrics["nearest_support"])
	}
}

func TestEvaluateSupportNoSupportBelow(t *testing.T) {
	supports := []market.Level{
		{Price: 105, Strength: market.StrengthHigh, Kind: market.LevelSupport},
	}

	result := EvaluateSupport(100, supports, nil, DefaultSupportConfig())

	if result.Passed {
		t.Fatal("expected fail without support below price")
	}
	if !strings.Contains(result.Reason, "no support level below price") {
		t.Errorf("reason %q should name the missing support", result.Reason)
	}
}

func TestEvaluateSupportTooFarAbove(t *testing.T) {
	supports := []market.Level{
		{Price: 90, Strength: market.StrengthHigh, Kind: market.LevelSupport},
	}

	result := EvaluateSupport(100, supports, nil, DefaultSupportConfig())

	if result.Passed {
		t.Fatal("expected fail when price sits 11% above support")
	}
	if !strings.Contains(result.Reason, "beyond") {
		t.Errorf("reason %q should name the distance breach", result.Reason)
	}
}

func TestEvaluateSupportBlockingResistance(t *testing.T) {
	supports := []market.Level{
		{Price: 99, Strength: market.StrengthMedium, Kind: market.LevelSupport},
	}
	resistances := []market.Level{
		{Price: 103, TouchCount: 3, Strength: market.StrengthMedium, Kind: market.LevelResistance},
	}

	result := EvaluateSupport(100, supports, resistances, DefaultSupportConfig())

	if result.Passed {
		t.Fatal("expected fail with medium resistance 3% overhead")
	}
	if !strings.Contains(result.Reason, "resistance") {
		t.Errorf("reason %q should name the overhead resistance", result.Reason)
	}
	if result.Metrics["blocking_resistance"] != 103 {
		t.Errorf("blocking resistance metric = %f, want 103", result.Metrics["blocking_resistance"])
	}
}

func TestEvaluateSupportWeakResistanceDoesNotBlock(t *testing.T) {
	supports := []market.Level{
		{Price: 99, Strength: market.StrengthHigh, Kind: market.LevelSupport},
	}
	resistances := []market.Level{
		{Price: 103, TouchCount: 1, Strength: market.StrengthLow, Kind: market.LevelResistance},
	}

	result := EvaluateSupport(100, supports, resistances, DefaultSupportConfig())

	if !result.Passed {
		t.Fatalf("low-strength resistance must not block, got: %s", result.Reason)
	}
}

func TestEvaluateSupportResistanceOutsideWindow(t *testing.T) {
	supports := []market.Level{
		{Price: 99, Strength: market.StrengthHigh, Kind: market.LevelSupport},
	}
	resistances := []market.Level{
		{Price: 106, TouchCount: 6, Strength: market.StrengthHigh, Kind: market.LevelResistance},
	}

	result := EvaluateSupport(100, supports, resistances, DefaultSupportConfig())

	if !result.Passed {
		t.Fatalf("resistance 6%% overhead is outside the window, got: %s", result.Reason)
	}
	if result.Metrics["nearest_resistance"] != 106 {
		t.Errorf("nearest resistance metric = %f, want 106", result.Metrics["nearest_resistance"])
	}
}
