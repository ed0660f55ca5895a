package analysis

import (
	"errors"
	"math"
	"testing"

	"equity-signal-bot/internal/market"
)

func extremaFromPrices(prices []float64) []Extremum {
	out := make([]Extremum, len(prices))
	for i, p := range prices {
		out[i] = Extremum{Index: i, Price: p}
	}
	return out
}

func TestClusterLevels(t *testing.T) {
	// Three touches around 100.5 and two around 110.5.
	extrema := extremaFromPrices([]float64{100, 100.5, 101, 110, 111})

	levels := ClusterLevels(extrema, market.LevelSupport, DefaultClusterConfig())

	if len(levels) != 2 {
		t.Fatalf("expected 2 levels, got %d: %v", len(levels), levels)
	}

	if levels[0].Price != 100.5 {
		t.Errorf("first level price = %f, want 100.5", levels[0].Price)
	}
	if levels[0].TouchCount != 3 {
		t.Errorf("first level touch count = %d, want 3", levels[0].TouchCount)
	}
	if levels[0].Strength != market.StrengthMedium {
		t.Errorf("first level strength = %s, want medium", levels[0].Strength)
	}

	if levels[1].Price != 110.5 {
		t.Errorf("second level price = %f, want 110.5", levels[1].Price)
	}
	if levels[1].TouchCount != 2 {
		t.Errorf("second level touch count = %d, want 2", levels[1].TouchCount)
	}
	if levels[0].Kind != market.LevelSupport {
		t.Errorf("level kind = %s, want support", levels[0].Kind)
	}
}

func TestClusterLevelsStrengthTiers(t *testing.T) {
	tests := []struct {
		name   string
		prices []float64
		want   market.StrengthTier
	}{
		{"single touch is low", []float64{300}, market.StrengthLow},
		{"two touches are medium", []float64{200, 200}, market.StrengthMedium},
		{"four touches are medium", []float64{200, 200, 200, 200}, market.StrengthMedium},
		{"five touches are high", []float64{200, 200, 200, 200, 200}, market.StrengthHigh},
	}

	for _, tt := range tests {
		levels := ClusterLevels(extremaFromPrices(tt.prices), market.LevelResistance, DefaultClusterConfig())
		if len(levels) != 1 {
			t.Fatalf("%s: expected 1 level, got %d", tt.name, len(levels))
		}
		if levels[0].Strength != tt.want {
			t.Errorf("%s: strength = %s, want %s", tt.name, levels[0].Strength, tt.want)
		}
	}
}

func TestClusterLevelsMembersNearLevelPrice(t *testing.T) {
	cfg := DefaultClusterConfig()
	prices := []float64{95, 95.8, 100, 100.9, 101.2, 120, 121, 121.5}

	levels := ClusterLevels(extremaFromPrices(prices), market.LevelSupport, cfg)

	// Every input extremum must sit within tolerance of the level nearest to
	// it; clusters may not contain outliers.
	for _, p := range prices {
		nearest := levels[0].Price
		for _, lvl := range levels[1:] {
			if math.Abs(lvl.Price-p) < math.Abs(nearest-p) {
				nearest = lvl.Price
			}
		}
		if math.Abs(p-nearest)/nearest > cfg.Tolerance {
			t.Errorf("extremum %f is %.4f%% from nearest level %f, beyond tolerance",
				p, 100*math.Abs(p-nearest)/nearest, nearest)
		}
	}
}

func TestClusterLevelsIdempotent(t *testing.T) {
	first := ClusterLevels(
		extremaFromPrices([]float64{50, 50.2, 50.5, 60, 60.3, 75}),
		market.LevelSupport, DefaultClusterConfig())

	prices := make([]float64, len(first))
	for i, lvl := range first {
		prices[i] = lvl.Price
	}

	second := ClusterLevels(extremaFromPrices(prices), market.LevelSupport, DefaultClusterConfig())

	if len(second) != len(first) {
		t.Fatalf("re-clustering changed level count: %d -> %d", len(first), len(second))
	}
	for i := range first {
		if second[i].Price != first[i].Price {
			t.Errorf("level %d price changed on re-cluster: %f -> %f",
				i, first[i].Price, second[i].Price)
		}
	}
}

func TestClusterLevelsBandsDoNotOverlap(t *testing.T) {
	cfg := DefaultClusterConfig()
	levels := ClusterLevels(
		extremaFromPrices([]float64{100, 101, 101.4, 103.2, 104.5, 104.9, 108}),
		market.LevelSupport, cfg)

	for i := 1; i < len(levels); i++ {
		gap := (levels[i].Price - levels[i-1].Price) / levels[i-1].Price
		if gap <= cfg.Tolerance {
			t.Errorf("levels %f and %f are %.4f%% apart, within tolerance band",
				levels[i-1].Price, levels[i].Price, 100*gap)
		}
	}
}

func TestClusterConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ClusterConfig
		wantErr bool
	}{
		{"defaults are valid", DefaultClusterConfig(), false},
		{"zero tolerance", ClusterConfig{Tolerance: 0, HighMinTouches: 5, MediumMinTouches: 2}, true},
		{"medium below one", ClusterConfig{Tolerance: 0.015, HighMinTouches: 5, MediumMinTouches: 0}, true},
		{"high not above medium", ClusterConfig{Tolerance: 0.015, HighMinTouches: 2, MediumMinTouches: 2}, true},
	}

	for _, tt := range tests {
		err := tt.cfg.Validate()
		if tt.wantErr && !errors.Is(err, market.ErrConfiguration) {
			t.Errorf("%s: expected ErrConfiguration, got %v", tt.name, err)
		}
		if !tt.wantErr && err != nil {
			t.Errorf("%s: unexpected error %v", tt.name, err)
		}
	}
}

func TestNearestBelowAndAbove(t *testing.T) {
	levels := []market.Level{
		{Price: 90, Kind: market.LevelSupport},
		{Price: 95, Kind: market.LevelSupport},
		{Price: 105, Kind: market.LevelResistance},
		{Price: 110, Kind: market.LevelResistance},
	}

	below := NearestBelow(levels, 100)
	if below == nil || below.Price != 95 {
		t.Errorf("NearestBelow(100) = %v, want level at 95", below)
	}

	above := NearestAbove(levels, 100)
	if above == nil || above.Price != 105 {
		t.Errorf("NearestAbove(100) = %v, want level at 105", above)
	}

	if got := NearestBelow(levels, 80); got != nil {
		t.Errorf("NearestBelow(80) = %v, want nil", got)
	}
	if got := NearestAbove(levels, 120); got != nil {
		t.Errorf("NearestAbove(120) = %v, want nil", got)
	}
}

func BenchmarkClusterLevels(b *testing.B) {
	prices := make([]float64, 200)
	for i := range prices {
		prices[i] = 100 + float64(i%40)*0.3
	}
	extrema := extremaFromPrices(prices)
	cfg := DefaultClusterConfig()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ClusterLevels(extrema, market.LevelSupport, cfg)
	}
}
