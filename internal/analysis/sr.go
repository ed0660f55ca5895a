package analysis

import (
	"equity-signal-bot/internal/market"
)

// LevelConfig controls support/resistance derivation from a price series.
type LevelConfig struct {
	// Order is the half-width of the extremum detection window. Default 5.
	Order int

	// LookbackBars bounds how far back extrema remain relevant. Default 120.
	LookbackBars int

	// UseProminence switches detection from plain windowed extrema on closes
	// to prominence-filtered peaks on highs and troughs on lows.
	UseProminence bool

	// ProminencePct sizes the minimum prominence as a fraction of the
	// window's close range. Default 0.02 (2%).
	ProminencePct float64

	// MinPeakDistance is the minimum bar spacing between prominent peaks.
	// Default 5.
	MinPeakDistance int

	Cluster ClusterConfig
}

// DefaultLevelConfig returns the standard detection and clustering settings.
func DefaultLevelConfig() LevelConfig {
	return LevelConfig{
		Order:           5,
		LookbackBars:    120,
		ProminencePct:   0.02,
		MinPeakDistance: 5,
		Cluster:         DefaultClusterConfig(),
	}
}

func (c LevelConfig) withDefaults() LevelConfig {
	if c.Order <= 0 {
		c.Order = 5
	}
	if c.LookbackBars <= 0 {
		c.LookbackBars = 120
	}
	if c.ProminencePct <= 0 {
		c.ProminencePct = 0.02
	}
	if c.MinPeakDistance <= 0 {
		c.MinPeakDistance = 5
	}
	if c.Cluster == (ClusterConfig{}) {
		c.Cluster = DefaultClusterConfig()
	}
	return c
}

// DeriveLevels detects extrema over the recent window and clusters them into
// graded support and resistance levels. Peaks feed resistance, troughs feed
// support. Both slices come back in ascending price order.
func DeriveLevels(series market.PriceSeries, cfg LevelConfig) (supports, resistances []market.Level) {
	cfg = cfg.withDefaults()
	window := series.Tail(cfg.LookbackBars)
	if len(window) == 0 {
		return nil, nil
	}

	var peaks, troughs []Extremum
	if cfg.UseProminence {
		closes := window.Closes()
		minClose, maxClose := closes[0], closes[0]
		for _, c := range closes {
			if c < minClose {
				minClose = c
			}
			if c > maxClose {
				maxClose = c
			}
		}
		minProm := cfg.ProminencePct * (maxClose - minClose)

		highs := make([]float64, len(window))
		lows := make([]float64, len(window))
		for i, bar := range window {
			highs[i] = bar.High
			lows[i] = bar.Low
		}
		peaks = FindProminentPeaks(highs, minProm, cfg.MinPeakDistance)
		troughs = FindProminentTroughs(lows, minProm, cfg.MinPeakDistance)
	} else {
		peaks, troughs = FindExtrema(window.Closes(), cfg.Order)
	}

	supports = ClusterLevels(troughs, market.LevelSupport, cfg.Cluster)
	resistances = ClusterLevels(peaks, market.LevelResistance, cfg.Cluster)
	return supports, resistances
}
