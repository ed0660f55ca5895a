package analysis

import (
	"fmt"
	"sort"

	"equity-signal-bot/internal/market"
)

// ClusterConfig controls how extrema merge into levels and how touch counts
// map to strength tiers.
type ClusterConfig struct {
	// Tolerance is the relative distance from the running cluster mean within
	// which an extremum joins the cluster. Default 0.015 (1.5%).
	Tolerance float64

	// HighMinTouches and MediumMinTouches are the tier cutoffs: a level with
	// at least HighMinTouches members is high strength, at least
	// MediumMinTouches is medium, anything below is low. Defaults 5 and 2.
	HighMinTouches   int
	MediumMinTouches int
}

// DefaultClusterConfig returns the standard tolerance and tier cutoffs.
func DefaultClusterConfig() ClusterConfig {
	return ClusterConfig{
		Tolerance:        0.015,
		HighMinTouches:   5,
		MediumMinTouches: 2,
	}
}

// Validate checks the tier cutoffs are monotonic so every touch count maps to
// exactly one tier.
func (c ClusterConfig) Validate() error {
	if c.Tolerance <= 0 || c.Tolerance >= 1 {
		return fmt.Errorf("%w: cluster tolerance %.4f must be in (0, 1)",
			market.ErrConfiguration, c.Tolerance)
	}
	if c.MediumMinTouches < 1 {
		return fmt.Errorf("%w: medium tier cutoff %d must be at least 1",
			market.ErrConfiguration, c.MediumMinTouches)
	}
	if c.HighMinTouches <= c.MediumMinTouches {
		return fmt.Errorf("%w: high tier cutoff %d must exceed medium cutoff %d",
			market.ErrConfiguration, c.HighMinTouches, c.MediumMinTouches)
	}
	return nil
}

func (c ClusterConfig) tier(touches int) market.StrengthTier {
	switch {
	case touches >= c.HighMinTouches:
		return market.StrengthHigh
	case touches >= c.MediumMinTouches:
		return market.StrengthMedium
	default:
		return market.StrengthLow
	}
}

// ClusterLevels merges extrema whose prices sit within the configured
// tolerance of each other into graded levels. The level price is the mean of
// its members and the touch count is the member count.
//
// Clustering walks the extrema in price order and admits a point while it
// stays within tolerance of the running cluster mean; the first rejection
// closes the cluster. Because rejection is strict, consecutive level prices
// always end up more than one tolerance apart, so output bands never overlap
// and re-clustering the output reproduces it.
//
// Levels are returned in ascending price order.
func ClusterLevels(extrema []Extremum, kind market.LevelKind, cfg ClusterConfig) []market.Level {
	if len(extrema) == 0 {
		return nil
	}

	prices := make([]float64, len(extrema))
	for i, e := range extrema {
		prices[i] = e.Price
	}
	sort.Float64s(prices)

	var levels []market.Level
	clusterSum := prices[0]
	clusterCount := 1

	flush := func() {
		mean := clusterSum / float64(clusterCount)
		levels = append(levels, market.Level{
			Price:      mean,
			TouchCount: clusterCount,
			Strength:   cfg.tier(clusterCount),
			Kind:       kind,
		})
	}

	for _, p := range prices[1:] {
		mean := clusterSum / float64(clusterCount)
		if (p-mean)/mean <= cfg.Tolerance {
			clusterSum += p
			clusterCount++
			continue
		}
		flush()
		clusterSum = p
		clusterCount = 1
	}
	flush()

	return levels
}

// NearestBelow returns the highest level at or below price, or nil if none
// exists.
func NearestBelow(levels []market.Level, price float64) *market.Level {
	var best *market.Level
	for i := range levels {
		if levels[i].Price > price {
			continue
		}
		if best == nil || levels[i].Price > best.Price {
			best = &levels[i]
		}
	}
	return best
}

// NearestAbove returns the lowest level strictly above price, or nil if none
// exists.
func NearestAbove(levels []market.Level, price float64) *market.Level {
	var best *market.Level
	for i := range levels {
		if levels[i].Price <= price {
			continue
		}
		if best == nil || levels[i].Price < best.Price {
			best = &levels[i]
		}
	}
	return best
}
