package analysis

import (
	"fmt"
	"math"

	"equity-signal-bot/internal/market"
)

// ProfileConfig controls the volume profile computation.
type ProfileConfig struct {
	Bins         int // default 50
	LookbackBars int // default 60
}

// DefaultProfileConfig returns the standard bin count and lookback.
func DefaultProfileConfig() ProfileConfig {
	return ProfileConfig{Bins: 50, LookbackBars: 60}
}

func (c ProfileConfig) withDefaults() ProfileConfig {
	if c.Bins <= 0 {
		c.Bins = 50
	}
	if c.LookbackBars <= 0 {
		c.LookbackBars = 60
	}
	return c
}

// ProfileBin is one price bucket of the volume profile.
type ProfileBin struct {
	Low    float64 `json:"low"`
	High   float64 `json:"high"`
	Volume float64 `json:"volume"`
}

// Mid returns the bin's midpoint price.
func (b ProfileBin) Mid() float64 {
	return (b.Low + b.High) / 2
}

// VolumeProfile is the volume-at-price distribution over the lookback window.
type VolumeProfile struct {
	Bins           []ProfileBin `json:"bins"`
	PointOfControl float64      `json:"point_of_control"`
}

// BuildProfile buckets the window's price range into equal-width bins and
// accumulates each bar's volume into the bins its low-high range overlaps,
// proportionally to the overlap. The point of control is the midpoint of the
// highest-volume bin; a volume tie prefers the bin closer to the last close.
func BuildProfile(series market.PriceSeries, cfg ProfileConfig) (*VolumeProfile, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("%w: empty series", market.ErrInsufficientHistory)
	}
	cfg = cfg.withDefaults()
	window := series.Tail(cfg.LookbackBars)

	lo := window[0].Low
	hi := window[0].High
	for _, bar := range window {
		if bar.Low < lo {
			lo = bar.Low
		}
		if bar.High > hi {
			hi = bar.High
		}
	}

	lastClose := series.LastClose()

	if hi == lo {
		// Degenerate flat window: everything traded at one price.
		total := 0.0
		for _, bar := range window {
			total += bar.Volume
		}
		return &VolumeProfile{
			Bins:           []ProfileBin{{Low: lo, High: hi, Volume: total}},
			PointOfControl: lo,
		}, nil
	}

	width := (hi - lo) / float64(cfg.Bins)
	bins := make([]ProfileBin, cfg.Bins)
	for i := range bins {
		bins[i].Low = lo + float64(i)*width
		bins[i].High = bins[i].Low + width
	}
	bins[len(bins)-1].High = hi

	for _, bar := range window {
		span := bar.High - bar.Low
		if span <= 0 {
			idx := int((bar.Low - lo) / width)
			if idx >= cfg.Bins {
				idx = cfg.Bins - 1
			}
			if idx < 0 {
				idx = 0
			}
			bins[idx].Volume += bar.Volume
			continue
		}
		for i := range bins {
			overlapLo := math.Max(bins[i].Low, bar.Low)
			overlapHi := math.Min(bins[i].High, bar.High)
			if overlapHi > overlapLo {
				bins[i].Volume += bar.Volume * (overlapHi - overlapLo) / span
			}
		}
	}

	poc := 0
	for i := 1; i < len(bins); i++ {
		if bins[i].Volume > bins[poc].Volume {
			poc = i
			continue
		}
		if bins[i].Volume == bins[poc].Volume &&
			math.Abs(bins[i].Mid()-lastClose) < math.Abs(bins[poc].Mid()-lastClose) {
			poc = i
		}
	}

	return &VolumeProfile{
		Bins:           bins,
		PointOfControl: bins[poc].Mid(),
	}, nil
}
