package gates

import (
	"fmt"

	"equity-signal-bot/internal/analysis"
	"equity-signal-bot/internal/market"
)

// SupportConfig sets the proximity gate's windows.
type SupportConfig struct {
	// MaxSupportDistance is how far above the nearest support the price may
	// sit, as a fraction of the support price. Default 0.03.
	MaxSupportDistance float64

	// ResistanceWindow is the overhead band, as a fraction of price, searched
	// for blocking resistance. Default 0.05.
	ResistanceWindow float64

	// MinBlockingStrength is the weakest resistance tier that still blocks.
	// Default medium.
	MinBlockingStrength market.StrengthTier
}

// DefaultSupportConfig returns the standard proximity windows.
func DefaultSupportConfig() SupportConfig {
	return SupportConfig{
		MaxSupportDistance:  0.03,
		ResistanceWindow:    0.05,
		MinBlockingStrength: market.StrengthMedium,
	}
}

func (c SupportConfig) withDefaults() SupportConfig {
	if c.MaxSupportDistance <= 0 {
		c.MaxSupportDistance = 0.03
	}
	if c.ResistanceWindow <= 0 {
		c.ResistanceWindow = 0.05
	}
	if c.MinBlockingStrength == "" {
		c.MinBlockingStrength = market.StrengthMedium
	}
	return c
}

// EvaluateSupport judges where the price sits relative to the derived levels:
// close enough above a support band, with no meaningful resistance in the
// overhead window. The two failure modes carry distinct reasons.
func EvaluateSupport(price float64, supports, resistances []market.Level, cfg SupportConfig) market.GateResult {
	cfg = cfg.withDefaults()

	metrics := map[string]float64{"price": price}

	support := analysis.NearestBelow(supports, price)
	if support == nil {
		return fail(market.GateSupport, "no support level below price", metrics)
	}

	distance := (price - support.Price) / support.Price
	metrics["nearest_support"] = support.Price
	metrics["support_distance"] = distance

	if distance > cfg.MaxSupportDistance {
		return fail(market.GateSupport,
			fmt.Sprintf("price %.1f%% above nearest support %.2f, beyond %.1f%% limit",
				100*distance, support.Price, 100*cfg.MaxSupportDistance),
			metrics)
	}

	// Any sufficiently strong resistance inside the overhead window blocks,
	// not just the nearest one.
	ceiling := price * (1 + cfg.ResistanceWindow)
	for i := range resistances {
		r := &resistances[i]
		if r.Price <= price || r.Price > ceiling {
			continue
		}
		if r.Strength.Rank() >= cfg.MinBlockingStrength.Rank() {
			metrics["blocking_resistance"] = r.Price
			return fail(market.GateSupport,
				fmt.Sprintf("%s resistance at %.2f within %.1f%% overhead",
					r.Strength, r.Price, 100*cfg.ResistanceWindow),
				metrics)
		}
	}

	if r := analysis.NearestAbove(resistances, price); r != nil {
		metrics["nearest_resistance"] = r.Price
	}

	return pass(market.GateSupport,
		fmt.Sprintf("price %.1f%% above %s support %.2f, overhead clear",
			100*distance, support.Strength, support.Price),
		metrics)
}
