package feeds

import (
	"fmt"

	"equity-signal-bot/internal/market"
)

// Sanity bounds for quote data. Anything outside these is treated as a feed
// glitch rather than a real print.
const (
	MinValidPrice = 0.01
	MaxValidPrice = 100000.0
)

// ValidateSeries runs the structural checks from the market package and then
// bounds-checks every bar. A series that fails here is discarded, never
// analyzed.
func ValidateSeries(s market.PriceSeries) error {
	if err := s.Validate(); err != nil {
		return err
	}
	for i, p := range s {
		for _, v := range []float64{p.Open, p.High, p.Low, p.Close} {
			if v < MinValidPrice || v > MaxValidPrice {
				return fmt.Errorf("%w: bar %d price %.4f outside [%.2f, %.2f]",
					market.ErrMalformedSeries, i, v, MinValidPrice, MaxValidPrice)
			}
		}
		if p.Volume < 0 {
			return fmt.Errorf("%w: bar %d has negative volume %.2f", market.ErrMalformedSeries, i, p.Volume)
		}
	}
	return nil
}
