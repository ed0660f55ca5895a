package feeds

import (
	"math"

	"equity-signal-bot/internal/market"
)

// OptionContract is one row of an option chain, either side.
type OptionContract struct {
	Strike            float64 `json:"strike"`
	LastPrice         float64 `json:"lastPrice"`
	Volume            float64 `json:"volume"`
	OpenInterest      float64 `json:"openInterest"`
	ImpliedVolatility float64 `json:"impliedVolatility"`
}

// FlowConfig tunes the positioning classifier. Scores accumulate per signal
// and the net decides the direction.
type FlowConfig struct {
	UnusualVolumeOIRatio float64 `json:"unusual_volume_oi_ratio"`
	BullishPutCall       float64 `json:"bullish_put_call"`
	BearishPutCall       float64 `json:"bearish_put_call"`
	DominanceRatio       float64 `json:"dominance_ratio"`
	OISkewRatio          float64 `json:"oi_skew_ratio"`
	NetScoreThreshold    float64 `json:"net_score_threshold"`
}

func (c FlowConfig) withDefaults() FlowConfig {
	if c.UnusualVolumeOIRatio <= 0 {
		c.UnusualVolumeOIRatio = 2.0
	}
	if c.BullishPutCall <= 0 {
		c.BullishPutCall = 0.7
	}
	if c.BearishPutCall <= 0 {
		c.BearishPutCall = 1.3
	}
	if c.DominanceRatio <= 0 {
		c.DominanceRatio = 1.5
	}
	if c.OISkewRatio <= 0 {
		c.OISkewRatio = 1.2
	}
	if c.NetScoreThreshold <= 0 {
		c.NetScoreThreshold = 30
	}
	return c
}

// maxPutCallRatio caps the ratio when call volume is zero so downstream JSON
// encoding never sees an infinity.
const maxPutCallRatio = 999.0

// PutCallRatio returns put volume over call volume. A dead chain counts as
// balanced; puts with no calls at all count as maximal put skew.
func PutCallRatio(callVolume, putVolume float64) float64 {
	if callVolume <= 0 {
		if putVolume <= 0 {
			return 1.0
		}
		return maxPutCallRatio
	}
	ratio := putVolume / callVolume
	if ratio > maxPutCallRatio {
		return maxPutCallRatio
	}
	return ratio
}

// ClassifyFlow scores the chain on three signals and returns the winning
// direction with the net score:
//
//   - put/call volume ratio below BullishPutCall scores bullish, above
//     BearishPutCall bearish (30 points)
//   - unusual volume (volume over open interest above UnusualVolumeOIRatio)
//     dominating one side by DominanceRatio scores that side (25 points)
//   - open interest skewed past OISkewRatio scores the heavier side
//     (25 points)
//
// The direction is bullish or bearish only when the net score clears
// NetScoreThreshold, otherwise none.
func ClassifyFlow(calls, puts []OptionContract, cfg FlowConfig) (market.FlowDirection, float64) {
	cfg = cfg.withDefaults()

	var bullish, bearish float64

	callVol := totalVolume(calls)
	putVol := totalVolume(puts)
	ratio := PutCallRatio(callVol, putVol)
	if ratio < cfg.BullishPutCall {
		bullish += 30
	} else if ratio > cfg.BearishPutCall {
		bearish += 30
	}

	unusualCalls := unusualVolume(calls, cfg.UnusualVolumeOIRatio)
	unusualPuts := unusualVolume(puts, cfg.UnusualVolumeOIRatio)
	if unusualCalls > 0 && unusualCalls > unusualPuts*cfg.DominanceRatio {
		bullish += 25
	} else if unusualPuts > 0 && unusualPuts > unusualCalls*cfg.DominanceRatio {
		bearish += 25
	}

	callOI := totalOpenInterest(calls)
	putOI := totalOpenInterest(puts)
	if callOI > 0 && callOI > putOI*cfg.OISkewRatio {
		bullish += 25
	} else if putOI > 0 && putOI > callOI*cfg.OISkewRatio {
		bearish += 25
	}

	net := bullish - bearish
	switch {
	case net > cfg.NetScoreThreshold:
		return market.FlowBullish, net
	case net < -cfg.NetScoreThreshold:
		return market.FlowBearish, net
	default:
		return market.FlowNone, net
	}
}

// IVRankFromCloses ranks today's realized volatility against its own history:
// rolling stddev of log returns over window bars, annualized, then placed on
// a 0-100 scale between the historical min and max. Degenerate inputs (short
// history, flat vol) rank neutral at 50.
func IVRankFromCloses(closes []float64, window int) float64 {
	const neutral = 50.0
	if window <= 1 || len(closes) < window+2 {
		return neutral
	}

	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] <= 0 || closes[i] <= 0 {
			return neutral
		}
		returns = append(returns, math.Log(closes[i]/closes[i-1]))
	}

	vols := make([]float64, 0, len(returns)-window+1)
	for i := window; i <= len(returns); i++ {
		vols = append(vols, sampleStdDev(returns[i-window:i])*math.Sqrt(252))
	}
	if len(vols) < 2 {
		return neutral
	}

	current := vols[len(vols)-1]
	lo, hi := vols[0], vols[0]
	for _, v := range vols {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi-lo < 1e-12 {
		return neutral
	}

	rank := (current - lo) / (hi - lo) * 100
	if rank < 0 {
		return 0
	}
	if rank > 100 {
		return 100
	}
	return rank
}

func totalVolume(contracts []OptionContract) float64 {
	var sum float64
	for _, c := range contracts {
		if c.Volume > 0 {
			sum += c.Volume
		}
	}
	return sum
}

func totalOpenInterest(contracts []OptionContract) float64 {
	var sum float64
	for _, c := range contracts {
		if c.OpenInterest > 0 {
			sum += c.OpenInterest
		}
	}
	return sum
}

// unusualVolume sums volume across contracts trading above the volume to
// open-interest ratio cutoff.
func unusualVolume(contracts []OptionContract, ratio float64) float64 {
	var sum float64
	for _, c := range contracts {
		if c.OpenInterest > 0 && c.Volume/c.OpenInterest > ratio {
			sum += c.Volume
		}
	}
	return sum
}

func sampleStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(values)-1))
}
