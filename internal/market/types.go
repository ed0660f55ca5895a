// Package market defines the core data model shared by the analysis layer,
// the filter gates, and the scanner: price history, derived levels, gate
// outcomes, and the signal record handed to sinks.
package market

import "time"

// MinHistoryBars is the minimum number of price points required before any
// technical computation is considered valid.
const MinHistoryBars = 120

// PricePoint is a single OHLCV bar.
type PricePoint struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// PriceSeries is a chronological sequence of bars for one instrument.
// Timestamps must be strictly increasing; see Validate.
type PriceSeries []PricePoint

// Validate checks the series invariants: strictly increasing timestamps and
// sane bar values. It does not enforce a minimum length; callers that need
// history use HasMinHistory.
func (s PriceSeries) Validate() error {
	for i := range s {
		if s[i].Close <= 0 || s[i].High < s[i].Low {
			return ErrMalformedSeries
		}
		if s[i].Volume < 0 {
			return ErrMalformedSeries
		}
		if i > 0 && !s[i].Time.After(s[i-1].Time) {
			return ErrMalformedSeries
		}
	}
	return nil
}

// HasMinHistory reports whether the series is long enough for technical
// computation.
func (s PriceSeries) HasMinHistory() bool {
	return len(s) >= MinHistoryBars
}

// Closes returns the close prices in order.
func (s PriceSeries) Closes() []float64 {
	out := make([]float64, len(s))
	for i := range s {
		out[i] = s[i].Close
	}
	return out
}

// LastClose returns the most recent close, or 0 for an empty series.
func (s PriceSeries) LastClose() float64 {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1].Close
}

// Last returns the most recent bar. Callers must check the series is
// non-empty first.
func (s PriceSeries) Last() PricePoint {
	return s[len(s)-1]
}

// Tail returns the last n bars (the whole series if shorter).
func (s PriceSeries) Tail(n int) PriceSeries {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// LevelKind distinguishes support bands from resistance bands.
type LevelKind string

const (
	LevelSupport    LevelKind = "support"
	LevelResistance LevelKind = "resistance"
)

// StrengthTier grades a level by how many extrema formed it.
type StrengthTier string

const (
	StrengthLow    StrengthTier = "low"
	StrengthMedium StrengthTier = "medium"
	StrengthHigh   StrengthTier = "high"
)

// Rank orders tiers for comparisons (low < medium < high).
func (t StrengthTier) Rank() int {
	switch t {
	case StrengthHigh:
		return 2
	case StrengthMedium:
		return 1
	default:
		return 0
	}
}

// Level is a clustered support or resistance band. Levels are derived and
// recomputed on every evaluation; only the nearest qualifying ones ride along
// on the signal record.
type Level struct {
	Price      float64      `json:"price"`
	TouchCount int          `json:"touch_count"`
	Strength   StrengthTier `json:"strength"`
	Kind       LevelKind    `json:"kind"`
}

// Gate names, in pipeline order. These are the keys persisted with every
// signal record.
const (
	GateMarket  = "market"
	GateChart   = "chart"
	GateNews    = "news"
	GateOptions = "options"
	GateSupport = "support"
)

// GateResult is the outcome of one filter gate for one evaluation. Metrics
// carries the named numeric inputs the gate judged, for reporting.
type GateResult struct {
	Gate    string             `json:"gate"`
	Passed  bool               `json:"passed"`
	Reason  string             `json:"reason"`
	Metrics map[string]float64 `json:"metrics,omitempty"`
}

// Classification is the terminal outcome of the aggregator.
type Classification string

const (
	StrongBuy Classification = "strong_buy"
	Watch     Classification = "watch"
	NoSignal  Classification = "no_signal"
)

// SignalRecord is the immutable result of evaluating one ticker in one run.
type SignalRecord struct {
	ID                string         `json:"id"`
	Ticker            string         `json:"ticker"`
	Time              time.Time      `json:"time"`
	Price             float64        `json:"price"`
	Classification    Classification `json:"classification"`
	Gates             []GateResult   `json:"gates"`
	RSI               float64        `json:"rsi"`
	NearestSupport    float64        `json:"nearest_support,omitempty"`
	NearestResistance float64        `json:"nearest_resistance,omitempty"`
	PointOfControl    float64        `json:"point_of_control,omitempty"`
}

// GateByName returns the result for the named gate, or nil if the evaluation
// never reached it.
func (r *SignalRecord) GateByName(name string) *GateResult {
	for i := range r.Gates {
		if r.Gates[i].Gate == name {
			return &r.Gates[i]
		}
	}
	return nil
}

// FlowDirection is the detected unusual options flow bias.
type FlowDirection string

const (
	FlowBullish FlowDirection = "bullish"
	FlowBearish FlowDirection = "bearish"
	FlowNone    FlowDirection = "none"
)

// OptionsMetrics is the positioning snapshot the options gate judges.
type OptionsMetrics struct {
	IVRank        float64       `json:"iv_rank"` // 0-100
	FlowDirection FlowDirection `json:"flow_direction"`
	PutCallRatio  float64       `json:"put_call_ratio"`
	CallVolume    float64       `json:"call_volume,omitempty"`
	PutVolume     float64       `json:"put_volume,omitempty"`
	CallOI        float64       `json:"call_oi,omitempty"`
	PutOI         float64       `json:"put_oi,omitempty"`
}

// MacroSnapshot is the market-wide regime verdict, computed once per scan run
// and shared read-only by every ticker evaluation in that run.
type MacroSnapshot struct {
	Result     GateResult `json:"result"`
	IndexClose float64    `json:"index_close"`
	IndexMA    float64    `json:"index_ma"`
	RateChange float64    `json:"rate_change"` // fractional day-over-day move
	Time       time.Time  `json:"time"`
}
