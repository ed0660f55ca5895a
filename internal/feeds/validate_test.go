package feeds

import (
	"errors"
	"testing"
	"time"

	"equity-signal-bot/internal/market"
)

func barsFromCloses(closes ...float64) market.PriceSeries {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	series := make(market.PriceSeries, len(closes))
	for i, c := range closes {
		series[i] = market.PricePoint{
			Time:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 1000,
		}
	}
	return series
}

func TestValidateSeriesAcceptsCleanData(t *testing.T) {
	if err := ValidateSeries(barsFromCloses(100, 101, 102)); err != nil {
		t.Fatalf("clean series should validate: %v", err)
	}
}

func TestValidateSeriesRejectsOutOfBoundsPrice(t *testing.T) {
	series := barsFromCloses(100, 101)
	series[1].Close = 0.001

	err := ValidateSeries(series)
	if !errors.Is(err, market.ErrMalformedSeries) {
		t.Errorf("sub-penny price should be malformed, got %v", err)
	}

	series = barsFromCloses(100, 101)
	series[0].High = 250000

	err = ValidateSeries(series)
	if !errors.Is(err, market.ErrMalformedSeries) {
		t.Errorf("absurd price should be malformed, got %v", err)
	}
}

func TestValidateSeriesRejectsNegativeVolume(t *testing.T) {
	series := barsFromCloses(100, 101)
	series[1].Volume = -5

	if err := ValidateSeries(series); !errors.Is(err, market.ErrMalformedSeries) {
		t.Errorf("negative volume should be malformed, got %v", err)
	}
}

func TestValidateSeriesRejectsUnorderedBars(t *testing.T) {
	series := barsFromCloses(100, 101)
	series[1].Time = series[0].Time

	if err := ValidateSeries(series); !errors.Is(err, market.ErrMalformedSeries) {
		t.Errorf("duplicate timestamps should be malformed, got %v", err)
	}
}
