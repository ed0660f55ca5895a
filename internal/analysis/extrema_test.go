package analysis

import "testing"

func TestFindExtrema(t *testing.T) {
	values := []float64{1, 2, 3, 2, 1, 2, 3, 4, 3, 2, 1}

	peaks, troughs := FindExtrema(values, 2)

	if len(peaks) != 2 {
		t.Fatalf("expected 2 peaks, got %d: %v", len(peaks), peaks)
	}
	if peaks[0].Index != 2 || peaks[0].Price != 3 {
		t.Errorf("first peak = %+v, want index 2 price 3", peaks[0])
	}
	if peaks[1].Index != 7 || peaks[1].Price != 4 {
		t.Errorf("second peak = %+v, want index 7 price 4", peaks[1])
	}

	if len(troughs) != 1 {
		t.Fatalf("expected 1 trough, got %d: %v", len(troughs), troughs)
	}
	if troughs[0].Index != 4 || troughs[0].Price != 1 {
		t.Errorf("trough = %+v, want index 4 price 1", troughs[0])
	}
}

func TestFindExtremaTieResolvesToEarlierIndex(t *testing.T) {
	// Two equal highs at indices 2 and 3; only the earlier one counts.
	values := []float64{1, 2, 3, 3, 2, 1}

	peaks, _ := FindExtrema(values, 1)

	if len(peaks) != 1 {
		t.Fatalf("expected 1 peak, got %d: %v", len(peaks), peaks)
	}
	if peaks[0].Index != 2 {
		t.Errorf("peak index = %d, want the earlier index 2", peaks[0].Index)
	}
}

func TestFindExtremaShortSeries(t *testing.T) {
	peaks, troughs := FindExtrema([]float64{1, 2, 1}, 5)
	if peaks != nil || troughs != nil {
		t.Errorf("series shorter than window should yield nothing, got %v / %v", peaks, troughs)
	}
}

func TestFindProminentPeaks(t *testing.T) {
	// Peaks at index 1 (height 5, prominence 4), index 3 (height 6,
	// prominence 6) and index 5 (height 2, prominence 2).
	values := []float64{0, 5, 1, 6, 0, 2, 0}

	peaks := FindProminentPeaks(values, 3, 1)
	if len(peaks) != 2 {
		t.Fatalf("expected 2 peaks above prominence 3, got %d: %v", len(peaks), peaks)
	}
	if peaks[0].Index != 1 || peaks[1].Index != 3 {
		t.Errorf("peak indices = %d, %d, want 1 and 3", peaks[0].Index, peaks[1].Index)
	}
}

func TestFindProminentPeaksMinDistance(t *testing.T) {
	values := []float64{0, 5, 1, 6, 0, 2, 0}

	// Indices 1 and 3 are 2 apart; with minDistance 3 the taller peak wins.
	peaks := FindProminentPeaks(values, 3, 3)
	if len(peaks) != 1 {
		t.Fatalf("expected 1 peak after distance pruning, got %d: %v", len(peaks), peaks)
	}
	if peaks[0].Index != 3 {
		t.Errorf("surviving peak index = %d, want the taller peak at 3", peaks[0].Index)
	}
}

func TestFindProminentPeaksPlateau(t *testing.T) {
	// The flat top at indices 2-3 counts once, at its left edge.
	values := []float64{0, 1, 4, 4, 1, 0}

	peaks := FindProminentPeaks(values, 1, 1)
	if len(peaks) != 1 {
		t.Fatalf("expected 1 plateau peak, got %d: %v", len(peaks), peaks)
	}
	if peaks[0].Index != 2 {
		t.Errorf("plateau peak index = %d, want 2", peaks[0].Index)
	}
}

func TestFindProminentTroughs(t *testing.T) {
	values := []float64{10, 5, 9, 4, 10}

	troughs := FindProminentTroughs(values, 5, 1)
	if len(troughs) != 1 {
		t.Fatalf("expected 1 trough above prominence 5, got %d: %v", len(troughs), troughs)
	}
	if troughs[0].Index != 3 || troughs[0].Price != 4 {
		t.Errorf("trough = %+v, want index 3 price 4", troughs[0])
	}
}
