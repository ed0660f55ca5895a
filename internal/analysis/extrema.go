package analysis

import "sort"

// Extremum is one candidate support/resistance point: a bar index and the
// price at which the local high or low printed.
type Extremum struct {
	Index int     `json:"index"`
	Price float64 `json:"price"`
}

// FindExtrema scans values for windowed local extrema. A point is a peak when
// it is the highest value inside the symmetric window of half-width order
// centered on it; equal values resolve to the earlier index (the later
// duplicate does not also qualify). Troughs mirror this for lows. Only
// indices with a full window on both sides are considered.
//
// Results are ordered by index.
func FindExtrema(values []float64, order int) (peaks, troughs []Extremum) {
	if order <= 0 || len(values) < 2*order+1 {
		return nil, nil
	}

	for i := order; i < len(values)-order; i++ {
		isPeak := true
		isTrough := true
		for j := i - order; j <= i+order; j++ {
			if j == i {
				continue
			}
			if values[j] > values[i] || (values[j] == values[i] && j < i) {
				isPeak = false
			}
			if values[j] < values[i] || (values[j] == values[i] && j < i) {
				isTrough = false
			}
			if !isPeak && !isTrough {
				break
			}
		}
		if isPeak {
			peaks = append(peaks, Extremum{Index: i, Price: values[i]})
		}
		if isTrough {
			troughs = append(troughs, Extremum{Index: i, Price: values[i]})
		}
	}
	return peaks, troughs
}

// FindProminentPeaks detects peaks whose prominence clears minProminence,
// enforcing a minimum index spacing between surviving peaks. Prominence is
// the height of a peak above the higher of the two valley floors that
// separate it from taller terrain (or the series edge).
//
// When peaks crowd inside minDistance of each other the taller one survives,
// matching the usual peak-finding convention. Results are ordered by index.
func FindProminentPeaks(values []float64, minProminence float64, minDistance int) []Extremum {
	if len(values) < 3 {
		return nil
	}

	var candidates []Extremum
	for i := 1; i < len(values)-1; i++ {
		// Strict rise into the peak; plateaus resolve to their first bar.
		if values[i] > values[i-1] && values[i] >= values[i+1] {
			if values[i] == values[i+1] {
				// Walk the plateau; only count it once, at its left edge,
				// and only if it drops off afterwards.
				j := i + 1
				for j < len(values) && values[j] == values[i] {
					j++
				}
				if j == len(values) || values[j] > values[i] {
					continue
				}
			}
			candidates = append(candidates, Extremum{Index: i, Price: values[i]})
		}
	}

	var prominent []Extremum
	for _, p := range candidates {
		if prominence(values, p.Index) >= minProminence {
			prominent = append(prominent, p)
		}
	}

	if minDistance <= 1 || len(prominent) < 2 {
		return prominent
	}

	// Tallest peaks claim their neighborhood first.
	byHeight := make([]Extremum, len(prominent))
	copy(byHeight, prominent)
	sort.Slice(byHeight, func(a, b int) bool {
		if byHeight[a].Price != byHeight[b].Price {
			return byHeight[a].Price > byHeight[b].Price
		}
		return byHeight[a].Index < byHeight[b].Index
	})

	suppressed := make(map[int]bool)
	for _, p := range byHeight {
		if suppressed[p.Index] {
			continue
		}
		for _, q := range byHeight {
			if q.Index != p.Index && !suppressed[q.Index] && abs(q.Index-p.Index) < minDistance {
				suppressed[q.Index] = true
			}
		}
	}

	out := prominent[:0]
	for _, p := range prominent {
		if !suppressed[p.Index] {
			out = append(out, p)
		}
	}
	return out
}

// FindProminentTroughs mirrors FindProminentPeaks for local minima.
func FindProminentTroughs(values []float64, minProminence float64, minDistance int) []Extremum {
	negated := make([]float64, len(values))
	for i, v := range values {
		negated[i] = -v
	}
	troughs := FindProminentPeaks(negated, minProminence, minDistance)
	for i := range troughs {
		troughs[i].Price = -troughs[i].Price
	}
	return troughs
}

// prominence measures how far the peak at index rises above the deeper
// reference valley on each side, where each side's valley is the minimum
// between the peak and the nearest strictly taller value (or the edge).
func prominence(values []float64, index int) float64 {
	height := values[index]

	leftMin := height
	for i := index - 1; i >= 0; i-- {
		if values[i] > height {
			break
		}
		if values[i] < leftMin {
			leftMin = values[i]
		}
	}

	rightMin := height
	for i := index + 1; i < len(values); i++ {
		if values[i] > height {
			break
		}
		if values[i] < rightMin {
			rightMin = values[i]
		}
	}

	base := leftMin
	if rightMin > base {
		base = rightMin
	}
	return height - base
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
