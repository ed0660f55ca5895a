// Package sentiment scores news headlines with a lexicon-based polarity
// model. Each headline gets a compound score in [-1, 1]; the news gate judges
// the mean across the most recent headlines.
package sentiment

import (
	"math"
	"strings"
	"unicode"
)

const (
	// normAlpha is the normalization constant mapping a raw valence sum onto
	// [-1, 1]: compound = sum / sqrt(sum^2 + normAlpha).
	normAlpha = 15.0

	// negationScalar flips and damps a valence hit preceded by a negator.
	negationScalar = -0.74

	// boosterIncr and boosterDecr adjust a hit's magnitude when preceded by
	// an intensifier or a dampener.
	boosterIncr = 0.293
	boosterDecr = -0.293

	// negationWindow is how many preceding tokens are checked for negators
	// and boosters.
	negationWindow = 3
)

// Analyzer scores text against a polarity lexicon. The zero value is not
// usable; construct with NewAnalyzer.
type Analyzer struct {
	lexicon map[string]float64
}

// NewAnalyzer returns an analyzer backed by the built-in finance lexicon.
func NewAnalyzer() *Analyzer {
	return &Analyzer{lexicon: defaultLexicon}
}

// NewAnalyzerWithOverrides layers extra or replacement valences over the
// built-in lexicon. Passing a zero valence removes the word.
func NewAnalyzerWithOverrides(overrides map[string]float64) *Analyzer {
	merged := make(map[string]float64, len(defaultLexicon)+len(overrides))
	for word, valence := range defaultLexicon {
		merged[word] = valence
	}
	for word, valence := range overrides {
		if valence == 0 {
			delete(merged, word)
			continue
		}
		merged[strings.ToLower(word)] = valence
	}
	return &Analyzer{lexicon: merged}
}

// Score computes the compound polarity of one headline in [-1, 1]. Empty or
// lexicon-free text scores 0.
func (a *Analyzer) Score(text string) float64 {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return 0
	}

	sum := 0.0
	for i, token := range tokens {
		valence, ok := a.lexicon[token]
		if !ok {
			continue
		}

		// Boosters scale with distance: the nearer the modifier, the
		// stronger its effect.
		for back := 1; back <= negationWindow && i-back >= 0; back++ {
			prev := tokens[i-back]
			if b, isBooster := boosters[prev]; isBooster {
				effect := b
				switch back {
				case 2:
					effect *= 0.95
				case 3:
					effect *= 0.9
				}
				if valence < 0 {
					effect = -effect
				}
				valence += effect
			}
		}

		for back := 1; back <= negationWindow && i-back >= 0; back++ {
			if negators[tokens[i-back]] {
				valence *= negationScalar
				break
			}
		}

		sum += valence
	}

	if sum == 0 {
		return 0
	}
	return sum / math.Sqrt(sum*sum+normAlpha)
}

// ScoreAll returns the mean compound score across headlines. An empty slice
// scores 0 (neutral); the caller decides what neutral means for its gate.
func (a *Analyzer) ScoreAll(headlines []string) float64 {
	if len(headlines) == 0 {
		return 0
	}
	total := 0.0
	for _, h := range headlines {
		total += a.Score(h)
	}
	return total / float64(len(headlines))
}

// tokenize lowercases and splits on anything that is not a letter, digit, or
// apostrophe, so contractions like "isn't" survive as single tokens.
func tokenize(text string) []string {
	lowered := strings.ToLower(text)
	return strings.FieldsFunc(lowered, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}
