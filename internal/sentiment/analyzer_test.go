package sentiment

import (
	"math"
	"testing"
)

func TestScorePositiveHeadline(t *testing.T) {
	a := NewAnalyzer()

	score := a.Score("Nvidia surges after record earnings beat")
	if score <= 0.5 {
		t.Errorf("bullish headline score = %f, want above 0.5", score)
	}
}

func TestScoreNegativeHeadline(t *testing.T) {
	a := NewAnalyzer()

	score := a.Score("Tesla plunges amid fraud investigation")
	if score >= -0.5 {
		t.Errorf("bearish headline score = %f, want below -0.5", score)
	}
}

func TestScoreNeutralHeadline(t *testing.T) {
	a := NewAnalyzer()

	if score := a.Score("Company schedules quarterly call for Thursday"); score != 0 {
		t.Errorf("lexicon-free headline score = %f, want 0", score)
	}
	if score := a.Score(""); score != 0 {
		t.Errorf("empty headline score = %f, want 0", score)
	}
}

func TestScoreNegationFlipsPolarity(t *testing.T) {
	a := NewAnalyzer()

	plain := a.Score("Shares rally on results")
	negated := a.Score("Shares did not rally on results")

	if plain <= 0 {
		t.Fatalf("baseline score = %f, want positive", plain)
	}
	if negated >= 0 {
		t.Errorf("negated score = %f, want negative", negated)
	}
}

func TestScoreBoosterStrengthens(t *testing.T) {
	a := NewAnalyzer()

	plain := a.Score("Stock falls after report")
	boosted := a.Score("Stock sharply falls after report")

	if boosted >= plain {
		t.Errorf("boosted negative %f should be below plain %f", boosted, plain)
	}

	dampened := a.Score("Stock slightly falls after report")
	if dampened <= plain {
		t.Errorf("dampened negative %f should be above plain %f", dampened, plain)
	}
}

func TestScoreIsBounded(t *testing.T) {
	a := NewAnalyzer()

	score := a.Score("crash crash crash collapse bankruptcy fraud panic crisis selloff plunges")
	if score < -1 || score > 1 {
		t.Errorf("compound score %f escaped [-1, 1]", score)
	}
	if score > -0.9 {
		t.Errorf("pile of disasters scored %f, want near -1", score)
	}
}

func TestScoreAllAveragesHeadlines(t *testing.T) {
	a := NewAnalyzer()

	headlines := []string{
		"Apple beats expectations",
		"Apple misses on services revenue",
	}

	mean := a.ScoreAll(headlines)
	want := (a.Score(headlines[0]) + a.Score(headlines[1])) / 2
	if math.Abs(mean-want) > 1e-12 {
		t.Errorf("ScoreAll = %f, want mean %f", mean, want)
	}
}

func TestScoreAllEmptyIsNeutral(t *testing.T) {
	a := NewAnalyzer()

	if got := a.ScoreAll(nil); got != 0 {
		t.Errorf("ScoreAll(nil) = %f, want 0", got)
	}
	if got := a.ScoreAll([]string{}); got != 0 {
		t.Errorf("ScoreAll(empty) = %f, want 0", got)
	}
}

func TestAnalyzerOverrides(t *testing.T) {
	a := NewAnalyzerWithOverrides(map[string]float64{
		"moon":  3.0,
		"surge": 0, // removed
	})

	if score := a.Score("Stock to the moon"); score <= 0 {
		t.Errorf("override word score = %f, want positive", score)
	}
	if score := a.Score("Shares surge"); score != 0 {
		t.Errorf("removed word score = %f, want 0", score)
	}
}
