package sentiment

// defaultLexicon maps lowercase tokens to valences on the usual -4..+4
// polarity scale, tuned for financial headlines. Inflected forms are listed
// explicitly; the scorer does no stemming.
var defaultLexicon = map[string]float64{
	// Strongly positive
	"soar": 3.1, "soars": 3.1, "soared": 3.1, "soaring": 3.1,
	"surge": 2.9, "surges": 2.9, "surged": 2.9, "surging": 2.9,
	"skyrocket": 3.3, "skyrockets": 3.3, "skyrocketed": 3.3,
	"breakout": 2.5, "blowout": 2.6,
	"bullish": 2.6, "rally": 2.5, "rallies": 2.5, "rallied": 2.5,
	"outperform": 2.3, "outperforms": 2.3, "outperformed": 2.3,
	"upgrade": 2.2, "upgrades": 2.2, "upgraded": 2.2,
	"beat": 2.4, "beats": 2.4,
	"record": 1.6, "milestone": 1.8, "breakthrough": 2.4,
	"approval": 2.1, "approved": 2.1, "approves": 2.1,
	"wins": 2.0, "win": 2.0, "won": 2.0,

	// Mildly positive
	"gain": 1.7, "gains": 1.7, "gained": 1.7,
	"rise": 1.5, "rises": 1.5, "rose": 1.5, "rising": 1.5,
	"climb": 1.5, "climbs": 1.5, "climbed": 1.5,
	"jump": 1.9, "jumps": 1.9, "jumped": 1.9,
	"growth": 1.8, "grows": 1.6, "grew": 1.6,
	"profit": 2.1, "profits": 2.1, "profitable": 2.2,
	"strong": 1.9, "stronger": 2.0, "strongest": 2.1,
	"raise": 1.7, "raises": 1.7, "raised": 1.7,
	"expand": 1.6, "expands": 1.6, "expansion": 1.6,
	"partnership": 1.7, "buyback": 1.8, "dividend": 1.4,
	"optimistic": 2.0, "upbeat": 1.9, "positive": 1.8,
	"recovery": 1.7, "rebound": 1.8, "rebounds": 1.8, "rebounded": 1.8,
	"boost": 1.8, "boosts": 1.8, "boosted": 1.8,
	"momentum": 1.3, "innovative": 1.5, "demand": 1.1,

	// Mildly negative
	"fall": -1.5, "falls": -1.5, "fell": -1.5, "falling": -1.5,
	"drop": -1.6, "drops": -1.6, "dropped": -1.6,
	"slide": -1.6, "slides": -1.6, "slid": -1.6,
	"decline": -1.8, "declines": -1.8, "declined": -1.8,
	"dip": -1.2, "dips": -1.2, "dipped": -1.2,
	"weak": -1.6, "weaker": -1.7, "weakness": -1.8,
	"slump": -2.0, "slumps": -2.0, "slumped": -2.0,
	"loss": -2.0, "losses": -2.0, "lose": -1.8, "loses": -1.8, "lost": -1.8,
	"cut": -1.5, "cuts": -1.5, "cutting": -1.5,
	"miss": -1.9, "misses": -1.9, "missed": -1.9,
	"concern": -1.6, "concerns": -1.6, "worried": -1.8, "worries": -1.8,
	"negative": -1.8, "pessimistic": -2.0, "cautious": -1.2,
	"delay": -1.4, "delays": -1.4, "delayed": -1.4,
	"shortfall": -2.0, "disappointing": -2.2, "disappoints": -2.2,
	"headwind": -1.5, "headwinds": -1.5,

	// Strongly negative
	"plunge": -2.9, "plunges": -2.9, "plunged": -2.9, "plunging": -2.9,
	"crash": -3.2, "crashes": -3.2, "crashed": -3.2,
	"collapse": -3.3, "collapses": -3.3, "collapsed": -3.3,
	"tumble": -2.5, "tumbles": -2.5, "tumbled": -2.5,
	"selloff": -2.7, "bearish": -2.6,
	"downgrade": -2.4, "downgrades": -2.4, "downgraded": -2.4,
	"underperform": -2.1, "underperforms": -2.1,
	"lawsuit": -2.3, "sued": -2.4, "sues": -2.2,
	"fraud": -3.4, "scandal": -3.0, "probe": -1.9,
	"investigation": -2.0, "investigates": -2.0, "subpoena": -2.4,
	"recall": -1.9, "recalls": -1.9, "recalled": -1.9,
	"warn": -2.2, "warns": -2.2, "warning": -2.2, "warned": -2.2,
	"layoff": -2.4, "layoffs": -2.4, "fired": -2.1,
	"bankruptcy": -3.6, "bankrupt": -3.5, "default": -2.8, "defaults": -2.8,
	"crisis": -2.9, "panic": -3.0, "fears": -2.1, "fear": -2.1,
	"halt": -2.0, "halts": -2.0, "halted": -2.0,
	"plummet": -3.0, "plummets": -3.0, "plummeted": -3.0,
}

// negators flip the valence of a nearby lexicon hit.
var negators = map[string]bool{
	"not": true, "no": true, "never": true, "neither": true, "nor": true,
	"cannot": true, "can't": true, "won't": true, "isn't": true,
	"doesn't": true, "don't": true, "didn't": true, "wasn't": true,
	"aren't": true, "weren't": true, "couldn't": true, "wouldn't": true,
	"shouldn't": true, "hasn't": true, "haven't": true, "without": true,
}

// boosters amplify or dampen the valence of the word they precede.
var boosters = map[string]float64{
	"very": boosterIncr, "extremely": boosterIncr, "hugely": boosterIncr,
	"massively": boosterIncr, "significantly": boosterIncr,
	"sharply": boosterIncr, "strongly": boosterIncr,
	"substantially": boosterIncr, "considerably": boosterIncr,
	"dramatically": boosterIncr, "deeply": boosterIncr,
	"slightly": boosterDecr, "marginally": boosterDecr,
	"somewhat": boosterDecr, "barely": boosterDecr, "modestly": boosterDecr,
	"mildly": boosterDecr,
}
