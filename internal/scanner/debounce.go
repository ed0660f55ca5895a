package scanner

import (
	"sync"
	"time"

	"equity-signal-bot/internal/market"
)

// CooldownEntry tracks the last alert fired for one ticker.
type CooldownEntry struct {
	Ticker        string                `json:"ticker"`
	LastAlertTime time.Time             `json:"last_alert_time"`
	LastCondition market.Classification `json:"last_condition"`
}

// AlertDebouncer suppresses repeat alerts for a ticker inside a cooldown
// window. State is per ticker and lives only for the process lifetime; two
// different tickers never affect each other's cooldown.
type AlertDebouncer struct {
	mu         sync.Mutex
	entries    map[string]CooldownEntry
	cooldown   time.Duration
	alertTiers map[market.Classification]bool
}

// NewAlertDebouncer creates a debouncer that lets alertTiers classifications
// through at most once per cooldown per ticker. With no tiers given, only
// strong_buy alerts.
func NewAlertDebouncer(cooldown time.Duration, alertTiers ...market.Classification) *AlertDebouncer {
	if len(alertTiers) == 0 {
		alertTiers = []market.Classification{market.StrongBuy}
	}
	tiers := make(map[market.Classification]bool, len(alertTiers))
	for _, t := range alertTiers {
		tiers[t] = true
	}
	return &AlertDebouncer{
		entries:    make(map[string]CooldownEntry),
		cooldown:   cooldown,
		alertTiers: tiers,
	}
}

// ShouldAlert decides whether an alert fires for this evaluation. It returns
// true when the classification is alert-worthy and either no alert has fired
// for the ticker yet, the cooldown has fully elapsed, or the classification
// changed since the last alert. On true the ticker's entry is updated in the
// same step. The second return is the remaining cooldown when suppressed.
func (d *AlertDebouncer) ShouldAlert(ticker string, c market.Classification, now time.Time) (bool, time.Duration) {
	if !d.alertTiers[c] {
		return false, 0
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	entry, seen := d.entries[ticker]
	if seen {
		elapsed := now.Sub(entry.LastAlertTime)
		if elapsed < d.cooldown && entry.LastCondition == c {
			return false, d.cooldown - elapsed
		}
	}

	d.entries[ticker] = CooldownEntry{
		Ticker:        ticker,
		LastAlertTime: now,
		LastCondition: c,
	}
	return true, 0
}

// Snapshot returns a copy of the current cooldown table for status reporting.
func (d *AlertDebouncer) Snapshot() []CooldownEntry {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]CooldownEntry, 0, len(d.entries))
	for _, e := range d.entries {
		out = append(out, e)
	}
	return out
}

// Reset clears the cooldown entry for one ticker, forcing the next
// alert-worthy evaluation to fire.
func (d *AlertDebouncer) Reset(ticker string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.entries, ticker)
}
