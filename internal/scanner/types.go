package scanner

import (
	"time"

	"equity-signal-bot/internal/market"
)

// Config holds scanner configuration
type Config struct {
	Enabled                bool
	ScanInterval           time.Duration
	TickerTimeout          time.Duration
	Watchlist              []string
	WorkerCount            int
	Cooldown               time.Duration
	AlertTiers             []market.Classification
	MaxConsecutiveFailures int
}

func (c Config) withDefaults() Config {
	if c.ScanInterval <= 0 {
		c.ScanInterval = 300 * time.Second
	}
	if c.TickerTimeout <= 0 {
		c.TickerTimeout = 60 * time.Second
	}
	if c.WorkerCount <= 0 {
		c.WorkerCount = 4
	}
	if c.Cooldown <= 0 {
		c.Cooldown = 3600 * time.Second
	}
	if c.MaxConsecutiveFailures <= 0 {
		c.MaxConsecutiveFailures = 5
	}
	return c
}

// RunResult summarizes one completed scan run
type RunResult struct {
	RunID       string                 `json:"run_id"`
	StartTime   time.Time              `json:"start_time"`
	EndTime     time.Time              `json:"end_time"`
	Duration    time.Duration          `json:"duration"`
	MacroPassed bool                   `json:"macro_passed"`
	MacroReason string                 `json:"macro_reason"`
	Evaluated   int                    `json:"evaluated"`
	StrongBuys  int                    `json:"strong_buys"`
	Watches     int                    `json:"watches"`
	NoSignals   int                    `json:"no_signals"`
	AlertsSent  int                    `json:"alerts_sent"`
	SinkErrors  int                    `json:"sink_errors"`
	Records     []*market.SignalRecord `json:"records"`
}

// Status reports the scanner's current state for the API
type Status struct {
	Running             bool            `json:"running"`
	Watchlist           []string        `json:"watchlist"`
	ScanIntervalSec     float64         `json:"scan_interval_sec"`
	ConsecutiveFailures int             `json:"consecutive_failures"`
	LastRun             *RunResult      `json:"last_run,omitempty"`
	Cooldowns           []CooldownEntry `json:"cooldowns"`
}
