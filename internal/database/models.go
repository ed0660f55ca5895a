package database

import (
	"time"
)

// ScanRun represents a completed scan run summary in the database. Per-ticker
// outcomes are stored separately in the signals table; this row captures the
// run-level verdict.
type ScanRun struct {
	ID          string    `json:"id"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	MacroPassed bool      `json:"macro_passed"`
	MacroReason string    `json:"macro_reason"`
	Evaluated   int       `json:"evaluated"`
	StrongBuys  int       `json:"strong_buys"`
	Watches     int       `json:"watches"`
	NoSignals   int       `json:"no_signals"`
	AlertsSent  int       `json:"alerts_sent"`
	CreatedAt   time.Time `json:"created_at"`
}
