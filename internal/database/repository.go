package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"equity-signal-bot/internal/market"
)

// Repository provides data access methods
type Repository struct {
	db *DB
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// HealthCheck performs a database health check
func (r *Repository) HealthCheck(ctx context.Context) error {
	return r.db.Pool.Ping(ctx)
}

// ============================================================================
// SIGNALS
// ============================================================================

// Persist inserts a signal record. It implements market.SignalSink.
func (r *Repository) Persist(ctx context.Context, rec *market.SignalRecord) error {
	gates, err := json.Marshal(rec.Gates)
	if err != nil {
		return fmt.Errorf("marshal gate results: %w", err)
	}
	query := `
		INSERT INTO signals (id, ticker, classification, price, rsi, nearest_support, nearest_resistance, point_of_control, gates, evaluated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = r.db.Pool.Exec(
		ctx, query,
		rec.ID, rec.Ticker, rec.Classification, rec.Price, rec.RSI,
		rec.NearestSupport, rec.NearestResistance, rec.PointOfControl, gates, rec.Time,
	)
	return err
}

// GetRecentSignals retrieves the most recent signal records across all tickers
func (r *Repository) GetRecentSignals(ctx context.Context, limit int) ([]*market.SignalRecord, error) {
	query := `
		SELECT id, ticker, classification, price, rsi, nearest_support, nearest_resistance, point_of_control, gates, evaluated_at
		FROM signals
		ORDER BY evaluated_at DESC
		LIMIT $1
	`
	return r.querySignals(ctx, query, limit)
}

// GetSignalsByTicker retrieves recent signal records for a specific ticker
func (r *Repository) GetSignalsByTicker(ctx context.Context, ticker string, limit int) ([]*market.SignalRecord, error) {
	query := `
		SELECT id, ticker, classification, price, rsi, nearest_support, nearest_resistance, point_of_control, gates, evaluated_at
		FROM signals
		WHERE ticker = $1
		ORDER BY evaluated_at DESC
		LIMIT $2
	`
	return r.querySignals(ctx, query, ticker, limit)
}

// GetSignalsByClassification retrieves recent signal records with the given outcome
func (r *Repository) GetSignalsByClassification(ctx context.Context, classification market.Classification, limit int) ([]*market.SignalRecord, error) {
	query := `
		SELECT id, ticker, classification, price, rsi, nearest_support, nearest_resistance, point_of_control, gates, evaluated_at
		FROM signals
		WHERE classification = $1
		ORDER BY evaluated_at DESC
		LIMIT $2
	`
	return r.querySignals(ctx, query, string(classification), limit)
}

// GetLatestPerTicker retrieves the most recent signal record for each ticker
func (r *Repository) GetLatestPerTicker(ctx context.Context) ([]*market.SignalRecord, error) {
	query := `
		SELECT DISTINCT ON (ticker) id, ticker, classification, price, rsi, nearest_support, nearest_resistance, point_of_control, gates, evaluated_at
		FROM signals
		ORDER BY ticker, evaluated_at DESC
	`
	return r.querySignals(ctx, query)
}

// CountSignalsSince returns per-classification signal counts since the given time
func (r *Repository) CountSignalsSince(ctx context.Context, since time.Time) (map[market.Classification]int, error) {
	query := `
		SELECT classification, COUNT(*)
		FROM signals
		WHERE evaluated_at >= $1
		GROUP BY classification
	`
	rows, err := r.db.Pool.Query(ctx, query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[market.Classification]int)
	for rows.Next() {
		var classification market.Classification
		var count int
		if err := rows.Scan(&classification, &count); err != nil {
			return nil, err
		}
		counts[classification] = count
	}
	return counts, rows.Err()
}

// PruneSignals deletes signal records evaluated before the cutoff and returns
// the number removed
func (r *Repository) PruneSignals(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM signals WHERE evaluated_at < $1`, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *Repository) querySignals(ctx context.Context, query string, args ...interface{}) ([]*market.SignalRecord, error) {
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*market.SignalRecord
	for rows.Next() {
		rec := &market.SignalRecord{}
		var gates []byte
		err := rows.Scan(
			&rec.ID, &rec.Ticker, &rec.Classification, &rec.Price, &rec.RSI,
			&rec.NearestSupport, &rec.NearestResistance, &rec.PointOfControl, &gates, &rec.Time,
		)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(gates, &rec.Gates); err != nil {
			return nil, fmt.Errorf("unmarshal gate results: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ============================================================================
// SCAN RUNS
// ============================================================================

// SaveRun inserts a completed scan run summary
func (r *Repository) SaveRun(ctx context.Context, run *ScanRun) error {
	query := `
		INSERT INTO scan_runs (id, started_at, finished_at, macro_passed, macro_reason, evaluated, strong_buys, watches, no_signals, alerts_sent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.Pool.Exec(
		ctx, query,
		run.ID, run.StartedAt, run.FinishedAt, run.MacroPassed, run.MacroReason,
		run.Evaluated, run.StrongBuys, run.Watches, run.NoSignals, run.AlertsSent,
	)
	return err
}

// GetRecentRuns retrieves the most recent scan run summaries
func (r *Repository) GetRecentRuns(ctx context.Context, limit int) ([]*ScanRun, error) {
	query := `
		SELECT id, started_at, finished_at, macro_passed, macro_reason, evaluated, strong_buys, watches, no_signals, alerts_sent, created_at
		FROM scan_runs
		ORDER BY started_at DESC
		LIMIT $1
	`
	rows, err := r.db.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*ScanRun
	for rows.Next() {
		run := &ScanRun{}
		err := rows.Scan(
			&run.ID, &run.StartedAt, &run.FinishedAt, &run.MacroPassed, &run.MacroReason,
			&run.Evaluated, &run.StrongBuys, &run.Watches, &run.NoSignals, &run.AlertsSent,
			&run.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetLastRun retrieves the most recent scan run summary, or nil if none exist
func (r *Repository) GetLastRun(ctx context.Context) (*ScanRun, error) {
	runs, err := r.GetRecentRuns(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return runs[0], nil
}

// PruneRuns deletes scan run summaries started before the cutoff
func (r *Repository) PruneRuns(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM scan_runs WHERE started_at < $1`, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
