package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"equity-signal-bot/internal/market"

	"github.com/gin-gonic/gin"
)

// limitQuery parses the optional ?limit= parameter, clamped to [1, 500].
func limitQuery(c *gin.Context, fallback int) int {
	limit := fallback
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}
	return limit
}

// handleGetSignals returns evaluated signals, filtered by the optional
// ticker, classification and latest query parameters. Without persistence
// it serves the in-memory results of the most recent scan.
func (s *Server) handleGetSignals(c *gin.Context) {
	ctx := c.Request.Context()
	limit := limitQuery(c, 50)

	ticker := strings.ToUpper(c.Query("ticker"))
	classification := c.Query("classification")
	if classification != "" && !validClassification(classification) {
		errorResponse(c, http.StatusBadRequest, "Unknown classification: use strong_buy, watch or no_signal")
		return
	}

	if s.repo == nil {
		successResponse(c, s.filterCached(ticker, classification))
		return
	}

	var (
		signals []*market.SignalRecord
		err     error
	)
	switch {
	case ticker != "":
		signals, err = s.repo.GetSignalsByTicker(ctx, ticker, limit)
	case classification != "":
		signals, err = s.repo.GetSignalsByClassification(ctx, market.Classification(classification), limit)
	case c.Query("latest") == "true":
		signals, err = s.repo.GetLatestPerTicker(ctx)
	default:
		signals, err = s.repo.GetRecentSignals(ctx, limit)
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to fetch signals")
		errorResponse(c, http.StatusInternalServerError, "Failed to fetch signals")
		return
	}

	successResponse(c, signals)
}

// handleGetTickerSignals returns the evaluation history for one ticker.
func (s *Server) handleGetTickerSignals(c *gin.Context) {
	ctx := c.Request.Context()
	ticker := strings.ToUpper(c.Param("ticker"))
	limit := limitQuery(c, 50)

	if s.repo == nil {
		if rec := s.scanner.Latest(ticker); rec != nil {
			successResponse(c, []*market.SignalRecord{rec})
			return
		}
		errorResponse(c, http.StatusNotFound, "No cached evaluation for "+ticker)
		return
	}

	signals, err := s.repo.GetSignalsByTicker(ctx, ticker, limit)
	if err != nil {
		s.logger.Error().Err(err).Str("ticker", ticker).Msg("failed to fetch ticker signals")
		errorResponse(c, http.StatusInternalServerError, "Failed to fetch signals")
		return
	}
	if len(signals) == 0 {
		errorResponse(c, http.StatusNotFound, "No signals recorded for "+ticker)
		return
	}

	successResponse(c, signals)
}

// handleScannerStatus returns the scanner's current state
func (s *Server) handleScannerStatus(c *gin.Context) {
	successResponse(c, s.scanner.Status())
}

// handleTriggerScan starts a scan cycle outside the regular schedule. The
// scan runs in the background; poll /api/scanner/status for the result.
func (s *Server) handleTriggerScan(c *gin.Context) {
	go func() {
		run := s.scanner.Scan(context.Background())
		s.logger.Info().
			Str("run_id", run.RunID).
			Int("evaluated", run.Evaluated).
			Int("strong_buys", run.StrongBuys).
			Msg("manual scan completed")
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "Scan started, poll /api/scanner/status for the result",
	})
}

// handleResetCooldown clears a ticker's alert cooldown so its next qualifying
// signal alerts immediately.
func (s *Server) handleResetCooldown(c *gin.Context) {
	ticker := strings.ToUpper(c.Param("ticker"))
	s.scanner.Debouncer().Reset(ticker)

	s.logger.Info().Str("ticker", ticker).Msg("alert cooldown reset")
	successResponse(c, gin.H{"ticker": ticker, "cooldown": "cleared"})
}

// handleGetRuns returns recent scan run summaries
func (s *Server) handleGetRuns(c *gin.Context) {
	if s.repo == nil {
		errorResponse(c, http.StatusServiceUnavailable, "Run history requires database persistence")
		return
	}

	runs, err := s.repo.GetRecentRuns(c.Request.Context(), limitQuery(c, 20))
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to fetch runs")
		errorResponse(c, http.StatusInternalServerError, "Failed to fetch runs")
		return
	}

	successResponse(c, runs)
}

// handleGetStats returns an activity digest: per-classification signal counts
// over the last 24 hours and the most recent completed run. Without
// persistence the counts cover only the current in-memory results.
func (s *Server) handleGetStats(c *gin.Context) {
	ctx := c.Request.Context()

	if s.repo == nil {
		counts := make(map[market.Classification]int)
		for _, rec := range s.scanner.LatestAll() {
			counts[rec.Classification]++
		}
		successResponse(c, gin.H{
			"window":   "current",
			"counts":   counts,
			"last_run": s.scanner.LastRun(),
		})
		return
	}

	counts, err := s.repo.CountSignalsSince(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to count signals")
		errorResponse(c, http.StatusInternalServerError, "Failed to compute stats")
		return
	}
	lastRun, err := s.repo.GetLastRun(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to fetch last run")
		errorResponse(c, http.StatusInternalServerError, "Failed to compute stats")
		return
	}

	successResponse(c, gin.H{
		"window":   "24h",
		"counts":   counts,
		"last_run": lastRun,
	})
}

// handleGetWatchlist returns the monitored tickers and their thresholds
func (s *Server) handleGetWatchlist(c *gin.Context) {
	successResponse(c, s.watchlist)
}

func validClassification(raw string) bool {
	switch market.Classification(raw) {
	case market.StrongBuy, market.Watch, market.NoSignal:
		return true
	}
	return false
}

// filterCached narrows the scanner's in-memory results to the requested
// ticker and classification.
func (s *Server) filterCached(ticker, classification string) []*market.SignalRecord {
	all := s.scanner.LatestAll()
	if ticker == "" && classification == "" {
		return all
	}

	filtered := make([]*market.SignalRecord, 0, len(all))
	for _, rec := range all {
		if ticker != "" && rec.Ticker != ticker {
			continue
		}
		if classification != "" && string(rec.Classification) != classification {
			continue
		}
		filtered = append(filtered, rec)
	}
	return filtered
}
