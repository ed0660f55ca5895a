// Package metrics exposes Prometheus instrumentation for the scanner
// pipeline. One Recorder is created at startup and shared; collectors
// register on the default registry served at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder wraps the pipeline's Prometheus collectors.
type Recorder struct {
	scansTotal   *prometheus.CounterVec
	signalsTotal *prometheus.CounterVec
	alertsTotal  *prometheus.CounterVec
	feedErrors   *prometheus.CounterVec
	scanDuration prometheus.Histogram
	lastPrice    *prometheus.GaugeVec
	lastRSI      *prometheus.GaugeVec
}

// New creates the pipeline metrics recorder.
func New() *Recorder {
	return &Recorder{
		scansTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalbot_scans_total",
				Help: "Total scan runs by outcome",
			},
			[]string{"outcome"},
		),
		signalsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalbot_signals_total",
				Help: "Total evaluated signals by ticker and classification",
			},
			[]string{"ticker", "classification"},
		),
		alertsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalbot_alerts_total",
				Help: "Total alert decisions by status",
			},
			[]string{"status"},
		),
		feedErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalbot_feed_errors_total",
				Help: "Total upstream feed failures by feed",
			},
			[]string{"feed"},
		),
		scanDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "signalbot_scan_duration_seconds",
				Help:    "Duration of full scan runs in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "signalbot_last_price",
				Help: "Last evaluated close price per ticker",
			},
			[]string{"ticker"},
		),
		lastRSI: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "signalbot_last_rsi",
				Help: "Last evaluated RSI per ticker",
			},
			[]string{"ticker"},
		),
	}
}

// Scan outcomes recorded by RecordScan.
const (
	ScanOutcomeOK           = "ok"
	ScanOutcomeMacroBlocked = "macro_blocked"
	ScanOutcomeError        = "error"
)

// Alert statuses recorded by RecordAlert.
const (
	AlertSent       = "sent"
	AlertSuppressed = "suppressed"
	AlertFailed     = "failed"
)

// RecordScan records one completed scan run.
func (r *Recorder) RecordScan(outcome string, seconds float64) {
	r.scansTotal.WithLabelValues(outcome).Inc()
	r.scanDuration.Observe(seconds)
}

// RecordSignal records one evaluated ticker classification.
func (r *Recorder) RecordSignal(ticker, classification string) {
	r.signalsTotal.WithLabelValues(ticker, classification).Inc()
}

// RecordAlert records an alert decision.
func (r *Recorder) RecordAlert(status string) {
	r.alertsTotal.WithLabelValues(status).Inc()
}

// RecordFeedError records an upstream feed failure.
func (r *Recorder) RecordFeedError(feed string) {
	r.feedErrors.WithLabelValues(feed).Inc()
}

// RecordTicker records the last observed technicals for a ticker.
func (r *Recorder) RecordTicker(ticker string, price, rsi float64) {
	r.lastPrice.WithLabelValues(ticker).Set(price)
	r.lastRSI.WithLabelValues(ticker).Set(rsi)
}
