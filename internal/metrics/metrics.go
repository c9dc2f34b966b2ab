package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collectors are package-level and registered on the default registry;
// main exposes them on /metrics.

var (
	// Scanner
	ScannerWindowsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "maxfun",
		Subsystem: "scanner",
		Name:      "windows_total",
		Help:      "Total scan windows processed to completion",
	})

	ScannerWindowRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "maxfun",
		Subsystem: "scanner",
		Name:      "window_retries_total",
		Help:      "Total retries of a scan window after a fetch failure",
	})

	ScannerCursorBlock = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "maxfun",
		Subsystem: "scanner",
		Name:      "cursor_block",
		Help:      "Last fully processed block number",
	})

	ScannerHeadBlock = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "maxfun",
		Subsystem: "scanner",
		Name:      "head_block",
		Help:      "Latest chain head observed by the scanner",
	})

	ScannerWindowDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "maxfun",
		Subsystem: "scanner",
		Name:      "window_duration_seconds",
		Help:      "Scan window processing duration",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})

	// Events
	EventsDecodedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "maxfun",
		Subsystem: "events",
		Name:      "decoded_total",
		Help:      "Total factory events decoded, by event name",
	}, []string{"event"})

	EventsUnknownTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "maxfun",
		Subsystem: "events",
		Name:      "unknown_total",
		Help:      "Total logs with an unrecognized topic signature",
	})

	EventsSkippedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "maxfun",
		Subsystem: "events",
		Name:      "skipped_total",
		Help:      "Total events skipped, by reason",
	}, []string{"reason"})

	EventsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "maxfun",
		Subsystem: "events",
		Name:      "failed_total",
		Help:      "Total events dropped after a processing failure, by event name",
	}, []string{"event"})

	EventsDuplicateTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "maxfun",
		Subsystem: "events",
		Name:      "duplicate_total",
		Help:      "Total replayed events detected via the raw-log primary key",
	})

	// Trades
	TradesProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "maxfun",
		Subsystem: "trade",
		Name:      "processed_total",
		Help:      "Total trades processed, by direction",
	}, []string{"type"})

	// RPC
	RPCCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "maxfun",
		Subsystem: "rpc",
		Name:      "calls_total",
		Help:      "Total chain RPC calls, by method and status",
	}, []string{"method", "status"})

	RPCCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "maxfun",
		Subsystem: "rpc",
		Name:      "call_duration_seconds",
		Help:      "Chain RPC call duration",
		Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"method"})

	RPCRateLimitWaits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "maxfun",
		Subsystem: "rpc",
		Name:      "rate_limit_waits_total",
		Help:      "Total RPC calls delayed by the client-side rate limiter",
	})

	// Reconciliation
	ReconcileRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "maxfun",
		Subsystem: "reconcile",
		Name:      "runs_total",
		Help:      "Total reconciliation sweep runs, by job",
	}, []string{"job"})

	ReconcileErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "maxfun",
		Subsystem: "reconcile",
		Name:      "errors_total",
		Help:      "Total per-row errors during reconciliation sweeps, by job",
	}, []string{"job"})

	ReconcileDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "maxfun",
		Subsystem: "reconcile",
		Name:      "run_duration_seconds",
		Help:      "Reconciliation sweep duration",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"job"})

	// Alerts
	AlertsSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "maxfun",
		Subsystem: "alert",
		Name:      "sent_total",
		Help:      "Total alerts sent, by channel and type",
	}, []string{"channel", "type"})

	AlertsCooldownSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "maxfun",
		Subsystem: "alert",
		Name:      "cooldown_skipped_total",
		Help:      "Total alerts suppressed by the cooldown window",
	}, []string{"channel", "type"})
)
