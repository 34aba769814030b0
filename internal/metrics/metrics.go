package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Monitor pass metrics
	PassesCompleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trenchwatch_passes_completed_total",
			Help: "Total number of monitor passes completed",
		},
	)

	PassDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "trenchwatch_pass_duration_seconds",
			Help:    "Duration of a full monitor pass",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		},
	)

	CoinsEvaluated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trenchwatch_coins_evaluated_total",
			Help: "Total number of coin evaluations",
		},
	)

	// Alert metrics
	AlertsFired = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trenchwatch_alerts_fired_total",
			Help: "Total number of alerts fired",
		},
		[]string{"kind"}, // mc, pct, x, reclaim, volume_spike, ...
	)

	AlertsSuppressed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trenchwatch_alerts_suppressed_total",
			Help: "Total number of alerts vetoed by the quality gate",
		},
		[]string{"mode"}, // conservative, aggressive, sniper
	)

	AlertSendFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trenchwatch_alert_send_failures_total",
			Help: "Total number of alert deliveries that failed",
		},
	)

	// Market data metrics
	QuoteFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trenchwatch_quote_fetches_total",
			Help: "Total number of market data fetches",
		},
		[]string{"status"}, // success, error
	)
)

// RecordPass records a completed monitor pass.
func RecordPass(duration time.Duration) {
	PassesCompleted.Inc()
	PassDuration.Observe(duration.Seconds())
}

// RecordQuoteFetch records a market data fetch result.
func RecordQuoteFetch(err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	QuoteFetches.WithLabelValues(status).Inc()
}
