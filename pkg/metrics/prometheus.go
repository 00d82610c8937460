package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements the domain Metrics interface using Prometheus.
type Recorder struct {
	sourceCalls   *prometheus.CounterVec
	sourceLatency *prometheus.HistogramVec
	decisions     *prometheus.CounterVec
	trades        *prometheus.CounterVec
	symbolRuns    *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	latency       *prometheus.HistogramVec
}

// New registers the recorder's collectors on reg.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		sourceCalls: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradesuite_source_calls_total",
				Help: "Signal source calls by outcome status",
			},
			[]string{"source", "status"},
		),
		sourceLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tradesuite_source_call_duration_seconds",
				Help:    "Signal source call latency",
				Buckets: []float64{0.005, 0.05, 0.25, 1, 5, 15, 60, 180},
			},
			[]string{"source"},
		),
		decisions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradesuite_decisions_total",
				Help: "Aggregated decisions by direction and origin (live or backtest)",
			},
			[]string{"origin", "direction"},
		),
		trades: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradesuite_backtest_trades_total",
				Help: "Simulated trades by exit reason",
			},
			[]string{"exit_reason"},
		),
		symbolRuns: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradesuite_backtest_symbols_total",
				Help: "Per-symbol walk-forward runs by result",
			},
			[]string{"result"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradesuite_errors_total",
				Help: "Errors by kind",
			},
			[]string{"kind"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tradesuite_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordSourceCall records one signal source call and its latency.
func (r *Recorder) RecordSourceCall(source, status string, latency time.Duration) {
	r.sourceCalls.WithLabelValues(source, status).Inc()
	r.sourceLatency.WithLabelValues(source).Observe(latency.Seconds())
}

// RecordDecision counts an aggregated decision.
func (r *Recorder) RecordDecision(origin, direction string) {
	r.decisions.WithLabelValues(origin, direction).Inc()
}

// RecordTrade counts a closed simulated trade.
func (r *Recorder) RecordTrade(exitReason string) {
	r.trades.WithLabelValues(exitReason).Inc()
}

// RecordSymbolRun counts a finished per-symbol backtest ("ok" or "failed").
func (r *Recorder) RecordSymbolRun(result string) {
	r.symbolRuns.WithLabelValues(result).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency.
func (r *Recorder) RecordLatency(op string, d time.Duration) {
	r.latency.WithLabelValues(op).Observe(d.Seconds())
}
