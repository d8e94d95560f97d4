package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the ledger-wide Prometheus metrics.
type Metrics struct {
	TransactionsCommitted prometheus.Counter
	TransactionsAborted   *prometheus.CounterVec
	CommitDuration        prometheus.Histogram
	Height                prometheus.Gauge
}

// New creates and registers the ledger metrics on reg. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		TransactionsCommitted: f.NewCounter(prometheus.CounterOpts{
			Name: "landlocked_ledger_transactions_committed_total",
			Help: "Total number of ledger transactions committed",
		}),
		TransactionsAborted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "landlocked_ledger_transactions_aborted_total",
			Help: "Total number of ledger transactions rolled back, by reason",
		}, []string{"reason"}),
		CommitDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "landlocked_ledger_commit_duration_seconds",
			Help:    "Duration of ledger transaction execution including commit",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		Height: f.NewGauge(prometheus.GaugeOpts{
			Name: "landlocked_ledger_height",
			Help: "Number of committed ledger transactions",
		}),
	}
}

// ObserveCommit records a successful commit at height.
// Call with time.Now() captured at the start of the transaction.
func (m *Metrics) ObserveCommit(start time.Time, height uint64) {
	m.TransactionsCommitted.Inc()
	m.CommitDuration.Observe(time.Since(start).Seconds())
	m.Height.Set(float64(height))
}

// IncrementAborted records a rolled back transaction.
func (m *Metrics) IncrementAborted(reason string) {
	m.TransactionsAborted.WithLabelValues(reason).Inc()
}
