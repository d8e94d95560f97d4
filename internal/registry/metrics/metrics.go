package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	dErrors "landlocked/pkg/domain-errors"
)

// Metrics provides observability for the registry module.
// Tracks operation outcomes, durations and value settled through escrow.
type Metrics struct {
	Operations        *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	TitleDeedsIssued  prometheus.Counter
	EscrowsSettled    prometheus.Counter
	SettledLamports   prometheus.Counter
}

// New creates the registry metrics registered on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Operations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "landlocked_registry_operations_total",
			Help: "Total number of registry operations, by operation and result code",
		}, []string{"operation", "result"}),
		OperationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "landlocked_registry_operation_duration_seconds",
			Help:    "Duration of registry operations including ledger commit",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
		TitleDeedsIssued: f.NewCounter(prometheus.CounterOpts{
			Name: "landlocked_registry_title_deeds_issued_total",
			Help: "Total number of title deeds assigned by registrars",
		}),
		EscrowsSettled: f.NewCounter(prometheus.CounterOpts{
			Name: "landlocked_registry_escrows_settled_total",
			Help: "Total number of escrows authorized and settled",
		}),
		SettledLamports: f.NewCounter(prometheus.CounterOpts{
			Name: "landlocked_registry_settled_lamports_total",
			Help: "Total value paid out to sellers on settlement",
		}),
	}
}

// ObserveOperation records the outcome and duration of an operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveOperation(op string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = string(dErrors.CodeOf(err))
	}
	m.Operations.WithLabelValues(op, result).Inc()
	m.OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementTitleDeedsIssued() {
	m.TitleDeedsIssued.Inc()
}

// ObserveSettlement records a settled escrow paying amount to the seller.
func (m *Metrics) ObserveSettlement(amount uint64) {
	m.EscrowsSettled.Inc()
	m.SettledLamports.Add(float64(amount))
}
