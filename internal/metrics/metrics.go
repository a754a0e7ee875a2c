// Package metrics exposes Prometheus counters for split creation, validation
// failures, payments and settlement.
package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mmynk/splitsettle/internal/calculator"
)

const namespace = "splitsettle"

// Payment outcomes.
const (
	OutcomeApplied   = "applied"
	OutcomeDuplicate = "duplicate"
	OutcomeStale     = "stale"
	OutcomeRejected  = "rejected"
	OutcomeError     = "error"
)

// Metrics holds the service counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	splitsCreated      *prometheus.CounterVec
	validationFailures *prometheus.CounterVec
	payments           *prometheus.CounterVec
	splitsSettled      prometheus.Counter
}

// New registers the counters with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		splitsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "splits_created_total",
			Help:      "Splits persisted, by allocation method.",
		}, []string{"method"}),
		validationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_failures_total",
			Help:      "Rejected inputs, by validation reason.",
		}, []string{"reason"}),
		payments: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_total",
			Help:      "Payment events processed, by outcome.",
		}, []string{"outcome"}),
		splitsSettled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "splits_settled_total",
			Help:      "Splits that moved from active to settled.",
		}),
	}
}

func (m *Metrics) SplitCreated(method string) {
	if m == nil {
		return
	}
	m.splitsCreated.WithLabelValues(method).Inc()
}

// ValidationFailed counts err if it is a calculator.ValidationError.
func (m *Metrics) ValidationFailed(err error) {
	if m == nil {
		return
	}
	var verr *calculator.ValidationError
	if errors.As(err, &verr) {
		m.validationFailures.WithLabelValues(string(verr.Reason)).Inc()
	}
}

func (m *Metrics) Payment(outcome string) {
	if m == nil {
		return
	}
	m.payments.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SplitSettled() {
	if m == nil {
		return
	}
	m.splitsSettled.Inc()
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
