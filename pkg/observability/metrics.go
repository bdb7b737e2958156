package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the relux collectors.
type Metrics struct {
	dispatches       *prometheus.CounterVec
	dispatchDuration prometheus.Histogram
	subscriberErrors *prometheus.CounterVec
	stateErrors      *prometheus.CounterVec
	relayEmissions   *prometheus.CounterVec
	sagaFailures     *prometheus.CounterVec
	connected        *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them with reg.
// Use prometheus.NewRegistry() in tests to keep registrations isolated.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		dispatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relux_dispatch_total",
				Help: "Total number of dispatched actions",
			},
			[]string{"action"},
		),
		dispatchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "relux_dispatch_duration_seconds",
				Help:    "Duration of the synchronous part of a dispatch",
				Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
		),
		subscriberErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relux_subscriber_errors_total",
				Help: "Dispatches a subscriber failed to handle",
			},
			[]string{"subscriber"},
		),
		stateErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relux_state_errors_total",
				Help: "Errors and panics returned by connected states",
			},
			[]string{"state"},
		),
		relayEmissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relux_relay_emissions_total",
				Help: "Snapshots republished by relays",
			},
			[]string{"relay"},
		),
		sagaFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relux_saga_failures_total",
				Help: "Errors and panics contained inside sagas",
			},
			[]string{"saga"},
		),
		connected: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "relux_connected",
				Help: "Currently connected units by kind",
			},
			[]string{"kind"},
		),
	}

	for _, c := range []prometheus.Collector{
		m.dispatches, m.dispatchDuration, m.subscriberErrors, m.stateErrors,
		m.relayEmissions, m.sagaFailures, m.connected,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Kinds reported by the connected gauge.
const (
	KindState       = "state"
	KindSaga        = "saga"
	KindRelay       = "relay"
	KindActionRelay = "action_relay"
)

// ObserveDispatch records one completed fan-out.
func (m *Metrics) ObserveDispatch(action string, d time.Duration) {
	if m == nil {
		return
	}
	m.dispatches.WithLabelValues(action).Inc()
	m.dispatchDuration.Observe(d.Seconds())
}

// SubscriberError records a failed Handle.
func (m *Metrics) SubscriberError(subscriber string) {
	if m == nil {
		return
	}
	m.subscriberErrors.WithLabelValues(subscriber).Inc()
}

// StateError records a state whose Handle failed inside the Store.
func (m *Metrics) StateError(state string) {
	if m == nil {
		return
	}
	m.stateErrors.WithLabelValues(state).Inc()
}

// RelayEmission records a republished snapshot.
func (m *Metrics) RelayEmission(relay string) {
	if m == nil {
		return
	}
	m.relayEmissions.WithLabelValues(relay).Inc()
}

// SagaFailure records an error or panic contained in a saga.
func (m *Metrics) SagaFailure(saga string) {
	if m == nil {
		return
	}
	m.sagaFailures.WithLabelValues(saga).Inc()
}

// Connected adjusts the gauge for kind by delta.
func (m *Metrics) Connected(kind string, delta int) {
	if m == nil {
		return
	}
	m.connected.WithLabelValues(kind).Add(float64(delta))
}
