package observability_test

import (
	"strings"
	"testing"
	"time"

	"github.com/aretw0/relux/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	m.ObserveDispatch("counter.Increment", time.Millisecond)
	m.ObserveDispatch("counter.Increment", time.Millisecond)
	m.SubscriberError("*store.Store")
	m.StateError("counter")
	m.RelayEmission("counter.Snapshot")
	m.SagaFailure("ticker")
	m.Connected(observability.KindState, 2)
	m.Connected(observability.KindState, -1)

	n, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	expected := `
# HELP relux_dispatch_total Total number of dispatched actions
# TYPE relux_dispatch_total counter
relux_dispatch_total{action="counter.Increment"} 2
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "relux_dispatch_total"))

	expectedGauge := `
# HELP relux_connected Currently connected units by kind
# TYPE relux_connected gauge
relux_connected{kind="state"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expectedGauge), "relux_connected"))
}

func TestMetrics_DuplicateRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	_, err = observability.NewMetrics(reg)
	assert.Error(t, err)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *observability.Metrics
	assert.NotPanics(t, func() {
		m.ObserveDispatch("a", time.Second)
		m.SubscriberError("s")
		m.StateError("s")
		m.RelayEmission("r")
		m.SagaFailure("x")
		m.Connected(observability.KindSaga, 1)
	})
}
