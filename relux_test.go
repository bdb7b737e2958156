package relux_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/relux"
	"github.com/aretw0/relux/internal/testutils"
	"github.com/aretw0/relux/pkg/adapters/memory"
	"github.com/aretw0/relux/pkg/domain"
	"github.com/aretw0/relux/pkg/observability"
	"github.com/aretw0/relux/pkg/relay"
	"github.com/aretw0/relux/pkg/saga"
	"github.com/aretw0/relux/pkg/state"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type count struct{ N int }

type (
	increment struct{}
	reset     struct{}
	announce  struct{ Text string }
)

func reduce(s count, a domain.Action) count {
	switch a.(type) {
	case increment:
		s.N++
	case reset:
		s.N = 0
	}
	return s
}

func TestNew_BindsOneInstance(t *testing.T) {
	r, err := relux.New()
	require.NoError(t, err)

	got, ok := relux.Default()
	require.True(t, ok)
	assert.Same(t, r, got)

	_, err = relux.New()
	assert.ErrorIs(t, err, domain.ErrAlreadyBound)

	testutils.CloseT(t, r)
	_, ok = relux.Default()
	assert.False(t, ok)

	r2, err := relux.New()
	require.NoError(t, err)
	testutils.CloseT(t, r2)
}

func TestNewDetached_NeverBinds(t *testing.T) {
	a := relux.NewDetached()
	b := relux.NewDetached()
	defer testutils.CloseT(t, a)
	defer testutils.CloseT(t, b)

	_, ok := relux.Default()
	assert.False(t, ok)
	assert.NotSame(t, a.Store(), b.Store())
}

func TestRegister_DispatchReachesStatesAndRelays(t *testing.T) {
	r := relux.NewDetached()
	defer testutils.CloseT(t, r)

	c := state.New(count{}, reduce)
	require.NoError(t, r.Register(relux.Module{
		Name:   "counter",
		States: []state.State{c},
		Relays: []relay.Observable{relay.New[count](c)},
	}))

	rl, ok := relux.GetRelay[count](r)
	require.True(t, ok)
	assert.Equal(t, count{}, rl.Current())

	ctx := context.Background()
	require.NoError(t, r.Dispatch(ctx, increment{}))
	require.NoError(t, r.Dispatch(ctx, increment{}))

	assert.Equal(t, count{N: 2}, c.Snapshot())
	assert.Eventually(t, func() bool { return rl.Current() == count{N: 2} }, time.Second, 5*time.Millisecond)

	byName, ok := r.Relay(rl.Key().String())
	require.True(t, ok)
	assert.Len(t, r.Relays(), 1)
	assert.Equal(t, rl.Key(), byName.Key())
}

func TestGetRelay_MissingModule(t *testing.T) {
	r := relux.NewDetached()
	defer testutils.CloseT(t, r)

	_, ok := relux.GetRelay[count](r)
	assert.False(t, ok)
}

func TestRegister_DuplicateRelayFails(t *testing.T) {
	r := relux.NewDetached()
	defer testutils.CloseT(t, r)

	c := state.New(count{}, reduce)
	require.NoError(t, r.Register(relux.Module{Relays: []relay.Observable{relay.New[count](c)}}))

	err := r.Register(relux.Module{Name: "again", Relays: []relay.Observable{relay.New[count](c)}})
	assert.ErrorIs(t, err, domain.ErrDuplicateRelay)
	assert.Contains(t, err.Error(), "again")
}

func TestUnregister_StopsSagaReactions(t *testing.T) {
	r := relux.NewDetached()
	defer testutils.CloseT(t, r)

	rec := &testutils.RecordingSaga{}
	m := relux.Module{Name: "audit", Sagas: []saga.Saga{rec}}
	require.NoError(t, r.Register(m))

	ctx := context.Background()
	require.NoError(t, r.Dispatch(ctx, increment{}))
	require.Eventually(t, func() bool { return rec.Count() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, r.Unregister(m))
	require.NoError(t, r.Dispatch(ctx, increment{}))
	require.NoError(t, r.Dispatch(ctx, increment{}))

	assert.Never(t, func() bool { return rec.Count() > 1 }, 100*time.Millisecond, 10*time.Millisecond)
}

func TestUnregister_KeepsRelays(t *testing.T) {
	r := relux.NewDetached()
	defer testutils.CloseT(t, r)

	c := state.New(count{N: 3}, reduce)
	m := relux.Module{
		States:       []state.State{c},
		Relays:       []relay.Observable{relay.New[count](c)},
		ActionRelays: []relay.ActionObserver{relay.NewAction[announce]()},
	}
	require.NoError(t, r.Register(m))
	require.NoError(t, r.Unregister(m))

	rl, ok := relux.GetRelay[count](r)
	require.True(t, ok)
	assert.Equal(t, count{N: 3}, rl.Current())

	require.NoError(t, r.Dispatch(context.Background(), reset{}))
	assert.Equal(t, count{N: 3}, c.Snapshot(), "disconnected state no longer receives actions")

	r.UnregisterRelays(m)
	_, ok = relux.GetRelay[count](r)
	assert.False(t, ok)

	// Registering again works once everything is released.
	require.NoError(t, r.Register(relux.Module{
		Relays:       []relay.Observable{relay.New[count](c)},
		ActionRelays: []relay.ActionObserver{relay.NewAction[announce]()},
	}))
}

func TestUnregister_ReportsUnknownParts(t *testing.T) {
	r := relux.NewDetached()
	defer testutils.CloseT(t, r)

	err := r.Unregister(relux.Module{
		States: []state.State{state.New(count{}, reduce)},
		Sagas:  []saga.Saga{&testutils.RecordingSaga{}},
	})
	assert.ErrorIs(t, err, domain.ErrStateNotConnected)
	assert.ErrorIs(t, err, domain.ErrSagaNotConnected)
}

func TestSagaDispatchesBack(t *testing.T) {
	r := relux.NewDetached()
	defer testutils.CloseT(t, r)

	c := state.New(count{}, reduce)
	doubler := saga.On[announce]("doubler", func(ctx context.Context, _ announce, dispatch domain.Dispatch) error {
		if err := dispatch(ctx, increment{}); err != nil {
			return err
		}
		return dispatch(ctx, increment{})
	})
	require.NoError(t, r.Register(relux.Module{
		States: []state.State{c},
		Sagas:  []saga.Saga{doubler},
	}))

	require.NoError(t, r.Dispatch(context.Background(), announce{Text: "go"}))
	assert.Eventually(t, func() bool { return c.Snapshot() == count{N: 2} }, time.Second, 5*time.Millisecond)
}

func TestActionRelayReceivesDispatches(t *testing.T) {
	r := relux.NewDetached()
	defer testutils.CloseT(t, r)

	ar := relay.NewAction[announce]()
	require.NoError(t, r.Register(relux.Module{ActionRelays: []relay.ActionObserver{ar}}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	events := ar.Watch(ctx)

	require.NoError(t, r.Dispatch(ctx, increment{}))
	require.NoError(t, r.Dispatch(ctx, announce{Text: "hi"}))
	assert.Equal(t, announce{Text: "hi"}, <-events)
}

func TestSinkMirrorsRegisteredRelays(t *testing.T) {
	sink := memory.NewSink()
	r := relux.NewDetached(relux.WithSink(sink))
	defer testutils.CloseT(t, r)

	c := state.New(count{N: 7}, reduce)
	rl := relay.New[count](c)
	require.NoError(t, r.Register(relux.Module{States: []state.State{c}, Relays: []relay.Observable{rl}}))

	assert.Eventually(t, func() bool {
		raw, err := sink.Load(context.Background(), rl.Key().String())
		return err == nil && string(raw) == `{"N":7}`
	}, time.Second, 5*time.Millisecond)
}

func TestStateFailureDoesNotStopSagas(t *testing.T) {
	r := relux.NewDetached()
	defer testutils.CloseT(t, r)

	boom := errors.New("boom")
	rec := &testutils.RecordingSaga{}
	require.NoError(t, r.Register(relux.Module{
		States: []state.State{failing{err: boom}},
		Sagas:  []saga.Saga{rec},
	}))

	err := r.Dispatch(context.Background(), increment{})
	assert.ErrorIs(t, err, boom)
	assert.Eventually(t, func() bool { return rec.Count() == 1 }, time.Second, 5*time.Millisecond)
}

type failing struct{ err error }

func TestStateFailureCountedOncePerLayer(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	r := relux.NewDetached(relux.WithMetrics(m))
	defer testutils.CloseT(t, r)
	require.NoError(t, r.Register(relux.Module{States: []state.State{failing{err: errors.New("boom")}}}))

	require.Error(t, r.Dispatch(context.Background(), increment{}))

	expected := `
# HELP relux_subscriber_errors_total Dispatches a subscriber failed to handle
# TYPE relux_subscriber_errors_total counter
relux_subscriber_errors_total{subscriber="*store.Store"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "relux_subscriber_errors_total"))

	n, err := testutil.GatherAndCount(reg, "relux_state_errors_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func (f failing) Handle(context.Context, domain.Action) error { return f.err }

func TestGoAndClose(t *testing.T) {
	r := relux.NewDetached()
	c := state.New(count{}, reduce)
	require.NoError(t, r.Register(relux.Module{States: []state.State{c}}))

	for i := 0; i < 5; i++ {
		require.NoError(t, r.Go(context.Background(), increment{}))
	}
	testutils.CloseT(t, r)

	assert.Equal(t, count{N: 5}, c.Snapshot())
	assert.ErrorIs(t, r.Go(context.Background(), increment{}), domain.ErrDispatcherClosed)
}
