package demo_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/relux"
	"github.com/aretw0/relux/internal/demo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDemo_TickerDrivesCounter(t *testing.T) {
	r := relux.NewDetached()
	defer r.Close(context.Background())

	d := demo.New()
	require.NoError(t, r.Register(d.Module()))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	finished := d.Finished.Watch(ctx)

	require.NoError(t, r.Dispatch(ctx, demo.Increment{By: 10}))
	require.NoError(t, r.Dispatch(ctx, demo.StartTicker{Every: time.Millisecond, Count: 3}))

	select {
	case f := <-finished:
		assert.Equal(t, 3, f.Ticks)
	case <-ctx.Done():
		t.Fatal("ticker never finished")
	}
	assert.Equal(t, demo.Counter{Value: 13, Ticks: 3}, d.Counter.Snapshot())
	assert.Eventually(t, func() bool {
		return d.Relay.Current() == demo.Counter{Value: 13, Ticks: 3}
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, r.Dispatch(ctx, demo.Reset{}))
	assert.Equal(t, demo.Counter{}, d.Counter.Snapshot())
}

func TestDemo_IncrementDefaultsToOne(t *testing.T) {
	r := relux.NewDetached()
	defer r.Close(context.Background())

	d := demo.New()
	require.NoError(t, r.Register(d.Module()))
	require.NoError(t, r.Dispatch(context.Background(), demo.Increment{}))
	assert.Equal(t, 1, d.Counter.Snapshot().Value)
}

func TestDemo_TwoInstancesAreIndependent(t *testing.T) {
	a, b := relux.NewDetached(), relux.NewDetached()
	defer a.Close(context.Background())
	defer b.Close(context.Background())

	da, db := demo.New(), demo.New()
	require.NoError(t, a.Register(da.Module()))
	require.NoError(t, b.Register(db.Module()))

	require.NoError(t, a.Dispatch(context.Background(), demo.Increment{By: 2}))
	assert.Equal(t, 2, da.Counter.Snapshot().Value)
	assert.Equal(t, 0, db.Counter.Snapshot().Value)
}
