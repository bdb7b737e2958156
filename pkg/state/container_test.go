package state_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/relux/pkg/domain"
	"github.com/aretw0/relux/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type snapshot struct {
	Value string
	Hits  int
}

type setValue struct{ Value string }
type hit struct{}
type explode struct{}

func reduce(s snapshot, action domain.Action) snapshot {
	switch a := action.(type) {
	case setValue:
		s.Value = a.Value
	case hit:
		s.Hits++
	case explode:
		panic("boom")
	}
	return s
}

type emissions struct {
	mu  sync.Mutex
	got []snapshot
}

func (e *emissions) record(s snapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.got = append(e.got, s)
}

func (e *emissions) snapshot() []snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]snapshot(nil), e.got...)
}

func TestContainer_EmitsOncePerChange(t *testing.T) {
	ctx := context.Background()
	c := state.New(snapshot{Value: "x"}, reduce)
	rec := &emissions{}
	cancel := c.Subscribe(rec.record)
	defer cancel()

	require.NoError(t, c.Handle(ctx, setValue{Value: "y"}))

	assert.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, []snapshot{{Value: "y"}}, rec.snapshot())
	assert.Equal(t, snapshot{Value: "y"}, c.Snapshot())
	assert.Equal(t, uint64(1), c.Version())
}

func TestContainer_DeduplicatesEqualSnapshots(t *testing.T) {
	ctx := context.Background()
	c := state.New(snapshot{Value: "X"}, reduce)
	rec := &emissions{}
	cancel := c.Subscribe(rec.record)
	defer cancel()

	require.NoError(t, c.Handle(ctx, setValue{Value: "X"}))
	assert.Never(t, func() bool { return len(rec.snapshot()) > 0 }, 50*time.Millisecond, 5*time.Millisecond)
	assert.Equal(t, uint64(0), c.Version())

	require.NoError(t, c.Handle(ctx, setValue{Value: "Y"}))
	require.NoError(t, c.Handle(ctx, setValue{Value: "Y"}))
	assert.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, time.Second, time.Millisecond)
	assert.Never(t, func() bool { return len(rec.snapshot()) > 1 }, 50*time.Millisecond, 5*time.Millisecond)
	assert.Equal(t, snapshot{Value: "Y"}, rec.snapshot()[0])
}

func TestContainer_UnknownActionIsNoop(t *testing.T) {
	c := state.New(snapshot{}, reduce)
	require.NoError(t, c.Handle(context.Background(), "unrelated"))
	assert.Equal(t, uint64(0), c.Version())
}

func TestContainer_ReducerPanicIsContained(t *testing.T) {
	c := state.New(snapshot{Value: "keep"}, reduce, state.WithName("exploding"))

	err := c.Handle(context.Background(), explode{})
	assert.ErrorIs(t, err, domain.ErrReducerPanic)
	assert.Contains(t, err.Error(), "exploding")
	assert.Equal(t, snapshot{Value: "keep"}, c.Snapshot())

	// The container is still usable afterwards.
	require.NoError(t, c.Handle(context.Background(), hit{}))
	assert.Equal(t, 1, c.Snapshot().Hits)
}

func TestContainer_SerializesConcurrentMutations(t *testing.T) {
	c := state.New(snapshot{}, reduce)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = c.Handle(ctx, hit{})
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 50; j++ {
			c.Update(func(s snapshot) snapshot {
				s.Hits++
				return s
			})
		}
	}()
	wg.Wait()

	assert.Equal(t, 1050, c.Snapshot().Hits)
	assert.Equal(t, uint64(1050), c.Version())
}

func TestContainer_ObserveReturnsCurrent(t *testing.T) {
	c := state.New(snapshot{Value: "seed"}, reduce)
	rec := &emissions{}
	current, cancel := c.Observe(rec.record)
	defer cancel()

	assert.Equal(t, snapshot{Value: "seed"}, current)
	assert.True(t, c.Update(func(s snapshot) snapshot { s.Value = "next"; return s }))
	assert.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, time.Second, time.Millisecond)
}

func TestContainer_DefaultName(t *testing.T) {
	c := state.New(snapshot{}, reduce)
	assert.Equal(t, "state_test.snapshot", c.Name())
}
