// Package demo is a small module used by the CLI: a counter, a ticker saga
// driving it and an action relay announcing when the ticker stops.
package demo

import (
	"context"
	"time"

	"github.com/aretw0/relux"
	httpAdapter "github.com/aretw0/relux/pkg/adapters/http"
	"github.com/aretw0/relux/pkg/domain"
	"github.com/aretw0/relux/pkg/relay"
	"github.com/aretw0/relux/pkg/saga"
	"github.com/aretw0/relux/pkg/state"
)

// Counter is the counter snapshot.
type Counter struct {
	Value int `json:"value"`
	Ticks int `json:"ticks"`
}

// Increment adds By to the counter, or 1 when By is zero.
type Increment struct {
	By int `json:"by"`
}

// Reset zeroes the counter.
type Reset struct{}

// StartTicker asks the ticker saga to emit Count ticks, Every apart.
type StartTicker struct {
	Every time.Duration `json:"every"`
	Count int           `json:"count"`
}

// Tick is dispatched by the ticker saga.
type Tick struct {
	N int `json:"n"`
}

// TickerFinished is dispatched once the ticker has emitted every tick.
type TickerFinished struct {
	Ticks int `json:"ticks"`
}

func reduce(c Counter, action domain.Action) Counter {
	switch a := action.(type) {
	case Increment:
		if a.By == 0 {
			a.By = 1
		}
		c.Value += a.By
	case Reset:
		c = Counter{}
	case Tick:
		c.Ticks++
		c.Value++
	}
	return c
}

// Demo holds the demo module's parts.
type Demo struct {
	Counter  *state.Container[Counter]
	Relay    *relay.Relay[Counter]
	Finished *relay.ActionRelay[TickerFinished]
	Ticker   saga.Saga
}

// New builds the demo parts. Nothing runs until the module is registered.
func New() *Demo {
	c := state.New(Counter{}, reduce, state.WithName("demo.counter"))
	return &Demo{
		Counter:  c,
		Relay:    relay.New[Counter](c),
		Finished: relay.NewAction[TickerFinished](),
		Ticker:   saga.On[StartTicker]("demo.ticker", runTicker),
	}
}

// Module returns the demo as a registrable module.
func (d *Demo) Module() relux.Module {
	return relux.Module{
		Name:         "demo",
		States:       []state.State{d.Counter},
		Sagas:        []saga.Saga{d.Ticker},
		Relays:       []relay.Observable{d.Relay},
		ActionRelays: []relay.ActionObserver{d.Finished},
	}
}

// HTTPOptions exposes the demo actions on the HTTP inspector.
func HTTPOptions() []httpAdapter.Option {
	return []httpAdapter.Option{
		httpAdapter.WithDecoder("increment", httpAdapter.Decode[Increment]()),
		httpAdapter.WithDecoder("reset", httpAdapter.Decode[Reset]()),
		httpAdapter.WithDecoder("start-ticker", httpAdapter.Decode[StartTicker]()),
	}
}

func runTicker(ctx context.Context, start StartTicker, dispatch domain.Dispatch) error {
	if start.Every <= 0 {
		start.Every = time.Second
	}
	ticker := time.NewTicker(start.Every)
	defer ticker.Stop()

	for n := 1; n <= start.Count; n++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		if err := dispatch(ctx, Tick{N: n}); err != nil {
			return err
		}
	}
	return dispatch(ctx, TickerFinished{Ticks: start.Count})
}
