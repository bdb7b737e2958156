package saga

import (
	"context"

	"github.com/aretw0/relux/pkg/domain"
)

// Saga reacts to dispatched actions with side effects.
// Apply runs on the saga's own goroutine, one action at a time, and may call
// dispatch to feed new actions back into the pipeline. Returned errors and
// panics stay inside the saga: they are logged and counted, never propagated
// to the dispatcher. Retries and backoff are the saga's own business.
//
// Sagas are keyed by instance, so implementations must be comparable
// (pointer receivers in practice).
type Saga interface {
	Name() string
	Apply(ctx context.Context, action domain.Action, dispatch domain.Dispatch) error
}

// ApplyFunc is the function form of Saga.Apply.
type ApplyFunc func(ctx context.Context, action domain.Action, dispatch domain.Dispatch) error

type funcSaga struct {
	name string
	fn   ApplyFunc
}

// Func wraps fn as a Saga. Every call returns a distinct saga instance.
func Func(name string, fn ApplyFunc) Saga {
	return &funcSaga{name: name, fn: fn}
}

func (s *funcSaga) Name() string {
	return s.name
}

func (s *funcSaga) Apply(ctx context.Context, action domain.Action, dispatch domain.Dispatch) error {
	return s.fn(ctx, action, dispatch)
}

// On builds a saga that only reacts to actions of type A.
func On[A any](name string, fn func(ctx context.Context, action A, dispatch domain.Dispatch) error) Saga {
	return Func(name, func(ctx context.Context, action domain.Action, dispatch domain.Dispatch) error {
		a, ok := action.(A)
		if !ok {
			return nil
		}
		return fn(ctx, a, dispatch)
	})
}
