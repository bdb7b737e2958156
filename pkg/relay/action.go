package relay

import (
	"context"

	"github.com/aretw0/relux/pkg/domain"
	"github.com/aretw0/relux/pkg/stream"
	"github.com/aretw0/relux/pkg/typekey"
)

// ActionObserver is the type-erased view of an ActionRelay.
type ActionObserver interface {
	Key() typekey.Key
	Handle(ctx context.Context, action domain.Action) error
	Close()
}

// ActionRelay passes dispatched actions of type A through to observers,
// typically a UI that wants to react to events rather than to state.
// Every matching action is delivered; there is no deduplication.
type ActionRelay[A any] struct {
	out *stream.Broadcast[A]
}

var _ ActionObserver = (*ActionRelay[int])(nil)

// NewAction creates an action relay for A.
func NewAction[A any]() *ActionRelay[A] {
	return &ActionRelay[A]{out: stream.NewBroadcast[A]()}
}

// Key returns the relay's own type key.
func (r *ActionRelay[A]) Key() typekey.Key {
	return typekey.OfValue(r)
}

// Handle forwards action if it is an A.
func (r *ActionRelay[A]) Handle(_ context.Context, action domain.Action) error {
	if a, ok := action.(A); ok {
		r.out.Send(a)
	}
	return nil
}

// Subscribe registers fn for every matching action.
func (r *ActionRelay[A]) Subscribe(fn func(A)) (cancel func()) {
	return r.out.Subscribe(fn)
}

// Watch streams every matching action dispatched after the call.
func (r *ActionRelay[A]) Watch(ctx context.Context) <-chan A {
	return r.out.Watch(ctx)
}

// Close ends every subscription.
func (r *ActionRelay[A]) Close() {
	r.out.Close()
}
