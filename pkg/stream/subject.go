package stream

import (
	"context"
	"sync"

	"github.com/aretw0/relux/internal/mailbox"
)

// Subject holds a current value and republishes every change to subscribers.
// Consecutive equal values are suppressed, so an emission always means the
// value changed.
type Subject[T comparable] struct {
	mu      sync.Mutex
	value   T
	version uint64
	out     *Broadcast[T]
}

// NewSubject creates a subject seeded with initial. The seed is not emitted.
func NewSubject[T comparable](initial T) *Subject[T] {
	return &Subject[T]{
		value: initial,
		out:   NewBroadcast[T](),
	}
}

// Value returns the current value.
func (s *Subject[T]) Value() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Version returns how many values have been emitted since creation.
func (s *Subject[T]) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Send stores v and emits it unless it equals the current value.
// Reports whether an emission happened.
func (s *Subject[T]) Send(v T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v == s.value {
		return false
	}
	s.value = v
	s.version++
	s.out.Send(v)
	return true
}

// Subscribe registers fn for future emissions.
func (s *Subject[T]) Subscribe(fn func(T)) (cancel func()) {
	return s.out.Subscribe(fn)
}

// Observe atomically returns the current value and subscribes fn to every
// later emission. No emission can fall between the two.
func (s *Subject[T]) Observe(fn func(T)) (current T, cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, cancel = s.out.subscribe(nil, fn)
	return s.value, cancel
}

// Watch returns a channel that first receives the current value and then
// every later emission, until ctx is done or the subject is closed.
func (s *Subject[T]) Watch(ctx context.Context) <-chan T {
	return watch(ctx, func(fn func(T)) (*mailbox.Mailbox[T], func()) {
		s.mu.Lock()
		defer s.mu.Unlock()
		current := s.value
		return s.out.subscribe(&current, fn)
	})
}

// Subscribers returns the number of active subscriptions.
func (s *Subject[T]) Subscribers() int {
	return s.out.Len()
}

// Close cancels every subscription.
func (s *Subject[T]) Close() {
	s.out.Close()
}
