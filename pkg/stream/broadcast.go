package stream

import (
	"context"
	"sync"

	"github.com/aretw0/relux/internal/mailbox"
)

// Broadcast fans values out to any number of subscribers.
// Each subscriber has its own mailbox goroutine, so a slow subscriber never
// blocks Send or other subscribers, and every subscriber sees values in the
// order they were sent.
type Broadcast[T any] struct {
	mu     sync.Mutex
	subs   map[uint64]*mailbox.Mailbox[T]
	next   uint64
	closed bool
}

// NewBroadcast creates a broadcast with no subscribers.
func NewBroadcast[T any]() *Broadcast[T] {
	return &Broadcast[T]{
		subs: make(map[uint64]*mailbox.Mailbox[T]),
	}
}

// Send hands v to every current subscriber.
func (b *Broadcast[T]) Send(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, box := range b.subs {
		box.Push(v)
	}
}

// Subscribe registers fn and returns a function that cancels the subscription.
// fn runs on the subscription's own goroutine. Cancelling drops undelivered values.
func (b *Broadcast[T]) Subscribe(fn func(T)) (cancel func()) {
	_, cancel = b.subscribe(nil, fn)
	return cancel
}

// subscribe registers fn, optionally queueing first as the first delivery.
// The caller may hold its own lock; b.mu is always acquired after it.
func (b *Broadcast[T]) subscribe(first *T, fn func(T)) (*mailbox.Mailbox[T], func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	box := mailbox.New(fn)
	if b.closed {
		box.Close()
		return box, func() {}
	}
	if first != nil {
		box.Push(*first)
	}
	id := b.next
	b.next++
	b.subs[id] = box

	var once sync.Once
	return box, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			box.Close()
		})
	}
}

// Watch returns a channel receiving every value sent after the call.
// The channel is closed when ctx is done or the broadcast is closed.
func (b *Broadcast[T]) Watch(ctx context.Context) <-chan T {
	return watch(ctx, func(fn func(T)) (*mailbox.Mailbox[T], func()) { return b.subscribe(nil, fn) })
}

// Len returns the number of active subscribers.
func (b *Broadcast[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close cancels every subscription. Later subscriptions are no-ops.
func (b *Broadcast[T]) Close() {
	b.mu.Lock()
	subs := b.subs
	b.subs = make(map[uint64]*mailbox.Mailbox[T])
	b.closed = true
	b.mu.Unlock()

	for _, box := range subs {
		box.Close()
	}
}

// watch adapts a callback subscription to a channel bound to ctx.
// The channel is closed only after the subscription goroutine has exited, so a
// pending delivery can never race with the close.
func watch[T any](ctx context.Context, subscribe func(func(T)) (*mailbox.Mailbox[T], func())) <-chan T {
	ch := make(chan T)

	box, cancel := subscribe(func(v T) {
		select {
		case ch <- v:
		case <-ctx.Done():
		}
	})

	go func() {
		select {
		case <-ctx.Done():
		case <-box.Done():
		}
		cancel()
		<-box.Done()
		close(ch)
	}()

	return ch
}
