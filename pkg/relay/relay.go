package relay

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aretw0/relux/internal/logging"
	"github.com/aretw0/relux/pkg/observability"
	"github.com/aretw0/relux/pkg/state"
	"github.com/aretw0/relux/pkg/stream"
	"github.com/aretw0/relux/pkg/typekey"
)

// Observable is the type-erased view of a Relay used by the Store registry,
// sinks and the HTTP inspector. It only reads.
type Observable interface {
	// Key is the snapshot type key the relay publishes.
	Key() typekey.Key

	// Value returns the current snapshot.
	Value() any

	// ObserveAny returns the current snapshot and subscribes fn to every later one.
	ObserveAny(fn func(any)) (current any, cancel func())

	// WatchAny streams the current snapshot and then every later one until ctx is done.
	WatchAny(ctx context.Context) <-chan any

	// Close detaches the relay from its producer and ends all subscriptions.
	Close()
}

// Relay republishes the snapshots of one producer to external observers.
// It keeps no reference to the producing state, only the subscription that
// feeds it, so the state's lifetime is never extended by a relay.
type Relay[S comparable] struct {
	key     typekey.Key
	out     *stream.Subject[S]
	cancel  func()
	once    sync.Once
	metrics *observability.Metrics
	logger  *slog.Logger
}

var _ Observable = (*Relay[int])(nil)

// Option configures a Relay.
type Option func(*options)

type options struct {
	metrics *observability.Metrics
	logger  *slog.Logger
}

// WithMetrics records emissions.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithLogger configures a logger for the Relay.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// New binds a relay to producer.
// Current is initialized from the producer in the same step that subscribes
// to it, so there is no window where Current is unset or stale.
func New[S comparable](producer state.Producer[S], opts ...Option) *Relay[S] {
	o := options{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	r := &Relay[S]{
		key:     typekey.Of[S](),
		metrics: o.metrics,
	}
	r.logger = o.logger.With("relay", r.key.String())

	// Deliveries that arrive before out exists, including ones a producer
	// makes synchronously inside Observe, are held and replayed in order.
	var (
		mu      sync.Mutex
		seeded  bool
		pending []S
	)
	current, cancel := producer.Observe(func(s S) {
		mu.Lock()
		if !seeded {
			pending = append(pending, s)
			mu.Unlock()
			return
		}
		mu.Unlock()
		r.receive(s)
	})
	r.out = stream.NewSubject(current)
	r.cancel = cancel

	mu.Lock()
	for _, s := range pending {
		r.receive(s)
	}
	seeded = true
	mu.Unlock()

	return r
}

func (r *Relay[S]) receive(s S) {
	if r.out.Send(s) {
		r.metrics.RelayEmission(r.key.String())
	}
}

// Key implements Observable.
func (r *Relay[S]) Key() typekey.Key {
	return r.key
}

// Current returns the latest snapshot. Safe from any goroutine.
func (r *Relay[S]) Current() S {
	return r.out.Value()
}

// Subscribe registers fn for every later snapshot.
func (r *Relay[S]) Subscribe(fn func(S)) (cancel func()) {
	return r.out.Subscribe(fn)
}

// Observe returns the current snapshot and subscribes fn to every later one.
func (r *Relay[S]) Observe(fn func(S)) (S, func()) {
	return r.out.Observe(fn)
}

// Watch streams the current snapshot followed by every later one.
func (r *Relay[S]) Watch(ctx context.Context) <-chan S {
	return r.out.Watch(ctx)
}

// Version returns how many snapshots the relay has republished.
func (r *Relay[S]) Version() uint64 {
	return r.out.Version()
}

// Value implements Observable.
func (r *Relay[S]) Value() any {
	return r.Current()
}

// ObserveAny implements Observable.
func (r *Relay[S]) ObserveAny(fn func(any)) (any, func()) {
	return r.out.Observe(func(s S) { fn(s) })
}

// WatchAny implements Observable.
func (r *Relay[S]) WatchAny(ctx context.Context) <-chan any {
	in := r.out.Watch(ctx)
	out := make(chan any)
	go func() {
		defer close(out)
		for s := range in {
			select {
			case out <- s:
			case <-ctx.Done():
				for range in {
				}
				return
			}
		}
	}()
	return out
}

// Close implements Observable. Safe to call more than once.
func (r *Relay[S]) Close() {
	r.once.Do(func() {
		r.cancel()
		r.out.Close()
		r.logger.Debug("relay closed")
	})
}
