package relux

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/relux/internal/logging"
	"github.com/aretw0/relux/pkg/dispatch"
	"github.com/aretw0/relux/pkg/domain"
	"github.com/aretw0/relux/pkg/observability"
	"github.com/aretw0/relux/pkg/ports"
	"github.com/aretw0/relux/pkg/relay"
	"github.com/aretw0/relux/pkg/saga"
	"github.com/aretw0/relux/pkg/store"
)

var (
	boundMu sync.Mutex
	bound   *Relux
)

// Relux wires one Store and one saga Root behind one Dispatcher.
// It is a handle: pass it to whatever needs to dispatch or read relays.
type Relux struct {
	store      *store.Store
	root       *saga.Root
	dispatcher *dispatch.Dispatcher

	logger       *slog.Logger
	actionLogger dispatch.ActionLogger
	metrics      *observability.Metrics
	sink         ports.SnapshotSink
	hooks        domain.LifecycleHooks

	closeOnce sync.Once
}

// Option configures a Relux instance.
type Option func(*Relux)

// WithLogger sets the diagnostic logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Relux) {
		r.logger = logger
	}
}

// WithActionLogger sets the logger told about every dispatched action.
// By default actions are logged at debug level on the diagnostic logger.
func WithActionLogger(l dispatch.ActionLogger) Option {
	return func(r *Relux) {
		r.actionLogger = l
	}
}

// WithMetrics enables Prometheus metrics on every component.
func WithMetrics(m *observability.Metrics) Option {
	return func(r *Relux) {
		r.metrics = m
	}
}

// WithSink mirrors relay snapshots to sink.
func WithSink(sink ports.SnapshotSink) Option {
	return func(r *Relux) {
		r.sink = sink
	}
}

// WithLifecycleHooks registers dispatch observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(r *Relux) {
		r.hooks = hooks
	}
}

// New builds an instance and binds it as the process default.
// While a bound instance is live, New returns domain.ErrAlreadyBound.
func New(opts ...Option) (*Relux, error) {
	boundMu.Lock()
	defer boundMu.Unlock()

	if bound != nil {
		return nil, domain.ErrAlreadyBound
	}
	r := NewDetached(opts...)
	bound = r
	return r, nil
}

// NewDetached builds an instance that is never bound as the process default.
// Any number of detached instances may coexist.
func NewDetached(opts ...Option) *Relux {
	r := &Relux{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	if r.actionLogger == nil {
		r.actionLogger = logging.NewActionLogger(r.logger, slog.LevelDebug)
	}

	storeOpts := []store.Option{store.WithLogger(r.logger), store.WithMetrics(r.metrics)}
	if r.sink != nil {
		storeOpts = append(storeOpts, store.WithSink(r.sink))
	}
	r.store = store.New(storeOpts...)

	// Sagas dispatch back through the same dispatcher, which exists by the
	// time any saga runs.
	r.root = saga.NewRoot(r.Dispatch, saga.WithLogger(r.logger), saga.WithMetrics(r.metrics))

	d, err := dispatch.New(r.actionLogger,
		[]dispatch.Subscriber{r.store, r.root},
		dispatch.WithLogger(r.logger),
		dispatch.WithMetrics(r.metrics),
		dispatch.WithLifecycleHooks(r.hooks),
	)
	if err != nil {
		// unreachable: the action logger is always set above
		panic(err)
	}
	r.dispatcher = d
	return r
}

// Default returns the bound instance, if any.
func Default() (*Relux, bool) {
	boundMu.Lock()
	defer boundMu.Unlock()
	return bound, bound != nil
}

// Register connects every module's parts in order: states, sagas, relays,
// then action relays. It stops at the first failure; parts connected before
// it stay connected.
func (r *Relux) Register(modules ...Module) error {
	for _, m := range modules {
		if err := r.register(m); err != nil {
			return fmt.Errorf("register module %s: %w", m.label(), err)
		}
		r.logger.Debug("module registered", "module", m.label())
	}
	return nil
}

func (r *Relux) register(m Module) error {
	for _, st := range m.States {
		if err := r.store.Connect(st); err != nil {
			return err
		}
	}
	for _, sg := range m.Sagas {
		if err := r.root.Connect(sg); err != nil {
			return err
		}
	}
	for _, rl := range m.Relays {
		if err := r.store.ConnectRelay(rl); err != nil {
			return err
		}
	}
	for _, ar := range m.ActionRelays {
		if err := r.store.ConnectActionRelay(ar); err != nil {
			return err
		}
	}
	return nil
}

// Unregister disconnects every module's states and sagas. Relays stay
// connected and keep their last value; use UnregisterRelays to release them.
// Work a saga or state already started is not cancelled.
func (r *Relux) Unregister(modules ...Module) error {
	var errs []error
	for _, m := range modules {
		for _, st := range m.States {
			if err := r.store.Disconnect(st); err != nil {
				errs = append(errs, err)
			}
		}
		for _, sg := range m.Sagas {
			if err := r.root.Disconnect(sg); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// UnregisterRelays disconnects and closes every module's relays and action
// relays. Relays that are not connected are skipped.
func (r *Relux) UnregisterRelays(modules ...Module) {
	for _, m := range modules {
		for _, rl := range m.Relays {
			r.store.DisconnectRelay(rl.Key())
		}
		for _, ar := range m.ActionRelays {
			r.store.DisconnectActionRelay(ar.Key())
		}
	}
}

// Dispatch hands action to the store, then the saga root, and returns once
// both have accepted it. Saga reactions run asynchronously.
func (r *Relux) Dispatch(ctx context.Context, action domain.Action) error {
	return r.dispatcher.Dispatch(ctx, action)
}

// Go dispatches action asynchronously, in call order.
func (r *Relux) Go(ctx context.Context, action domain.Action) error {
	return r.dispatcher.Go(ctx, action)
}

// Relay returns the erased relay registered for key name, as printed by
// typekey.Key.String.
func (r *Relux) Relay(name string) (relay.Observable, bool) {
	return r.store.RelayByName(name)
}

// Relays returns every connected relay ordered by key name.
func (r *Relux) Relays() []relay.Observable {
	return r.store.Relays()
}

// Store exposes the underlying store.
func (r *Relux) Store() *store.Store { return r.store }

// Root exposes the saga root.
func (r *Relux) Root() *saga.Root { return r.root }

// Dispatcher exposes the dispatcher.
func (r *Relux) Dispatcher() *dispatch.Dispatcher { return r.dispatcher }

// Close drains queued async actions, waits for sagas to finish their queued
// work, releases relays and unbinds the instance if it is the default.
func (r *Relux) Close(ctx context.Context) error {
	var err error
	r.closeOnce.Do(func() {
		err = errors.Join(
			r.dispatcher.Close(ctx),
			r.root.Close(ctx),
		)
		r.store.Close()

		boundMu.Lock()
		if bound == r {
			bound = nil
		}
		boundMu.Unlock()
	})
	return err
}

// GetRelay returns the relay publishing snapshots of type S.
// A miss is a normal outcome, e.g. when an optional module is not registered.
func GetRelay[S comparable](r *Relux) (*relay.Relay[S], bool) {
	return store.GetRelay[S](r.store)
}
