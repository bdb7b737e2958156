package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/relux/internal/logging"
	"github.com/aretw0/relux/internal/mailbox"
	"github.com/aretw0/relux/pkg/domain"
	"github.com/aretw0/relux/pkg/observability"
)

// Subscriber receives every dispatched action.
type Subscriber interface {
	Handle(ctx context.Context, action domain.Action) error
}

// ActionLogger is told about every action before it is fanned out.
// It must not block; a panicking logger is recovered and ignored.
type ActionLogger interface {
	LogAction(ctx context.Context, action domain.Action)
}

type queued struct {
	ctx    context.Context
	action domain.Action
}

// Dispatcher is the single entry point for actions.
// Its subscriber list is fixed at construction; every dispatch visits the
// subscribers in that order and each Handle returns before the next starts.
type Dispatcher struct {
	actionLogger ActionLogger
	subscribers  []Subscriber
	names        []string

	hooks   domain.LifecycleHooks
	logger  *slog.Logger
	metrics *observability.Metrics

	mu     sync.Mutex
	queue  *mailbox.Mailbox[queued]
	closed bool
}

// Option configures the Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger for internal diagnostics (async failures).
// It is unrelated to the required ActionLogger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithMetrics enables Prometheus metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(d *Dispatcher) {
		d.hooks = hooks
	}
}

// New creates a dispatcher fanning out to subscribers, in order.
// actionLogger is required; use logging.NopActionLogger to discard.
func New(actionLogger ActionLogger, subscribers []Subscriber, opts ...Option) (*Dispatcher, error) {
	if actionLogger == nil {
		return nil, domain.ErrLoggerRequired
	}

	d := &Dispatcher{
		actionLogger: actionLogger,
		subscribers:  append([]Subscriber(nil), subscribers...),
		logger:       logging.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}

	d.names = make([]string, len(d.subscribers))
	for i, s := range d.subscribers {
		d.names[i] = fmt.Sprintf("%T", s)
	}
	d.queue = mailbox.New(func(q queued) {
		if err := d.Dispatch(q.ctx, q.action); err != nil {
			d.logger.WarnContext(q.ctx, "async dispatch failed",
				"action", domain.ActionName(q.action),
				"err", err,
			)
		}
	})
	return d, nil
}

// Dispatch fans action out to every subscriber and returns once each
// subscriber's Handle has returned. Subscribers may keep working
// asynchronously after that. A failing subscriber does not stop the fan-out;
// all failures are joined into the returned error.
func (d *Dispatcher) Dispatch(ctx context.Context, action domain.Action) error {
	if action == nil {
		return domain.ErrNilAction
	}
	start := time.Now()
	name := domain.ActionName(action)

	d.logAction(ctx, action)

	var errs []error
	for i, s := range d.subscribers {
		if err := s.Handle(ctx, action); err != nil {
			errs = append(errs, err)
			d.metrics.SubscriberError(d.names[i])
			if d.hooks.OnSubscriberError != nil {
				d.hooks.OnSubscriberError(ctx, &domain.SubscriberErrorEvent{
					EventBase:  domain.EventBase{Timestamp: time.Now(), Type: domain.EventSubscriberError},
					Action:     name,
					Subscriber: d.names[i],
					Err:        err,
				})
			}
		}
	}
	err := errors.Join(errs...)

	elapsed := time.Since(start)
	d.metrics.ObserveDispatch(name, elapsed)
	if d.hooks.OnDispatch != nil {
		d.hooks.OnDispatch(ctx, &domain.DispatchEvent{
			EventBase:   domain.EventBase{Timestamp: time.Now(), Type: domain.EventDispatch},
			Action:      name,
			Duration:    elapsed,
			Subscribers: len(d.subscribers),
			Err:         err,
		})
	}
	return err
}

// Go dispatches action asynchronously. Actions passed to Go are dispatched
// one at a time, in the order Go was called. Failures are logged.
func (d *Dispatcher) Go(ctx context.Context, action domain.Action) error {
	if action == nil {
		return domain.ErrNilAction
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return domain.ErrDispatcherClosed
	}
	d.queue.Push(queued{ctx: context.WithoutCancel(ctx), action: action})
	return nil
}

// Close stops accepting asynchronous actions and waits until the queued ones
// have been dispatched, or until ctx is done. Dispatch keeps working.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	d.queue.CloseAndDrain()
	select {
	case <-d.queue.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribers returns the number of subscribers.
func (d *Dispatcher) Subscribers() int {
	return len(d.subscribers)
}

func (d *Dispatcher) logAction(ctx context.Context, action domain.Action) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.WarnContext(ctx, "action logger panicked", "panic", r)
		}
	}()
	d.actionLogger.LogAction(ctx, action)
}
