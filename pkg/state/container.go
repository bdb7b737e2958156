package state

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/relux/internal/logging"
	"github.com/aretw0/relux/pkg/domain"
	"github.com/aretw0/relux/pkg/stream"
)

// Container is a State whose data is a single comparable snapshot value.
// Every mutation runs under the container's own mutex: actions sent to one
// container never interleave, while different containers proceed
// independently. A changed snapshot is emitted exactly once; an unchanged one
// is not emitted at all.
type Container[S comparable] struct {
	name    string
	mu      sync.Mutex
	reduce  Reducer[S]
	subject *stream.Subject[S]
	logger  *slog.Logger
}

// Option configures a Container.
type Option func(*options)

type options struct {
	name   string
	logger *slog.Logger
}

// WithName sets the name used in logs.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithLogger configures a logger for the Container.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// New creates a container seeded with initial.
func New[S comparable](initial S, reduce Reducer[S], opts ...Option) *Container[S] {
	o := options{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.name == "" {
		o.name = fmt.Sprintf("%T", initial)
	}

	return &Container[S]{
		name:    o.name,
		reduce:  reduce,
		subject: stream.NewSubject(initial),
		logger:  o.logger.With("state", o.name),
	}
}

// Handle applies the reducer to action.
// A panicking reducer leaves the snapshot untouched and is reported as
// domain.ErrReducerPanic.
func (c *Container[S]) Handle(ctx context.Context, action domain.Action) (err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", domain.ErrReducerPanic, c.name, r)
		}
	}()

	next := c.reduce(c.subject.Value(), action)
	if c.subject.Send(next) {
		c.logger.DebugContext(ctx, "snapshot changed", "action", domain.ActionName(action))
	}
	return nil
}

// Update mutates the snapshot outside of dispatch, for async work the
// container itself started (timers, I/O completions). It is serialized with
// Handle.
func (c *Container[S]) Update(fn func(current S) S) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subject.Send(fn(c.subject.Value()))
}

// Snapshot returns the current snapshot.
func (c *Container[S]) Snapshot() S {
	return c.subject.Value()
}

// Observe implements Producer.
func (c *Container[S]) Observe(fn func(S)) (S, func()) {
	return c.subject.Observe(fn)
}

// Subscribe registers fn for every later distinct snapshot.
func (c *Container[S]) Subscribe(fn func(S)) func() {
	return c.subject.Subscribe(fn)
}

// Version returns the number of snapshots emitted so far.
func (c *Container[S]) Version() uint64 {
	return c.subject.Version()
}

// Name returns the container's diagnostic name.
func (c *Container[S]) Name() string {
	return c.name
}
