package saga

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/relux/internal/logging"
	"github.com/aretw0/relux/internal/mailbox"
	"github.com/aretw0/relux/pkg/domain"
	"github.com/aretw0/relux/pkg/observability"
	"github.com/google/uuid"
)

type delivery struct {
	ctx    context.Context
	action domain.Action
}

// worker is the isolated execution context of one connected saga.
type worker struct {
	id   string
	saga Saga
	box  *mailbox.Mailbox[delivery]
}

// Root is the orchestrator owning every connected saga.
// Handle only enqueues: each saga drains its own mailbox on its own goroutine,
// so a slow or failing saga never delays states or other sagas.
type Root struct {
	mu       sync.Mutex
	workers  map[Saga]*worker
	order    []Saga
	dispatch domain.Dispatch

	logger  *slog.Logger
	metrics *observability.Metrics
}

// Option configures the Root.
type Option func(*Root)

// WithLogger configures a logger for the Root.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Root) {
		r.logger = logger
	}
}

// WithMetrics enables Prometheus metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(r *Root) {
		r.metrics = m
	}
}

// NewRoot creates an orchestrator whose sagas dispatch through dispatch.
func NewRoot(dispatch domain.Dispatch, opts ...Option) *Root {
	r := &Root{
		workers:  make(map[Saga]*worker),
		dispatch: dispatch,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Connect starts delivering actions to s. Sagas are keyed by instance: the
// same instance twice fails with domain.ErrSagaConnected, while any number of
// sagas of the same kind may coexist.
func (r *Root) Connect(s Saga) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.workers[s]; exists {
		return fmt.Errorf("%w: %s", domain.ErrSagaConnected, s.Name())
	}

	w := &worker{id: uuid.NewString(), saga: s}
	w.box = mailbox.New(func(d delivery) { r.apply(w, d) })
	r.workers[s] = w
	r.order = append(r.order, s)

	r.metrics.Connected(observability.KindSaga, 1)
	r.logger.Debug("saga connected", "saga", s.Name(), "saga_id", w.id)
	return nil
}

// Disconnect stops delivering new actions to s. Actions already handed to
// the saga are still applied and nothing it started is cancelled.
func (r *Root) Disconnect(s Saga) error {
	r.mu.Lock()
	w, exists := r.workers[s]
	if exists {
		delete(r.workers, s)
		r.order = removeSaga(r.order, s)
	}
	r.mu.Unlock()

	if !exists {
		return fmt.Errorf("%w: %s", domain.ErrSagaNotConnected, s.Name())
	}

	w.box.CloseAndDrain()
	r.metrics.Connected(observability.KindSaga, -1)
	r.logger.Debug("saga disconnected", "saga", s.Name(), "saga_id", w.id)
	return nil
}

// Sagas returns the number of connected sagas.
func (r *Root) Sagas() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.workers)
}

// Names returns the names of the connected sagas in connection order.
func (r *Root) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.order))
	for i, s := range r.order {
		out[i] = s.Name()
	}
	return out
}

// Handle forwards action to every connected saga in connection order and
// returns without waiting for any of them. The sagas see a context that
// keeps ctx's values but not its cancellation, since their work outlives the
// dispatch call.
func (r *Root) Handle(ctx context.Context, action domain.Action) error {
	detached := context.WithoutCancel(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.order {
		r.workers[s].box.Push(delivery{ctx: detached, action: action})
	}
	return nil
}

// Close disconnects every saga and waits until each has finished the
// actions it had already received, or until ctx is done.
func (r *Root) Close(ctx context.Context) error {
	r.mu.Lock()
	workers := make([]*worker, 0, len(r.order))
	for _, s := range r.order {
		workers = append(workers, r.workers[s])
	}
	r.workers = make(map[Saga]*worker)
	r.order = nil
	r.mu.Unlock()

	for _, w := range workers {
		w.box.CloseAndDrain()
		r.metrics.Connected(observability.KindSaga, -1)
	}
	for _, w := range workers {
		select {
		case <-w.box.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (r *Root) apply(w *worker, d delivery) {
	name := w.saga.Name()
	defer func() {
		if p := recover(); p != nil {
			r.metrics.SagaFailure(name)
			r.logger.ErrorContext(d.ctx, "saga panicked",
				"saga", name,
				"saga_id", w.id,
				"action", domain.ActionName(d.action),
				"panic", p,
			)
		}
	}()

	if err := w.saga.Apply(d.ctx, d.action, r.dispatch); err != nil {
		r.metrics.SagaFailure(name)
		r.logger.WarnContext(d.ctx, "saga failed",
			"saga", name,
			"saga_id", w.id,
			"action", domain.ActionName(d.action),
			"err", err,
		)
	}
}

func removeSaga(sagas []Saga, s Saga) []Saga {
	out := sagas[:0]
	for _, x := range sagas {
		if x != s {
			out = append(out, x)
		}
	}
	return out
}
