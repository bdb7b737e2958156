package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	"github.com/aretw0/relux/internal/logging"
	"github.com/aretw0/relux/pkg/domain"
	"github.com/aretw0/relux/pkg/observability"
	"github.com/aretw0/relux/pkg/ports"
	"github.com/aretw0/relux/pkg/relay"
	"github.com/aretw0/relux/pkg/state"
	"github.com/aretw0/relux/pkg/typekey"
)

// Store owns the connected states and relays.
// States are delivered actions in the order they were connected; relays are
// looked up by the snapshot type they publish.
type Store struct {
	mu     sync.Mutex
	order  []typekey.Key
	states *typekey.Registry[state.State]

	relays       *typekey.Registry[relay.Observable]
	actionRelays *typekey.Registry[relay.ActionObserver]
	actionOrder  []typekey.Key

	sink        ports.SnapshotSink
	sinkCancels map[typekey.Key]func()

	logger  *slog.Logger
	metrics *observability.Metrics
}

// Option configures the Store.
type Option func(*Store)

// WithLogger configures a logger for the Store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithMetrics enables Prometheus metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// WithSink mirrors every connected relay's snapshots to sink.
func WithSink(sink ports.SnapshotSink) Option {
	return func(s *Store) {
		s.sink = sink
	}
}

// New creates an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		states:       typekey.NewRegistry[state.State](),
		relays:       typekey.NewRegistry[relay.Observable](),
		actionRelays: typekey.NewRegistry[relay.ActionObserver](),
		sinkCancels:  make(map[typekey.Key]func()),
		logger:       logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Connect registers st so it receives dispatched actions.
// States are keyed by concrete type: connecting a second state of the same
// type fails with domain.ErrStateConnected, since it would handle every action twice.
func (s *Store) Connect(st state.State) error {
	key := typekey.OfValue(st)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.states.Register(key, st); err != nil {
		if errors.Is(err, domain.ErrDuplicateKey) {
			return fmt.Errorf("%w: %s", domain.ErrStateConnected, key)
		}
		return err
	}
	s.order = append(s.order, key)
	s.metrics.Connected(observability.KindState, 1)
	s.logger.Debug("state connected", "state", key.String())
	return nil
}

// Disconnect stops delivering actions to st.
// A Handle already running for st is not interrupted.
func (s *Store) Disconnect(st state.State) error {
	key := typekey.OfValue(st)

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.states.Lookup(key)
	if !ok || !sameState(current, st) {
		return fmt.Errorf("%w: %s", domain.ErrStateNotConnected, key)
	}
	s.states.Remove(key)
	s.order = removeKey(s.order, key)
	s.metrics.Connected(observability.KindState, -1)
	s.logger.Debug("state disconnected", "state", key.String())
	return nil
}

// ConnectRelay registers r under its snapshot type.
// A relay for the same snapshot type already present makes this fail with
// domain.ErrDuplicateRelay; the first relay stays in place and r is closed.
func (s *Store) ConnectRelay(r relay.Observable) error {
	key := r.Key()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.relays.Register(key, r); err != nil {
		r.Close()
		if errors.Is(err, domain.ErrDuplicateKey) {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateRelay, key)
		}
		return err
	}
	if s.sink != nil {
		s.sinkCancels[key] = s.mirror(key, r)
	}
	s.metrics.Connected(observability.KindRelay, 1)
	s.logger.Debug("relay connected", "relay", key.String())
	return nil
}

// DisconnectRelay removes and closes the relay registered for key.
func (s *Store) DisconnectRelay(key typekey.Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.relays.Remove(key)
	if !ok {
		return false
	}
	if cancel, ok := s.sinkCancels[key]; ok {
		cancel()
		delete(s.sinkCancels, key)
	}
	r.Close()
	s.metrics.Connected(observability.KindRelay, -1)
	s.logger.Debug("relay disconnected", "relay", key.String())
	return true
}

// ConnectActionRelay registers an action relay under its own type key.
// A rejected relay is closed.
func (s *Store) ConnectActionRelay(r relay.ActionObserver) error {
	key := r.Key()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.actionRelays.Register(key, r); err != nil {
		r.Close()
		if errors.Is(err, domain.ErrDuplicateKey) {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateRelay, key)
		}
		return err
	}
	s.actionOrder = append(s.actionOrder, key)
	s.metrics.Connected(observability.KindActionRelay, 1)
	return nil
}

// DisconnectActionRelay removes and closes the action relay registered for key.
func (s *Store) DisconnectActionRelay(key typekey.Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.actionRelays.Remove(key)
	if !ok {
		return false
	}
	s.actionOrder = removeKey(s.actionOrder, key)
	r.Close()
	s.metrics.Connected(observability.KindActionRelay, -1)
	return true
}

// Relay returns the relay registered for key.
func (s *Store) Relay(key typekey.Key) (relay.Observable, bool) {
	return s.relays.Lookup(key)
}

// RelayByName returns the relay whose key prints as name.
func (s *Store) RelayByName(name string) (relay.Observable, bool) {
	return s.relays.LookupName(name)
}

// Relays returns every connected relay ordered by key name.
func (s *Store) Relays() []relay.Observable {
	keys := s.relays.Keys()
	out := make([]relay.Observable, 0, len(keys))
	for _, k := range keys {
		if r, ok := s.relays.Lookup(k); ok {
			out = append(out, r)
		}
	}
	return out
}

// States returns the number of connected states.
func (s *Store) States() int {
	return s.states.Len()
}

// StateNames returns the type names of the connected states in connection order.
func (s *Store) StateNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return keyNames(s.order)
}

// ActionRelayNames returns the type names of the connected action relays.
func (s *Store) ActionRelayNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return keyNames(s.actionOrder)
}

// Handle delivers action to every connected state in connection order, then
// to every action relay. A failing or panicking state does not stop delivery
// to the others; all failures are joined into the returned error.
func (s *Store) Handle(ctx context.Context, action domain.Action) error {
	s.mu.Lock()
	states := make([]state.State, 0, len(s.order))
	for _, k := range s.order {
		if st, ok := s.states.Lookup(k); ok {
			states = append(states, st)
		}
	}
	observers := make([]relay.ActionObserver, 0, len(s.actionOrder))
	for _, k := range s.actionOrder {
		if r, ok := s.actionRelays.Lookup(k); ok {
			observers = append(observers, r)
		}
	}
	s.mu.Unlock()

	var errs []error
	for _, st := range states {
		if err := s.deliver(ctx, st, action); err != nil {
			errs = append(errs, err)
		}
	}
	for _, r := range observers {
		if err := r.Handle(ctx, action); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Store) deliver(ctx context.Context, st state.State, action domain.Action) (err error) {
	name := typekey.OfValue(st).String()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", domain.ErrReducerPanic, name, r)
		}
		if err != nil {
			s.metrics.StateError(name)
			s.logger.WarnContext(ctx, "state failed to handle action",
				"state", name,
				"action", domain.ActionName(action),
				"err", err,
			)
		}
	}()
	return st.Handle(ctx, action)
}

// Close disconnects and closes every relay and action relay.
// Connected states are left in place.
func (s *Store) Close() {
	for _, k := range s.relays.Keys() {
		s.DisconnectRelay(k)
	}
	s.mu.Lock()
	keys := append([]typekey.Key(nil), s.actionOrder...)
	s.mu.Unlock()
	for _, k := range keys {
		s.DisconnectActionRelay(k)
	}
}

// mirror forwards r's snapshots to the sink, starting with the current one.
// Publishing happens on its own goroutine, in emission order.
func (s *Store) mirror(key typekey.Key, r relay.Observable) func() {
	ctx, cancel := context.WithCancel(context.Background())
	updates := r.WatchAny(ctx)
	go func() {
		for v := range updates {
			if err := s.sink.Publish(ctx, key.String(), v); err != nil && ctx.Err() == nil {
				s.logger.Warn("failed to mirror snapshot", "relay", key.String(), "err", err)
			}
		}
	}()
	return cancel
}

// sameState reports whether a and b are the same connected state.
// Pointer-shaped states compare by address. Other states compare with ==
// when their type allows it; a state that cannot be compared is matched by
// its type key alone, which the registry already guarantees.
func sameState(a, b state.State) (same bool) {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.Func, reflect.Slice, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	}
	if !va.Type().Comparable() {
		return true
	}
	// Interface fields can still hold uncomparable values.
	defer func() {
		if recover() != nil {
			same = true
		}
	}()
	return a == b
}

func removeKey(keys []typekey.Key, key typekey.Key) []typekey.Key {
	out := keys[:0]
	for _, k := range keys {
		if k != key {
			out = append(out, k)
		}
	}
	return out
}

func keyNames(keys []typekey.Key) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.String()
	}
	return out
}
