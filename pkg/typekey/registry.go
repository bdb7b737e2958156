package typekey

import (
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/relux/pkg/domain"
)

// Registry stores one value per type key.
// Unlike a plain map, registering an existing key is an error: two values for
// the same type would make lookups pick one arbitrarily.
type Registry[V any] struct {
	mu     sync.RWMutex
	values map[Key]V
	names  map[string]Key
}

// NewRegistry creates a new empty registry.
func NewRegistry[V any]() *Registry[V] {
	return &Registry[V]{
		values: make(map[Key]V),
		names:  make(map[string]Key),
	}
}

// Register stores v under key.
// Returns an error wrapping domain.ErrDuplicateKey if the key is taken; the
// existing value is kept.
func (r *Registry[V]) Register(key Key, v V) error {
	if key.IsZero() {
		return fmt.Errorf("register: zero type key")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.values[key]; exists {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateKey, key)
	}
	r.values[key] = v
	r.names[key.String()] = key
	return nil
}

// Lookup returns the value stored under key.
func (r *Registry[V]) Lookup(key Key) (V, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.values[key]
	return v, ok
}

// LookupName returns the value whose key prints as name.
func (r *Registry[V]) LookupName(name string) (V, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	key, ok := r.names[name]
	if !ok {
		var zero V
		return zero, false
	}
	v, ok := r.values[key]
	return v, ok
}

// Remove deletes key and returns the value it held.
func (r *Registry[V]) Remove(key Key) (V, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.values[key]
	if ok {
		delete(r.values, key)
		delete(r.names, key.String())
	}
	return v, ok
}

// Keys returns the registered keys ordered by name.
func (r *Registry[V]) Keys() []Key {
	r.mu.RLock()
	keys := make([]Key, 0, len(r.values))
	for k := range r.values {
		keys = append(keys, k)
	}
	r.mu.RUnlock()

	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})
	return keys
}

// Len returns the number of registered keys.
func (r *Registry[V]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.values)
}

// Get looks up the value registered for type T.
func Get[T, V any](r *Registry[V]) (V, bool) {
	return r.Lookup(Of[T]())
}
