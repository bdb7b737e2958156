/*
Package state defines the state-container contract and a ready-made container.

A State receives dispatched actions through Handle. A state that also
implements Producer exposes a comparable snapshot plus a stream of distinct
snapshots, which is what relays bind to.

Container is the usual building block: embed it in a named type so every
state has its own concrete type (the Store rejects two states of one type).

	type Counter struct {
		*state.Container[CounterSnapshot]
	}

	func NewCounter() *Counter {
		return &Counter{state.New(CounterSnapshot{}, reduceCounter)}
	}
*/
package state
