package state

import (
	"context"

	"github.com/aretw0/relux/pkg/domain"
)

// State is anything that reacts to dispatched actions.
// Handle is the direct entry point used by the Store; it must return once the
// action has been applied to the state's private data. Work the state starts
// on its own may outlive the call.
type State interface {
	Handle(ctx context.Context, action domain.Action) error
}

// Producer is the optional snapshot capability of a state.
type Producer[S comparable] interface {
	// Snapshot returns the current snapshot.
	Snapshot() S

	// Observe returns the current snapshot and subscribes fn to every later
	// distinct snapshot, atomically. fn may be called before Observe returns,
	// on any goroutine including the caller's.
	Observe(fn func(S)) (current S, cancel func())
}

// Reducer computes the next snapshot from the current one and an action.
// Returning a value equal to current means the action did not apply.
type Reducer[S comparable] func(current S, action domain.Action) S
