package relux

import (
	"github.com/aretw0/relux/pkg/relay"
	"github.com/aretw0/relux/pkg/saga"
	"github.com/aretw0/relux/pkg/state"
)

// Module bundles parts registered and unregistered together.
// It is plain data; Relux holds no reference to it after Register returns.
type Module struct {
	Name         string
	States       []state.State
	Sagas        []saga.Saga
	Relays       []relay.Observable
	ActionRelays []relay.ActionObserver
}

func (m Module) label() string {
	if m.Name == "" {
		return "<unnamed>"
	}
	return m.Name
}
