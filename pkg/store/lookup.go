package store

import (
	"github.com/aretw0/relux/pkg/relay"
	"github.com/aretw0/relux/pkg/typekey"
)

// GetRelay returns the relay publishing snapshots of type S.
// Absence is a normal outcome (for example a feature module that has not been
// registered yet) and is reported as false, never as an error.
func GetRelay[S comparable](s *Store) (*relay.Relay[S], bool) {
	r, ok := s.relays.Lookup(typekey.Of[S]())
	if !ok {
		return nil, false
	}
	typed, ok := r.(*relay.Relay[S])
	return typed, ok
}
