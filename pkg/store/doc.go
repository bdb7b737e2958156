/*
Package store implements the Store: the owner of connected states and relays.

The Store is itself a dispatch subscriber. Each action it receives is handed
to the connected states one after the other, in connection order, and then to
the action relays. Relays are registered under their snapshot type, at most
one per type, and can be fetched by that type alone:

	r, ok := store.GetRelay[counter.Snapshot](s)
	if !ok {
		// counter module not registered yet
	}
*/
package store
