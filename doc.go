/*
Package relux is a unidirectional data flow core: actions go in through one
Dispatcher, states reduce them into snapshots, relays republish those
snapshots to observers, and sagas react to actions with asynchronous work
that may dispatch further actions.

# Flow

	Dispatch(action)
	  -> Store  -> each State, in connection order -> snapshot -> Relay -> observers
	  -> Root   -> each Saga mailbox -> Apply(ctx, action, dispatch)

Dispatch returns once the Store and the Root have accepted the action. State
reducers have run by then; saga reactions have only been queued.

# Usage

	counter := state.New(Count{}, reduce)
	r, err := relux.New(relux.WithLogger(logging.New(slog.LevelInfo)))
	if err != nil {
		return err
	}
	defer r.Close(ctx)

	err = r.Register(relux.Module{
		Name:   "counter",
		States: []state.State{counter},
		Relays: []relay.Observable{relay.New[Count](counter)},
	})

	_ = r.Dispatch(ctx, Increment{})
	if rl, ok := relux.GetRelay[Count](r); ok {
		fmt.Println(rl.Current())
	}

New binds the instance as the process default, reachable through Default.
Tests should use NewDetached, which never binds.
*/
package relux
