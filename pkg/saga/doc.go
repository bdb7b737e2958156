/*
Package saga runs side effects triggered by actions.

A Saga receives every dispatched action on its own goroutine and may dispatch
new actions in response: network calls, timers and sensors live here, never
in states. The Root orchestrator owns the connected sagas and is a dispatch
subscriber: its Handle enqueues and returns at once.

	ticker := saga.On[StartTicking]("ticker", func(ctx context.Context, a StartTicking, dispatch domain.Dispatch) error {
		for i := 0; i < a.Times; i++ {
			time.Sleep(a.Every)
			if err := dispatch(ctx, Increment{}); err != nil {
				return err
			}
		}
		return nil
	})
*/
package saga
