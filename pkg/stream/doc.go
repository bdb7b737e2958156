/*
Package stream provides the push primitives behind snapshots and relays.

  - Broadcast: plain fan-out, every value is delivered.
  - Subject: a current value plus fan-out of changes only.

Every subscription owns a goroutine fed by an unbounded mailbox. Producers
never wait for consumers, and a consumer never sees values out of order.
Callbacks run on that goroutine, not on the producer's, which is the hand-off
between a state's own mutation context and the observers' context.
*/
package stream
