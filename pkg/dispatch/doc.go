/*
Package dispatch implements the Dispatcher, the single entry point for actions.

A Dispatcher is built once with an ordered, immutable list of subscribers
(canonically the Store, then the saga Root) and a required ActionLogger.
Dispatch is a fan-out, not a race: subscriber N+1 is not invoked before
subscriber N's Handle has returned. What a subscriber does asynchronously
after returning is not awaited.
*/
package dispatch
